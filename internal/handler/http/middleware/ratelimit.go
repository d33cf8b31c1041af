package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/meridianhr/payroll-backend-go/internal/handler/http/response"
)

type actorRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

func (l *actorRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByActor throttles the approval endpoints per authenticated user.
// Unauthenticated requests pass through; AuthRequired rejects them later.
func RateLimitByActor(r rate.Limit, b int) func(http.Handler) http.Handler {
	l := &actorRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			actorID, ok := ActorID(req)
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			if !l.limiter(actorID).Allow() {
				response.TooManyRequests(w, "Too many approval requests, slow down")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
