package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"

	"github.com/meridianhr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/jwt"
)

type RouterConfig struct {
	Env               string
	RequestsPerSecond float64
	Burst             int
}

func NewRouter(
	jwtService jwt.Service,
	payrollHandler PayrollHandler,
	notificationHandler NotificationHandler,
	auditHandler AuditHandler,
	cfg RouterConfig,
) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-approval"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payrolls", func(r chi.Router) {
				r.Get("/pending", payrollHandler.ListPending)
				r.Post("/", payrollHandler.Submit)
				r.Get("/{id}", payrollHandler.Get)
				r.Get("/{id}/history", payrollHandler.GetHistory)

				// The two transition verbs, throttled per actor.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimitByActor(rate.Limit(cfg.RequestsPerSecond), cfg.Burst))
					r.Post("/{id}/approval/{level}/approve", payrollHandler.Approve)
					r.Post("/{id}/approval/{level}/reject", payrollHandler.Reject)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/mark-read", notificationHandler.MarkAsRead)
				r.Post("/mark-all-read", notificationHandler.MarkAllAsRead)
				r.Get("/stream", notificationHandler.Stream)
			})

			r.Get("/audit", auditHandler.ListByPayroll)
		})
	})

	return r
}
