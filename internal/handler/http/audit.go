package http

import (
	"net/http"
	"time"

	"github.com/meridianhr/payroll-backend-go/internal/domain/audit"
	"github.com/meridianhr/payroll-backend-go/internal/handler/http/response"
)

type AuditHandler interface {
	ListByPayroll(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	auditRepo audit.Repository
}

func NewAuditHandler(auditRepo audit.Repository) AuditHandler {
	return &auditHandlerImpl{auditRepo: auditRepo}
}

type auditEntryResponse struct {
	ID          string                 `json:"id"`
	Action      audit.AuditAction      `json:"action"`
	EntityID    string                 `json:"entity_id"`
	PerformedBy string                 `json:"performed_by"`
	Details     map[string]interface{} `json:"details"`
	Timestamp   time.Time              `json:"timestamp"`
}

func (h *auditHandlerImpl) ListByPayroll(w http.ResponseWriter, r *http.Request) {
	payrollID := r.URL.Query().Get("payroll_id")
	if payrollID == "" {
		response.BadRequest(w, "payroll_id is required", nil)
		return
	}

	entries, err := h.auditRepo.ListByEntity(r.Context(), audit.EntityPayroll, payrollID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, auditEntryResponse{
			ID:          entry.ID,
			Action:      entry.Action,
			EntityID:    entry.EntityID,
			PerformedBy: entry.PerformedBy,
			Details:     entry.Details,
			Timestamp:   entry.CreatedAt,
		})
	}

	response.Success(w, result)
}
