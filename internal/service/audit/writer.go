package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditdomain "github.com/meridianhr/payroll-backend-go/internal/domain/audit"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
)

// Writer appends one audit entry per approval transition. Entries carry
// denormalized employee/department/amount context so compliance queries
// never need joins and survive later edits to the source records.
type Writer struct {
	repo auditdomain.Repository
}

func NewWriter(repo auditdomain.Repository) *Writer {
	return &Writer{repo: repo}
}

func (w *Writer) RecordTransition(ctx context.Context, p payroll.Payroll, level payroll.Level, action payroll.Action, actor user.User, remarks *string, nextLevel *payroll.Level) error {
	details := map[string]interface{}{
		"level":         string(level),
		"action":        string(action),
		"actor_name":    actor.FullName,
		"actor_role":    string(actor.Role),
		"net_pay":       p.NetPay.String(),
		"period_month":  p.PeriodMonth,
		"period_year":   p.PeriodYear,
		"status":        string(p.Status),
		"employee_id":   p.EmployeeID,
		"department_id": p.DepartmentID,
	}
	if p.EmployeeName != nil {
		details["employee_name"] = *p.EmployeeName
	}
	if p.DepartmentName != nil {
		details["department_name"] = *p.DepartmentName
	}
	if nextLevel != nil {
		details["next_level"] = string(*nextLevel)
	}
	if remarks != nil {
		details["remarks"] = *remarks
	}

	entryAction := auditdomain.ActionPayrollApproved
	if action == payroll.ActionReject {
		entryAction = auditdomain.ActionPayrollRejected
	}

	_, err := w.repo.Append(ctx, auditdomain.Entry{
		ID:          uuid.New().String(),
		Action:      entryAction,
		Entity:      auditdomain.EntityPayroll,
		EntityID:    p.ID,
		PerformedBy: actor.ID,
		Details:     details,
		CreatedAt:   time.Now(),
	})
	return err
}
