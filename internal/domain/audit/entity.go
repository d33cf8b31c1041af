package audit

import "time"

type EntityType string

const EntityPayroll EntityType = "PAYROLL"

type AuditAction string

const (
	ActionPayrollApproved AuditAction = "PAYROLL_APPROVED"
	ActionPayrollRejected AuditAction = "PAYROLL_REJECTED"
)

// Entry is one immutable audit record. Details carries denormalized context
// (employee name, department name, net pay, level, next level) so entries
// stay readable for reporting even after the source records change.
type Entry struct {
	ID          string
	Action      AuditAction
	Entity      EntityType
	EntityID    string
	PerformedBy string
	Details     map[string]interface{}
	CreatedAt   time.Time
}
