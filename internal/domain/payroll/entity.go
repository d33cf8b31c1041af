package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum. PENDING_PAYMENT and PAID exist downstream in the payment
// pipeline; the approval chain only ever produces the first three.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Level is one of the four sequential approval gates. The order is fixed:
// department head, HR manager, finance director, super admin.
type Level string

const (
	LevelDepartmentHead  Level = "DEPARTMENT_HEAD"
	LevelHRManager       Level = "HR_MANAGER"
	LevelFinanceDirector Level = "FINANCE_DIRECTOR"
	LevelSuperAdmin      Level = "SUPER_ADMIN"
)

// Levels returns the approval chain in order.
func Levels() []Level {
	return []Level{LevelDepartmentHead, LevelHRManager, LevelFinanceDirector, LevelSuperAdmin}
}

// Next returns the level after l in the chain, or false if l is the last gate.
func (l Level) Next() (Level, bool) {
	switch l {
	case LevelDepartmentHead:
		return LevelHRManager, true
	case LevelHRManager:
		return LevelFinanceDirector, true
	case LevelFinanceDirector:
		return LevelSuperAdmin, true
	default:
		return "", false
	}
}

func (l Level) Valid() bool {
	switch l {
	case LevelDepartmentHead, LevelHRManager, LevelFinanceDirector, LevelSuperAdmin:
		return true
	}
	return false
}

func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", ErrInvalidApprovalLevel
	}
	return l, nil
}

// Action enum for history entries
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// HistoryEntry is one immutable record in the approval history. Entries are
// only ever appended, never edited or reordered.
type HistoryEntry struct {
	ID        string
	PayrollID string
	Level     Level
	Action    Action
	ActorID   string
	Remarks   *string
	CreatedAt time.Time

	// Joined fields
	ActorName *string
}

// Payroll is the workflow subject. Status is authoritative for terminality:
// once APPROVED or REJECTED no further transition is accepted, regardless of
// what CurrentLevel holds.
type Payroll struct {
	ID           string
	EmployeeID   string
	DepartmentID string
	PeriodMonth  int
	PeriodYear   int
	NetPay       decimal.Decimal
	Status       Status
	CurrentLevel *Level
	SubmittedBy  string
	SubmittedAt  time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	History []HistoryEntry

	// Joined fields
	EmployeeName   *string
	DepartmentName *string
}

// IsTerminal reports whether the approval chain has resolved.
func (p *Payroll) IsTerminal() bool {
	return p.Status != StatusPending
}

// AtLevel reports whether the payroll is currently awaiting the given level.
func (p *Payroll) AtLevel(level Level) bool {
	return p.CurrentLevel != nil && *p.CurrentLevel == level
}
