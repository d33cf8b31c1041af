package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============= Request DTOs =============

type ApproveRequest struct {
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ============= Response DTOs =============

type HistoryEntryResponse struct {
	Level     Level     `json:"level"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName *string   `json:"actor_name,omitempty"`
	Remarks   *string   `json:"remarks,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type PayrollResponse struct {
	ID             string                 `json:"id"`
	EmployeeID     string                 `json:"employee_id"`
	EmployeeName   *string                `json:"employee_name,omitempty"`
	DepartmentID   string                 `json:"department_id"`
	DepartmentName *string                `json:"department_name,omitempty"`
	PeriodMonth    int                    `json:"period_month"`
	PeriodYear     int                    `json:"period_year"`
	NetPay         decimal.Decimal        `json:"net_pay"`
	Status         Status                 `json:"status"`
	CurrentLevel   *Level                 `json:"current_level"`
	SubmittedBy    string                 `json:"submitted_by"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	History        []HistoryEntryResponse `json:"history"`
}

// NextApproverResponse carries just enough of the resolved approver for the
// client to render "waiting on X" without another lookup.
type NextApproverResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
}

type TransitionResponse struct {
	Payroll      PayrollResponse       `json:"payroll"`
	NextApprover *NextApproverResponse `json:"next_approver,omitempty"`
}

func ToHistoryEntryResponse(e HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Level:     e.Level,
		Action:    e.Action,
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		Remarks:   e.Remarks,
		Timestamp: e.CreatedAt,
	}
}

func ToPayrollResponse(p Payroll) PayrollResponse {
	history := make([]HistoryEntryResponse, 0, len(p.History))
	for _, e := range p.History {
		history = append(history, ToHistoryEntryResponse(e))
	}

	return PayrollResponse{
		ID:             p.ID,
		EmployeeID:     p.EmployeeID,
		EmployeeName:   p.EmployeeName,
		DepartmentID:   p.DepartmentID,
		DepartmentName: p.DepartmentName,
		PeriodMonth:    p.PeriodMonth,
		PeriodYear:     p.PeriodYear,
		NetPay:         p.NetPay,
		Status:         p.Status,
		CurrentLevel:   p.CurrentLevel,
		SubmittedBy:    p.SubmittedBy,
		SubmittedAt:    p.SubmittedAt,
		History:        history,
	}
}
