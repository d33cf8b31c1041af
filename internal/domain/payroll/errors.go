package payroll

import "errors"

var (
	ErrPayrollNotFound        = errors.New("payroll record not found")
	ErrPayrollNotPending      = errors.New("payroll is not pending approval")
	ErrWrongApprovalLevel     = errors.New("payroll is not at this approval level")
	ErrInvalidApprovalLevel   = errors.New("invalid approval level")
	ErrRejectReasonRequired   = errors.New("rejection reason is required")
	ErrConcurrentModification = errors.New("payroll was modified concurrently, refetch and retry")
)
