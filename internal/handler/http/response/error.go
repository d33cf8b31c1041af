package response

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/notification"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
)

// HandleError maps domain errors to HTTP responses. Precondition errors keep
// their full message so the client sees the specific reason (e.g. which
// level the payroll is actually at).
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]string, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		ValidationError(w, details)
		return
	}

	switch {
	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollNotPending):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrWrongApprovalLevel):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrInvalidApprovalLevel):
		BadRequest(w, "Invalid approval level", nil)
	case errors.Is(err, payroll.ErrRejectReasonRequired):
		BadRequest(w, "Rejection reason is required", nil)
	case errors.Is(err, payroll.ErrConcurrentModification):
		Conflict(w, "Payroll was modified concurrently, refetch and retry")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrApprovalNotAllowed):
		Forbidden(w, err.Error())

	// Department domain errors
	case errors.Is(err, department.ErrDepartmentNotFound):
		NotFound(w, "Department not found")

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
