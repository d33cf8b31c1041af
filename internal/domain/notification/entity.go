package notification

import "time"

// NotificationType represents the type of notification
type NotificationType string

const (
	TypePayrollApprovalRequested NotificationType = "payroll_approval_requested"
	TypePayrollApproved          NotificationType = "payroll_approved"
	TypePayrollFullyApproved     NotificationType = "payroll_fully_approved"
	TypePayrollRejected          NotificationType = "payroll_rejected"
	TypeApprovalActionRecorded   NotificationType = "approval_action_recorded"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypePayrollApprovalRequested,
		TypePayrollApproved,
		TypePayrollFullyApproved,
		TypePayrollRejected,
		TypeApprovalActionRecorded,
	}
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
