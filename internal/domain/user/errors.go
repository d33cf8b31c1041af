package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrApprovalNotAllowed = errors.New("user is not authorized to act at this approval level")
)
