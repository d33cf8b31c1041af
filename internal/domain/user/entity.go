package user

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"       // Department-scoped staff
	RoleSuperAdmin Role = "super_admin" // Global, terminal approval authority
)

// FunctionalRole is the explicit approval capability tag set at account
// provisioning. Older accounts may not have one yet; position-title
// inference (internal/pkg/functionalrole) covers those until the backfill
// command has run.
type FunctionalRole string

const (
	FunctionalRoleDepartmentHead  FunctionalRole = "department_head"
	FunctionalRoleHRManager       FunctionalRole = "hr_manager"
	FunctionalRoleFinanceDirector FunctionalRole = "finance_director"
)

type User struct {
	ID             string
	Email          string
	FullName       string
	Role           Role
	DepartmentID   *string
	Position       string
	FunctionalRole *FunctionalRole
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSuperAdmin checks if user holds the global role
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// InDepartment checks department membership
func (u *User) InDepartment(departmentID string) bool {
	return u.DepartmentID != nil && *u.DepartmentID == departmentID
}
