package department

import "time"

type DepartmentStatus string

const (
	StatusActive   DepartmentStatus = "active"
	StatusInactive DepartmentStatus = "inactive"
)

type Department struct {
	ID        string
	Name      string
	Status    DepartmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HRDepartmentNames are the exact names under which the HR department may be
// registered. FinanceDepartmentNames likewise for finance. Lookups match any
// of them, active departments only.
var (
	HRDepartmentNames      = []string{"Human Resources", "HR"}
	FinanceDepartmentNames = []string{"Finance and Accounting", "Finance", "Financial"}
)
