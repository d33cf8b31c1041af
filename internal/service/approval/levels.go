package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/functionalrole"
)

// levelRule drives the parameterized transition: one entry per approval
// level with its authorization predicate and successor. The chain order
// itself lives on payroll.Level.Next.
type levelRule struct {
	authorize func(s *service, ctx context.Context, actor user.User, p payroll.Payroll) error
	// required names the missing authority in 403 responses.
	required string
}

var levelRules = map[payroll.Level]levelRule{
	payroll.LevelDepartmentHead: {
		authorize: (*service).authorizeDepartmentHead,
		required:  "head of the employee's department",
	},
	payroll.LevelHRManager: {
		authorize: (*service).authorizeHRManager,
		required:  "HR manager",
	},
	payroll.LevelFinanceDirector: {
		authorize: (*service).authorizeFinanceDirector,
		required:  "finance director",
	},
	payroll.LevelSuperAdmin: {
		authorize: (*service).authorizeSuperAdmin,
		required:  "super admin",
	},
}

// The department head must be a department-scoped admin in the payroll's own
// department whose title marks them as its head.
func (s *service) authorizeDepartmentHead(ctx context.Context, actor user.User, p payroll.Payroll) error {
	if actor.Role != user.RoleAdmin {
		return user.ErrApprovalNotAllowed
	}
	if !actor.InDepartment(p.DepartmentID) {
		return user.ErrApprovalNotAllowed
	}
	if !functionalrole.HasFunctionalRole(actor, user.FunctionalRoleDepartmentHead) {
		return user.ErrApprovalNotAllowed
	}
	return nil
}

func (s *service) authorizeHRManager(ctx context.Context, actor user.User, p payroll.Payroll) error {
	return s.authorizeNamedDepartment(ctx, actor, department.HRDepartmentNames, user.FunctionalRoleHRManager)
}

func (s *service) authorizeFinanceDirector(ctx context.Context, actor user.User, p payroll.Payroll) error {
	return s.authorizeNamedDepartment(ctx, actor, department.FinanceDepartmentNames, user.FunctionalRoleFinanceDirector)
}

// Super admin is the terminal, most-privileged gate: role check only.
func (s *service) authorizeSuperAdmin(ctx context.Context, actor user.User, p payroll.Payroll) error {
	if !actor.IsSuperAdmin() {
		return user.ErrApprovalNotAllowed
	}
	return nil
}

// authorizeNamedDepartment checks that the actor belongs to the department
// registered under one of names and holds the functional role.
func (s *service) authorizeNamedDepartment(ctx context.Context, actor user.User, names []string, fr user.FunctionalRole) error {
	if actor.DepartmentID == nil {
		return user.ErrApprovalNotAllowed
	}

	dept, err := s.deptRepo.FindFirstByNames(ctx, names)
	if err != nil {
		if errors.Is(err, department.ErrDepartmentNotFound) {
			return user.ErrApprovalNotAllowed
		}
		return fmt.Errorf("lookup department %v: %w", names, err)
	}

	if *actor.DepartmentID != dept.ID {
		return user.ErrApprovalNotAllowed
	}
	if !functionalrole.HasFunctionalRole(actor, fr) {
		return user.ErrApprovalNotAllowed
	}
	return nil
}
