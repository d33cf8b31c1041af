package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/functionalrole"
)

// Resolver resolves the actor eligible to act at an approval level. A nil
// result with nil error means no matching approver exists; callers skip the
// next-approver notification rather than failing the transition.
type Resolver interface {
	ResolveApprover(ctx context.Context, level payroll.Level, p payroll.Payroll) (*user.User, error)
}

type directoryService struct {
	userRepo user.UserRepository
	deptRepo department.DepartmentRepository
	logger   *slog.Logger
}

func NewDirectoryService(userRepo user.UserRepository, deptRepo department.DepartmentRepository, logger *slog.Logger) Resolver {
	return &directoryService{
		userRepo: userRepo,
		deptRepo: deptRepo,
		logger:   logger.With(slog.String("component", "approver_directory")),
	}
}

func (s *directoryService) ResolveApprover(ctx context.Context, level payroll.Level, p payroll.Payroll) (*user.User, error) {
	switch level {
	case payroll.LevelDepartmentHead:
		return s.findDepartmentApprover(ctx, p.DepartmentID, user.FunctionalRoleDepartmentHead)

	case payroll.LevelHRManager:
		return s.findNamedDepartmentApprover(ctx, department.HRDepartmentNames, user.FunctionalRoleHRManager)

	case payroll.LevelFinanceDirector:
		return s.findNamedDepartmentApprover(ctx, department.FinanceDepartmentNames, user.FunctionalRoleFinanceDirector)

	case payroll.LevelSuperAdmin:
		approver, err := s.userRepo.FindByRole(ctx, user.RoleSuperAdmin)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolve super admin: %w", err)
		}
		return &approver, nil

	default:
		return nil, payroll.ErrInvalidApprovalLevel
	}
}

func (s *directoryService) findDepartmentApprover(ctx context.Context, departmentID string, fr user.FunctionalRole) (*user.User, error) {
	approver, err := s.userRepo.FindApprover(ctx, departmentID, fr, functionalrole.PhrasesFor(fr))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.logger.Warn("no approver found for department",
				slog.String("department_id", departmentID),
				slog.String("functional_role", string(fr)),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("resolve %s approver: %w", fr, err)
	}
	return &approver, nil
}

func (s *directoryService) findNamedDepartmentApprover(ctx context.Context, names []string, fr user.FunctionalRole) (*user.User, error) {
	dept, err := s.deptRepo.FindFirstByNames(ctx, names)
	if err != nil {
		if errors.Is(err, department.ErrDepartmentNotFound) {
			s.logger.Warn("department not registered", slog.Any("names", names))
			return nil, nil
		}
		return nil, fmt.Errorf("resolve department for %s: %w", fr, err)
	}
	return s.findDepartmentApprover(ctx, dept.ID, fr)
}
