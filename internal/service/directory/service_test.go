package directory

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
)

type fakeUserRepo struct {
	users []user.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

// FindApprover mirrors the SQL lookup: explicit functional role first, then
// the position-phrase fallback for accounts never backfilled.
func (r *fakeUserRepo) FindApprover(ctx context.Context, departmentID string, fr user.FunctionalRole, positionPhrases []string) (user.User, error) {
	for _, u := range r.users {
		if u.IsActive && u.InDepartment(departmentID) && u.FunctionalRole != nil && *u.FunctionalRole == fr {
			return u, nil
		}
	}
	for _, u := range r.users {
		if !u.IsActive || !u.InDepartment(departmentID) || u.FunctionalRole != nil {
			continue
		}
		for _, phrase := range positionPhrases {
			if strings.Contains(strings.ToLower(u.Position), phrase) {
				return u, nil
			}
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *fakeUserRepo) FindByRole(ctx context.Context, role user.Role) (user.User, error) {
	for _, u := range r.users {
		if u.IsActive && u.Role == role {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *fakeUserRepo) ListWithoutFunctionalRole(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) UpdateFunctionalRole(ctx context.Context, id string, fr user.FunctionalRole) error {
	return nil
}

type fakeDeptRepo struct {
	departments []department.Department
}

func (r *fakeDeptRepo) GetByID(ctx context.Context, id string) (department.Department, error) {
	for _, d := range r.departments {
		if d.ID == id {
			return d, nil
		}
	}
	return department.Department{}, department.ErrDepartmentNotFound
}

func (r *fakeDeptRepo) FindFirstByNames(ctx context.Context, names []string) (department.Department, error) {
	for _, name := range names {
		for _, d := range r.departments {
			if d.Name == name && d.Status == department.StatusActive {
				return d, nil
			}
		}
	}
	return department.Department{}, department.ErrDepartmentNotFound
}

func frptr(fr user.FunctionalRole) *user.FunctionalRole { return &fr }

func strptr(s string) *string { return &s }

func newResolver(users []user.User, departments []department.Department) Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDirectoryService(&fakeUserRepo{users: users}, &fakeDeptRepo{departments: departments}, logger)
}

func TestResolveApprover_DepartmentHead(t *testing.T) {
	users := []user.User{
		{ID: "u-head", Role: user.RoleAdmin, DepartmentID: strptr("dept-eng"), Position: "Head of Engineering",
			FunctionalRole: frptr(user.FunctionalRoleDepartmentHead), IsActive: true},
		{ID: "u-other-head", Role: user.RoleAdmin, DepartmentID: strptr("dept-sales"), Position: "Sales Director",
			FunctionalRole: frptr(user.FunctionalRoleDepartmentHead), IsActive: true},
	}
	r := newResolver(users, nil)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelDepartmentHead, payroll.Payroll{DepartmentID: "dept-eng"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-head", got.ID)
}

func TestResolveApprover_PositionFallback(t *testing.T) {
	// No explicit functional role anywhere: the title has to carry it.
	users := []user.User{
		{ID: "u-engineer", Role: user.RoleAdmin, DepartmentID: strptr("dept-eng"), Position: "Software Engineer", IsActive: true},
		{ID: "u-head", Role: user.RoleAdmin, DepartmentID: strptr("dept-eng"), Position: "Engineering Department Head", IsActive: true},
	}
	r := newResolver(users, nil)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelDepartmentHead, payroll.Payroll{DepartmentID: "dept-eng"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-head", got.ID)
}

func TestResolveApprover_HRManagerViaNamedDepartment(t *testing.T) {
	departments := []department.Department{
		{ID: "dept-hr", Name: "Human Resources", Status: department.StatusActive},
	}
	users := []user.User{
		{ID: "u-hr", Role: user.RoleAdmin, DepartmentID: strptr("dept-hr"), Position: "HR Manager",
			FunctionalRole: frptr(user.FunctionalRoleHRManager), IsActive: true},
	}
	r := newResolver(users, departments)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelHRManager, payroll.Payroll{DepartmentID: "dept-eng"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-hr", got.ID)
}

func TestResolveApprover_FinanceAliases(t *testing.T) {
	// "Finance" is an accepted alias for the canonical registration name.
	departments := []department.Department{
		{ID: "dept-fin", Name: "Finance", Status: department.StatusActive},
	}
	users := []user.User{
		{ID: "u-fin", Role: user.RoleAdmin, DepartmentID: strptr("dept-fin"), Position: "Finance Director",
			FunctionalRole: frptr(user.FunctionalRoleFinanceDirector), IsActive: true},
	}
	r := newResolver(users, departments)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelFinanceDirector, payroll.Payroll{DepartmentID: "dept-eng"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-fin", got.ID)
}

func TestResolveApprover_SuperAdmin(t *testing.T) {
	users := []user.User{
		{ID: "u-admin", Role: user.RoleAdmin, IsActive: true},
		{ID: "u-super", Role: user.RoleSuperAdmin, IsActive: true},
	}
	r := newResolver(users, nil)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelSuperAdmin, payroll.Payroll{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-super", got.ID)
}

func TestResolveApprover_MissingIsNilNotError(t *testing.T) {
	tests := []struct {
		name  string
		level payroll.Level
	}{
		{"no department head", payroll.LevelDepartmentHead},
		{"HR department not registered", payroll.LevelHRManager},
		{"finance department not registered", payroll.LevelFinanceDirector},
		{"no super admin account", payroll.LevelSuperAdmin},
	}
	r := newResolver(nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveApprover(context.Background(), tt.level, payroll.Payroll{DepartmentID: "dept-eng"})
			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestResolveApprover_InactiveSkipped(t *testing.T) {
	users := []user.User{
		{ID: "u-former-head", Role: user.RoleAdmin, DepartmentID: strptr("dept-eng"), Position: "Head of Engineering",
			FunctionalRole: frptr(user.FunctionalRoleDepartmentHead), IsActive: false},
	}
	r := newResolver(users, nil)

	got, err := r.ResolveApprover(context.Background(), payroll.LevelDepartmentHead, payroll.Payroll{DepartmentID: "dept-eng"})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveApprover_InvalidLevel(t *testing.T) {
	r := newResolver(nil, nil)

	_, err := r.ResolveApprover(context.Background(), payroll.Level("CEO"), payroll.Payroll{})
	assert.ErrorIs(t, err, payroll.ErrInvalidApprovalLevel)
}
