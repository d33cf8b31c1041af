package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/notification"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/outbox"
)

// ============= In-memory fakes =============

type fakePayrollRepo struct {
	mu       sync.Mutex
	payrolls map[string]payroll.Payroll
	history  map[string][]payroll.HistoryEntry
	events   []outbox.Event
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		payrolls: make(map[string]payroll.Payroll),
		history:  make(map[string][]payroll.HistoryEntry),
	}
}

func (r *fakePayrollRepo) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version = 1
	r.payrolls[p.ID] = p
	return p, nil
}

func (r *fakePayrollRepo) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payrolls[id]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	p.History = append([]payroll.HistoryEntry(nil), r.history[id]...)
	return p, nil
}

func (r *fakePayrollRepo) ListPendingByLevel(ctx context.Context, level payroll.Level, page, limit int) ([]payroll.Payroll, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.Payroll
	for _, p := range r.payrolls {
		if p.Status == payroll.StatusPending && p.AtLevel(level) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePayrollRepo) GetHistory(ctx context.Context, payrollID string) ([]payroll.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payroll.HistoryEntry(nil), r.history[payrollID]...), nil
}

// ApplyTransition mirrors the conditional-update semantics of the SQL
// repository: the write only lands when version, status and level still
// match, otherwise the caller lost the race.
func (r *fakePayrollRepo) ApplyTransition(ctx context.Context, t payroll.Transition) (payroll.Payroll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payrolls[t.PayrollID]
	if !ok {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	if p.Version != t.ExpectedVersion || p.Status != payroll.StatusPending || !p.AtLevel(t.ExpectedLevel) {
		return payroll.Payroll{}, payroll.ErrConcurrentModification
	}

	p.Status = t.NewStatus
	p.CurrentLevel = t.NewLevel
	p.Version++
	r.payrolls[t.PayrollID] = p
	r.history[t.PayrollID] = append(r.history[t.PayrollID], t.Entry)
	if t.Event != nil {
		r.events = append(r.events, *t.Event)
	}

	p.History = append([]payroll.HistoryEntry(nil), r.history[t.PayrollID]...)
	return p, nil
}

type fakeUserRepo struct {
	users map[string]user.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindApprover(ctx context.Context, departmentID string, fr user.FunctionalRole, positionPhrases []string) (user.User, error) {
	for _, u := range r.users {
		if u.IsActive && u.InDepartment(departmentID) && u.FunctionalRole != nil && *u.FunctionalRole == fr {
			return u, nil
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
	departments map[string]department.Department
}

func (r *fakeDeptRepo) GetByID(ctx context.Context, id string) (department.Department, error) {
	d, ok := r.departments[id]
	if !ok {
		return department.Department{}, department.ErrDepartmentNotFound
	}
	return d, nil
}

func (r *fakeDeptRepo) FindFirstByNames(ctx context.Context, names []string) (department.Department, error) {
	for _, name := range names {
		for _, d := range r.departments {
			if d.Name == name {
				return d, nil
			}
		}
	}
	return department.Department{}, department.ErrDepartmentNotFound
}

// stubResolver answers ResolveApprover from a fixed per-level table.
type stubResolver struct {
	approvers map[payroll.Level]*user.User
	err       error
}

func (s *stubResolver) ResolveApprover(ctx context.Context, level payroll.Level, p payroll.Payroll) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.approvers[level], nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	queued  []notification.CreateNotificationRequest
	failFor map[string]error // keyed by recipient ID
}

func (n *recordingNotifier) Queue(ctx context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failFor[req.RecipientID]; ok {
		return err
	}
	n.queued = append(n.queued, req)
	return nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.queued))
	for _, req := range n.queued {
		out = append(out, req.RecipientID)
	}
	return out
}

type auditCall struct {
	payrollID string
	level     payroll.Level
	action    payroll.Action
	actorID   string
}

type recordingAuditor struct {
	mu    sync.Mutex
	calls []auditCall
	err   error
}

func (a *recordingAuditor) RecordTransition(ctx context.Context, p payroll.Payroll, level payroll.Level, action payroll.Action, actor user.User, remarks *string, nextLevel *payroll.Level) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.calls = append(a.calls, auditCall{payrollID: p.ID, level: level, action: action, actorID: actor.ID})
	return nil
}

// ============= Fixture =============

type fixture struct {
	svc      Service
	payrolls *fakePayrollRepo
	notifier *recordingNotifier
	auditor  *recordingAuditor

	deptHead   user.User
	hrManager  user.User
	finance    user.User
	superAdmin user.User
	employee   user.User

	payroll payroll.Payroll
}

func strptr(s string) *string { return &s }

func frptr(fr user.FunctionalRole) *user.FunctionalRole { return &fr }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engDept := "dept-engineering"
	hrDept := "dept-hr"
	finDept := "dept-finance"

	f := &fixture{
		deptHead: user.User{
			ID: "u-dept-head", FullName: "Dian Prasetyo", Role: user.RoleAdmin,
			DepartmentID: &engDept, Position: "Head of Engineering",
			FunctionalRole: frptr(user.FunctionalRoleDepartmentHead), IsActive: true,
		},
		hrManager: user.User{
			ID: "u-hr-manager", FullName: "Rina Wulandari", Role: user.RoleAdmin,
			DepartmentID: &hrDept, Position: "HR Manager",
			FunctionalRole: frptr(user.FunctionalRoleHRManager), IsActive: true,
		},
		finance: user.User{
			ID: "u-finance", FullName: "Agus Santoso", Role: user.RoleAdmin,
			DepartmentID: &finDept, Position: "Finance Director",
			FunctionalRole: frptr(user.FunctionalRoleFinanceDirector), IsActive: true,
		},
		superAdmin: user.User{
			ID: "u-super-admin", FullName: "Sri Handayani", Role: user.RoleSuperAdmin,
			Position: "Chief Executive Officer", IsActive: true,
		},
		employee: user.User{
			ID: "u-employee", FullName: "Budi Hartono", Role: user.RoleAdmin,
			DepartmentID: &engDept, Position: "Software Engineer", IsActive: true,
		},
	}

	userRepo := &fakeUserRepo{users: map[string]user.User{}}
	for _, u := range []user.User{f.deptHead, f.hrManager, f.finance, f.superAdmin, f.employee} {
		userRepo.users[u.ID] = u
	}

	deptRepo := &fakeDeptRepo{departments: map[string]department.Department{
		engDept: {ID: engDept, Name: "Engineering", Status: department.StatusActive},
		hrDept:  {ID: hrDept, Name: "Human Resources", Status: department.StatusActive},
		finDept: {ID: finDept, Name: "Finance and Accounting", Status: department.StatusActive},
	}}

	resolver := &stubResolver{approvers: map[payroll.Level]*user.User{
		payroll.LevelDepartmentHead:  &f.deptHead,
		payroll.LevelHRManager:       &f.hrManager,
		payroll.LevelFinanceDirector: &f.finance,
		payroll.LevelSuperAdmin:      &f.superAdmin,
	}}

	f.payrolls = newFakePayrollRepo()
	f.notifier = &recordingNotifier{failFor: map[string]error{}}
	f.auditor = &recordingAuditor{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewApprovalService(f.payrolls, userRepo, deptRepo, resolver, f.notifier, f.auditor, "payroll.transitions", logger)

	firstLevel := payroll.LevelDepartmentHead
	created, err := f.payrolls.Create(context.Background(), payroll.Payroll{
		ID:           "pr-1",
		EmployeeID:   f.employee.ID,
		DepartmentID: engDept,
		PeriodMonth:  8,
		PeriodYear:   2026,
		NetPay:       decimal.NewFromInt(12_500_000),
		Status:       payroll.StatusPending,
		CurrentLevel: &firstLevel,
		SubmittedBy:  f.hrManager.ID,
		EmployeeName: strptr(f.employee.FullName),
	})
	require.NoError(t, err)
	f.payroll = created

	return f
}

// approveChain walks the payroll through the first n gates.
func (f *fixture) approveChain(t *testing.T, n int) {
	t.Helper()
	actors := []string{f.deptHead.ID, f.hrManager.ID, f.finance.ID, f.superAdmin.ID}
	levels := payroll.Levels()
	for i := 0; i < n; i++ {
		_, err := f.svc.Approve(context.Background(), levels[i], f.payroll.ID, actors[i], nil)
		require.NoError(t, err, "approval at %s", levels[i])
	}
}

// ============= Tests =============

func TestApprove_AdvancesToNextLevel(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, strptr("lgtm"))
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusPending, res.Payroll.Status)
	require.NotNil(t, res.Payroll.CurrentLevel)
	assert.Equal(t, payroll.LevelHRManager, *res.Payroll.CurrentLevel)
	assert.Equal(t, int64(2), res.Payroll.Version)

	require.Len(t, res.Payroll.History, 1)
	entry := res.Payroll.History[0]
	assert.Equal(t, payroll.LevelDepartmentHead, entry.Level)
	assert.Equal(t, payroll.ActionApprove, entry.Action)
	assert.Equal(t, f.deptHead.ID, entry.ActorID)
	require.NotNil(t, entry.Remarks)
	assert.Equal(t, "lgtm", *entry.Remarks)

	require.NotNil(t, res.NextApprover)
	assert.Equal(t, f.hrManager.ID, res.NextApprover.ID)
}

func TestApprove_EmitsOutboxEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	require.NoError(t, err)

	require.Len(t, f.payrolls.events, 1)
	ev := f.payrolls.events[0]
	assert.Equal(t, outbox.AggregatePayroll, ev.AggregateType)
	assert.Equal(t, f.payroll.ID, ev.AggregateID)
	assert.Equal(t, outbox.EventPayrollTransition, ev.EventType)
	assert.Equal(t, "payroll.transitions", ev.Topic)
	assert.Contains(t, string(ev.Payload), `"action":"APPROVE"`)
}

func TestApprove_WrongLevelRejected(t *testing.T) {
	f := newFixture(t)

	// Payroll sits at department head; HR manager is one gate too early.
	_, err := f.svc.Approve(context.Background(), payroll.LevelHRManager, f.payroll.ID, f.hrManager.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrWrongApprovalLevel)
	assert.Contains(t, err.Error(), "current level: DEPARTMENT_HEAD")

	// Nothing was written.
	p, err := f.payrolls.GetByID(context.Background(), f.payroll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)
	assert.Empty(t, p.History)
}

func TestApprove_SkippingAGateRejected(t *testing.T) {
	f := newFixture(t)
	f.approveChain(t, 1) // now at HR_MANAGER

	_, err := f.svc.Approve(context.Background(), payroll.LevelFinanceDirector, f.payroll.ID, f.finance.ID, nil)
	assert.ErrorIs(t, err, payroll.ErrWrongApprovalLevel)

	// Replaying the already-passed gate is equally invalid.
	_, err = f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	assert.ErrorIs(t, err, payroll.ErrWrongApprovalLevel)
}

func TestApprove_TerminalPayrollImmutable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reject(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, "numbers look wrong")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotPending)
	assert.Contains(t, err.Error(), "REJECTED")

	_, err = f.svc.Reject(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, "again")
	assert.ErrorIs(t, err, payroll.ErrPayrollNotPending)

	history, err := f.payrolls.GetHistory(context.Background(), f.payroll.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, "pr-missing", f.deptHead.ID, nil)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)
}

func TestAuthorization_PerLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   payroll.Level
		pre     int // gates already passed
		actor   func(f *fixture) string
		wantErr error
	}{
		{
			name:  "department head of the payroll's department",
			level: payroll.LevelDepartmentHead,
			actor: func(f *fixture) string { return f.deptHead.ID },
		},
		{
			name:    "plain employee cannot act as department head",
			level:   payroll.LevelDepartmentHead,
			actor:   func(f *fixture) string { return f.employee.ID },
			wantErr: user.ErrApprovalNotAllowed,
		},
		{
			name:    "head of another department cannot act",
			level:   payroll.LevelDepartmentHead,
			actor:   func(f *fixture) string { return f.hrManager.ID },
			wantErr: user.ErrApprovalNotAllowed,
		},
		{
			name:  "HR manager at HR gate",
			level: payroll.LevelHRManager,
			pre:   1,
			actor: func(f *fixture) string { return f.hrManager.ID },
		},
		{
			name:    "finance director cannot act at HR gate",
			level:   payroll.LevelHRManager,
			pre:     1,
			actor:   func(f *fixture) string { return f.finance.ID },
			wantErr: user.ErrApprovalNotAllowed,
		},
		{
			name:  "finance director at finance gate",
			level: payroll.LevelFinanceDirector,
			pre:   2,
			actor: func(f *fixture) string { return f.finance.ID },
		},
		{
			name:    "HR manager cannot act at finance gate",
			level:   payroll.LevelFinanceDirector,
			pre:     2,
			actor:   func(f *fixture) string { return f.hrManager.ID },
			wantErr: user.ErrApprovalNotAllowed,
		},
		{
			name:  "super admin at terminal gate",
			level: payroll.LevelSuperAdmin,
			pre:   3,
			actor: func(f *fixture) string { return f.superAdmin.ID },
		},
		{
			name:    "department admin cannot act at terminal gate",
			level:   payroll.LevelSuperAdmin,
			pre:     3,
			actor:   func(f *fixture) string { return f.deptHead.ID },
			wantErr: user.ErrApprovalNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.approveChain(t, tt.pre)

			_, err := f.svc.Approve(context.Background(), tt.level, f.payroll.ID, tt.actor(f), nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFullChainApproval(t *testing.T) {
	f := newFixture(t)
	f.approveChain(t, 4)

	p, err := f.payrolls.GetByID(context.Background(), f.payroll.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, p.Status)
	assert.Nil(t, p.CurrentLevel)
	assert.Equal(t, int64(5), p.Version)

	require.Len(t, p.History, 4)
	for i, level := range payroll.Levels() {
		assert.Equal(t, level, p.History[i].Level)
		assert.Equal(t, payroll.ActionApprove, p.History[i].Action)
	}
}

func TestReject_Terminal(t *testing.T) {
	f := newFixture(t)
	f.approveChain(t, 1)

	res, err := f.svc.Reject(context.Background(), payroll.LevelHRManager, f.payroll.ID, f.hrManager.ID, "allowance mismatch")
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusRejected, res.Payroll.Status)
	// The level where the chain stopped is preserved for reporting.
	require.NotNil(t, res.Payroll.CurrentLevel)
	assert.Equal(t, payroll.LevelHRManager, *res.Payroll.CurrentLevel)
	assert.Nil(t, res.NextApprover)

	require.Len(t, res.Payroll.History, 2)
	last := res.Payroll.History[1]
	assert.Equal(t, payroll.ActionReject, last.Action)
	require.NotNil(t, last.Remarks)
	assert.Equal(t, "allowance mismatch", *last.Remarks)
}

func TestReject_ReasonRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reject(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, "")
	assert.ErrorIs(t, err, payroll.ErrRejectReasonRequired)

	p, err := f.payrolls.GetByID(context.Background(), f.payroll.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPending, p.Status)
}

func TestConcurrentApproval_OneWinner(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, payroll.ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	p, err := f.payrolls.GetByID(context.Background(), f.payroll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Version)
	assert.Len(t, p.History, 1)
}

func TestSideEffects_AuditRecorded(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	require.NoError(t, err)

	require.Len(t, f.auditor.calls, 1)
	call := f.auditor.calls[0]
	assert.Equal(t, f.payroll.ID, call.payrollID)
	assert.Equal(t, payroll.LevelDepartmentHead, call.level)
	assert.Equal(t, payroll.ActionApprove, call.action)
	assert.Equal(t, f.deptHead.ID, call.actorID)
}

func TestSideEffects_ApprovalRecipients(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	require.NoError(t, err)

	got := f.notifier.recipients()
	assert.ElementsMatch(t, []string{f.deptHead.ID, f.employee.ID, f.hrManager.ID, f.superAdmin.ID}, got)
}

func TestSideEffects_FinalApprovalNotifiesFullyApproved(t *testing.T) {
	f := newFixture(t)
	f.approveChain(t, 3)
	f.notifier.mu.Lock()
	f.notifier.queued = nil
	f.notifier.mu.Unlock()

	_, err := f.svc.Approve(context.Background(), payroll.LevelSuperAdmin, f.payroll.ID, f.superAdmin.ID, nil)
	require.NoError(t, err)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	var employeeType notification.NotificationType
	for _, req := range f.notifier.queued {
		if req.RecipientID == f.employee.ID {
			employeeType = req.Type
		}
	}
	assert.Equal(t, notification.TypePayrollFullyApproved, employeeType)
}

func TestSideEffects_RejectionEscalation(t *testing.T) {
	f := newFixture(t)
	f.approveChain(t, 1)
	f.notifier.mu.Lock()
	f.notifier.queued = nil
	f.notifier.mu.Unlock()

	// HR rejection escalates back to the department head.
	_, err := f.svc.Reject(context.Background(), payroll.LevelHRManager, f.payroll.ID, f.hrManager.ID, "deduction missing")
	require.NoError(t, err)

	got := f.notifier.recipients()
	assert.ElementsMatch(t, []string{f.hrManager.ID, f.employee.ID, f.deptHead.ID}, got)
}

func TestSideEffects_FailuresIsolated(t *testing.T) {
	f := newFixture(t)
	f.notifier.failFor[f.employee.ID] = fmt.Errorf("queue full")
	f.auditor.err = fmt.Errorf("audit store down")

	res, err := f.svc.Approve(context.Background(), payroll.LevelDepartmentHead, f.payroll.ID, f.deptHead.ID, nil)
	require.NoError(t, err, "side-effect failures must not surface")
	assert.Equal(t, payroll.StatusPending, res.Payroll.Status)

	// The remaining recipients still got their notifications.
	got := f.notifier.recipients()
	assert.NotContains(t, got, f.employee.ID)
	assert.Contains(t, got, f.hrManager.ID)
	assert.Contains(t, got, f.superAdmin.ID)
}

func TestSubmit_StartsChainAndNotifiesFirstGate(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Submit(context.Background(), f.hrManager.ID, SubmitPayrollRequest{
		EmployeeID:   f.employee.ID,
		DepartmentID: "dept-engineering",
		PeriodMonth:  9,
		PeriodYear:   2026,
		NetPay:       decimal.NewFromInt(9_750_000),
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusPending, created.Status)
	require.NotNil(t, created.CurrentLevel)
	assert.Equal(t, payroll.LevelDepartmentHead, *created.CurrentLevel)
	assert.Equal(t, int64(1), created.Version)

	got := f.notifier.recipients()
	assert.Contains(t, got, f.deptHead.ID)
}

func TestListPending_InvalidLevel(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ListPending(context.Background(), payroll.Level("CEO"), 1, 20)
	assert.ErrorIs(t, err, payroll.ErrInvalidApprovalLevel)
}

func TestGetHistory_MissingPayroll(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetHistory(context.Background(), "pr-missing")
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)
}

func TestNextState(t *testing.T) {
	dh := payroll.LevelDepartmentHead
	fin := payroll.LevelFinanceDirector

	status, next := nextState(payroll.LevelDepartmentHead, payroll.ActionApprove, &dh)
	assert.Equal(t, payroll.StatusPending, status)
	require.NotNil(t, next)
	assert.Equal(t, payroll.LevelHRManager, *next)

	status, next = nextState(payroll.LevelSuperAdmin, payroll.ActionApprove, nil)
	assert.Equal(t, payroll.StatusApproved, status)
	assert.Nil(t, next)

	status, next = nextState(payroll.LevelFinanceDirector, payroll.ActionReject, &fin)
	assert.Equal(t, payroll.StatusRejected, status)
	require.NotNil(t, next)
	assert.Equal(t, payroll.LevelFinanceDirector, *next)
}
