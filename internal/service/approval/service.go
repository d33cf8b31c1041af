package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianhr/payroll-backend-go/internal/domain/department"
	"github.com/meridianhr/payroll-backend-go/internal/domain/notification"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/outbox"
	"github.com/meridianhr/payroll-backend-go/internal/service/directory"
)

// Notifier is the slice of the notification service the state machine needs.
// Queueing failures are best-effort side effects, logged and swallowed.
type Notifier interface {
	Queue(ctx context.Context, req notification.CreateNotificationRequest) error
}

// Auditor appends one immutable entry per transition.
type Auditor interface {
	RecordTransition(ctx context.Context, p payroll.Payroll, level payroll.Level, action payroll.Action, actor user.User, remarks *string, nextLevel *payroll.Level) error
}

type TransitionResult struct {
	Payroll      payroll.Payroll
	NextApprover *user.User
}

type SubmitPayrollRequest struct {
	EmployeeID   string          `json:"employee_id" validate:"required,uuid"`
	DepartmentID string          `json:"department_id" validate:"required,uuid"`
	PeriodMonth  int             `json:"period_month" validate:"required,min=1,max=12"`
	PeriodYear   int             `json:"period_year" validate:"required,min=2000"`
	NetPay       decimal.Decimal `json:"net_pay" validate:"required"`
}

type Service interface {
	Submit(ctx context.Context, submittedBy string, req SubmitPayrollRequest) (payroll.Payroll, error)
	Approve(ctx context.Context, level payroll.Level, payrollID, actorID string, remarks *string) (TransitionResult, error)
	Reject(ctx context.Context, level payroll.Level, payrollID, actorID, reason string) (TransitionResult, error)

	GetPayroll(ctx context.Context, id string) (payroll.Payroll, error)
	ListPending(ctx context.Context, level payroll.Level, page, limit int) ([]payroll.Payroll, int64, error)
	GetHistory(ctx context.Context, payrollID string) ([]payroll.HistoryEntry, error)
}

type service struct {
	payrollRepo payroll.Repository
	userRepo    user.UserRepository
	deptRepo    department.DepartmentRepository
	directory   directory.Resolver
	notifier    Notifier
	auditor     Auditor
	topic       string
	logger      *slog.Logger
}

func NewApprovalService(
	payrollRepo payroll.Repository,
	userRepo user.UserRepository,
	deptRepo department.DepartmentRepository,
	dir directory.Resolver,
	notifier Notifier,
	auditor Auditor,
	transitionTopic string,
	logger *slog.Logger,
) Service {
	return &service{
		payrollRepo: payrollRepo,
		userRepo:    userRepo,
		deptRepo:    deptRepo,
		directory:   dir,
		notifier:    notifier,
		auditor:     auditor,
		topic:       transitionTopic,
		logger:      logger.With(slog.String("component", "approval")),
	}
}

// Submit creates a payroll at the start of the chain and tells the first
// gate's approver there is work waiting.
func (s *service) Submit(ctx context.Context, submittedBy string, req SubmitPayrollRequest) (payroll.Payroll, error) {
	firstLevel := payroll.LevelDepartmentHead
	now := time.Now()

	created, err := s.payrollRepo.Create(ctx, payroll.Payroll{
		ID:           uuid.New().String(),
		EmployeeID:   req.EmployeeID,
		DepartmentID: req.DepartmentID,
		PeriodMonth:  req.PeriodMonth,
		PeriodYear:   req.PeriodYear,
		NetPay:       req.NetPay,
		Status:       payroll.StatusPending,
		CurrentLevel: &firstLevel,
		SubmittedBy:  submittedBy,
		SubmittedAt:  now,
	})
	if err != nil {
		return payroll.Payroll{}, err
	}

	if approver, err := s.directory.ResolveApprover(ctx, firstLevel, created); err != nil {
		s.logger.Error("failed to resolve first approver on submit", slog.String("payroll_id", created.ID), slog.Any("error", err))
	} else if approver != nil {
		s.queueNotification(ctx, notification.CreateNotificationRequest{
			RecipientID: approver.ID,
			SenderID:    &submittedBy,
			Type:        notification.TypePayrollApprovalRequested,
			Title:       "Payroll awaiting your approval",
			Message:     fmt.Sprintf("Payroll for %s (%02d/%d) is awaiting department head approval.", s.employeeName(created), created.PeriodMonth, created.PeriodYear),
			Data:        transitionData(created, firstLevel, ""),
		})
	}

	return created, nil
}

func (s *service) Approve(ctx context.Context, level payroll.Level, payrollID, actorID string, remarks *string) (TransitionResult, error) {
	return s.transition(ctx, level, payrollID, actorID, payroll.ActionApprove, remarks)
}

func (s *service) Reject(ctx context.Context, level payroll.Level, payrollID, actorID, reason string) (TransitionResult, error) {
	if reason == "" {
		return TransitionResult{}, payroll.ErrRejectReasonRequired
	}
	return s.transition(ctx, level, payrollID, actorID, payroll.ActionReject, &reason)
}

// transition is the single parameterized state-machine step behind all four
// level endpoints. Preconditions are checked in order and abort without
// mutation; the mutation itself is a compare-and-swap in the repository; the
// side effects run after commit and never affect the result.
func (s *service) transition(ctx context.Context, level payroll.Level, payrollID, actorID string, action payroll.Action, remarks *string) (TransitionResult, error) {
	rule, ok := levelRules[level]
	if !ok {
		return TransitionResult{}, payroll.ErrInvalidApprovalLevel
	}

	p, err := s.payrollRepo.GetByID(ctx, payrollID)
	if err != nil {
		return TransitionResult{}, err
	}

	if p.IsTerminal() {
		return TransitionResult{}, fmt.Errorf("%w: status is %s", payroll.ErrPayrollNotPending, p.Status)
	}

	if !p.AtLevel(level) {
		current := "none"
		if p.CurrentLevel != nil {
			current = string(*p.CurrentLevel)
		}
		return TransitionResult{}, fmt.Errorf("%w: payroll is not at %s approval level, current level: %s",
			payroll.ErrWrongApprovalLevel, level, current)
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return TransitionResult{}, err
	}

	if err := rule.authorize(s, ctx, actor, p); err != nil {
		if errors.Is(err, user.ErrApprovalNotAllowed) {
			// Security-relevant: log rejected attempts distinctly from
			// ordinary validation failures.
			s.logger.Warn("unauthorized approval attempt",
				slog.String("payroll_id", payrollID),
				slog.String("actor_id", actorID),
				slog.String("level", string(level)),
			)
			return TransitionResult{}, fmt.Errorf("%w: requires %s", user.ErrApprovalNotAllowed, rule.required)
		}
		return TransitionResult{}, err
	}

	newStatus, newLevel := nextState(level, action, p.CurrentLevel)

	entry := payroll.HistoryEntry{
		ID:        uuid.New().String(),
		PayrollID: p.ID,
		Level:     level,
		Action:    action,
		ActorID:   actor.ID,
		Remarks:   remarks,
		CreatedAt: time.Now(),
	}

	event, err := s.buildTransitionEvent(p, level, action, actor.ID, newStatus, newLevel)
	if err != nil {
		return TransitionResult{}, err
	}

	updated, err := s.payrollRepo.ApplyTransition(ctx, payroll.Transition{
		PayrollID:       p.ID,
		ExpectedVersion: p.Version,
		ExpectedLevel:   level,
		NewStatus:       newStatus,
		NewLevel:        newLevel,
		Entry:           entry,
		Event:           event,
	})
	if err != nil {
		return TransitionResult{}, err
	}

	var nextApprover *user.User
	if action == payroll.ActionApprove && newLevel != nil {
		nextApprover, err = s.directory.ResolveApprover(ctx, *newLevel, updated)
		if err != nil {
			// The transition is committed; a directory failure only costs
			// the caller the next-approver hint.
			s.logger.Error("failed to resolve next approver", slog.String("payroll_id", p.ID), slog.Any("error", err))
			nextApprover = nil
		}
	}

	s.runSideEffects(ctx, updated, level, action, actor, remarks, newLevel, nextApprover)

	s.logger.Info("payroll transition committed",
		slog.String("payroll_id", updated.ID),
		slog.String("level", string(level)),
		slog.String("action", string(action)),
		slog.String("actor_id", actor.ID),
		slog.String("status", string(updated.Status)),
	)

	return TransitionResult{Payroll: updated, NextApprover: nextApprover}, nil
}

// nextState computes the post-transition status and level. On rejection the
// current level is kept as-is: status alone marks the record terminal.
func nextState(level payroll.Level, action payroll.Action, current *payroll.Level) (payroll.Status, *payroll.Level) {
	if action == payroll.ActionReject {
		return payroll.StatusRejected, current
	}
	if next, ok := level.Next(); ok {
		return payroll.StatusPending, &next
	}
	return payroll.StatusApproved, nil
}

// transitionEvent is the outbox payload consumed by downstream reporting and
// email pipelines.
type transitionEvent struct {
	PayrollID    string    `json:"payroll_id"`
	EmployeeID   string    `json:"employee_id"`
	DepartmentID string    `json:"department_id"`
	Level        string    `json:"level"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id"`
	Status       string    `json:"status"`
	NextLevel    *string   `json:"next_level,omitempty"`
	NetPay       string    `json:"net_pay"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (s *service) buildTransitionEvent(p payroll.Payroll, level payroll.Level, action payroll.Action, actorID string, newStatus payroll.Status, newLevel *payroll.Level) (*outbox.Event, error) {
	var next *string
	if action == payroll.ActionApprove && newLevel != nil {
		v := string(*newLevel)
		next = &v
	}

	payload, err := json.Marshal(transitionEvent{
		PayrollID:    p.ID,
		EmployeeID:   p.EmployeeID,
		DepartmentID: p.DepartmentID,
		Level:        string(level),
		Action:       string(action),
		ActorID:      actorID,
		Status:       string(newStatus),
		NextLevel:    next,
		NetPay:       p.NetPay.String(),
		OccurredAt:   time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal transition event: %w", err)
	}

	return &outbox.Event{
		ID:            uuid.New().String(),
		AggregateType: outbox.AggregatePayroll,
		AggregateID:   p.ID,
		EventType:     outbox.EventPayrollTransition,
		Topic:         s.topic,
		Payload:       payload,
		Status:        outbox.StatusPending,
	}, nil
}

func (s *service) GetPayroll(ctx context.Context, id string) (payroll.Payroll, error) {
	return s.payrollRepo.GetByID(ctx, id)
}

func (s *service) ListPending(ctx context.Context, level payroll.Level, page, limit int) ([]payroll.Payroll, int64, error) {
	if !level.Valid() {
		return nil, 0, payroll.ErrInvalidApprovalLevel
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.payrollRepo.ListPendingByLevel(ctx, level, page, limit)
}

func (s *service) GetHistory(ctx context.Context, payrollID string) ([]payroll.HistoryEntry, error) {
	if _, err := s.payrollRepo.GetByID(ctx, payrollID); err != nil {
		return nil, err
	}
	return s.payrollRepo.GetHistory(ctx, payrollID)
}

func (s *service) employeeName(p payroll.Payroll) string {
	if p.EmployeeName != nil {
		return *p.EmployeeName
	}
	return p.EmployeeID
}
