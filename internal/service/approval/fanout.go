package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridianhr/payroll-backend-go/internal/domain/notification"
	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
)

const sideEffectTimeout = 15 * time.Second

// rejectionEscalation maps the rejecting level to the manager who is told
// about it. The set is deliberately asymmetric: a department-head rejection
// goes up to HR, an HR rejection goes back down to the department head,
// and the two senior gates escalate sideways through finance/HR.
var rejectionEscalation = map[payroll.Level]payroll.Level{
	payroll.LevelDepartmentHead:  payroll.LevelHRManager,
	payroll.LevelHRManager:       payroll.LevelDepartmentHead,
	payroll.LevelFinanceDirector: payroll.LevelHRManager,
	payroll.LevelSuperAdmin:      payroll.LevelFinanceDirector,
}

// runSideEffects records the audit entry and fans notifications out after
// the transition has committed. Every dispatch is isolated: one failing
// recipient or a failing audit write is logged and never unwinds into the
// transition result. The work is detached from the caller's cancellation
// but bounded by its own timeout.
func (s *service) runSideEffects(
	ctx context.Context,
	p payroll.Payroll,
	level payroll.Level,
	action payroll.Action,
	actor user.User,
	remarks *string,
	newLevel *payroll.Level,
	nextApprover *user.User,
) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	recipients := s.collectRecipients(ctx, p, level, action, actor, remarks, nextApprover)

	var g errgroup.Group
	g.Go(func() error {
		if err := s.auditor.RecordTransition(ctx, p, level, action, actor, remarks, newLevel); err != nil {
			s.logger.Error("audit write failed",
				slog.String("payroll_id", p.ID),
				slog.String("level", string(level)),
				slog.Any("error", err),
			)
		}
		return nil
	})

	for _, req := range recipients {
		req := req
		g.Go(func() error {
			s.queueNotification(ctx, req)
			return nil
		})
	}

	_ = g.Wait()
}

// collectRecipients computes the notification set for one transition:
// always the acting actor and the employee; on approval the next approver
// (when one resolves) plus an informational super-admin copy; on rejection
// the level-specific escalation manager.
func (s *service) collectRecipients(
	ctx context.Context,
	p payroll.Payroll,
	level payroll.Level,
	action payroll.Action,
	actor user.User,
	remarks *string,
	nextApprover *user.User,
) []notification.CreateNotificationRequest {
	employeeName := s.employeeName(p)
	period := fmt.Sprintf("%02d/%d", p.PeriodMonth, p.PeriodYear)
	data := transitionData(p, level, action)

	var recipients []notification.CreateNotificationRequest
	seen := map[string]bool{}
	add := func(req notification.CreateNotificationRequest) {
		if req.RecipientID == "" || seen[req.RecipientID] {
			return
		}
		seen[req.RecipientID] = true
		recipients = append(recipients, req)
	}

	// Self-notification confirming the recorded action.
	add(notification.CreateNotificationRequest{
		RecipientID: actor.ID,
		Type:        notification.TypeApprovalActionRecorded,
		Title:       "Approval action recorded",
		Message:     fmt.Sprintf("Your %s decision on the payroll of %s (%s) at %s level has been recorded.", action, employeeName, period, level),
		Data:        data,
	})

	switch action {
	case payroll.ActionApprove:
		employeeType := notification.TypePayrollApproved
		employeeMsg := fmt.Sprintf("Your payroll for %s was approved at %s level.", period, level)
		if p.Status == payroll.StatusApproved {
			employeeType = notification.TypePayrollFullyApproved
			employeeMsg = fmt.Sprintf("Your payroll for %s has completed all approvals.", period)
		}
		add(notification.CreateNotificationRequest{
			RecipientID: p.EmployeeID,
			SenderID:    &actor.ID,
			Type:        employeeType,
			Title:       "Payroll approved",
			Message:     employeeMsg,
			Data:        data,
		})

		if nextApprover != nil {
			add(notification.CreateNotificationRequest{
				RecipientID: nextApprover.ID,
				SenderID:    &actor.ID,
				Type:        notification.TypePayrollApprovalRequested,
				Title:       "Payroll awaiting your approval",
				Message:     fmt.Sprintf("Payroll for %s (%s) is awaiting your approval as %s.", employeeName, period, nextApprover.Position),
				Data:        data,
			})
		}

		// Informational copy for the super admin, unless they are already
		// the actor or the next gate.
		if superAdmin, err := s.directory.ResolveApprover(ctx, payroll.LevelSuperAdmin, p); err != nil {
			s.logger.Error("failed to resolve super admin for notification", slog.Any("error", err))
		} else if superAdmin != nil && superAdmin.ID != actor.ID {
			add(notification.CreateNotificationRequest{
				RecipientID: superAdmin.ID,
				SenderID:    &actor.ID,
				Type:        notification.TypePayrollApproved,
				Title:       "Payroll approval progressed",
				Message:     fmt.Sprintf("Payroll for %s (%s) was approved at %s level.", employeeName, period, level),
				Data:        data,
			})
		}

	case payroll.ActionReject:
		reason := ""
		if remarks != nil {
			reason = *remarks
		}
		add(notification.CreateNotificationRequest{
			RecipientID: p.EmployeeID,
			SenderID:    &actor.ID,
			Type:        notification.TypePayrollRejected,
			Title:       "Payroll rejected",
			Message:     fmt.Sprintf("Your payroll for %s was rejected at %s level: %s", period, level, reason),
			Data:        data,
		})

		if escalateTo, ok := rejectionEscalation[level]; ok {
			if manager, err := s.directory.ResolveApprover(ctx, escalateTo, p); err != nil {
				s.logger.Error("failed to resolve rejection escalation manager",
					slog.String("level", string(escalateTo)),
					slog.Any("error", err),
				)
			} else if manager != nil && manager.ID != actor.ID {
				add(notification.CreateNotificationRequest{
					RecipientID: manager.ID,
					SenderID:    &actor.ID,
					Type:        notification.TypePayrollRejected,
					Title:       "Payroll rejected",
					Message:     fmt.Sprintf("Payroll for %s (%s) was rejected at %s level: %s", employeeName, period, level, reason),
					Data:        data,
				})
			}
		}
	}

	return recipients
}

// queueNotification is fire-and-forget: failures are logged, never returned.
func (s *service) queueNotification(ctx context.Context, req notification.CreateNotificationRequest) {
	if err := s.notifier.Queue(ctx, req); err != nil {
		s.logger.Error("failed to queue notification",
			slog.String("recipient_id", req.RecipientID),
			slog.String("type", string(req.Type)),
			slog.Any("error", err),
		)
	}
}

func transitionData(p payroll.Payroll, level payroll.Level, action payroll.Action) map[string]interface{} {
	data := map[string]interface{}{
		"payroll_id": p.ID,
		"level":      string(level),
		"status":     string(p.Status),
	}
	if action != "" {
		data["action"] = string(action)
	}
	return data
}
