package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/notification"
	"SKCKPortal/pkg/apperror"
)

// Notifier stores a notification; a false result means it already existed.
type Notifier interface {
	Deliver(ctx context.Context, n notification.Notification) (bool, error)
}

// UserCounter backs the dashboard user count.
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

type Service struct {
	apps     application.Store
	notifier Notifier
	users    UserCounter
	log      *zap.Logger
	now      func() time.Time
}

func NewService(apps application.Store, notifier Notifier, users UserCounter, log *zap.Logger) *Service {
	return &Service{
		apps:     apps,
		notifier: notifier,
		users:    users,
		log:      log.With(zap.String("component", "review")),
		now:      time.Now,
	}
}

func requireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return apperror.Forbidden("Hanya admin yang dapat meninjau pengajuan")
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ListPending returns every application awaiting review, oldest first.
func (s *Service) ListPending(ctx context.Context, p auth.Principal) ([]application.Application, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.apps.ListByStatus(ctx, application.StatusPending)
}

// SubmitReview moves a pending application to approved or rejected and
// notifies its owner. The transition is conditional on the application still
// being pending, so of two concurrent reviewers exactly one succeeds and the
// other gets StaleState.
func (s *Service) SubmitReview(ctx context.Context, p auth.Principal, id, decision, reason string) (_ *application.Application, err error) {
	ctx, span := tracer.Start(ctx, "review.SubmitReview", trace.WithAttributes(
		attribute.String("application.id", id),
		attribute.String("review.decision", decision),
	))
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var status application.Status
	switch decision {
	case DecisionApproved:
		status = application.StatusApproved
	case DecisionRejected:
		status = application.StatusRejected
	default:
		return nil, apperror.Validation("Keputusan tidak valid", map[string]string{"decision": "must be approved or rejected"})
	}
	reason = strings.TrimSpace(reason)
	if status == application.StatusRejected && reason == "" {
		return nil, apperror.MissingReason()
	}

	current, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != application.StatusPending {
		return nil, apperror.StaleState("Pengajuan sudah diproses, silakan muat ulang")
	}

	now := s.now().UTC()
	title, message := titleApproved, messageApproved
	if status == application.StatusRejected {
		title, message = titleRejected, messageRejected+reason
	}
	t := application.Transition{
		Status:     status,
		ReviewedBy: p.ID,
		ReviewedAt: now,
		Outbox: application.Outbox{
			NotificationID: primitive.NewObjectID(),
			Title:          title,
			Message:        message,
			CreatedAt:      now,
		},
	}
	if status == application.StatusRejected {
		t.RejectionReason = reason
	}

	updated, err := s.apps.Review(ctx, id, t)
	if err != nil {
		writeFailuresTotal.WithLabelValues("transition").Inc()
		return nil, err
	}
	reviewsTotal.WithLabelValues(decision).Inc()
	s.log.Info("application reviewed",
		zap.String("application_id", id),
		zap.String("decision", decision),
		zap.String("reviewer_id", p.ID))

	// The transition is committed; a failed delivery is left to the
	// dispatcher and does not fail the review.
	if stage, err := s.deliverOutbox(ctx, *updated); err != nil {
		writeFailuresTotal.WithLabelValues(stage).Inc()
		s.log.Error("review committed but notification delivery incomplete",
			zap.String("application_id", id),
			zap.String("failed_write", stage),
			zap.Error(err))
	} else {
		dispatchedTotal.WithLabelValues("inline").Inc()
	}
	return updated, nil
}

// deliverOutbox creates the notification held in the application's outbox
// and marks the outbox dispatched. On failure it names the failed write.
func (s *Service) deliverOutbox(ctx context.Context, app application.Application) (string, error) {
	if app.Outbox == nil {
		return "", nil
	}
	_, err := s.notifier.Deliver(ctx, notification.Notification{
		ID:            app.Outbox.NotificationID,
		UserID:        app.UserID,
		Title:         app.Outbox.Title,
		Message:       app.Outbox.Message,
		Type:          notification.TypeReview,
		ApplicationID: app.ID.Hex(),
		CreatedAt:     app.Outbox.CreatedAt,
	})
	if err != nil {
		return "notification", err
	}
	if err := s.apps.MarkOutboxDispatched(ctx, app.ID.Hex(), s.now().UTC()); err != nil {
		return "outbox", err
	}
	return "", nil
}

// DispatchPending delivers up to limit undelivered review notifications and
// returns how many it completed.
func (s *Service) DispatchPending(ctx context.Context, limit int64) (int, error) {
	apps, err := s.apps.PendingOutbox(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, app := range apps {
		if stage, err := s.deliverOutbox(ctx, app); err != nil {
			writeFailuresTotal.WithLabelValues(stage).Inc()
			s.log.Warn("outbox dispatch failed",
				zap.String("application_id", app.ID.Hex()),
				zap.String("failed_write", stage),
				zap.Error(err))
			continue
		}
		dispatchedTotal.WithLabelValues("dispatcher").Inc()
		done++
	}
	return done, nil
}

// ListHistory returns reviewed applications, most recently reviewed first.
func (s *Service) ListHistory(ctx context.Context, p auth.Principal, filter string) ([]application.Application, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var statuses []application.Status
	switch filter {
	case FilterAll:
		statuses = []application.Status{application.StatusApproved, application.StatusRejected}
	case FilterApproved:
		statuses = []application.Status{application.StatusApproved}
	case FilterRejected:
		statuses = []application.Status{application.StatusRejected}
	default:
		return nil, apperror.Validation(fmt.Sprintf("Filter %q tidak valid", filter),
			map[string]string{"status": "must be all, approved or rejected"})
	}
	return s.apps.ListByStatuses(ctx, statuses)
}

func (s *Service) Stats(ctx context.Context, p auth.Principal) (*Stats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var (
		users  int64
		counts map[application.Status]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.CountUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.apps.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	st := &Stats{
		TotalUsers: users,
		Pending:    counts[application.StatusPending],
		Approved:   counts[application.StatusApproved],
		Rejected:   counts[application.StatusRejected],
	}
	st.TotalApplications = st.Pending + st.Approved + st.Rejected
	return st, nil
}
