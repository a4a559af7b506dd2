package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/config"
	"SKCKPortal/pkg/apperror"
)

// RecipientResolver finds the e-mail address of a user.
type RecipientResolver interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}

const mailTimeout = 30 * time.Second

type Service struct {
	store      Store
	hub        *Hub
	mailer     config.Mailer
	recipients RecipientResolver
	log        *zap.Logger
	now        func() time.Time

	mail sync.WaitGroup
}

func NewService(store Store, hub *Hub, mailer config.Mailer, recipients RecipientResolver, log *zap.Logger) *Service {
	return &Service{
		store:      store,
		hub:        hub,
		mailer:     mailer,
		recipients: recipients,
		log:        log.With(zap.String("component", "notification")),
		now:        time.Now,
	}
}

// Deliver stores n, refreshes the owner's live subscribers and e-mails the
// owner in the background. It reports false when a notification with the
// same id already exists, which makes re-delivery safe.
func (s *Service) Deliver(ctx context.Context, n Notification) (bool, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	n.Read = false
	n.ReadAt = nil

	if err := s.store.Insert(ctx, &n); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	createdTotal.WithLabelValues(n.Type).Inc()

	if s.hub != nil {
		s.hub.Publish(ctx, n.UserID)
	}
	s.sendMail(n)
	return true, nil
}

func (s *Service) sendMail(n Notification) {
	if s.mailer == nil || s.recipients == nil {
		return
	}
	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		to, err := s.recipients.EmailOf(ctx, n.UserID)
		if err != nil {
			mailTotal.WithLabelValues("no_recipient").Inc()
			s.log.Warn("resolve notification recipient", zap.String("user_id", n.UserID), zap.Error(err))
			return
		}
		body := fmt.Sprintf("<p>%s</p>", html.EscapeString(n.Message))
		if err := s.mailer.SendEmail(ctx, to, n.Title, body); err != nil {
			mailTotal.WithLabelValues("failed").Inc()
			s.log.Warn("send notification email",
				zap.String("notification_id", n.ID.Hex()),
				zap.Error(err))
			return
		}
		mailTotal.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until background e-mails have finished.
func (s *Service) Wait() {
	s.mail.Wait()
}

func (s *Service) ListUnread(ctx context.Context, p auth.Principal) ([]Notification, error) {
	if p.ID == "" {
		return nil, apperror.Unauthorized("Silakan login terlebih dahulu")
	}
	return s.store.ListUnread(ctx, p.ID)
}

// MarkRead marks one of the caller's notifications read. Marking twice is a
// no-op. Notifications of other users are reported as not found.
func (s *Service) MarkRead(ctx context.Context, p auth.Principal, id string) error {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != p.ID {
		return apperror.NotFound("Notifikasi tidak ditemukan")
	}
	if n.Read {
		return nil
	}
	if err := s.store.MarkRead(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Publish(ctx, p.ID)
	}
	return nil
}
