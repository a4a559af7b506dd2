package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/identity"
	"SKCKPortal/pkg/apperror"
)

// IdentityLookup resolves a NIK to registry data for autofill.
type IdentityLookup interface {
	Lookup(ctx context.Context, nik string) (*identity.Record, error)
}

const autofillTimeout = 3 * time.Second

type Service struct {
	store    Store
	identity IdentityLookup
	log      *zap.Logger
}

func NewService(store Store, lookup IdentityLookup, log *zap.Logger) *Service {
	return &Service{store: store, identity: lookup, log: log.With(zap.String("component", "application"))}
}

// ApplyIdentity copies whitelisted registry fields into the payload where the
// applicant left them empty, and returns the names of the fields it filled.
func ApplyIdentity(p *Payload, rec identity.Record) []string {
	var filled []string
	fill := func(name string, dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			filled = append(filled, name)
		}
	}
	fill("full_name", &p.FullName, rec.FullName)
	fill("place_of_birth", &p.PlaceOfBirth, rec.PlaceOfBirth)
	fill("date_of_birth", &p.DateOfBirth, rec.DateOfBirth)
	fill("gender", &p.Gender, rec.Gender)
	fill("religion", &p.Religion, rec.Religion)
	fill("marital_status", &p.MaritalStatus, rec.MaritalStatus)
	fill("citizenship", &p.Citizenship, rec.Citizenship)
	fill("blood_type", &p.BloodType, rec.BloodType)
	return filled
}

// Submit validates the payload and creates a pending application owned by
// the caller. Autofill problems are logged and never block submission.
func (s *Service) Submit(ctx context.Context, p auth.Principal, req SubmitRequest) (*Application, error) {
	if p.ID == "" {
		return nil, apperror.Unauthorized("Silakan login terlebih dahulu")
	}

	payload := req.Payload
	if req.Autofill {
		s.autofill(ctx, &payload)
	}
	if err := Validate(payload); err != nil {
		return nil, err
	}

	app := &Application{
		UserID:  p.ID,
		Payload: payload,
		Status:  StatusPending,
	}
	if err := s.store.Insert(ctx, app); err != nil {
		return nil, err
	}
	submissionsTotal.Inc()
	s.log.Info("application submitted",
		zap.String("application_id", app.ID.Hex()),
		zap.String("user_id", p.ID))
	return app, nil
}

func (s *Service) autofill(ctx context.Context, payload *Payload) {
	if s.identity == nil || !identity.ValidNIK(payload.NIK) {
		autofillTotal.WithLabelValues("skipped").Inc()
		return
	}
	ctx, cancel := context.WithTimeout(ctx, autofillTimeout)
	defer cancel()

	rec, err := s.identity.Lookup(ctx, payload.NIK)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		autofillTotal.WithLabelValues("miss").Inc()
		s.log.Info("no registry data for nik")
		return
	case err != nil:
		autofillTotal.WithLabelValues("error").Inc()
		s.log.Warn("nik lookup failed, submitting without autofill", zap.Error(err))
		return
	}
	filled := ApplyIdentity(payload, *rec)
	autofillTotal.WithLabelValues("hit").Inc()
	s.log.Debug("autofilled payload", zap.Strings("fields", filled))
}

// ListMine returns the caller's applications, newest first. limit <= 0
// means no limit.
func (s *Service) ListMine(ctx context.Context, p auth.Principal, limit int64) ([]Application, error) {
	if p.ID == "" {
		return nil, apperror.Unauthorized("Silakan login terlebih dahulu")
	}
	return s.store.ListByOwner(ctx, p.ID, limit)
}

// Get returns one application to its owner or to an admin. Anyone else gets
// NotFound so that ids of other applicants are not disclosed.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Application, error) {
	app, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != p.ID && !p.IsAdmin() {
		return nil, apperror.NotFound("Pengajuan tidak ditemukan")
	}
	return app, nil
}
