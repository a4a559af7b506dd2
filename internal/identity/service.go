package identity

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"SKCKPortal/pkg/apperror"
)

var nikPattern = regexp.MustCompile(`^[0-9]{16}$`)

// ValidNIK reports whether nik is a 16-digit national ID number.
func ValidNIK(nik string) bool {
	return nikPattern.MatchString(nik)
}

type Store interface {
	FindByNIK(ctx context.Context, nik string) (*Record, error)
	Upsert(ctx context.Context, rec Record) error
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log.With(zap.String("component", "identity"))}
}

func (s *Service) Lookup(ctx context.Context, nik string) (*Record, error) {
	if !ValidNIK(nik) {
		return nil, apperror.Validation("NIK harus 16 digit", map[string]string{"nik": "must be 16 digits"})
	}
	return s.store.FindByNIK(ctx, nik)
}

// LookupFor is Lookup on behalf of a signed-in user; every call is logged
// with the NIK masked.
func (s *Service) LookupFor(ctx context.Context, userID, nik string) (*Record, error) {
	rec, err := s.Lookup(ctx, nik)
	s.log.Info("nik lookup",
		zap.String("user_id", userID),
		zap.String("nik", MaskNIK(nik)),
		zap.Bool("found", err == nil))
	return rec, err
}

// MaskNIK keeps the six-digit region prefix and the last two digits.
func MaskNIK(nik string) string {
	if len(nik) <= 8 {
		return strings.Repeat("*", len(nik))
	}
	return nik[:6] + strings.Repeat("*", len(nik)-8) + nik[len(nik)-2:]
}

// Import upserts records, skipping malformed NIKs. It returns how many were
// written.
func (s *Service) Import(ctx context.Context, records []Record) (int, error) {
	n := 0
	for _, rec := range records {
		if !ValidNIK(rec.NIK) {
			s.log.Warn("skipping record with invalid nik", zap.String("nik", rec.NIK))
			continue
		}
		if err := s.store.Upsert(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
