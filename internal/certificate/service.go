package certificate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/auth"
	"SKCKPortal/pkg/apperror"
)

// ApplicationReader returns an application visible to the caller.
type ApplicationReader interface {
	Get(ctx context.Context, p auth.Principal, id string) (*application.Application, error)
}

type Document struct {
	Filename string
	Content  []byte
}

type Service struct {
	apps     ApplicationReader
	renderer *Renderer
	log      *zap.Logger
}

func NewService(apps ApplicationReader, renderer *Renderer, log *zap.Logger) *Service {
	return &Service{apps: apps, renderer: renderer, log: log.With(zap.String("component", "certificate"))}
}

// Render produces the certificate of an approved application for its owner
// or an admin. It never writes.
func (s *Service) Render(ctx context.Context, p auth.Principal, id string) (*Document, error) {
	app, err := s.apps.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if app.Status != application.StatusApproved {
		return nil, apperror.StaleState("Pengajuan belum disetujui")
	}

	issued := time.Now()
	if app.ReviewedAt != nil {
		issued = *app.ReviewedAt
	}
	content, err := s.renderer.Render(*app, issued)
	if err != nil {
		s.log.Error("render certificate", zap.String("application_id", id), zap.Error(err))
		return nil, apperror.Internal(err)
	}
	return &Document{
		Filename: fmt.Sprintf("SKCK-%s.pdf", app.Payload.NIK),
		Content:  content,
	}, nil
}
