package notification

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Poller periodically refreshes live subscribers so that writes made by
// other processes reach them.
type Poller struct {
	hub      *Hub
	interval time.Duration
	log      *zap.Logger
}

func NewPoller(hub *Hub, interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{hub: hub, interval: interval, log: log.With(zap.String("component", "notification_poller"))}
}

// Run refreshes every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.hub.RefreshAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Start ties the poll loop to the fx lifecycle. Stopping also closes the
// hub, which cancels every pending auto-read timer.
func (p *Poller) Start(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.log.Info("starting notification poller", zap.Duration("interval", p.interval))
			go func() {
				defer close(done)
				p.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			p.log.Info("stopping notification poller")
			cancel()
			p.hub.Close()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
