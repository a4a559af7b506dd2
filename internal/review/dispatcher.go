package review

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// Dispatcher periodically delivers review notifications whose inline
// delivery did not complete.
type Dispatcher struct {
	service  *Service
	interval time.Duration
	batch    int64
	log      *zap.Logger
}

func NewDispatcher(service *Service, interval time.Duration, batch int64, log *zap.Logger) *Dispatcher {
	return &Dispatcher{service: service, interval: interval, batch: batch, log: log.With(zap.String("component", "outbox_dispatcher"))}
}

// Sweep runs one dispatch pass.
func (d *Dispatcher) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	n, err := d.service.DispatchPending(ctx, d.batch)
	if err != nil {
		d.log.Warn("outbox sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		d.log.Info("delivered pending review notifications", zap.Int("count", n))
	}
}

// Start runs a sweep on start-up and then every interval until fx stops.
func (d *Dispatcher) Start(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.log.Info("starting outbox dispatcher", zap.Duration("interval", d.interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(d.interval)
				defer ticker.Stop()
				d.Sweep(ctx)
				for {
					select {
					case <-ticker.C:
						d.Sweep(ctx)
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			d.log.Info("stopping outbox dispatcher")
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
