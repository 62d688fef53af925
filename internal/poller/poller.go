package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Trigger starts a reconcile cycle without blocking.
type Trigger interface {
	Trigger()
}

// Poller triggers a reconcile cycle on a fixed interval so the badge stays
// current while no popup is open.
type Poller struct {
	target   Trigger
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a poller. A non-positive interval disables it.
func New(target Trigger, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Start triggers one cycle immediately, then one per interval.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("background poller disabled")
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.logger.Info("background poller started", zap.Duration("interval", p.interval))
	go p.loop(ctx)
}

// Stop stops the poller loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.target.Trigger()
	for {
		select {
		case <-ticker.C:
			p.logger.Debug("poll tick")
			p.target.Trigger()
		case <-ctx.Done():
			return
		}
	}
}
