package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the chat synchronization period.
const DefaultInterval = 5 * time.Second

// Poller runs a tick function on a schedule until stopped. A push-based
// transport can replace it without changing the synchronizer.
type Poller interface {
	// Start begins calling tick, replacing any running schedule. The
	// schedule ends on Stop, when ctx is done, or when tick returns an error.
	Start(ctx context.Context, tick func(ctx context.Context) error)
	// Stop ends the schedule. Stopping a stopped poller does nothing.
	Stop()
	IsRunning() bool
}

// TickerPoller calls tick at a fixed interval from its own goroutine.
type TickerPoller struct {
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	run    uint64
}

func NewTickerPoller(interval time.Duration, log *zap.Logger) *TickerPoller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TickerPoller{interval: interval, log: log}
}

func (p *TickerPoller) Start(ctx context.Context, tick func(ctx context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.run++
	go p.loop(loopCtx, p.run, tick)
}

func (p *TickerPoller) loop(ctx context.Context, run uint64, tick func(ctx context.Context) error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.finish(run)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if err := tick(ctx); err != nil {
				if ctx.Err() == nil {
					p.log.Warn("poll failed, stopping", zap.Error(err))
				}
				return
			}
		}
	}
}

// finish marks run as ended unless a newer run replaced it.
func (p *TickerPoller) finish(run uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == run && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *TickerPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *TickerPoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
