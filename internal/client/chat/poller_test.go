package chat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerPoller_TicksUntilStopped(t *testing.T) {
	p := NewTickerPoller(5*time.Millisecond, nil)
	var ticks atomic.Int32

	p.Start(context.Background(), func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	assert.True(t, p.IsRunning())
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())

	// Allow a tick that was already underway to finish, then expect silence.
	time.Sleep(20 * time.Millisecond)
	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}

func TestTickerPoller_ErrorStopsLoop(t *testing.T) {
	p := NewTickerPoller(5*time.Millisecond, nil)
	var ticks atomic.Int32

	p.Start(context.Background(), func(context.Context) error {
		ticks.Add(1)
		return errors.New("connection refused")
	})
	assert.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestTickerPoller_StartReplacesRunningLoop(t *testing.T) {
	p := NewTickerPoller(5*time.Millisecond, nil)
	defer p.Stop()
	var first, second atomic.Int32

	p.Start(context.Background(), func(context.Context) error { first.Add(1); return nil })
	assert.Eventually(t, func() bool { return first.Load() > 0 }, time.Second, time.Millisecond)

	p.Start(context.Background(), func(context.Context) error { second.Add(1); return nil })
	time.Sleep(20 * time.Millisecond)
	settled := first.Load()

	assert.Eventually(t, func() bool { return second.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, settled, first.Load())
	assert.True(t, p.IsRunning())
}

func TestTickerPoller_ContextCancel(t *testing.T) {
	p := NewTickerPoller(5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	p.Start(ctx, func(context.Context) error { return nil })
	cancel()
	assert.Eventually(t, func() bool { return !p.IsRunning() }, time.Second, time.Millisecond)
}

func TestNewTickerPoller_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, NewTickerPoller(0, nil).interval)
}
