package gravity

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/engine"
	"github.com/wricardo/mcp-training/tetris/game/service"
)

// Ticker advances a session by one gravity step.
type Ticker interface {
	Tick(ctx context.Context, sessionID string) (*service.CommandResult, error)
}

// Broadcaster publishes state and events to a session's observers.
type Broadcaster interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Driver runs one gravity loop per session. Each loop waits the session's
// current tick interval, issues a tick through the service and broadcasts
// the result.
type Driver struct {
	ticker      Ticker
	broadcaster Broadcaster
	logger      *zap.Logger
	after       func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	running map[string]*loop
	wg      sync.WaitGroup
}

type loop struct {
	cancel context.CancelFunc

	// rearm is set by Start while the loop is registered. A loop that sees
	// game over keeps running when rearm was set after its last tick began.
	rearm    bool
	interval time.Duration
}

// Option configures a Driver
type Option func(*Driver)

// WithClock replaces time.After, for tests.
func WithClock(after func(time.Duration) <-chan time.Time) Option {
	return func(d *Driver) {
		d.after = after
	}
}

// NewDriver creates a driver. broadcaster may be nil.
func NewDriver(ticker Ticker, broadcaster Broadcaster, logger *zap.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{
		ticker:      ticker,
		broadcaster: broadcaster,
		logger:      logger.Named("gravity"),
		after:       time.After,
		running:     make(map[string]*loop),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins ticking a session at interval. It reports false when the
// session already has a running loop; that loop is rearmed so a game over
// it is still holding does not end it.
func (d *Driver) Start(sessionID string, interval time.Duration) bool {
	key := strings.ToLower(sessionID)
	if interval <= 0 {
		interval = engine.InitialTickInterval
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.running[key]; ok {
		l.rearm = true
		l.interval = interval
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel, interval: interval}
	d.running[key] = l

	d.wg.Add(1)
	go d.run(ctx, key, sessionID, interval, l)

	d.logger.Debug("gravity started",
		zap.String("session_id", sessionID),
		zap.Duration("interval", interval))
	return true
}

// Stop cancels a session's loop. It reports whether one was running.
func (d *Driver) Stop(sessionID string) bool {
	key := strings.ToLower(sessionID)

	d.mu.Lock()
	l, ok := d.running[key]
	if ok {
		delete(d.running, key)
	}
	d.mu.Unlock()

	if ok {
		l.cancel()
	}
	return ok
}

// StopAll cancels every loop and waits for them to exit.
func (d *Driver) StopAll() {
	d.mu.Lock()
	for key, l := range d.running {
		l.cancel()
		delete(d.running, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Running reports whether a session has an active loop.
func (d *Driver) Running(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.running[strings.ToLower(sessionID)]
	return ok
}

func (d *Driver) run(ctx context.Context, key, sessionID string, interval time.Duration, l *loop) {
	defer d.wg.Done()
	defer d.forget(key, l)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.after(interval):
		}

		d.mu.Lock()
		l.rearm = false
		d.mu.Unlock()

		result, err := d.ticker.Tick(ctx, sessionID)
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Info("gravity stopped", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}

		state := result.GameState
		if d.broadcaster != nil && result.Accepted {
			d.broadcaster.BroadcastToSession(sessionID, state)
			for _, ev := range result.Events {
				d.broadcaster.BroadcastEvent(sessionID, ev.Type, ev)
			}
		}

		if state.GameOver {
			next, ok := d.rearmed(key, l)
			if !ok {
				d.logger.Debug("gravity stopped on game over",
					zap.String("session_id", sessionID),
					zap.Int("score", state.Score))
				return
			}
			d.logger.Debug("gravity rearmed after reset", zap.String("session_id", sessionID))
			interval = next
			continue
		}

		// Level ups shorten the interval from the next cycle on.
		if state.TickIntervalMs > 0 {
			interval = time.Duration(state.TickIntervalMs) * time.Millisecond
		}
	}
}

// rearmed reports whether Start was called for l's session since its last
// tick began. Otherwise l is unregistered so later Starts get a new loop.
func (d *Driver) rearmed(key string, l *loop) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.rearm {
		l.rearm = false
		return l.interval, true
	}
	if d.running[key] == l {
		delete(d.running, key)
	}
	return 0, false
}

// forget removes l from the running set unless a newer loop replaced it.
func (d *Driver) forget(key string, l *loop) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running[key] == l {
		delete(d.running, key)
	}
	l.cancel()
}
