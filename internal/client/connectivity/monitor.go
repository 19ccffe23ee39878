// Package connectivity tracks whether the backend is reachable.
//
// A Monitor periodically runs a Prober and publishes online/offline
// transitions to subscribers. When the probe cannot observe the signal at all
// (no prober configured, or an error wrapping common.ErrSignalUnavailable),
// the monitor reports online, so reads are never blocked by a broken probe.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/logging"
)

// Prober checks reachability once. A nil error means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Status reports the current connectivity state.
type Status interface {
	Online() bool
}

type Option func(*Monitor)

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.probeTimeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// Monitor is the online/offline signal source.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	logger       logging.Logger

	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
	closed bool
}

// New returns a monitor that starts online.
func New(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:       prober,
		interval:     3 * time.Second,
		probeTimeout: 3 * time.Second,
		logger:       logging.Discard(),
		online:       true,
		subs:         make(map[int]chan bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("module", "connectivity")
	return m
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe returns a channel receiving the new state on every transition,
// and a function that cancels the subscription. A slow subscriber only sees
// the latest state. The channel is closed on cancel or when Run returns.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// Probe runs one probe cycle and returns the resulting state.
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.prober == nil {
		m.set(ctx, true)
		return true
	}

	pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.prober.Probe(pctx)
	cancel()

	switch {
	case err == nil:
		m.set(ctx, true)
	case errors.Is(err, common.ErrSignalUnavailable):
		m.logger.Debug(ctx, "connectivity signal unavailable, assuming online", "error", err)
		m.set(ctx, true)
	case ctx.Err() != nil:
		// shutting down, keep the last state
	default:
		m.logger.Debug(ctx, "probe failed", "error", err)
		m.set(ctx, false)
	}
	return m.Online()
}

// Run probes immediately and then every interval until ctx is done, then
// closes every subscription.
func (m *Monitor) Run(ctx context.Context) {
	defer m.close()

	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) set(ctx context.Context, online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online

	if online {
		m.logger.Info(ctx, "switched to online mode")
	} else {
		m.logger.Warn(ctx, "switched to offline mode")
	}

	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

func (m *Monitor) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

// Fixed is a Status that never changes.
type Fixed bool

func (f Fixed) Online() bool { return bool(f) }
