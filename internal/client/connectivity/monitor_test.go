package connectivity

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchProber struct {
	err atomic.Value // error wrapper
}

type errBox struct{ err error }

func (p *switchProber) set(err error) { p.err.Store(errBox{err}) }

func (p *switchProber) Probe(context.Context) error {
	v, _ := p.err.Load().(errBox)
	return v.err
}

func TestMonitor_StartsOnline(t *testing.T) {
	m := New(ProberFunc(func(context.Context) error { return errors.New("down") }))
	assert.True(t, m.Online())
}

func TestMonitor_ProbeTransitions(t *testing.T) {
	p := &switchProber{}
	m := New(p)
	ctx := context.Background()

	p.set(fmt.Errorf("%w: refused", common.ErrNetworkFailure))
	assert.False(t, m.Probe(ctx))
	assert.False(t, m.Online())

	p.set(nil)
	assert.True(t, m.Probe(ctx))
}

func TestMonitor_FailsOpen(t *testing.T) {
	ctx := context.Background()

	m := New(nil)
	assert.True(t, m.Probe(ctx))

	p := &switchProber{}
	p.set(errors.New("down"))
	m = New(p)
	require.False(t, m.Probe(ctx))

	p.set(fmt.Errorf("%w: no network api", common.ErrSignalUnavailable))
	assert.True(t, m.Probe(ctx), "unobservable signal means online")
}

func TestMonitor_SubscribeFiresOnTransitionsOnly(t *testing.T) {
	p := &switchProber{}
	m := New(p)
	ctx := context.Background()

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Probe(ctx) // online -> online
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %v", v)
	default:
	}

	p.set(errors.New("down"))
	m.Probe(ctx)
	assert.Equal(t, false, <-ch)

	m.Probe(ctx) // still offline
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %v", v)
	default:
	}

	p.set(nil)
	m.Probe(ctx)
	assert.Equal(t, true, <-ch)
}

func TestMonitor_SlowSubscriberSeesLatestState(t *testing.T) {
	p := &switchProber{}
	m := New(p)
	ctx := context.Background()

	ch, cancel := m.Subscribe()
	defer cancel()

	p.set(errors.New("down"))
	m.Probe(ctx)
	p.set(nil)
	m.Probe(ctx)
	p.set(errors.New("down"))
	m.Probe(ctx)

	assert.Equal(t, false, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %v", v)
	default:
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	p := &switchProber{}
	m := New(p)

	ch, cancel := m.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	p.set(errors.New("down"))
	assert.NotPanics(t, func() { m.Probe(context.Background()) })
}

func TestMonitor_RunStopsAndClosesSubscriptions(t *testing.T) {
	p := &switchProber{}
	p.set(errors.New("down"))
	m := New(p, WithInterval(5*time.Millisecond))

	ch, cancel := m.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case v := <-ch:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("no transition observed")
	}

	p.set(nil)
	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)

	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	for range ch {
	}

	late, _ := m.Subscribe()
	_, ok := <-late
	assert.False(t, ok)
}

func TestFixed(t *testing.T) {
	assert.True(t, Fixed(true).Online())
	assert.False(t, Fixed(false).Online())
}
