package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
)

const longWait = 5 * time.Second

func startPoller(t *testing.T, l Lister, clk *testclock.Clock) (*Poller, <-chan []Notification, func()) {
	t.Helper()
	changes := make(chan []Notification, 16)
	p := NewPoller(l, "Retailer Joe", 5*time.Second, clk, func(list []Notification) { changes <- list }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(longWait):
			t.Fatal("poller did not stop")
		}
	}
	return p, changes, stop
}

func nextChange(t *testing.T, ch <-chan []Notification) []Notification {
	t.Helper()
	select {
	case list := <-ch:
		return list
	case <-time.After(longWait):
		t.Fatal("no change reported")
		return nil
	}
}

func TestPoller_ReportsInitialAndNewNotifications(t *testing.T) {
	clk := testclock.NewClock(t0)
	relay := NewRelay(kv.NewMemoryStore(), WithClock(clk))

	_, changes, stop := startPoller(t, relay, clk)
	defer stop()

	assert.Empty(t, nextChange(t, changes))

	_, err := relay.Send(context.Background(), "Retailer Joe", "Srinivas Farms", "listing")
	require.NoError(t, err)
	require.NoError(t, clk.WaitAdvance(5*time.Second, longWait, 1))

	list := nextChange(t, changes)
	require.Len(t, list, 1)
	assert.Equal(t, "listing", list[0].Message)
}

func TestPoller_KickPollsEarly(t *testing.T) {
	clk := testclock.NewClock(t0)
	relay := NewRelay(kv.NewMemoryStore(), WithClock(clk))

	p, changes, stop := startPoller(t, relay, clk)
	defer stop()
	nextChange(t, changes)

	_, err := relay.Send(context.Background(), "Retailer Joe", "Srinivas Farms", "hi")
	require.NoError(t, err)
	p.Kick()

	require.Len(t, nextChange(t, changes), 1)
}

func TestPoller_ReadFlagChangeIsReported(t *testing.T) {
	clk := testclock.NewClock(t0)
	relay := NewRelay(kv.NewMemoryStore(), WithClock(clk))
	_, err := relay.Send(context.Background(), "Retailer Joe", "Srinivas Farms", "hi")
	require.NoError(t, err)

	p, changes, stop := startPoller(t, relay, clk)
	defer stop()
	assert.Equal(t, 1, Unread(nextChange(t, changes)))

	_, err = relay.MarkAllRead(context.Background(), "Retailer Joe")
	require.NoError(t, err)
	p.Kick()

	assert.Equal(t, 0, Unread(nextChange(t, changes)))
}

// flakyLister fails its first call.
type flakyLister struct {
	mu    sync.Mutex
	calls int
	next  Lister
}

func (f *flakyLister) ListFor(ctx context.Context, recipient string) ([]Notification, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return nil, errors.New("store unavailable")
	}
	return f.next.ListFor(ctx, recipient)
}

func TestPoller_SurvivesStoreFailure(t *testing.T) {
	clk := testclock.NewClock(t0)
	relay := NewRelay(kv.NewMemoryStore(), WithClock(clk))
	l := &flakyLister{next: relay}

	_, changes, stop := startPoller(t, l, clk)
	defer stop()

	require.NoError(t, clk.WaitAdvance(5*time.Second, longWait, 1))
	assert.Empty(t, nextChange(t, changes))
}

// countingLister reports every poll on calls.
type countingLister struct {
	calls chan struct{}
}

func (c *countingLister) ListFor(context.Context, string) ([]Notification, error) {
	c.calls <- struct{}{}
	return nil, nil
}

func TestPoller_ZeroIntervalFallsBackToDefault(t *testing.T) {
	clk := testclock.NewClock(t0)
	l := &countingLister{calls: make(chan struct{}, 64)}
	p := NewPoller(l, "Retailer Joe", 0, clk, func([]Notification) {}, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	<-l.calls
	require.NoError(t, clk.WaitAdvance(DefaultPollInterval-time.Millisecond, longWait, 1))
	select {
	case <-l.calls:
		t.Fatal("polled before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clk.Advance(time.Millisecond)
	select {
	case <-l.calls:
	case <-time.After(longWait):
		t.Fatal("no poll after the interval")
	}
}
