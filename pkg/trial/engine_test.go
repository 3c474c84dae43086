// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trial

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/u-root/wifiseek/pkg/credstore"
	"github.com/u-root/wifiseek/pkg/wifi"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (map[string]credstore.Entry, error) {
	return nil, credstore.ErrCorrupt
}

func (failingStore) Upsert(context.Context, credstore.Entry) error {
	return credstore.ErrCorrupt
}

func newEngine(t *testing.T, ctrl wifi.Controller, clock Clock, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithPollAttempts(3),
		WithPollInterval(500 * time.Millisecond),
		WithPace(0),
		WithClock(clock),
	}
	return New(ctrl, append(base, opts...)...)
}

func passwordsTried(res Result) []string {
	var pws []string
	for _, a := range res.Attempts {
		pws = append(pws, a.Password)
	}
	return pws
}

func TestRunStopsAtFirstWorkingPassword(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "p2"), "wlan0")
	clock := newFakeClock()
	store := credstore.NewJSONStore(filepath.Join(t.TempDir(), "successful_connections.json"))
	e := newEngine(t, ctrl, clock, WithStore(store))

	res, err := e.Run(context.Background(), "HomeNet", []string{"p1", "p2", "p3"}, false)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "HomeNet", res.SSID)
	assert.Equal(t, "p2", res.Password)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"p1", "p2"}, passwordsTried(res))
	assert.Equal(t, 1, res.Resets)
	assert.NoError(t, res.StoreErr)

	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrPollTimeout)
	assert.Equal(t, Connected, res.Attempts[1].State)
	assert.Equal(t, OutcomeConnected, res.Attempts[1].Outcome)

	assert.Equal(t, 2, ctrl.Count("configure"))
	assert.Equal(t, 2, ctrl.Count("disconnect"))
	assert.Equal(t, 2, ctrl.Count("remove-profiles"))
	assert.True(t, ctrl.Associated())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, saved, "HomeNet")
	assert.Equal(t, "p2", saved["HomeNet"].Password)
	assert.True(t, clock.Now().Equal(saved["HomeNet"].LastConnected))
}

func TestRunResetOrder(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "p2"))
	e := newEngine(t, ctrl, newFakeClock(), WithPollAttempts(1))

	_, err := e.Run(context.Background(), "HomeNet", []string{"p1", "p2"}, false)
	require.NoError(t, err)
	want := []string{
		"disconnect", "remove-profiles",
		"configure HomeNet", "connect stub-0", "status",
		"disconnect", "remove-profiles",
		"configure HomeNet", "connect stub-1", "status",
	}
	assert.Equal(t, want, ctrl.Calls())
}

func TestRunExhausted(t *testing.T) {
	ctrl := wifi.NewStubController(nil)
	clock := newFakeClock()
	store := credstore.NewJSONStore(filepath.Join(t.TempDir(), "successful_connections.json"))
	e := newEngine(t, ctrl, clock, WithStore(store))

	res, err := e.Run(context.Background(), "HomeNet", []string{"a", "b", "c"}, false)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.False(t, res.Found)
	assert.Empty(t, res.Password)
	assert.Len(t, res.Attempts, 3)
	assert.Equal(t, 3, res.Resets)
	for _, a := range res.Attempts {
		assert.Equal(t, Failed, a.State)
		assert.Equal(t, 3, a.Polls)
	}
	assert.Equal(t, 9, ctrl.Count("status"))
	assert.Len(t, clock.Sleeps(), 6)
	assert.False(t, ctrl.Associated())
	assert.Zero(t, ctrl.Profiles())

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRunOpenNetwork(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptOpen("CoffeeShop"))
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(context.Background(), "CoffeeShop", []string{"ignored", "also-ignored"}, true)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Empty(t, res.Password)
	require.Len(t, res.Attempts, 1)
	assert.True(t, res.Attempts[0].Open)
	assert.Equal(t, 1, ctrl.Count("configure"))
}

func TestRunOpenNetworkRejected(t *testing.T) {
	ctrl := wifi.NewStubController(nil)
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(context.Background(), "CoffeeShop", nil, true)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, 1, res.Resets)
}

func TestRunNoCandidates(t *testing.T) {
	ctrl := wifi.NewStubController(nil)
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(context.Background(), "HomeNet", nil, false)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, ctrl.Calls())
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctrl := wifi.NewStubController(nil)
	e := newEngine(t, ctrl, newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx, "HomeNet", []string{"a", "b"}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, ctrl.Calls())
}

func TestRunCancelledMidAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl := wifi.NewStubController(func(wifi.Profile) bool {
		cancel()
		return false
	})
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(ctx, "HomeNet", []string{"a", "b", "c"}, false)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, Failed, res.Attempts[0].State)
	assert.Equal(t, 3, res.Attempts[0].Polls)
	assert.Equal(t, 1, res.Resets)
	assert.Equal(t, 1, ctrl.Count("configure"))
}

func TestRunControllerErrors(t *testing.T) {
	boom := errors.New("boom")
	for _, tt := range []struct {
		name    string
		setup   func(*wifi.StubController)
		wantErr error
		outcome Outcome
		status  int
	}{
		{
			name:    "configure",
			setup:   func(s *wifi.StubController) { s.ConfigureErr = boom },
			wantErr: ErrConfigure,
			outcome: OutcomeError,
		},
		{
			name:    "connect",
			setup:   func(s *wifi.StubController) { s.ConnectErr = boom },
			wantErr: ErrConnect,
			outcome: OutcomeError,
		},
		{
			name:    "status",
			setup:   func(s *wifi.StubController) { s.StatusErr = boom },
			wantErr: ErrPollTimeout,
			outcome: OutcomeFailed,
			status:  6,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "b"))
			tt.setup(ctrl)
			e := newEngine(t, ctrl, newFakeClock())

			res, err := e.Run(context.Background(), "HomeNet", []string{"a", "b"}, false)
			assert.ErrorIs(t, err, ErrExhausted)
			require.Len(t, res.Attempts, 2)
			for _, a := range res.Attempts {
				assert.Equal(t, tt.outcome, a.Outcome)
				assert.ErrorIs(t, a.Err, tt.wantErr)
			}
			assert.Equal(t, 2, res.Resets)
			assert.Equal(t, tt.status, ctrl.Count("status"))
		})
	}
}

func TestRunResetErrorsAreNotFatal(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "c"))
	ctrl.DisconnectErr = errors.New("no supplicant")
	ctrl.RemoveErr = errors.New("read-only")
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(context.Background(), "HomeNet", []string{"a", "b", "c"}, false)
	require.NoError(t, err)
	assert.Equal(t, "c", res.Password)
	assert.Equal(t, 2, res.Resets)
	assert.Equal(t, 3, ctrl.Count("disconnect"))
	assert.Equal(t, 3, ctrl.Count("remove-profiles"))
}

func TestRunStartsFromNeutralInterface(t *testing.T) {
	for _, tt := range []struct {
		name string
		open bool
		pws  []string
		ssid string
	}{
		{name: "secured", pws: []string{"correct-pass", "other"}, ssid: "B"},
		{name: "open", open: true, ssid: "Guest"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			accept := wifi.AcceptPassword(tt.ssid, "correct-pass")
			if tt.open {
				accept = wifi.AcceptOpen(tt.ssid)
			}
			ctrl := wifi.NewStubController(accept)
			ctrl.Exclusive = true
			// Left over from an earlier session on another network.
			ctrl.Associate(wifi.NewProfile("A", "a-password", false))
			e := newEngine(t, ctrl, newFakeClock())

			res, err := e.Run(context.Background(), tt.ssid, tt.pws, tt.open)
			require.NoError(t, err)
			assert.True(t, res.Found)
			require.Len(t, res.Attempts, 1)
			assert.Equal(t, 0, res.Resets)
			calls := ctrl.Calls()
			require.GreaterOrEqual(t, len(calls), 3)
			assert.Equal(t, []string{"disconnect", "remove-profiles", "configure " + tt.ssid}, calls[:3])
		})
	}
}

func TestRunSecondSequenceOnSameInterface(t *testing.T) {
	ctrl := wifi.NewStubController(func(p wifi.Profile) bool {
		return p.Password == "pass-"+p.SSID
	})
	ctrl.Exclusive = true
	e := newEngine(t, ctrl, newFakeClock())

	res, err := e.Run(context.Background(), "A", []string{"pass-A"}, false)
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = e.Run(context.Background(), "B", []string{"pass-B"}, false)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Len(t, res.Attempts, 1)
}

func TestRunDelayedAssociation(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "a"))
	ctrl.Delay = 2
	clock := newFakeClock()
	e := newEngine(t, ctrl, clock, WithPollAttempts(5))

	res, err := e.Run(context.Background(), "HomeNet", []string{"a"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts[0].Polls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, clock.Sleeps())
}

func TestRunStoreFailure(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "a"))
	e := newEngine(t, ctrl, newFakeClock(), WithStore(failingStore{}))

	res, err := e.Run(context.Background(), "HomeNet", []string{"a"}, false)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.ErrorIs(t, res.StoreErr, credstore.ErrCorrupt)
}

func TestRunWorkersIgnored(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "b"))
	e := newEngine(t, ctrl, newFakeClock(), WithWorkers(8))

	res, err := e.Run(context.Background(), "HomeNet", []string{"a", "b"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, passwordsTried(res))
}

func TestRunPace(t *testing.T) {
	ctrl := wifi.NewStubController(nil)
	e := newEngine(t, ctrl, newFakeClock(), WithPace(50*time.Millisecond), WithPollAttempts(1))

	start := time.Now()
	_, err := e.Run(context.Background(), "HomeNet", []string{"a", "b"}, false)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestTryOne(t *testing.T) {
	ctrl := wifi.NewStubController(wifi.AcceptPassword("HomeNet", "right"))
	store := credstore.NewJSONStore(filepath.Join(t.TempDir(), "successful_connections.json"))
	e := newEngine(t, ctrl, newFakeClock(), WithStore(store))

	res, err := e.TryOne(context.Background(), "HomeNet", "wrong", false)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.False(t, res.Found)
	assert.Equal(t, 1, res.Resets)

	res, err = e.TryOne(context.Background(), "HomeNet", "right", false)
	require.NoError(t, err)
	assert.True(t, res.Found)

	entries, err := credstore.List(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "right", entries[0].Password)
}
