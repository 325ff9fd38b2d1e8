package lifecycle_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"reconview/pkg/backend"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"
	"reconview/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickers struct {
	mu   sync.Mutex
	list []*testutil.ManualTicker
}

func (tk *tickers) factory(d time.Duration) lifecycle.Ticker {
	t := testutil.NewManualTicker(d)
	tk.mu.Lock()
	tk.list = append(tk.list, t)
	tk.mu.Unlock()
	return t
}

func (tk *tickers) last() *testutil.ManualTicker {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	if len(tk.list) == 0 {
		return nil
	}
	return tk.list[len(tk.list)-1]
}

type transition struct {
	from lifecycle.State
	to   lifecycle.State
}

type recorder struct {
	mu    sync.Mutex
	seen  []transition
	polls []string
}

func (r *recorder) hook(_ context.Context, from lifecycle.State, snap lifecycle.Snapshot) {
	r.mu.Lock()
	r.seen = append(r.seen, transition{from, snap.State})
	r.mu.Unlock()
}

func (r *recorder) poll(outcome string) {
	r.mu.Lock()
	r.polls = append(r.polls, outcome)
	r.mu.Unlock()
}

func (r *recorder) transitions() []transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition(nil), r.seen...)
}

func (r *recorder) pollOutcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.polls...)
}

func newController(t *testing.T, client backend.Client, opts ...lifecycle.Option) (*lifecycle.Controller, *tickers) {
	t.Helper()
	tk := &tickers{}
	base := []lifecycle.Option{
		lifecycle.WithTickerFactory(tk.factory),
		lifecycle.WithLogger(logger.NewDiscardLogger()),
	}
	c := lifecycle.NewController(client, append(base, opts...)...)
	t.Cleanup(c.Close)
	return c, tk
}

func TestSubmitPollsUntilCompleted(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	be.QueueStatus(backend.StatusRunning, 40)
	be.QueueStatus(backend.StatusCompleted, 100)
	rec := &recorder{}
	c, tk := newController(t, be, lifecycle.WithHook(rec.hook))

	id, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	target, tools := be.LastSubmission()
	assert.Equal(t, "example.com", target)
	assert.Equal(t, []string{"subfinder"}, tools)

	snap := c.Snapshot()
	assert.Equal(t, lifecycle.StateRunning, snap.State)
	assert.False(t, snap.CanSubmit)
	assert.False(t, snap.ShowFollowUps)
	require.NotNil(t, snap.Job)
	assert.Equal(t, 0, snap.Job.Progress)
	assert.True(t, c.Polling())

	_, err = c.ResultsID()
	assert.ErrorIs(t, err, rverrors.ErrNotTerminal)

	ticker := tk.last()
	require.NotNil(t, ticker)
	assert.Equal(t, lifecycle.DefaultPollInterval, ticker.Interval)

	require.True(t, ticker.Fire())
	assert.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Job != nil && s.Job.Progress == 40
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, lifecycle.StateRunning, c.Snapshot().State)

	require.True(t, ticker.Fire())
	assert.Eventually(t, func() bool {
		return c.Snapshot().State == lifecycle.StateCompleted
	}, time.Second, 5*time.Millisecond)

	snap = c.Snapshot()
	assert.Equal(t, 100, snap.Job.Progress)
	assert.Equal(t, backend.StatusCompleted, snap.Job.Status)
	assert.True(t, snap.ShowFollowUps)
	assert.False(t, c.Polling())
	assert.Eventually(t, ticker.Stopped, time.Second, 5*time.Millisecond)

	resultsID, err := c.ResultsID()
	require.NoError(t, err)
	assert.Equal(t, "abc123", resultsID)

	assert.False(t, ticker.Fire(), "no polling after a terminal state")
	assert.Equal(t, 2, be.StatusCalls())

	assert.Equal(t, []transition{
		{lifecycle.StateIdle, lifecycle.StateSubmitting},
		{lifecycle.StateSubmitting, lifecycle.StateRunning},
		{lifecycle.StateRunning, lifecycle.StateCompleted},
	}, rec.transitions())
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		tools   []string
		wantMsg string
	}{
		{name: "empty target", target: "", tools: []string{"subfinder"}, wantMsg: "Target domain/IP is required"},
		{name: "blank target", target: "   ", tools: []string{"subfinder"}, wantMsg: "Target domain/IP is required"},
		{name: "no tools", target: "example.com", tools: nil, wantMsg: "At least one tool must be selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := testutil.NewScriptedBackend()
			c, tk := newController(t, be)

			_, err := c.Submit(context.Background(), tt.target, tt.tools)

			require.Error(t, err)
			assert.True(t, rverrors.IsValidation(err))
			assert.Equal(t, 0, be.StartCalls(), "validation failures never reach the backend")
			assert.Nil(t, tk.last())

			snap := c.Snapshot()
			assert.Equal(t, lifecycle.StateIdle, snap.State)
			assert.True(t, snap.CanSubmit)
			require.NotNil(t, snap.Alert)
			assert.Equal(t, tt.wantMsg, snap.Alert.Message)
		})
	}
}

func TestAlertExpires(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c, _ := newController(t, testutil.NewScriptedBackend(), lifecycle.WithClock(clock.Now))

	_, err := c.Submit(context.Background(), "", []string{"subfinder"})
	require.Error(t, err)
	require.NotNil(t, c.Snapshot().Alert)

	clock.Advance(lifecycle.AlertLifetime - time.Millisecond)
	assert.NotNil(t, c.Snapshot().Alert)

	clock.Advance(time.Millisecond)
	assert.Nil(t, c.Snapshot().Alert)
}

func TestSubmitBackendFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "backend rejects",
			err:     rverrors.NewBackendError("start_scan", "Invalid tools: foo", http.StatusBadRequest),
			wantMsg: "Invalid tools: foo",
		},
		{
			name:    "backend rejects without message",
			err:     rverrors.NewBackendError("start_scan", "", http.StatusInternalServerError),
			wantMsg: "Failed to start scan",
		},
		{
			name:    "network failure",
			err:     rverrors.NewTransportError("start_scan", errors.New("connection refused")),
			wantMsg: rverrors.NetworkErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := testutil.NewScriptedBackend()
			be.SetStart("", tt.err)
			c, tk := newController(t, be)

			_, err := c.Submit(context.Background(), "example.com", []string{"nmap"})

			assert.ErrorIs(t, err, tt.err)
			snap := c.Snapshot()
			assert.Equal(t, lifecycle.StateIdle, snap.State)
			assert.Nil(t, snap.Job)
			require.NotNil(t, snap.Alert)
			assert.Equal(t, tt.wantMsg, snap.Alert.Message)
			assert.Nil(t, tk.last(), "no poller after a failed submission")
		})
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	c, _ := newController(t, be)

	_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), "other.com", []string{"amass"})

	assert.ErrorIs(t, err, rverrors.ErrBusy)
	assert.Equal(t, 1, be.StartCalls())
	assert.Equal(t, "example.com", c.Snapshot().Job.Target)
}

func TestTickErrorKeepsPolling(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	be.QueueStatusError(rverrors.NewTransportError("scan_status", errors.New("timeout")))
	be.QueueStatus(backend.StatusRunning, 60)
	rec := &recorder{}
	c, _ := newController(t, be, lifecycle.WithPollObserver(rec.poll))

	_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)

	c.Tick(context.Background())
	snap := c.Snapshot()
	assert.Equal(t, lifecycle.StateRunning, snap.State)
	assert.Equal(t, 0, snap.Job.Progress)
	assert.Nil(t, snap.Alert, "poll errors are not surfaced")
	assert.True(t, c.Polling())

	c.Tick(context.Background())
	assert.Equal(t, 60, c.Snapshot().Job.Progress)
	assert.Equal(t, []string{lifecycle.PollError, lifecycle.PollOK}, rec.pollOutcomes())
}

func TestProgressNeverDecreases(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	for _, p := range []int{50, 30, -5, 250} {
		be.QueueStatus(backend.StatusRunning, p)
	}
	c, _ := newController(t, be)
	_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)

	var seen []int
	for i := 0; i < 4; i++ {
		c.Tick(context.Background())
		seen = append(seen, c.Snapshot().Job.Progress)
	}

	assert.Equal(t, []int{50, 50, 50, 100}, seen)
	assert.Equal(t, lifecycle.StateRunning, c.Snapshot().State)
}

func TestFailedScanStopsPolling(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	be.QueueStatus(backend.StatusFailed, 20)
	c, _ := newController(t, be)
	_, err := c.Submit(context.Background(), "example.com", []string{"nmap"})
	require.NoError(t, err)

	c.Tick(context.Background())

	snap := c.Snapshot()
	assert.Equal(t, lifecycle.StateFailed, snap.State)
	assert.True(t, snap.ShowFollowUps)
	assert.False(t, c.Polling())
	id, err := c.ResultsID()
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	c.Tick(context.Background())
	assert.Equal(t, 1, be.StatusCalls(), "terminal controllers do not poll")
}

// racingBackend runs during before answering a status poll.
type racingBackend struct {
	*testutil.ScriptedBackend
	during func()
}

func (r *racingBackend) GetStatus(ctx context.Context, scanID string) (backend.ScanStatus, error) {
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return r.ScriptedBackend.GetStatus(ctx, scanID)
}

func TestStaleStatusIsIgnored(t *testing.T) {
	t.Run("after reset", func(t *testing.T) {
		be := &racingBackend{ScriptedBackend: testutil.NewScriptedBackend()}
		be.SetStart("abc123", nil)
		be.QueueStatus(backend.StatusCompleted, 100)
		rec := &recorder{}
		c, _ := newController(t, be, lifecycle.WithPollObserver(rec.poll))
		_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
		require.NoError(t, err)

		be.during = c.Reset
		c.Tick(context.Background())

		snap := c.Snapshot()
		assert.Equal(t, lifecycle.StateIdle, snap.State)
		assert.Nil(t, snap.Job)
		assert.Equal(t, []string{lifecycle.PollStale}, rec.pollOutcomes())
	})

	t.Run("after resubmission", func(t *testing.T) {
		be := &racingBackend{ScriptedBackend: testutil.NewScriptedBackend()}
		be.SetStart("abc123", nil)
		be.QueueStatus(backend.StatusCompleted, 100)
		c, _ := newController(t, be)
		_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
		require.NoError(t, err)

		be.during = func() {
			c.Reset()
			be.SetStart("def456", nil)
			_, err := c.Submit(context.Background(), "other.com", []string{"amass"})
			assert.NoError(t, err)
		}
		c.Tick(context.Background())

		snap := c.Snapshot()
		assert.Equal(t, lifecycle.StateRunning, snap.State)
		assert.Equal(t, "def456", snap.Job.ID)
		assert.Equal(t, 0, snap.Job.Progress)
	})
}

func TestReset(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	rec := &recorder{}
	c, tk := newController(t, be, lifecycle.WithHook(rec.hook))
	_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)

	c.Reset()
	c.Reset()

	snap := c.Snapshot()
	assert.Equal(t, lifecycle.StateIdle, snap.State)
	assert.True(t, snap.CanSubmit)
	assert.Nil(t, snap.Job)
	assert.False(t, c.Polling())
	assert.Eventually(t, tk.last().Stopped, time.Second, 5*time.Millisecond)

	_, err = c.ResultsID()
	assert.ErrorIs(t, err, rverrors.ErrNoJob)

	resets := 0
	for _, tr := range rec.transitions() {
		if tr.to == lifecycle.StateIdle {
			resets++
		}
	}
	assert.Equal(t, 1, resets, "second reset is a no-op")

	be.SetStart("def456", nil)
	id, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
	require.NoError(t, err)
	assert.Equal(t, "def456", id)
}

func TestSnapshotIsACopy(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	c, _ := newController(t, be)
	_, err := c.Submit(context.Background(), "example.com", []string{"subfinder", "amass"})
	require.NoError(t, err)

	snap := c.Snapshot()
	snap.Job.Tools[0] = "changed"
	snap.Job.Progress = 99

	again := c.Snapshot()
	assert.Equal(t, []string{"subfinder", "amass"}, again.Job.Tools)
	assert.Equal(t, 0, again.Job.Progress)
}

func TestResetDuringSubmitKeepsOneRequestInFlight(t *testing.T) {
	be := testutil.NewScriptedBackend()
	be.SetStart("abc123", nil)
	release := be.HoldStart()
	c, _ := newController(t, be)

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "example.com", []string{"subfinder"})
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return be.StartCalls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, lifecycle.StateSubmitting, c.Snapshot().State)

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, lifecycle.StateIdle, snap.State)
	assert.False(t, snap.CanSubmit)

	_, err := c.Submit(context.Background(), "other.com", []string{"amass"})
	assert.ErrorIs(t, err, rverrors.ErrBusy)
	assert.Equal(t, 1, be.StartCalls())

	release()
	assert.ErrorIs(t, <-firstErr, rverrors.ErrNoJob)
	assert.Equal(t, 1, be.MaxConcurrentStarts())
	assert.True(t, c.Snapshot().CanSubmit)
	assert.False(t, c.Polling())

	be.SetStart("def456", nil)
	id, err := c.Submit(context.Background(), "other.com", []string{"amass"})
	require.NoError(t, err)
	assert.Equal(t, "def456", id)
}
