// Package testutil provides fakes and helpers shared by reconview tests
package testutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reconview/pkg/backend"
	"reconview/pkg/results"
)

// StatusResponse is one scripted answer to a status poll.
type StatusResponse struct {
	Status backend.ScanStatus
	Err    error
}

// ScriptedBackend implements backend.Client with canned responses.
// Queued status responses are consumed in order; the last one repeats.
type ScriptedBackend struct {
	mu sync.Mutex

	startID   string
	startErr  error
	startGate chan struct{}
	statuses  []StatusResponse
	results   map[string][]results.Record
	resErr    error
	resGate   chan struct{}

	startActive    int
	maxStartActive int

	startCalls   int
	statusCalls  int
	resultsCalls int
	lastTarget   string
	lastTools    []string
}

func NewScriptedBackend() *ScriptedBackend {
	return &ScriptedBackend{
		results: make(map[string][]results.Record),
	}
}

func (b *ScriptedBackend) SetStart(id string, err error) {
	b.mu.Lock()
	b.startID, b.startErr = id, err
	b.mu.Unlock()
}

func (b *ScriptedBackend) QueueStatus(status string, progress int) {
	b.mu.Lock()
	b.statuses = append(b.statuses, StatusResponse{Status: backend.ScanStatus{ScanStatus: status, Progress: progress}})
	b.mu.Unlock()
}

func (b *ScriptedBackend) QueueStatusError(err error) {
	b.mu.Lock()
	b.statuses = append(b.statuses, StatusResponse{Err: err})
	b.mu.Unlock()
}

func (b *ScriptedBackend) SetResults(scanID string, records []results.Record) {
	b.mu.Lock()
	b.results[scanID] = records
	b.mu.Unlock()
}

func (b *ScriptedBackend) SetResultsError(err error) {
	b.mu.Lock()
	b.resErr = err
	b.mu.Unlock()
}

// HoldResults makes GetResults block until the returned release func runs.
func (b *ScriptedBackend) HoldResults() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.resGate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// HoldStart makes StartScan block until the returned release func runs.
func (b *ScriptedBackend) HoldStart() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.startGate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (b *ScriptedBackend) StartScan(ctx context.Context, target string, tools []string) (string, error) {
	b.mu.Lock()
	b.startCalls++
	b.startActive++
	if b.startActive > b.maxStartActive {
		b.maxStartActive = b.startActive
	}
	b.lastTarget = target
	b.lastTools = append([]string(nil), tools...)
	gate := b.startGate
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.startActive--
		b.mu.Unlock()
	}()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startID, b.startErr
}

func (b *ScriptedBackend) GetStatus(ctx context.Context, scanID string) (backend.ScanStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCalls++
	if len(b.statuses) == 0 {
		return backend.ScanStatus{ScanStatus: backend.StatusRunning}, nil
	}
	next := b.statuses[0]
	if len(b.statuses) > 1 {
		b.statuses = b.statuses[1:]
	}
	return next.Status, next.Err
}

func (b *ScriptedBackend) GetResults(ctx context.Context, scanID string) ([]results.Record, error) {
	b.mu.Lock()
	b.resultsCalls++
	gate := b.resGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resErr != nil {
		return nil, b.resErr
	}
	return b.results[scanID], nil
}

func (b *ScriptedBackend) StartCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startCalls
}

// MaxConcurrentStarts is the highest number of StartScan calls seen running at once.
func (b *ScriptedBackend) MaxConcurrentStarts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxStartActive
}

func (b *ScriptedBackend) StatusCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

func (b *ScriptedBackend) ResultsCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resultsCalls
}

func (b *ScriptedBackend) LastSubmission() (string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTarget, append([]string(nil), b.lastTools...)
}

// ManualTicker only ticks when Fire is called.
type ManualTicker struct {
	ch       chan time.Time
	mu       sync.Mutex
	stopped  bool
	Interval time.Duration
}

func NewManualTicker(d time.Duration) *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), Interval: d}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

func (m *ManualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *ManualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Fire delivers one tick. It reports false if nothing received it within a
// second, which is what a stopped poller looks like.
func (m *ManualTicker) Fire() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(time.Second):
		return false
	}
}

// FakeClock is a settable time source.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TempDir creates a temporary directory that is removed when the test ends
func TempDir(t *testing.T, prefix string) string {
	t.Helper()

	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("Failed to clean up temp dir %s: %v", dir, err)
		}
	})
	return dir
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}

// CaptureOutput captures stdout while fn runs
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdout pipe: %v", err)
	}
	defer r.Close()

	orig := os.Stdout
	os.Stdout = w

	out := make(chan string, 1)
	go func() {
		buf, err := io.ReadAll(r)
		if err != nil {
			t.Errorf("Failed to read stdout: %v", err)
		}
		out <- string(buf)
	}()

	fn()

	os.Stdout = orig
	w.Close()
	return <-out
}

// WithTimeout creates a context with timeout for tests
func WithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

