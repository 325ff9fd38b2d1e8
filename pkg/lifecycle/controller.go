// Package lifecycle drives one scan job from submission to a terminal state.
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"reconview/pkg/backend"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

const (
	DefaultPollInterval = 2 * time.Second
	AlertLifetime       = 5 * time.Second

	msgTargetRequired = "Target domain/IP is required"
	msgToolsRequired  = "At least one tool must be selected"
	msgStartFailed    = "Failed to start scan"
)

// Poll outcomes reported to the poll observer.
const (
	PollOK    = "ok"
	PollError = "error"
	PollStale = "stale"
)

type Job struct {
	ID        string    `json:"scan_id"`
	Target    string    `json:"target"`
	Tools     []string  `json:"tools"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	StartedAt time.Time `json:"started_at"`
}

type Alert struct {
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Persistent bool      `json:"persistent"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// Snapshot is a copy of the controller state safe to hand to renderers.
type Snapshot struct {
	State         State  `json:"state"`
	Job           *Job   `json:"job,omitempty"`
	Alert         *Alert `json:"alert,omitempty"`
	CanSubmit     bool   `json:"can_submit"`
	ShowFollowUps bool   `json:"show_follow_ups"`
}

// TransitionHook observes every state change. It runs outside the
// controller lock.
type TransitionHook func(ctx context.Context, from State, snap Snapshot)

type Option func(*Controller)

func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithTickerFactory(f TickerFactory) Option {
	return func(c *Controller) { c.newTicker = f }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithHook(h TransitionHook) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, h) }
}

func WithPollObserver(fn func(outcome string)) Option {
	return func(c *Controller) { c.observePoll = fn }
}

// WithBaseContext bounds the lifetime of every poller the controller starts.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) { c.baseCtx = ctx }
}

type Controller struct {
	client      backend.Client
	logger      *logger.Logger
	interval    time.Duration
	newTicker   TickerFactory
	now         func() time.Time
	hooks       []TransitionHook
	observePoll func(string)
	baseCtx     context.Context

	mu     sync.Mutex
	state  State
	job    *Job
	poller *Poller
	alert  *Alert
	gen    uint64

	// inflight outlives a Reset so a new Submit cannot race the pending request.
	inflight bool
}

func NewController(client backend.Client, opts ...Option) *Controller {
	c := &Controller{
		client:      client,
		logger:      logger.Default(),
		interval:    DefaultPollInterval,
		newTicker:   NewTimeTicker,
		now:         time.Now,
		observePoll: func(string) {},
		baseCtx:     context.Background(),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates the request, creates the job on the backend and starts
// polling it. It returns ErrBusy unless the controller is idle.
func (c *Controller) Submit(ctx context.Context, target string, tools []string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", c.reject(rverrors.NewValidationError("target", msgTargetRequired))
	}
	if len(tools) == 0 {
		return "", c.reject(rverrors.NewValidationError("tools", msgToolsRequired))
	}

	c.mu.Lock()
	if c.state != StateIdle || c.inflight {
		c.mu.Unlock()
		return "", rverrors.ErrBusy
	}
	from := c.state
	c.state = StateSubmitting
	c.inflight = true
	c.alert = nil
	gen := c.gen
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.fire(ctx, from, snap)

	requested := append([]string(nil), tools...)
	id, err := c.client.StartScan(ctx, target, requested)

	c.mu.Lock()
	c.inflight = false
	if gen != c.gen {
		// Reset ran while the request was in flight.
		c.mu.Unlock()
		c.logger.WithFields(logger.Fields{"scan_id": id, "target": target}).Warn("Discarding submission abandoned by reset")
		return "", rverrors.ErrNoJob
	}
	if err != nil {
		c.state = StateIdle
		c.alert = c.transientAlert(rverrors.UserMessage(err, msgStartFailed))
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.logger.WithError(err).WithField("target", target).Error("Failed to start scan")
		c.fire(ctx, StateSubmitting, snap)
		return "", err
	}

	c.poller.Stop()
	c.job = &Job{
		ID:        id,
		Target:    target,
		Tools:     requested,
		Status:    backend.StatusRunning,
		StartedAt: c.now(),
	}
	c.state = StateRunning
	c.poller = StartPoller(c.baseCtx, c.interval, c.newTicker, c.Tick)
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.logger.WithScan(id, target).Info("Scan started, polling status")
	c.fire(ctx, StateSubmitting, snap)
	return id, nil
}

// Tick performs one status poll. Errors are logged and left for the next
// tick; responses for a job that is no longer tracked are dropped.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateRunning || c.job == nil {
		c.mu.Unlock()
		return
	}
	id := c.job.ID
	c.mu.Unlock()

	status, err := c.client.GetStatus(ctx, id)
	if err != nil {
		c.observePoll(PollError)
		c.logger.WithError(err).WithField("scan_id", id).Warn("Error checking scan status")
		return
	}

	c.mu.Lock()
	if c.state != StateRunning || c.job == nil || c.job.ID != id {
		c.mu.Unlock()
		c.observePoll(PollStale)
		c.logger.WithField("scan_id", id).Debug("Ignoring status for untracked scan")
		return
	}
	c.observePoll(PollOK)

	progress := status.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > c.job.Progress {
		c.job.Progress = progress
	}

	var next State
	switch status.ScanStatus {
	case backend.StatusCompleted:
		next = StateCompleted
	case backend.StatusFailed:
		next = StateFailed
	default:
		c.mu.Unlock()
		return
	}

	c.job.Status = status.ScanStatus
	c.state = next
	p := c.poller
	c.poller = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	p.Stop()
	c.logger.WithScan(id, snap.Job.Target).WithField("status", status.ScanStatus).Info("Scan finished")
	c.fire(context.WithoutCancel(ctx), StateRunning, snap)
}

// Reset returns to idle, forgetting the tracked job and stopping its poller.
// Calling it again is a no-op. A submission still in flight is discarded when
// it returns, and submitting stays blocked until then.
func (c *Controller) Reset() {
	c.mu.Lock()
	from := c.state
	p := c.poller
	c.poller = nil
	c.job = nil
	c.alert = nil
	c.state = StateIdle
	c.gen++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	p.Stop()
	if from != StateIdle {
		c.fire(c.baseCtx, from, snap)
	}
}

// Close stops polling without changing state.
func (c *Controller) Close() {
	c.mu.Lock()
	p := c.poller
	c.poller = nil
	c.mu.Unlock()
	p.Stop()
}

// ResultsID is the job id to open results for. It is only available once the
// job reached a terminal state.
func (c *Controller) ResultsID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return "", rverrors.ErrNoJob
	}
	if !c.state.Terminal() {
		return "", rverrors.ErrNotTerminal
	}
	return c.job.ID, nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Polling reports whether a poller is active.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poller != nil && !c.poller.Stopped()
}

func (c *Controller) reject(err error) error {
	c.mu.Lock()
	c.alert = c.transientAlert(rverrors.UserMessage(err, msgStartFailed))
	c.mu.Unlock()
	return err
}

func (c *Controller) transientAlert(msg string) *Alert {
	return &Alert{
		Level:     "danger",
		Message:   msg,
		ExpiresAt: c.now().Add(AlertLifetime),
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         c.state,
		CanSubmit:     c.state == StateIdle && !c.inflight,
		ShowFollowUps: c.state.Terminal(),
	}
	if c.job != nil {
		job := *c.job
		job.Tools = append([]string(nil), c.job.Tools...)
		snap.Job = &job
	}
	if c.alert != nil && (c.alert.Persistent || c.now().Before(c.alert.ExpiresAt)) {
		alert := *c.alert
		snap.Alert = &alert
	}
	return snap
}

func (c *Controller) fire(ctx context.Context, from State, snap Snapshot) {
	for _, h := range c.hooks {
		h(ctx, from, snap)
	}
}
