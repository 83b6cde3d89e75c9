// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_session

import (
	"sync"
	"time"

	internal_clock "github.com/interviaai/api/interview-api/internal/clock"
	internal_device "github.com/interviaai/api/interview-api/internal/device"
	internal_recorder "github.com/interviaai/api/interview-api/internal/recorder"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// Config fixes one session run. Questions are resolved and validated by the
// caller before construction; the controller carries no fallback list.
type Config struct {
	SessionID      string
	Questions      []internal_type.Question
	Mode           internal_type.Mode
	AnswerDuration time.Duration
	PrepDuration   time.Duration
}

// Controller drives the interview state machine:
//
//	NotStarted --Start()--> AwaitingFirstCountdown
//	AwaitingFirstCountdown --prep expiry--> Recording(0)
//	Recording(i) --answer expiry--> AwaitingNextCountdown(i) | Completed
//	AwaitingNextCountdown(i) --prep expiry--> Recording(i+1)
//
// Start is the only externally triggered transition; everything else is
// driven by timer expiry. Recording(i) is reachable only via countdown
// expiry, so segments can be neither skipped nor duplicated. All mutable
// session state lives on this instance and dies with it.
type Controller struct {
	logger      commons.Logger
	cfg         Config
	devices     *internal_device.Manager
	clock       *internal_clock.Clock
	newRecorder func(index int) internal_type.Recorder
	hub         *Hub
	onCompleted func(segments []internal_type.Segment)

	mu       sync.Mutex
	phase    internal_type.Phase
	index    int
	epoch    uint64
	timer    *internal_clock.Timer
	recorder internal_type.Recorder
	token    internal_type.RecordingToken
	segments []internal_type.Segment
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRecorderFactory overrides how per-question recorders are built.
func WithRecorderFactory(factory func(index int) internal_type.Recorder) ControllerOption {
	return func(c *Controller) { c.newRecorder = factory }
}

// WithHub attaches an event hub for the observational feed.
func WithHub(hub *Hub) ControllerOption {
	return func(c *Controller) { c.hub = hub }
}

// WithCompletionHandler registers the callback invoked once with the final
// ordered segment list when the session completes.
func WithCompletionHandler(fn func(segments []internal_type.Segment)) ControllerOption {
	return func(c *Controller) { c.onCompleted = fn }
}

func NewController(
	logger commons.Logger,
	cfg Config,
	devices *internal_device.Manager,
	clock *internal_clock.Clock,
	opts ...ControllerOption,
) (*Controller, error) {
	if len(cfg.Questions) < 1 {
		return nil, internal_type.ErrNoQuestions
	}
	c := &Controller{
		logger:  logger,
		cfg:     cfg,
		devices: devices,
		clock:   clock,
		phase:   internal_type.PhaseNotStarted,
	}
	c.newRecorder = func(index int) internal_type.Recorder {
		return internal_recorder.NewSegmentRecorder(logger, index)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start moves the session into the first preparation countdown. The capture
// device must be acquired and ready; a device error is a blocking
// precondition, never retried here.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != internal_type.PhaseNotStarted {
		return internal_type.ErrNotStartable
	}
	if !c.devices.Status().Ready() {
		return internal_type.ErrDeviceNotReady
	}

	c.phase = internal_type.PhaseAwaitingFirstCountdown
	c.startPrepLocked()
	c.publishPhaseLocked()
	c.logger.Infof("session started: id=%s questions=%d mode=%s",
		c.cfg.SessionID, len(c.cfg.Questions), c.cfg.Mode)
	return nil
}

// Abort tears the session down from any non-terminal state: cancel the
// active timer, stop the active recorder, release the capture handle. All
// three run regardless of earlier failures so nothing leaks.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase.Terminal() {
		return
	}
	c.epoch++
	c.clock.CancelAll()
	c.timer = nil
	if c.token != nil && c.token.Open() {
		if _, err := c.recorder.Stop(c.token); err != nil {
			c.logger.Errorf("abort: recorder stop failed: %v", err)
		}
	}
	c.recorder, c.token = nil, nil
	c.devices.Release()

	c.phase = internal_type.PhaseAborted
	c.publishPhaseLocked()
	c.logger.Infof("session aborted: id=%s at question=%d", c.cfg.SessionID, c.index)
}

// Phase returns the current state machine position and question index.
func (c *Controller) Phase() (internal_type.Phase, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.index
}

// Segments returns a copy of the segments finalized so far. After
// Completed it holds exactly one segment per question, index-ordered. The
// list stays in memory after a failed upload so the operator can restart
// without re-recording.
func (c *Controller) Segments() []internal_type.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	segments := make([]internal_type.Segment, len(c.segments))
	copy(segments, c.segments)
	return segments
}

// startPrepLocked arms the preparation countdown for the upcoming question.
func (c *Controller) startPrepLocked() {
	c.epoch++
	epoch := c.epoch
	c.timer = c.clock.StartPrepTimer(c.cfg.PrepDuration,
		c.tickPublisher("prep"),
		func() { c.onPrepExpired(epoch) },
	)
}

// onPrepExpired moves AwaitingFirstCountdown/AwaitingNextCountdown into
// Recording. The epoch check drops a callback that lost the race with a
// teardown that already advanced the machine.
func (c *Controller) onPrepExpired(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}
	switch c.phase {
	case internal_type.PhaseAwaitingFirstCountdown:
		c.index = 0
	case internal_type.PhaseAwaitingNextCountdown:
		c.index++
	default:
		return
	}
	c.beginRecordingLocked()
}

// beginRecordingLocked enters Recording(index): fresh recorder, fresh answer
// timer, in that order, so a timer can never expire against a recorder that
// was not started.
func (c *Controller) beginRecordingLocked() {
	if err := c.devices.Ensure(); err != nil {
		c.logger.Errorf("session %s: %v before question %d", c.cfg.SessionID, err, c.index)
		c.teardownLocked()
		return
	}
	handle := c.devices.Handle()

	recorder := c.newRecorder(c.index)
	token, err := recorder.Start(handle)
	if err != nil {
		c.logger.Errorf("session %s: recorder start failed at question %d: %v", c.cfg.SessionID, c.index, err)
		c.teardownLocked()
		return
	}
	c.recorder, c.token = recorder, token

	c.phase = internal_type.PhaseRecording
	c.epoch++
	epoch := c.epoch
	c.timer = c.clock.StartAnswerTimer(c.cfg.AnswerDuration,
		c.tickPublisher("answer"),
		func() { c.onAnswerExpired(epoch) },
	)
	c.publishPhaseLocked()
}

// onAnswerExpired finalizes the current segment and either advances to the
// next countdown or completes the session. The segment is always closed
// before the transition is published.
func (c *Controller) onAnswerExpired(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.phase != internal_type.PhaseRecording {
		return
	}

	segment, err := c.recorder.Stop(c.token)
	if err != nil {
		c.logger.Errorf("session %s: recorder stop failed at question %d: %v", c.cfg.SessionID, c.index, err)
		c.teardownLocked()
		return
	}
	c.segments = append(c.segments, segment)
	c.recorder, c.token = nil, nil

	if c.index == len(c.cfg.Questions)-1 {
		c.completeLocked()
		return
	}
	c.phase = internal_type.PhaseAwaitingNextCountdown
	c.startPrepLocked()
	c.publishPhaseLocked()
}

func (c *Controller) completeLocked() {
	c.phase = internal_type.PhaseCompleted
	c.epoch++
	c.timer = nil
	c.devices.Release()
	c.publishPhaseLocked()
	c.logger.Infof("session completed: id=%s segments=%d", c.cfg.SessionID, len(c.segments))

	if c.onCompleted != nil {
		segments := make([]internal_type.Segment, len(c.segments))
		copy(segments, c.segments)
		go c.onCompleted(segments)
	}
}

// teardownLocked aborts from inside a transition: same three-step cleanup as
// Abort, ending in PhaseAborted.
func (c *Controller) teardownLocked() {
	c.epoch++
	c.clock.CancelAll()
	c.timer = nil
	if c.token != nil && c.token.Open() {
		if _, err := c.recorder.Stop(c.token); err != nil {
			c.logger.Errorf("teardown: recorder stop failed: %v", err)
		}
	}
	c.recorder, c.token = nil, nil
	c.devices.Release()
	c.phase = internal_type.PhaseAborted
	c.publishPhaseLocked()
}

func (c *Controller) tickPublisher(countdown string) func(time.Duration) {
	if c.hub == nil {
		return nil
	}
	return func(remaining time.Duration) {
		c.mu.Lock()
		index := c.index
		c.mu.Unlock()
		c.hub.Publish(Event{
			Type:             EventCountdown,
			Countdown:        countdown,
			QuestionIndex:    index,
			RemainingSeconds: int(remaining.Round(time.Second) / time.Second),
		})
	}
}

func (c *Controller) publishPhaseLocked() {
	if c.hub == nil {
		return
	}
	c.hub.Publish(Event{
		Type:          EventPhase,
		Phase:         c.phase.String(),
		QuestionIndex: c.index,
	})
}
