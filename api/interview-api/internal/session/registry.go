// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_session

import (
	"context"
	"sync"
	"time"

	internal_clock "github.com/interviaai/api/interview-api/internal/clock"
	internal_device "github.com/interviaai/api/interview-api/internal/device"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	internal_upload "github.com/interviaai/api/interview-api/internal/upload"
	"github.com/interviaai/pkg/commons"
)

// CreateRequest seeds one interview session.
type CreateRequest struct {
	UserID      string
	ResumeID    uint64
	JobCode     string
	Company     string
	ResumeTitle string
	Mode        internal_type.Mode
	Questions   []internal_type.Question
}

// Runtime is the in-memory half of one session: the state machine and its
// collaborators. The persisted row carries the durable status; everything
// here dies with the process.
type Runtime struct {
	SessionID  string
	Mode       internal_type.Mode
	Questions  []internal_type.Question
	Devices    *internal_device.Manager
	Controller *Controller
	Hub        *Hub
	CreatedAt  time.Time
}

// RegistryConfig carries the per-session timing knobs.
type RegistryConfig struct {
	AnswerDuration time.Duration
	PrepDuration   time.Duration
	ClockTick      time.Duration
}

// Registry owns every live session runtime and ties the state machine to the
// store and the upload coordinator. One registry per process.
type Registry struct {
	logger     commons.Logger
	store      Store
	uploader   *internal_upload.Coordinator
	cfg        RegistryConfig
	newDevices func() internal_type.MediaDevices

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

func NewRegistry(
	logger commons.Logger,
	store Store,
	uploader *internal_upload.Coordinator,
	cfg RegistryConfig,
	newDevices func() internal_type.MediaDevices,
) *Registry {
	return &Registry{
		logger:     logger,
		store:      store,
		uploader:   uploader,
		cfg:        cfg,
		newDevices: newDevices,
		runtimes:   make(map[string]*Runtime),
	}
}

// Create persists a pending session row and builds its runtime. The runtime
// stays registered until Remove so late status and result reads resolve.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (*Runtime, error) {
	if len(req.Questions) < 1 {
		return nil, internal_type.ErrNoQuestions
	}

	row := &InterviewSession{
		UserID:        req.UserID,
		ResumeID:      req.ResumeID,
		JobCode:       req.JobCode,
		Company:       req.Company,
		ResumeTitle:   req.ResumeTitle,
		Mode:          string(req.Mode),
		QuestionCount: len(req.Questions),
	}
	sessionID, err := r.store.Save(ctx, row)
	if err != nil {
		return nil, err
	}

	hub := NewHub()
	devices := internal_device.NewManager(r.logger, r.newDevices())
	clockOpts := []internal_clock.Option{}
	if r.cfg.ClockTick > 0 {
		clockOpts = append(clockOpts, internal_clock.WithTick(r.cfg.ClockTick))
	}
	clock := internal_clock.New(r.logger, clockOpts...)

	meta := internal_upload.Metadata{
		SessionID:   sessionID,
		UserID:      req.UserID,
		ResumeID:    req.ResumeID,
		JobCode:     req.JobCode,
		Company:     req.Company,
		ResumeTitle: req.ResumeTitle,
		Questions:   req.Questions,
	}

	controller, err := NewController(r.logger,
		Config{
			SessionID:      sessionID,
			Questions:      req.Questions,
			Mode:           req.Mode,
			AnswerDuration: r.cfg.AnswerDuration,
			PrepDuration:   r.cfg.PrepDuration,
		},
		devices,
		clock,
		WithHub(hub),
		WithCompletionHandler(func(segments []internal_type.Segment) {
			r.onCompleted(meta, segments)
		}),
	)
	if err != nil {
		return nil, err
	}

	runtime := &Runtime{
		SessionID:  sessionID,
		Mode:       req.Mode,
		Questions:  req.Questions,
		Devices:    devices,
		Controller: controller,
		Hub:        hub,
		CreatedAt:  time.Now(),
	}

	r.mu.Lock()
	r.runtimes[sessionID] = runtime
	r.mu.Unlock()
	return runtime, nil
}

// Get returns the runtime for a live session.
func (r *Registry) Get(sessionID string) (*Runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runtime, ok := r.runtimes[sessionID]
	return runtime, ok
}

// Remove drops a runtime from the registry, aborting it first if it is still
// running. The persisted row is untouched.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	runtime, ok := r.runtimes[sessionID]
	delete(r.runtimes, sessionID)
	r.mu.Unlock()
	if ok {
		runtime.Controller.Abort()
	}
}

// Start claims the pending row, acquires the capture devices and launches
// the state machine. The row claim is the double-start guard: only the first
// caller flips pending to recording.
func (r *Registry) Start(ctx context.Context, sessionID string) error {
	runtime, ok := r.Get(sessionID)
	if !ok {
		return internal_type.ErrSessionNotFound
	}

	if err := r.store.Begin(ctx, sessionID); err != nil {
		return internal_type.ErrNotStartable
	}

	if _, err := runtime.Devices.Acquire(ctx); err != nil {
		if abandonErr := r.store.Abandon(ctx, sessionID); abandonErr != nil {
			r.logger.Errorf("abandon after acquire failure: session=%s err=%v", sessionID, abandonErr)
		}
		return err
	}

	if err := runtime.Controller.Start(); err != nil {
		runtime.Devices.Release()
		if abandonErr := r.store.Abandon(ctx, sessionID); abandonErr != nil {
			r.logger.Errorf("abandon after start failure: session=%s err=%v", sessionID, abandonErr)
		}
		return err
	}
	return nil
}

// Abort tears a running session down and marks the row abandoned.
func (r *Registry) Abort(ctx context.Context, sessionID string) error {
	runtime, ok := r.Get(sessionID)
	if !ok {
		return internal_type.ErrSessionNotFound
	}

	runtime.Controller.Abort()
	if err := r.store.Abandon(ctx, sessionID); err != nil {
		// Completed and submitted rows are not abandonable; callers aborting
		// a terminal session get a no-op.
		r.logger.Debugf("abandon skipped: session=%s err=%v", sessionID, err)
	}
	return nil
}

// Job returns the upload job for a session, if one was submitted.
func (r *Registry) Job(sessionID string) (*internal_upload.Job, bool) {
	return r.uploader.Job(sessionID)
}

// UploadListener bridges upload progress changes into the owning session's
// event hub. Wire it as the coordinator's progress listener.
func (r *Registry) UploadListener() func(sessionID string, view internal_upload.JobView) {
	return func(sessionID string, view internal_upload.JobView) {
		runtime, ok := r.Get(sessionID)
		if !ok {
			return
		}
		runtime.Hub.Publish(Event{
			Type:          EventUpload,
			UploadStatus:  string(view.Status),
			UploadPercent: view.Percent,
			UploadError:   view.Error,
		})
	}
}

// onCompleted runs once per completed session, off the controller goroutine.
// Practice sessions stop at completed; mock sessions hand the segments to
// the upload coordinator and record the outcome.
func (r *Registry) onCompleted(meta internal_upload.Metadata, segments []internal_type.Segment) {
	ctx := context.Background()

	if err := r.store.Complete(ctx, meta.SessionID); err != nil {
		r.logger.Errorf("complete transition failed: session=%s err=%v", meta.SessionID, err)
		return
	}

	runtime, ok := r.Get(meta.SessionID)
	if !ok || runtime.Mode != internal_type.ModeMock {
		return
	}

	meta.Timestamp = time.Now()
	job, err := r.uploader.Submit(ctx, meta, segments)
	if err != nil {
		r.logger.Errorf("submission rejected: session=%s err=%v", meta.SessionID, err)
		if finishErr := r.store.Finish(ctx, meta.SessionID, false); finishErr != nil {
			r.logger.Errorf("finish transition failed: session=%s err=%v", meta.SessionID, finishErr)
		}
		return
	}

	<-job.Done()
	view := job.Snapshot()
	if err := r.store.Finish(ctx, meta.SessionID, view.Status == internal_upload.StatusSucceeded); err != nil {
		r.logger.Errorf("finish transition failed: session=%s err=%v", meta.SessionID, err)
	}
}
