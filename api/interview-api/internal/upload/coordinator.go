// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_upload

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// Metadata is the per-session submission envelope sent alongside the
// segments.
type Metadata struct {
	SessionID   string
	UserID      string
	ResumeID    uint64
	JobCode     string
	Company     string
	ResumeTitle string
	Timestamp   time.Time
	Questions   []internal_type.Question
}

// Config tunes the submission transport and the synthetic progress policy.
// The transport reports no partial-byte progress, so the coordinator maps
// "request dispatched" to AcceptFloorPercent and advances by StepPercent
// every Cadence once the backend has acknowledged receipt.
type Config struct {
	Host               string
	AcceptFloorPercent int
	StepPercent        int
	Cadence            time.Duration
	Dwell              time.Duration
}

func (c *Config) applyDefaults() {
	if c.AcceptFloorPercent <= 0 {
		c.AcceptFloorPercent = 15
	}
	if c.StepPercent <= 0 {
		c.StepPercent = 20
	}
	if c.Cadence <= 0 {
		c.Cadence = 150 * time.Millisecond
	}
	if c.Dwell <= 0 {
		c.Dwell = 3 * time.Second
	}
}

// Coordinator converts a finished segment list plus session metadata into one
// multipart submission per session. There is no automatic retry: a failed
// upload is recoverable only by a full session restart.
type Coordinator struct {
	logger commons.Logger
	client *resty.Client
	cfg    Config

	onProgress func(sessionID string, view JobView)

	mu   sync.Mutex
	jobs map[string]*Job
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithProgressListener registers a callback invoked on every job change.
func WithProgressListener(fn func(sessionID string, view JobView)) CoordinatorOption {
	return func(u *Coordinator) { u.onProgress = fn }
}

// WithClient overrides the HTTP client, used by tests.
func WithClient(client *resty.Client) CoordinatorOption {
	return func(u *Coordinator) { u.client = client }
}

func NewCoordinator(logger commons.Logger, cfg Config, opts ...CoordinatorOption) *Coordinator {
	cfg.applyDefaults()
	u := &Coordinator{
		logger: logger,
		client: resty.New().SetBaseURL(cfg.Host),
		cfg:    cfg,
		jobs:   make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Job returns the job for a session, if one was ever submitted.
func (u *Coordinator) Job(sessionID string) (*Job, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	job, ok := u.jobs[sessionID]
	return job, ok
}

// Submit builds the multipart submission and runs it asynchronously.
// Calling Submit twice for the same session is a programmer error and
// returns ErrAlreadySubmitted. The segment list must be complete: one
// segment per question, index-ordered with no gaps.
func (u *Coordinator) Submit(ctx context.Context, meta Metadata, segments []internal_type.Segment) (*Job, error) {
	if len(segments) != len(meta.Questions) {
		return nil, fmt.Errorf("%w: have %d segments for %d questions",
			internal_type.ErrNotCompleted, len(segments), len(meta.Questions))
	}
	for i, segment := range segments {
		if segment.Index != i {
			return nil, fmt.Errorf("%w: segment %d carries index %d",
				internal_type.ErrNotCompleted, i, segment.Index)
		}
	}

	u.mu.Lock()
	if _, exists := u.jobs[meta.SessionID]; exists {
		u.mu.Unlock()
		return nil, internal_type.ErrAlreadySubmitted
	}
	job := newJob(func(view JobView) {
		if u.onProgress != nil {
			u.onProgress(meta.SessionID, view)
		}
	})
	u.jobs[meta.SessionID] = job
	u.mu.Unlock()

	go u.run(ctx, meta, segments, job)
	return job, nil
}

func (u *Coordinator) run(ctx context.Context, meta Metadata, segments []internal_type.Segment, job *Job) {
	job.begin(u.cfg.AcceptFloorPercent)

	req := u.client.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"userId":      meta.UserID,
			"resumeId":    strconv.FormatUint(meta.ResumeID, 10),
			"jobCode":     meta.JobCode,
			"company":     meta.Company,
			"resumeTitle": meta.ResumeTitle,
			"timestamp":   meta.Timestamp.UTC().Format(time.RFC3339),
		})
	for i, question := range meta.Questions {
		req.SetMultipartFormData(map[string]string{
			fmt.Sprintf("question_%d", i): string(question),
		})
	}
	for _, segment := range segments {
		name := fmt.Sprintf("answer_%d", segment.Index)
		req.SetMultipartField(name,
			fmt.Sprintf("%s.%s", name, extension(segment.MimeType)),
			segment.MimeType,
			bytes.NewReader(segment.Data))
	}

	resp, err := req.Post("/v1/analysis/interviews")
	if err != nil {
		u.logger.Errorf("interview submission failed: session=%s err=%v", meta.SessionID, err)
		job.fail(err.Error())
		u.scheduleClear(job)
		return
	}
	if resp.IsError() {
		u.logger.Errorf("interview submission rejected: session=%s status=%s", meta.SessionID, resp.Status())
		job.fail(fmt.Sprintf("analysis backend returned %s", resp.Status()))
		u.scheduleClear(job)
		return
	}

	// Backend acknowledged; walk the synthetic progress to completion.
	for job.advance(u.cfg.StepPercent) < 99 {
		time.Sleep(u.cfg.Cadence)
	}
	job.succeed()
	u.logger.Infof("interview submitted: session=%s segments=%d", meta.SessionID, len(segments))
	u.scheduleClear(job)
}

func (u *Coordinator) scheduleClear(job *Job) {
	time.AfterFunc(u.cfg.Dwell, job.clear)
}

func extension(mimeType string) string {
	if idx := strings.LastIndex(mimeType, "/"); idx >= 0 && idx < len(mimeType)-1 {
		return mimeType[idx+1:]
	}
	return "bin"
}
