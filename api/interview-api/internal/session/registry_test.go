// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/interviaai/api/interview-api/internal/testsupport"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	internal_upload "github.com/interviaai/api/interview-api/internal/upload"
	"github.com/interviaai/pkg/connectors"
)

type registryFixture struct {
	registry *Registry
	store    Store

	mu       sync.Mutex
	lastFake *testsupport.FakeMediaDevices
}

func (f *registryFixture) fake() *testsupport.FakeMediaDevices {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFake
}

func newRegistryFixture(t *testing.T, analysisHost string) *registryFixture {
	t.Helper()
	logger := newTestLogger(t)
	sql, err := connectors.NewSqliteConnector("file::memory:?cache=shared", logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(context.Background(), sql); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := NewStore(sql, logger)

	f := &registryFixture{store: store}

	var registry *Registry
	uploader := internal_upload.NewCoordinator(logger,
		internal_upload.Config{
			Host:    analysisHost,
			Cadence: time.Millisecond,
			Dwell:   10 * time.Millisecond,
		},
		internal_upload.WithProgressListener(func(sessionID string, view internal_upload.JobView) {
			registry.UploadListener()(sessionID, view)
		}),
	)
	registry = NewRegistry(logger, store, uploader,
		RegistryConfig{
			AnswerDuration: 30 * time.Millisecond,
			PrepDuration:   15 * time.Millisecond,
			ClockTick:      5 * time.Millisecond,
		},
		func() internal_type.MediaDevices {
			fake := testsupport.NewFakeMediaDevices()
			f.mu.Lock()
			f.lastFake = fake
			f.mu.Unlock()
			return fake
		},
	)
	f.registry = registry
	return f
}

func acceptingAnalysisServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func (f *registryFixture) create(t *testing.T, mode internal_type.Mode, questions int) *Runtime {
	t.Helper()
	runtime, err := f.registry.Create(context.Background(), CreateRequest{
		UserID:      "user-1",
		ResumeID:    7,
		JobCode:     "BE-7",
		Company:     "Acme",
		ResumeTitle: "Backend Engineer",
		Mode:        mode,
		Questions:   questionList(questions),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return runtime
}

func (f *registryFixture) waitStatus(t *testing.T, sessionID, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		row, err := f.store.Get(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		last = row.Status
		if last == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session %s stuck at status %q, want %q", sessionID, last, want)
}

func TestPracticeRunCompletesWithoutUpload(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")
	runtime := f.create(t, internal_type.ModePractice, 2)

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.waitStatus(t, runtime.SessionID, StatusCompleted)

	if _, ok := f.registry.Job(runtime.SessionID); ok {
		t.Error("practice session must not create an upload job")
	}
	if segments := runtime.Controller.Segments(); len(segments) != 2 {
		t.Errorf("got %d segments, want 2", len(segments))
	}
}

func TestMockRunSubmitsAndMarksSubmitted(t *testing.T) {
	server := acceptingAnalysisServer(t)
	f := newRegistryFixture(t, server.URL)
	runtime := f.create(t, internal_type.ModeMock, 2)

	events, detach := runtime.Hub.Subscribe()
	defer detach()

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.waitStatus(t, runtime.SessionID, StatusSubmitted)

	job, ok := f.registry.Job(runtime.SessionID)
	if !ok {
		t.Fatal("expected an upload job")
	}
	view := job.Snapshot()
	if view.Status != internal_upload.StatusSucceeded || view.Percent != 100 {
		t.Errorf("job = %+v, want succeeded at 100", view)
	}

	sawUpload := false
	deadline := time.After(time.Second)
	for !sawUpload {
		select {
		case event := <-events:
			if event.Type == EventUpload && event.UploadStatus == string(internal_upload.StatusSucceeded) {
				sawUpload = true
				if event.UploadPercent != 100 {
					t.Errorf("succeeded event percent = %d, want 100", event.UploadPercent)
				}
			}
		case <-deadline:
			t.Fatal("no upload event reached the session feed")
		}
	}
}

func TestMockUploadFailureMarksFailedAndKeepsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	f := newRegistryFixture(t, server.URL)
	runtime := f.create(t, internal_type.ModeMock, 2)

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.waitStatus(t, runtime.SessionID, StatusFailed)

	job, ok := f.registry.Job(runtime.SessionID)
	if !ok {
		t.Fatal("expected an upload job")
	}
	if view := job.Snapshot(); view.Status != internal_upload.StatusFailed || view.Error == "" {
		t.Errorf("job = %+v, want failed with message", view)
	}

	// The recordings survive a failed upload; a restart re-runs the whole
	// interview but nothing already captured is silently lost before that.
	if segments := runtime.Controller.Segments(); len(segments) != 2 {
		t.Errorf("got %d segments after failed upload, want 2", len(segments))
	}
}

func TestStartTwiceRejectedByRowClaim(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")
	runtime := f.create(t, internal_type.ModePractice, 2)

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := f.registry.Start(context.Background(), runtime.SessionID); !errors.Is(err, internal_type.ErrNotStartable) {
		t.Fatalf("second start err = %v, want ErrNotStartable", err)
	}
}

func TestStartUnknownSessionRejected(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")

	err := f.registry.Start(context.Background(), "missing")
	if !errors.Is(err, internal_type.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAcquireFailureAbandonsSession(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")
	runtime := f.create(t, internal_type.ModePractice, 2)
	f.fake().AcquireErr = internal_type.ErrPermissionDenied

	err := f.registry.Start(context.Background(), runtime.SessionID)
	if !errors.Is(err, internal_type.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	row, err := f.store.Get(context.Background(), runtime.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Status != StatusAbandoned {
		t.Errorf("status = %q, want %q", row.Status, StatusAbandoned)
	}
}

func TestAbortMarksAbandonedAndReleasesCapture(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")
	runtime := f.create(t, internal_type.ModePractice, 4)

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if phase, _ := runtime.Controller.Phase(); phase == internal_type.PhaseRecording {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session never reached recording")
		}
		time.Sleep(time.Millisecond)
	}

	if err := f.registry.Abort(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("abort: %v", err)
	}

	if phase, _ := runtime.Controller.Phase(); phase != internal_type.PhaseAborted {
		t.Errorf("phase = %v, want Aborted", phase)
	}
	if f.fake().LiveHandles() != 0 {
		t.Errorf("capture still live after abort")
	}
	f.waitStatus(t, runtime.SessionID, StatusAbandoned)
}

func TestRemoveAbortsRunningSession(t *testing.T) {
	f := newRegistryFixture(t, "http://127.0.0.1:1")
	runtime := f.create(t, internal_type.ModePractice, 4)

	if err := f.registry.Start(context.Background(), runtime.SessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.registry.Remove(runtime.SessionID)

	if _, ok := f.registry.Get(runtime.SessionID); ok {
		t.Error("runtime still registered after remove")
	}
	if phase, _ := runtime.Controller.Phase(); phase != internal_type.PhaseAborted {
		t.Errorf("phase = %v, want Aborted", phase)
	}
}
