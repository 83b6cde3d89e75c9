// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// SyntheticDevices is the capture binding used when no platform adapter is
// attached: it grants every acquire and pumps placeholder chunks on the
// configured slice interval. Deployments that only ever drive practice
// dry-runs and load tests run on this.
type syntheticDevices struct {
	logger   commons.Logger
	interval time.Duration
}

func NewSyntheticDevices(logger commons.Logger, chunkInterval time.Duration) internal_type.MediaDevices {
	if chunkInterval <= 0 {
		chunkInterval = time.Second
	}
	return &syntheticDevices{logger: logger, interval: chunkInterval}
}

func (d *syntheticDevices) ListVideoInputs(_ context.Context) ([]internal_type.VideoInput, error) {
	return []internal_type.VideoInput{
		{DeviceID: "synthetic-0", Label: "Synthetic Camera"},
	}, nil
}

func (d *syntheticDevices) Acquire(_ context.Context, videoDeviceID string) (internal_type.CaptureHandle, error) {
	if videoDeviceID == "" {
		videoDeviceID = "synthetic-0"
	}
	h := &syntheticHandle{
		id:   uuid.New().String(),
		subs: make(map[int]chan []byte),
	}
	h.tracks = []*syntheticTrack{
		{kind: internal_type.TrackAudio, handle: h},
		{kind: internal_type.TrackVideo, handle: h},
	}
	go h.pump(d.interval)
	d.logger.Debugf("synthetic capture acquired: handle=%s device=%s", h.id, videoDeviceID)
	return h, nil
}

type syntheticHandle struct {
	id     string
	tracks []*syntheticTrack

	mu      sync.Mutex
	subs    map[int]chan []byte
	nextSub int
	stopped bool
}

func (h *syntheticHandle) ID() string       { return h.id }
func (h *syntheticHandle) MimeType() string { return "video/webm" }

func (h *syntheticHandle) Tracks() []internal_type.MediaTrack {
	tracks := make([]internal_type.MediaTrack, len(h.tracks))
	for i, t := range h.tracks {
		tracks[i] = t
	}
	return tracks
}

func (h *syntheticHandle) Subscribe() (<-chan []byte, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan []byte, 64)
	if h.stopped {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	detach := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, detach
}

// pump emits one placeholder slice per interval until every track stops.
func (h *syntheticHandle) pump(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	seq := 0
	for range ticker.C {
		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return
		}
		chunk := []byte(fmt.Sprintf("synthetic-slice-%s-%d", h.id, seq))
		seq++
		for _, sub := range h.subs {
			select {
			case sub <- chunk:
			default:
			}
		}
		h.mu.Unlock()
	}
}

// onTrackStopped closes the handle once no live track remains.
func (h *syntheticHandle) onTrackStopped() {
	for _, t := range h.tracks {
		if t.Live() {
			return
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub)
	}
}

type syntheticTrack struct {
	kind   internal_type.TrackKind
	handle *syntheticHandle

	mu      sync.Mutex
	stopped bool
}

func (t *syntheticTrack) Kind() internal_type.TrackKind { return t.kind }

func (t *syntheticTrack) Enabled() bool { return true }

func (t *syntheticTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}

func (t *syntheticTrack) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	t.handle.onTrackStopped()
}
