// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.

// Package testsupport provides a deterministic in-memory media capture
// capability for session, recorder and device tests.
package testsupport

import (
	"context"
	"sync"

	"github.com/google/uuid"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
)

// FakeMediaDevices implements internal_type.MediaDevices in memory.
type FakeMediaDevices struct {
	mu         sync.Mutex
	Inputs     []internal_type.VideoInput
	AcquireErr error
	acquired   []*FakeHandle
}

func NewFakeMediaDevices() *FakeMediaDevices {
	return &FakeMediaDevices{
		Inputs: []internal_type.VideoInput{
			{DeviceID: "cam-0", Label: "Integrated Camera"},
			{DeviceID: "cam-1", Label: "External USB Camera"},
		},
	}
}

func (f *FakeMediaDevices) ListVideoInputs(_ context.Context) ([]internal_type.VideoInput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inputs := make([]internal_type.VideoInput, len(f.Inputs))
	copy(inputs, f.Inputs)
	return inputs, nil
}

func (f *FakeMediaDevices) Acquire(_ context.Context, videoDeviceID string) (internal_type.CaptureHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	if videoDeviceID == "" && len(f.Inputs) > 0 {
		videoDeviceID = f.Inputs[0].DeviceID
	}
	handle := NewFakeHandle(videoDeviceID)
	f.acquired = append(f.acquired, handle)
	return handle, nil
}

// LiveHandles counts acquired handles that still have a live track. The
// device manager invariant is that this never exceeds one.
func (f *FakeMediaDevices) LiveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := 0
	for _, h := range f.acquired {
		if !h.Stopped() {
			live++
		}
	}
	return live
}

// AcquiredCount returns how many handles were ever handed out.
func (f *FakeMediaDevices) AcquiredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acquired)
}

// FakeHandle is an in-memory capture handle whose chunks are pushed by the
// test via EmitChunk.
type FakeHandle struct {
	id     string
	device string

	mu      sync.Mutex
	tracks  []*FakeTrack
	subs    map[int]chan []byte
	nextSub int
}

func NewFakeHandle(videoDeviceID string) *FakeHandle {
	return &FakeHandle{
		id:     uuid.New().String(),
		device: videoDeviceID,
		tracks: []*FakeTrack{
			{kind: internal_type.TrackAudio, enabled: true, live: true},
			{kind: internal_type.TrackVideo, enabled: true, live: true},
		},
		subs: make(map[int]chan []byte),
	}
}

func (h *FakeHandle) ID() string       { return h.id }
func (h *FakeHandle) MimeType() string { return "video/webm" }

func (h *FakeHandle) Tracks() []internal_type.MediaTrack {
	h.mu.Lock()
	defer h.mu.Unlock()
	tracks := make([]internal_type.MediaTrack, len(h.tracks))
	for i, t := range h.tracks {
		tracks[i] = t
	}
	return tracks
}

func (h *FakeHandle) Subscribe() (<-chan []byte, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan []byte, 64)
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

// EmitChunk delivers one time-sliced chunk to every subscriber.
func (h *FakeHandle) EmitChunk(data []byte) {
	h.mu.Lock()
	subs := make([]chan []byte, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range subs {
		sub <- data
	}
}

// Stopped reports whether every track has been stopped.
func (h *FakeHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.tracks {
		if t.Live() {
			return false
		}
	}
	return true
}

// Unplug simulates the camera disappearing mid-session.
func (h *FakeHandle) Unplug() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.tracks {
		if t.kind == internal_type.TrackVideo {
			t.setLive(false)
		}
	}
}

// FakeTrack is a single fake media track.
type FakeTrack struct {
	kind    internal_type.TrackKind
	mu      sync.Mutex
	enabled bool
	live    bool
}

func (t *FakeTrack) Kind() internal_type.TrackKind { return t.kind }

func (t *FakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *FakeTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *FakeTrack) Stop() {
	t.setLive(false)
}

func (t *FakeTrack) setLive(live bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = live
}
