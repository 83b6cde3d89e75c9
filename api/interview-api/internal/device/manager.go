// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_device

import (
	"context"
	"sync"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// Manager owns the capture handle lifecycle for one session. At most one
// handle is live at a time; acquire and switch stop the previous handle's
// tracks before requesting a new one so no orphaned camera/mic lock can
// survive.
type Manager struct {
	logger  commons.Logger
	devices internal_type.MediaDevices

	mu     sync.Mutex
	handle internal_type.CaptureHandle
}

func NewManager(logger commons.Logger, devices internal_type.MediaDevices) *Manager {
	return &Manager{
		logger:  logger,
		devices: devices,
	}
}

// ListVideoInputs enumerates cameras. Read-only and lock-free; safe to call
// at any time, including while a capture is live.
func (m *Manager) ListVideoInputs(ctx context.Context) ([]internal_type.VideoInput, error) {
	return m.devices.ListVideoInputs(ctx)
}

// Acquire requests a combined audio+video handle from the default camera.
// Blocks until the platform grants or denies access. A previously live
// handle is released first.
func (m *Manager) Acquire(ctx context.Context) (internal_type.CaptureHandle, error) {
	return m.acquire(ctx, "")
}

// SwitchVideoSource replaces the video source. Audio is re-requested together
// with video: independent track replacement is unsupported so that exactly
// one handle exists per session.
func (m *Manager) SwitchVideoSource(ctx context.Context, deviceID string) (internal_type.CaptureHandle, error) {
	return m.acquire(ctx, deviceID)
}

func (m *Manager) acquire(ctx context.Context, deviceID string) (internal_type.CaptureHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		stopTracks(m.handle)
		m.handle = nil
	}

	handle, err := m.devices.Acquire(ctx, deviceID)
	if err != nil {
		m.logger.Errorf("capture acquisition failed: device=%q err=%v", deviceID, err)
		return nil, err
	}

	m.handle = handle
	status := deriveStatus(handle)
	m.logger.Infof("capture acquired: handle=%s audioReady=%t videoReady=%t",
		handle.ID(), status.AudioReady, status.VideoReady)
	return handle, nil
}

// Release stops every track of the live handle. Idempotent: releasing an
// already-released manager is a no-op.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return
	}
	stopTracks(m.handle)
	m.logger.Infof("capture released: handle=%s", m.handle.ID())
	m.handle = nil
}

// Handle returns the live capture handle, or nil if none is acquired.
func (m *Manager) Handle() internal_type.CaptureHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Ensure verifies a live, fully ready capture handle is held. It returns
// ErrDeviceNotReady when nothing is acquired and ErrDeviceLost when a held
// handle's tracks have died since acquisition.
func (m *Manager) Ensure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return internal_type.ErrDeviceNotReady
	}
	if !deriveStatus(m.handle).Ready() {
		return internal_type.ErrDeviceLost
	}
	return nil
}

// Status recomputes the device status from live track state.
func (m *Manager) Status() internal_type.DeviceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return internal_type.DeviceStatus{}
	}
	return deriveStatus(m.handle)
}

func deriveStatus(handle internal_type.CaptureHandle) internal_type.DeviceStatus {
	var status internal_type.DeviceStatus
	for _, track := range handle.Tracks() {
		ok := track.Enabled() && track.Live()
		switch track.Kind() {
		case internal_type.TrackAudio:
			status.AudioReady = ok
		case internal_type.TrackVideo:
			status.VideoReady = ok
		}
	}
	return status
}

func stopTracks(handle internal_type.CaptureHandle) {
	for _, track := range handle.Tracks() {
		track.Stop()
	}
}
