// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_type

import "context"

// TrackKind discriminates the media tracks of a capture handle.
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// MediaTrack is one live track of a capture handle. Lifecycle is owned by
// the device manager; every other component treats tracks as read-only.
type MediaTrack interface {
	Kind() TrackKind
	// Enabled reports whether the track is producing media.
	Enabled() bool
	// Live reports whether the underlying device is still attached.
	Live() bool
	// Stop releases the device behind the track. Idempotent.
	Stop()
}

// CaptureHandle is a live combined audio+video stream. At most one handle is
// live per session; only the device manager may acquire, switch or release
// one.
type CaptureHandle interface {
	ID() string
	// MimeType is the container type the platform emits, e.g. "video/webm".
	MimeType() string
	Tracks() []MediaTrack
	// Subscribe attaches a chunk consumer to the live stream and returns the
	// feed plus a detach function. The platform time-slices the stream purely
	// for memory pressure; chunk boundaries carry no meaning.
	Subscribe() (<-chan []byte, func())
}

// VideoInput describes one enumerable camera.
type VideoInput struct {
	DeviceID string
	Label    string
}

// MediaDevices is the platform capture capability the device manager wraps.
// Acquire blocks until the platform grants or denies access; there is no
// deadline on user permission.
type MediaDevices interface {
	// ListVideoInputs enumerates cameras. Read-only, never holds a lock and
	// may be called at any time.
	ListVideoInputs(ctx context.Context) ([]VideoInput, error)
	// Acquire requests a combined audio+video capture. An empty device id
	// selects the platform default camera.
	Acquire(ctx context.Context, videoDeviceID string) (CaptureHandle, error)
}
