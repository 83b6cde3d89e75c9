// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_type

// Recorder buffers chunks from a capture handle and finalizes them into
// exactly one Segment per Start/Stop cycle. A fresh recorder is used per
// question; segments are never appended to one another.
type Recorder interface {
	// Start begins buffering from the handle. Returns ErrAlreadyRecording if
	// a token from this recorder is still open.
	Start(handle CaptureHandle) (RecordingToken, error)
	// Stop finalizes all buffered chunks into a single Segment. A token may
	// be stopped exactly once; a second call returns ErrAlreadyStopped.
	Stop(token RecordingToken) (Segment, error)
}

// RecordingToken is the single-use handle for one active recording.
type RecordingToken interface {
	// Index is the question index this recording belongs to.
	Index() int
	// Open reports whether the recording has not been stopped yet.
	Open() bool
}
