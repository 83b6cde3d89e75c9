// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_type

import "errors"

// Device errors are terminal for session start: the operator must re-invoke
// acquire/switch, the controller never retries on its own.
var (
	ErrPermissionDenied = errors.New("media device: permission denied")
	ErrNoDeviceFound    = errors.New("media device: no device found")
	ErrDeviceLost       = errors.New("media device: device lost")
)

// Recorder errors indicate a controller bug if they ever surface; they are
// invariants, not user-facing conditions.
var (
	ErrAlreadyRecording = errors.New("recorder: a recording is already active")
	ErrAlreadyStopped   = errors.New("recorder: token already stopped")
	ErrForeignToken     = errors.New("recorder: token belongs to a different recorder")
)

// Session and upload errors.
var (
	ErrNoQuestions      = errors.New("session: at least one question is required")
	ErrNotStartable     = errors.New("session: not in a startable state")
	ErrDeviceNotReady   = errors.New("session: capture device is not ready")
	ErrSessionNotFound  = errors.New("session: not found")
	ErrNotCompleted     = errors.New("upload: session is not completed")
	ErrAlreadySubmitted = errors.New("upload: session already submitted")
	ErrMockUnavailable  = errors.New("session: analysis backend not ready, mock mode unavailable")
)
