// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_type

// Mode selects what happens with the recorded segments once the session
// completes.
type Mode string

const (
	// ModePractice records for local review only; nothing is uploaded.
	ModePractice Mode = "practice"
	// ModeMock uploads the finished segments to the analysis backend.
	ModeMock Mode = "mock"
)

// Question is one interview question. Questions are resolved by the caller
// before a session is constructed and never change mid-session.
type Question string

// Segment is one finalized recording for exactly one question. Immutable
// once created.
type Segment struct {
	Index    int
	Data     []byte
	MimeType string
}

// DeviceStatus is derived from live track state on every acquisition or
// switch; it is never assumed.
type DeviceStatus struct {
	AudioReady bool
	VideoReady bool
}

// Ready reports whether both tracks are usable, the gate for session start.
func (s DeviceStatus) Ready() bool {
	return s.AudioReady && s.VideoReady
}

// Phase is the session state machine position. The question index travels
// alongside the phase; see session.Controller.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingFirstCountdown
	PhaseRecording
	PhaseAwaitingNextCountdown
	PhaseCompleted
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingFirstCountdown:
		return "awaiting_first_countdown"
	case PhaseRecording:
		return "recording"
	case PhaseAwaitingNextCountdown:
		return "awaiting_next_countdown"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can occur.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}
