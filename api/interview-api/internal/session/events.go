// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_session

import "sync"

// EventType discriminates session feed events.
type EventType string

const (
	EventPhase     EventType = "phase"
	EventCountdown EventType = "countdown"
	EventUpload    EventType = "upload"
)

// Event is one observational update pushed to session subscribers. The feed
// is presentation-only: countdown values here never drive transitions.
type Event struct {
	Type             EventType `json:"type"`
	Phase            string    `json:"phase,omitempty"`
	QuestionIndex    int       `json:"questionIndex"`
	Countdown        string    `json:"countdown,omitempty"`
	RemainingSeconds int       `json:"remainingSeconds,omitempty"`
	UploadStatus     string    `json:"uploadStatus,omitempty"`
	UploadPercent    int       `json:"uploadPercent,omitempty"`
	UploadError      string    `json:"uploadError,omitempty"`
}

// Hub fans session events out to subscribers. Sends never block: a slow
// subscriber drops events rather than stalling the state machine.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe attaches a listener and returns its feed plus a detach function.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan Event, 32)
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

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
