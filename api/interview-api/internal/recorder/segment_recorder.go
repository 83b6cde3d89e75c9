// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"sync"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// segmentRecorder buffers time-sliced chunks from a capture handle and
// finalizes them into one Segment. One recorder per question; the active
// token is single-use.
type segmentRecorder struct {
	logger commons.Logger
	index  int

	mu     sync.Mutex
	active *recordingToken
}

// NewSegmentRecorder creates a recorder for the question at the given index.
func NewSegmentRecorder(logger commons.Logger, index int) internal_type.Recorder {
	return &segmentRecorder{
		logger: logger,
		index:  index,
	}
}

// recordingToken tracks one active recording. chunks are appended by the
// collector goroutine until the feed is detached; done closes once the feed
// has fully drained, so Stop never loses a chunk emitted before it.
type recordingToken struct {
	owner    *segmentRecorder
	index    int
	mimeType string
	detach   func()
	done     chan struct{}

	mu     sync.Mutex
	open   bool
	chunks [][]byte
}

func (t *recordingToken) Index() int { return t.index }

func (t *recordingToken) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (r *segmentRecorder) Start(handle internal_type.CaptureHandle) (internal_type.RecordingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil && r.active.Open() {
		return nil, internal_type.ErrAlreadyRecording
	}

	feed, detach := handle.Subscribe()
	token := &recordingToken{
		owner:    r,
		index:    r.index,
		mimeType: handle.MimeType(),
		detach:   detach,
		done:     make(chan struct{}),
		open:     true,
	}

	go func() {
		defer close(token.done)
		for data := range feed {
			if len(data) == 0 {
				continue
			}
			// Copy to avoid platform buffer reuse.
			buf := make([]byte, len(data))
			copy(buf, data)
			token.mu.Lock()
			token.chunks = append(token.chunks, buf)
			token.mu.Unlock()
		}
	}()

	r.active = token
	r.logger.Debugf("segment recorder started: question=%d handle=%s", r.index, handle.ID())
	return token, nil
}

func (r *segmentRecorder) Stop(t internal_type.RecordingToken) (internal_type.Segment, error) {
	token, ok := t.(*recordingToken)
	if !ok || token.owner != r {
		return internal_type.Segment{}, internal_type.ErrForeignToken
	}

	token.mu.Lock()
	if !token.open {
		token.mu.Unlock()
		return internal_type.Segment{}, internal_type.ErrAlreadyStopped
	}
	token.open = false
	token.mu.Unlock()

	// Detach the feed, then wait for the collector to drain what was already
	// emitted. The chunk boundary is invisible to consumers: the result is
	// always a single concatenated blob.
	token.detach()
	<-token.done

	token.mu.Lock()
	var buf bytes.Buffer
	for _, chunk := range token.chunks {
		buf.Write(chunk)
	}
	chunkCount := len(token.chunks)
	token.chunks = nil
	token.mu.Unlock()

	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()

	r.logger.Debugf("segment recorder stopped: question=%d chunks=%d bytes=%d",
		r.index, chunkCount, buf.Len())

	return internal_type.Segment{
		Index:    token.index,
		Data:     buf.Bytes(),
		MimeType: token.mimeType,
	}, nil
}
