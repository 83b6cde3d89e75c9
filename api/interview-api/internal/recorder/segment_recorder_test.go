// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/interviaai/api/interview-api/internal/testsupport"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-recorder"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func chunk(val byte, length int) []byte {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = val
	}
	return buf
}

func TestStartStopSingleChunk(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 0)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := rec.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !token.Open() {
		t.Fatal("token should be open after start")
	}

	handle.EmitChunk(chunk(0xAA, 128))

	segment, err := rec.Stop(token)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if segment.Index != 0 {
		t.Errorf("expected index 0, got %d", segment.Index)
	}
	if segment.MimeType != "video/webm" {
		t.Errorf("unexpected mime type %q", segment.MimeType)
	}
	if !bytes.Equal(segment.Data, chunk(0xAA, 128)) {
		t.Error("segment data mismatch")
	}
	if token.Open() {
		t.Error("token should be closed after stop")
	}
}

func TestStopConcatenatesChunksInOrder(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 2)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := rec.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var want bytes.Buffer
	for i := 0; i < 5; i++ {
		data := chunk(byte(i+1), 64)
		handle.EmitChunk(data)
		want.Write(data)
	}

	segment, err := rec.Stop(token)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if !bytes.Equal(segment.Data, want.Bytes()) {
		t.Error("chunks must be concatenated in emit order")
	}
	if segment.Index != 2 {
		t.Errorf("expected index 2, got %d", segment.Index)
	}
}

func TestDoubleStartReturnsAlreadyRecording(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 0)
	handle := testsupport.NewFakeHandle("cam-0")

	if _, err := rec.Start(handle); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := rec.Start(handle); !errors.Is(err, internal_type.ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestDoubleStopReturnsAlreadyStopped(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 0)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := rec.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := rec.Stop(token); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if _, err := rec.Stop(token); !errors.Is(err, internal_type.ErrAlreadyStopped) {
		t.Fatalf("expected ErrAlreadyStopped, got %v", err)
	}
}

func TestStopForeignTokenRejected(t *testing.T) {
	logger := newTestLogger(t)
	recA := NewSegmentRecorder(logger, 0)
	recB := NewSegmentRecorder(logger, 1)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := recA.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := recB.Stop(token); !errors.Is(err, internal_type.ErrForeignToken) {
		t.Fatalf("expected ErrForeignToken, got %v", err)
	}
	if _, err := recA.Stop(token); err != nil {
		t.Fatalf("owner stop failed: %v", err)
	}
}

func TestEmptyChunksIgnored(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 0)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := rec.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	handle.EmitChunk(nil)
	handle.EmitChunk([]byte{})
	handle.EmitChunk(chunk(0x01, 32))

	segment, err := rec.Stop(token)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(segment.Data) != 32 {
		t.Errorf("expected 32 bytes, got %d", len(segment.Data))
	}
}

func TestEmittedDataIsCopied(t *testing.T) {
	rec := NewSegmentRecorder(newTestLogger(t), 0)
	handle := testsupport.NewFakeHandle("cam-0")

	token, err := rec.Start(handle)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	data := chunk(0xFF, 16)
	handle.EmitChunk(data)
	data[0] = 0x00

	segment, err := rec.Stop(token)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if segment.Data[0] != 0xFF {
		t.Error("recorder must copy emitted chunks")
	}
}
