// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_upload

import "sync"

// Status is the upload job lifecycle position. Succeeded and Failed are
// terminal and each is reached at most once.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// JobView is an immutable snapshot of an upload job.
type JobView struct {
	Status  Status `json:"status"`
	Percent int    `json:"percent"`
	Error   string `json:"error,omitempty"`
	Cleared bool   `json:"cleared"`
}

// Job tracks one submission. Percent is monotonically non-decreasing for the
// whole job lifetime: it reaches exactly 100 on success and stops advancing
// on failure.
type Job struct {
	mu       sync.Mutex
	status   Status
	percent  int
	err      string
	cleared  bool
	done     chan struct{}
	onChange func(JobView)
}

func newJob(onChange func(JobView)) *Job {
	return &Job{
		status:   StatusPending,
		done:     make(chan struct{}),
		onChange: onChange,
	}
}

// Snapshot returns the current job state.
func (j *Job) Snapshot() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.view()
}

// Done closes once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) view() JobView {
	return JobView{Status: j.status, Percent: j.percent, Error: j.err, Cleared: j.cleared}
}

func (j *Job) begin(floor int) {
	j.mu.Lock()
	j.status = StatusInProgress
	if floor > j.percent {
		j.percent = floor
	}
	view := j.view()
	j.mu.Unlock()
	j.notify(view)
}

// advance raises percent by step, capped below 100; only succeed may set 100.
func (j *Job) advance(step int) int {
	j.mu.Lock()
	if j.status != StatusInProgress {
		percent := j.percent
		j.mu.Unlock()
		return percent
	}
	next := j.percent + step
	if next > 99 {
		next = 99
	}
	if next > j.percent {
		j.percent = next
	}
	percent := j.percent
	view := j.view()
	j.mu.Unlock()
	j.notify(view)
	return percent
}

func (j *Job) succeed() {
	j.mu.Lock()
	if j.status == StatusSucceeded || j.status == StatusFailed {
		j.mu.Unlock()
		return
	}
	j.status = StatusSucceeded
	j.percent = 100
	view := j.view()
	j.mu.Unlock()
	j.notify(view)
	close(j.done)
}

func (j *Job) fail(message string) {
	j.mu.Lock()
	if j.status == StatusSucceeded || j.status == StatusFailed {
		j.mu.Unlock()
		return
	}
	j.status = StatusFailed
	j.err = message
	view := j.view()
	j.mu.Unlock()
	j.notify(view)
	close(j.done)
}

// clear marks the terminal state as consumed after its display dwell; the
// status and percent are preserved.
func (j *Job) clear() {
	j.mu.Lock()
	if j.cleared {
		j.mu.Unlock()
		return
	}
	j.cleared = true
	view := j.view()
	j.mu.Unlock()
	j.notify(view)
}

func (j *Job) notify(view JobView) {
	if j.onChange != nil {
		j.onChange(view)
	}
}
