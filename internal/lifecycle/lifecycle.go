// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lifecycle implements the per-surface pipeline state machine.
//
//	Loading --init ready--> Init --update ready--> Update
//	   |                      |
//	   +--init failed--+      +--update failed--+
//	                   v                        v
//	                 Failed                   Failed
//
// A target advances at most one step per evaluation, so it needs two
// successful status observations to reach Update. Update and Failed are
// terminal and are never polled again.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/shader"
)

// ErrPipelineFailed is wrapped by every compile failure a Step reports.
var ErrPipelineFailed = errors.New("lifecycle: pipeline compilation failed")

// State is the lifecycle stage of a compute target.
type State uint8

// Lifecycle states.
const (
	// Loading waits for the init pipeline.
	Loading State = iota

	// Init dispatches the init pipeline and waits for the update pipeline.
	Init

	// Update dispatches the update pipeline every frame.
	Update

	// Failed never dispatches again.
	Failed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Init:
		return "init"
	case Update:
		return "update"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// States lists every state in rank order.
func States() []State {
	return []State{Loading, Init, Update, Failed}
}

// Rank orders states along the transition graph. A target's rank never
// decreases.
func (s State) Rank() int {
	return int(s)
}

// Dispatchable reports whether targets in s are dispatched.
func (s State) Dispatchable() bool {
	return s == Init || s == Update
}

// Terminal reports whether s has no outgoing transitions.
func (s State) Terminal() bool {
	return s == Update || s == Failed
}

// EntryPoint returns the entry point dispatched in s, or "" when s does
// not dispatch.
func (s State) EntryPoint() string {
	switch s {
	case Init:
		return shader.InitEntryPoint
	case Update:
		return shader.UpdateEntryPoint
	default:
		return ""
	}
}

// Pipeline selects the handle dispatched in s.
func (s State) Pipeline(initH, updateH gpucore.PipelineHandle) (gpucore.PipelineHandle, bool) {
	switch s {
	case Init:
		return initH, true
	case Update:
		return updateH, true
	default:
		return 0, false
	}
}

// Poller is the part of gpucore.PipelineCache the state machine reads.
type Poller interface {
	PipelineStatus(h gpucore.PipelineHandle) gpucore.PipelineStatus
	PipelineError(h gpucore.PipelineHandle) error
}

// Step is the outcome of one Advance.
type Step struct {
	From State
	To   State

	// EntryPoint names the pipeline whose status decided the step.
	// Empty when nothing was polled.
	EntryPoint string

	// Err is set when the step entered Failed.
	Err error
}

// Changed reports whether the step moved the target.
func (s Step) Changed() bool {
	return s.From != s.To
}

// Advance evaluates one transition for a target in state s.
func Advance(s State, initH, updateH gpucore.PipelineHandle, p Poller) Step {
	step := Step{From: s, To: s}

	var (
		h    gpucore.PipelineHandle
		next State
	)
	switch s {
	case Loading:
		h, next = initH, Init
		step.EntryPoint = shader.InitEntryPoint
	case Init:
		h, next = updateH, Update
		step.EntryPoint = shader.UpdateEntryPoint
	default:
		return step
	}

	switch p.PipelineStatus(h) {
	case gpucore.PipelineStatusReady:
		step.To = next
	case gpucore.PipelineStatusFailed:
		step.To = Failed
		if cause := p.PipelineError(h); cause != nil {
			step.Err = fmt.Errorf("%w: entry point %q: %w", ErrPipelineFailed, step.EntryPoint, cause)
		} else {
			step.Err = fmt.Errorf("%w: entry point %q", ErrPipelineFailed, step.EntryPoint)
		}
	}
	return step
}
