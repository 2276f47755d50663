// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lifecycle

import (
	"errors"
	"testing"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/gputest"
)

func TestAdvanceTable(t *testing.T) {
	compileErr := errors.New("bad wgsl")

	tests := []struct {
		name     string
		from     State
		initSt   gpucore.PipelineStatus
		updateSt gpucore.PipelineStatus
		want     State
		wantEP   string
		wantFail bool
	}{
		{"loading pending", Loading, gpucore.PipelineStatusPending, gpucore.PipelineStatusReady, Loading, "init", false},
		{"loading ready", Loading, gpucore.PipelineStatusReady, gpucore.PipelineStatusPending, Init, "init", false},
		{"loading failed", Loading, gpucore.PipelineStatusFailed, gpucore.PipelineStatusPending, Failed, "init", true},
		{"init pending", Init, gpucore.PipelineStatusReady, gpucore.PipelineStatusPending, Init, "update", false},
		{"init ready", Init, gpucore.PipelineStatusReady, gpucore.PipelineStatusReady, Update, "update", false},
		{"init failed", Init, gpucore.PipelineStatusReady, gpucore.PipelineStatusFailed, Failed, "update", true},
		{"update terminal", Update, gpucore.PipelineStatusFailed, gpucore.PipelineStatusFailed, Update, "", false},
		{"failed terminal", Failed, gpucore.PipelineStatusReady, gpucore.PipelineStatusReady, Failed, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := gputest.NewCache()
			initH := cache.RequestCompute(&gpucore.ComputePipelineRequest{EntryPoint: "init"})
			update := cache.RequestCompute(&gpucore.ComputePipelineRequest{EntryPoint: "update"})
			script(cache, initH, tt.initSt, compileErr)
			script(cache, update, tt.updateSt, compileErr)

			step := Advance(tt.from, initH, update, cache)
			if step.To != tt.want {
				t.Errorf("Advance(%v).To = %v, want %v", tt.from, step.To, tt.want)
			}
			if step.EntryPoint != tt.wantEP {
				t.Errorf("Advance(%v).EntryPoint = %q, want %q", tt.from, step.EntryPoint, tt.wantEP)
			}
			if tt.wantFail {
				if !errors.Is(step.Err, ErrPipelineFailed) || !errors.Is(step.Err, compileErr) {
					t.Errorf("Advance(%v).Err = %v, want ErrPipelineFailed wrapping cause", tt.from, step.Err)
				}
			} else if step.Err != nil {
				t.Errorf("Advance(%v).Err = %v, want nil", tt.from, step.Err)
			}
			if step.To.Rank() < step.From.Rank() {
				t.Errorf("rank decreased: %v -> %v", step.From, step.To)
			}
		})
	}
}

func script(c *gputest.Cache, h gpucore.PipelineHandle, s gpucore.PipelineStatus, err error) {
	switch s {
	case gpucore.PipelineStatusReady:
		c.Complete(h)
	case gpucore.PipelineStatusFailed:
		c.Fail(h, err)
	}
}

// TestTwoObservationsReachUpdate drives a target with both pipelines
// already compiled: it must take exactly two evaluations to reach Update.
func TestTwoObservationsReachUpdate(t *testing.T) {
	cache := gputest.NewCache()
	initH := cache.RequestCompute(&gpucore.ComputePipelineRequest{})
	update := cache.RequestCompute(&gpucore.ComputePipelineRequest{})
	cache.CompleteAll()

	s := Loading
	var seen []State
	for range 4 {
		s = Advance(s, initH, update, cache).To
		seen = append(seen, s)
	}

	want := []State{Init, Update, Update, Update}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("states = %v, want %v", seen, want)
		}
	}
	if got := cache.Polls(update); got != 1 {
		t.Errorf("update polled %d times, want 1 (Update is terminal)", got)
	}
}

func TestFailedNotRepolled(t *testing.T) {
	cache := gputest.NewCache()
	initH := cache.RequestCompute(&gpucore.ComputePipelineRequest{})
	update := cache.RequestCompute(&gpucore.ComputePipelineRequest{})
	cache.Fail(initH, nil)

	step := Advance(Loading, initH, update, cache)
	if step.To != Failed || !errors.Is(step.Err, ErrPipelineFailed) {
		t.Fatalf("Advance = %+v, want Failed with ErrPipelineFailed", step)
	}

	cache.Complete(initH)
	for range 3 {
		if s := Advance(Failed, initH, update, cache).To; s != Failed {
			t.Fatalf("Failed advanced to %v", s)
		}
	}
	if got := cache.Polls(initH); got != 1 {
		t.Errorf("init polled %d times, want 1", got)
	}
}

func TestStateProperties(t *testing.T) {
	tests := []struct {
		s            State
		dispatchable bool
		terminal     bool
		entry        string
	}{
		{Loading, false, false, ""},
		{Init, true, false, "init"},
		{Update, true, true, "update"},
		{Failed, false, true, ""},
	}
	for _, tt := range tests {
		if got := tt.s.Dispatchable(); got != tt.dispatchable {
			t.Errorf("%v.Dispatchable() = %v, want %v", tt.s, got, tt.dispatchable)
		}
		if got := tt.s.Terminal(); got != tt.terminal {
			t.Errorf("%v.Terminal() = %v, want %v", tt.s, got, tt.terminal)
		}
		if got := tt.s.EntryPoint(); got != tt.entry {
			t.Errorf("%v.EntryPoint() = %q, want %q", tt.s, got, tt.entry)
		}
	}

	if h, ok := Init.Pipeline(7, 9); !ok || h != 7 {
		t.Errorf("Init.Pipeline = %d, %v; want 7, true", h, ok)
	}
	if h, ok := Update.Pipeline(7, 9); !ok || h != 9 {
		t.Errorf("Update.Pipeline = %d, %v; want 9, true", h, ok)
	}
	if _, ok := Loading.Pipeline(7, 9); ok {
		t.Error("Loading.Pipeline ok = true")
	}
}
