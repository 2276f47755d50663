// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"sync"
	"testing"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/bind"
	"github.com/gogpu/computegrid/internal/lifecycle"
)

func TestUpsertCreatesThenMerges(t *testing.T) {
	r := New()

	created := r.Upsert(Record{
		Surface:        1,
		Width:          1920,
		Height:         1080,
		Bundle:         bind.Bundle{BindGroup: 10, View: 100},
		InitPipeline:   5,
		UpdatePipeline: 6,
	})
	if !created {
		t.Fatal("first Upsert created = false")
	}

	r.Update(1, func(rec *Record) { rec.State = lifecycle.Init })

	created = r.Upsert(Record{
		Surface:        1,
		Bundle:         bind.Bundle{BindGroup: 11, View: 100, Params: gpucore.SurfaceParams{Scale: 2}},
		InitPipeline:   99,
		UpdatePipeline: 98,
	})
	if created {
		t.Fatal("second Upsert created = true")
	}

	rec, ok := r.Get(1)
	if !ok {
		t.Fatal("Get(1) missing")
	}
	if rec.Bundle.BindGroup != 11 || rec.Bundle.Params.Scale != 2 {
		t.Errorf("bundle = %+v, want refreshed bundle", rec.Bundle)
	}
	if rec.InitPipeline != 5 || rec.UpdatePipeline != 6 {
		t.Errorf("handles = %d/%d, want 5/6 (never recreated)", rec.InitPipeline, rec.UpdatePipeline)
	}
	if rec.State != lifecycle.Init {
		t.Errorf("state = %v, want init (preserved)", rec.State)
	}
	if rec.Width != 1920 || rec.Height != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", rec.Width, rec.Height)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (never duplicated)", r.Len())
	}
}

func TestGetMissing(t *testing.T) {
	r := New()
	if _, ok := r.Get(42); ok {
		t.Error("Get(unknown) ok = true")
	}
	if r.Update(42, func(*Record) { t.Error("fn called for unknown record") }) {
		t.Error("Update(unknown) = true")
	}
	if _, ok := r.Remove(42); ok {
		t.Error("Remove(unknown) ok = true")
	}
}

func TestSnapshotIsIsolatedAndSorted(t *testing.T) {
	r := New()
	for _, id := range []gpucore.SurfaceID{3, 1, 2} {
		r.Upsert(Record{Surface: id})
	}

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len(Snapshot()) = %d, want 3", len(snap))
	}
	for i, rec := range snap {
		if rec.Surface != gpucore.SurfaceID(i+1) {
			t.Errorf("Snapshot()[%d].Surface = %d, want %d", i, rec.Surface, i+1)
		}
	}

	r.Update(1, func(rec *Record) { rec.State = lifecycle.Update })
	if snap[0].State != lifecycle.Loading {
		t.Error("mutation after Snapshot leaked into the snapshot")
	}

	snap[1].State = lifecycle.Failed
	if rec, _ := r.Get(2); rec.State != lifecycle.Loading {
		t.Error("mutating a snapshot changed the registry")
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	r := New()
	r.Upsert(Record{Surface: 1, InitPipeline: 5, UpdatePipeline: 6})

	r.Update(1, func(rec *Record) {
		rec.Surface = 9
		rec.InitPipeline = 0
		rec.UpdatePipeline = 0
		rec.State = lifecycle.Init
	})

	rec, ok := r.Get(1)
	if !ok || rec.Surface != 1 || rec.InitPipeline != 5 || rec.UpdatePipeline != 6 {
		t.Errorf("record = %+v, identity must survive Update", rec)
	}
	if rec.State != lifecycle.Init {
		t.Errorf("state = %v, want init", rec.State)
	}
}

func TestRemoveAndIDs(t *testing.T) {
	r := New()
	r.Upsert(Record{Surface: 2})
	r.Upsert(Record{Surface: 1, State: lifecycle.Failed})

	if ids := r.IDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("IDs() = %v, want [1 2]", ids)
	}
	counts := r.CountByState()
	if counts[lifecycle.Loading] != 1 || counts[lifecycle.Failed] != 1 {
		t.Errorf("CountByState() = %v", counts)
	}

	rec, ok := r.Remove(1)
	if !ok || rec.State != lifecycle.Failed {
		t.Errorf("Remove(1) = %+v, %v", rec, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestConcurrentSnapshotAndUpsert(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 500 {
			id := gpucore.SurfaceID(i % 16)
			r.Upsert(Record{Surface: id, Bundle: bind.Bundle{BindGroup: gpucore.BindGroupID(i + 1)}})
			r.Update(id, func(rec *Record) { rec.State = lifecycle.Init })
		}
	}()
	go func() {
		defer wg.Done()
		for range 500 {
			for _, rec := range r.Snapshot() {
				if rec.Bundle.BindGroup == 0 {
					t.Error("snapshot observed a half-built record")
					return
				}
			}
		}
	}()
	wg.Wait()

	if r.Len() != 16 {
		t.Errorf("Len() = %d, want 16", r.Len())
	}
}
