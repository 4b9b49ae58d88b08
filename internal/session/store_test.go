package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

func TestStore_GetCreatesOnFirstAccess(t *testing.T) {
	store := NewStore(nil)

	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}

	rec := store.Get("s1")
	if rec == nil {
		t.Fatal("record should be created")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}

	if store.Get("s1") != rec {
		t.Error("second Get should return the same record")
	}
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(nil)
	store.Get("s1")

	if !store.Clear("s1") {
		t.Error("Clear should report existing session")
	}
	if store.Clear("s1") {
		t.Error("Clear of missing session should report false")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestRecord_SuccessUpdatesSnapshot(t *testing.T) {
	rec := newRecord("s1")
	params := map[string]any{
		domain.ParamDesign:    "b14",
		domain.ParamTopModule: "b14",
		domain.ParamSynVer:    "cpV1_clkP1_drcV1",
		"target_util":         0.7,
	}
	res := &domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/placement.enc.dat"}

	rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement, params, res)

	snap := rec.Snapshot("b14", domain.StagePlacement)
	if snap["target_util"] != 0.7 {
		t.Errorf("snapshot should hold params, got %v", snap)
	}

	cp, ok := rec.LastCheckpoint("b14", domain.StagePlacement)
	if !ok || cp != "/out/placement.enc.dat" {
		t.Errorf("checkpoint not recorded: %q %v", cp, ok)
	}

	last := rec.LastParams()
	if last[domain.ParamSynVer] != "cpV1_clkP1_drcV1" {
		t.Errorf("syn_ver should be inherited, got %v", last)
	}
}

func TestRecord_IdenticalSuccessIdempotentForSnapshot(t *testing.T) {
	rec := newRecord("s1")
	params := map[string]any{domain.ParamDesign: "b14", "target_util": 0.7}
	res := &domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/placement.enc.dat"}

	rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement, params, res)
	before := rec.Snapshot("b14", domain.StagePlacement)

	rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement, params, res)
	after := rec.Snapshot("b14", domain.StagePlacement)

	if len(before) != len(after) {
		t.Fatalf("snapshot changed size: %d vs %d", len(before), len(after))
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("snapshot value changed for %s: %v vs %v", k, v, after[k])
		}
	}

	// История при этом растёт.
	if len(rec.History()) != 2 {
		t.Errorf("history should have 2 entries, got %d", len(rec.History()))
	}
}

func TestRecord_FailureKeepsSnapshot(t *testing.T) {
	rec := newRecord("s1")
	okParams := map[string]any{"target_util": 0.7}
	rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StageCTS, okParams,
		&domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/cts.enc.dat"})

	badParams := map[string]any{"target_util": 0.95}
	rec.RecordStageFailure(domain.FlowPNR, "b14", domain.StageCTS, badParams,
		&domain.StageResult{Status: domain.StageStatusError, Detail: "DRC violations"})

	snap := rec.Snapshot("b14", domain.StageCTS)
	if snap["target_util"] != 0.7 {
		t.Errorf("failure must not touch last-known-good snapshot, got %v", snap)
	}

	hist := rec.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
	if hist[1].Status != domain.StageStatusError || hist[1].Detail != "DRC violations" {
		t.Errorf("failure entry mismatch: %+v", hist[1])
	}
}

func TestRecord_HistoryOrdered(t *testing.T) {
	rec := newRecord("s1")
	for i := 0; i < 5; i++ {
		rec.RecordStageSuccess(domain.FlowFull, "des", domain.StageSynth,
			map[string]any{"i": i}, &domain.StageResult{Status: domain.StageStatusOK})
	}

	hist := rec.History()
	for i, h := range hist {
		if h.Params["i"] != i {
			t.Errorf("history out of order at %d: %v", i, h.Params["i"])
		}
	}
}

func TestStore_ConcurrentSessions(t *testing.T) {
	store := NewStore(nil)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%3)
			rec := store.Get(id)
			for j := 0; j < 50; j++ {
				rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement,
					map[string]any{"j": j}, &domain.StageResult{Status: domain.StageStatusOK})
				_ = rec.History()
				_ = rec.Snapshot("b14", domain.StagePlacement)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 3 {
		t.Errorf("expected 3 sessions, got %d", store.Len())
	}
}

func TestRecord_ForceNotPersistedInSnapshot(t *testing.T) {
	rec := newRecord("s1")
	params := map[string]any{
		domain.ParamDesign: "b14",
		domain.ParamForce:  true,
		"target_util":      0.7,
	}
	res := &domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/placement.enc.dat"}

	rec.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement, params, res)

	snap := rec.Snapshot("b14", domain.StagePlacement)
	if _, ok := snap[domain.ParamForce]; ok {
		t.Errorf("force must not survive into the snapshot: %v", snap)
	}
	if snap["target_util"] != 0.7 {
		t.Errorf("other params should stay, got %v", snap)
	}
	// force остаётся в истории: она описывает фактический вызов.
	hist := rec.History()
	if len(hist) != 1 || hist[0].Params[domain.ParamForce] != true {
		t.Errorf("history should keep the call as made: %+v", hist)
	}
}
