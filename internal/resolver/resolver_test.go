package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
	"github.com/Duke-CEI-Center/AutoEDA/internal/session"
)

func ctsDesc(t *testing.T) domain.StageDescriptor {
	t.Helper()
	desc, ok := domain.Descriptor(domain.StageCTS)
	if !ok {
		t.Fatal("cts descriptor missing")
	}
	return desc
}

func placementDesc(t *testing.T) domain.StageDescriptor {
	t.Helper()
	desc, ok := domain.Descriptor(domain.StagePlacement)
	if !ok {
		t.Fatal("placement descriptor missing")
	}
	return desc
}

func emptyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(t.TempDir())
}

func TestResolve_MissingCheckpointBeforeAnyCall(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowID(domain.StageCTS),
		Design:    "b14",
		TopModule: "b14",
	}

	_, err := r.Resolve(ctsDesc(t), req, nil, Upstream{})
	if !errors.Is(err, ErrMissingCheckpoint) {
		t.Fatalf("expected ErrMissingCheckpoint, got %v", err)
	}

	var mc *MissingCheckpointError
	if !errors.As(err, &mc) || mc.Stage != domain.StageCTS {
		t.Errorf("error should name the stage: %v", err)
	}
}

func TestResolve_ConflictSameTier(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
		Overrides: map[string]any{"target_util": 0.7},
		StageRequirements: map[domain.Stage]map[string]any{
			domain.StagePlacement: {"target_util": 0.9},
		},
	}

	_, err := r.Resolve(placementDesc(t), req, nil, Upstream{SynVer: "cpV1_clkP1_drcV1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if ce.Parameter != "target_util" {
		t.Errorf("conflict should name the parameter, got %q", ce.Parameter)
	}
	if len(ce.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %v", ce.Candidates)
	}
}

func TestResolve_EqualValuesNotAConflict(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
		Overrides: map[string]any{"target_util": 0.7},
		StageRequirements: map[domain.Stage]map[string]any{
			domain.StagePlacement: {"target_util": 0.7},
		},
	}

	rp, err := r.Resolve(placementDesc(t), req, nil, Upstream{SynVer: "cpV1_clkP1_drcV1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params["target_util"] != 0.7 {
		t.Errorf("unexpected value: %v", rp.Params["target_util"])
	}
}

func TestResolve_PrecedenceOverridesBeatStrategy(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
		Strategy:  "performance",
		Overrides: map[string]any{"target_util": 0.6},
	}

	rp, err := r.Resolve(placementDesc(t), req, nil, Upstream{SynVer: "cpV1_clkP1_drcV1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rp.Params["target_util"] != 0.6 {
		t.Errorf("override must win over strategy preset, got %v", rp.Params["target_util"])
	}
	// Остальные значения пресета остаются.
	if rp.Params["clk_period"] != 5.0 {
		t.Errorf("preset value expected, got %v", rp.Params["clk_period"])
	}
	if rp.Params[domain.ParamStrategy] != "performance" {
		t.Errorf("strategy should be in payload, got %v", rp.Params[domain.ParamStrategy])
	}
}

func TestResolve_SessionSnapshotBeatsStrategy(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	store := session.NewStore(nil)
	sess := store.Get("s1")

	sess.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement,
		map[string]any{"target_util": 0.66, domain.ParamSynVer: "cpV1_clkP1_drcV1"},
		&domain.StageResult{Status: domain.StageStatusOK})

	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
		Strategy:  "performance",
		SessionID: "s1",
	}

	rp, err := r.Resolve(placementDesc(t), req, sess, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params["target_util"] != 0.66 {
		t.Errorf("session snapshot must beat strategy preset, got %v", rp.Params["target_util"])
	}
	if rp.SynVer != "cpV1_clkP1_drcV1" {
		t.Errorf("syn_ver should come from session, got %q", rp.SynVer)
	}
}

func TestResolve_StageDefaultsLowestTier(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
	}

	rp, err := r.Resolve(placementDesc(t), req, nil, Upstream{SynVer: "cpV1_clkP1_drcV1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params[domain.ParamTech] != domain.DefaultTech {
		t.Errorf("default tech expected, got %v", rp.Params[domain.ParamTech])
	}
	if rp.Params[domain.ParamGIdx] != 0 {
		t.Errorf("default g_idx expected, got %v", rp.Params[domain.ParamGIdx])
	}
}

func TestResolve_AutoDetectSynthesisVersion(t *testing.T) {
	root := t.TempDir()
	synthDir := filepath.Join(root, "b14", "FreePDK45", "synthesis", "cpV2_clkP1_drcV1")
	if err := os.MkdirAll(synthDir, 0o755); err != nil {
		t.Fatal(err)
	}

	r := New(registry.New(root), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
	}

	rp, err := r.Resolve(placementDesc(t), req, nil, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.SynVer != "cpV2_clkP1_drcV1" {
		t.Errorf("latest synthesis version expected, got %q", rp.SynVer)
	}
	if rp.ImplVer != "cpV2_clkP1_drcV1__g0_p0" {
		t.Errorf("derived impl_ver expected, got %q", rp.ImplVer)
	}
}

func TestResolve_NoVersionAvailable(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "ghost",
		TopModule: "ghost",
	}

	_, err := r.Resolve(placementDesc(t), req, nil, Upstream{})
	if !errors.Is(err, ErrNoVersion) {
		t.Fatalf("expected ErrNoVersion, got %v", err)
	}
}

func TestResolve_ImplVerDerivedFromUpstreamSynVer(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowFull,
		Design:    "b14",
		TopModule: "b14",
	}

	rp, err := r.Resolve(ctsDesc(t), req, nil, Upstream{
		Checkpoint: "/out/placement.enc.dat",
		SynVer:     "cpV1_clkP1_drcV1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params[domain.ParamImplVer] != "cpV1_clkP1_drcV1__g0_p0" {
		t.Errorf("impl_ver should be derived, got %v", rp.Params[domain.ParamImplVer])
	}
	if rp.Params[domain.ParamRestoreEnc] != "/out/placement.enc.dat" {
		t.Errorf("upstream checkpoint should be wired, got %v", rp.Params[domain.ParamRestoreEnc])
	}
}

func TestResolve_CheckpointFromSessionResume(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	store := session.NewStore(nil)
	sess := store.Get("s1")

	// Сессия помнит успешный placement с его чекпоинтом.
	sess.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement,
		map[string]any{domain.ParamSynVer: "cpV1_clkP1_drcV1"},
		&domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/placement.enc.dat"})

	req := &domain.FlowRequest{
		Flow:      domain.FlowID(domain.StageCTS),
		Design:    "b14",
		TopModule: "b14",
		SessionID: "s1",
	}

	rp, err := r.Resolve(ctsDesc(t), req, sess, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Checkpoint != "/out/placement.enc.dat" {
		t.Errorf("checkpoint should resume from session, got %q", rp.Checkpoint)
	}
}

func TestResolve_CheckpointFallbackFromDisk(t *testing.T) {
	root := t.TempDir()
	implVer := "cpV1_clkP1_drcV1__g0_p0"
	saveDir := filepath.Join(root, "b14", "FreePDK45", "implementation", implVer, "pnr_save")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		t.Fatal(err)
	}
	encPath := filepath.Join(saveDir, "placement.enc.dat")
	if err := os.WriteFile(encPath, []byte("enc"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(registry.New(root), nil)
	req := &domain.FlowRequest{
		Flow:      domain.FlowID(domain.StageCTS),
		Design:    "b14",
		TopModule: "b14",
		Overrides: map[string]any{domain.ParamImplVer: implVer},
	}

	// Вход в поток с середины: CTS от существующего placement-чекпоинта.
	rp, err := r.Resolve(ctsDesc(t), req, nil, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Checkpoint != encPath {
		t.Errorf("fallback checkpoint expected %q, got %q", encPath, rp.Checkpoint)
	}
}

func TestResolve_ForceFlagPassedThrough(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	req := &domain.FlowRequest{
		Flow:   domain.FlowID(domain.StageSynth),
		Design: "b14",
		Force:  true,
	}

	desc, _ := domain.Descriptor(domain.StageSynth)
	rp, err := r.Resolve(desc, req, nil, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params[domain.ParamForce] != true {
		t.Errorf("force should be in payload, got %v", rp.Params[domain.ParamForce])
	}
}

func TestResolve_SessionStrategyRemembered(t *testing.T) {
	r := New(emptyRegistry(t), nil)
	store := session.NewStore(nil)
	sess := store.Get("s1")

	sess.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement,
		map[string]any{domain.ParamStrategy: "power", domain.ParamSynVer: "cpV1_clkP1_drcV1"},
		&domain.StageResult{Status: domain.StageStatusOK})

	req := &domain.FlowRequest{
		Flow:      domain.FlowPNR,
		Design:    "b14",
		TopModule: "b14",
		SessionID: "s1",
	}

	rp, err := r.Resolve(placementDesc(t), req, sess, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Params[domain.ParamStrategy] != "power" {
		t.Errorf("preferred strategy should be reused, got %v", rp.Params[domain.ParamStrategy])
	}
}

func TestAdvisories(t *testing.T) {
	tests := []struct {
		name string
		req  domain.FlowRequest
		want int
	}{
		{
			name: "power strategy with aggressive clock",
			req: domain.FlowRequest{
				Strategy:  "power",
				Overrides: map[string]any{"clk_period": 4.0},
			},
			want: 1,
		},
		{
			name: "no strategy no advisories",
			req: domain.FlowRequest{
				Overrides: map[string]any{"clk_period": 4.0},
			},
			want: 0,
		},
		{
			name: "consistent power request",
			req: domain.FlowRequest{
				Strategy:  "power",
				Overrides: map[string]any{"clk_period": 12.0},
			},
			want: 0,
		},
		{
			name: "fast with standard effort",
			req: domain.FlowRequest{
				Strategy:  "fast",
				Overrides: map[string]any{"design_flow_effort": "standard"},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advisories(&tt.req)
			if len(got) != tt.want {
				t.Errorf("got %d advisories %v, want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestResolve_SessionIndependentOfTime(t *testing.T) {
	// Снимок сессии и наследование не зависят от того, когда он записан.
	r := New(emptyRegistry(t), nil)
	store := session.NewStore(nil)
	sess := store.Get("s1")

	sess.RecordStageSuccess(domain.FlowPNR, "b14", domain.StagePlacement,
		map[string]any{domain.ParamSynVer: "cpV1_clkP1_drcV1", domain.ParamTopModule: "b14"},
		&domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/out/placement.enc.dat"})
	time.Sleep(5 * time.Millisecond)

	req := &domain.FlowRequest{
		Flow:      domain.FlowID(domain.StageCTS),
		Design:    "b14",
		SessionID: "s1",
	}

	rp, err := r.Resolve(ctsDesc(t), req, sess, Upstream{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// top_module унаследован из сессии, запрос его не повторял.
	if rp.Params[domain.ParamTopModule] != "b14" {
		t.Errorf("top_module should be inherited, got %v", rp.Params[domain.ParamTopModule])
	}
}

func TestResolve_UpstreamVersionBeatsSession(t *testing.T) {
	// Сессия помнит версии прошлого запуска; synth текущего потока мог
	// создать более новую. Версии из Upstream сильнее сессионных.
	r := New(emptyRegistry(t), nil)
	store := session.NewStore(nil)
	sess := store.Get("s1")

	sess.RecordStageSuccess(domain.FlowFull, "b14", domain.StagePlacement,
		map[string]any{
			domain.ParamDesign:    "b14",
			domain.ParamTopModule: "b14",
			domain.ParamSynVer:    "cpV1_clkP1_drcV1",
			domain.ParamImplVer:   "cpV1_clkP1_drcV1__g0_p0",
		},
		&domain.StageResult{Status: domain.StageStatusOK, Checkpoint: "/ck/placement_old.enc.dat"})

	req := &domain.FlowRequest{
		Flow:      domain.FlowFull,
		Design:    "b14",
		TopModule: "b14",
		SessionID: "s1",
	}

	rp, err := r.Resolve(placementDesc(t), req, sess, Upstream{SynVer: "cpV2_clkP1_drcV1"})
	if err != nil {
		t.Fatalf("placement: unexpected error: %v", err)
	}
	if rp.SynVer != "cpV2_clkP1_drcV1" {
		t.Errorf("upstream syn_ver must beat the session one, got %q", rp.SynVer)
	}
	if rp.Params[domain.ParamSynVer] != "cpV2_clkP1_drcV1" {
		t.Errorf("payload carries the stale syn_ver: %v", rp.Params[domain.ParamSynVer])
	}
	if rp.ImplVer != "cpV2_clkP1_drcV1__g0_p0" {
		t.Errorf("derived impl_ver should follow the fresh syn_ver, got %q", rp.ImplVer)
	}

	up := Upstream{
		SynVer:     "cpV2_clkP1_drcV1",
		ImplVer:    "cpV2_clkP1_drcV1__g0_p0",
		Checkpoint: "/ck/placement_new.enc.dat",
	}
	rp, err = r.Resolve(ctsDesc(t), req, sess, up)
	if err != nil {
		t.Fatalf("cts: unexpected error: %v", err)
	}
	if rp.ImplVer != "cpV2_clkP1_drcV1__g0_p0" {
		t.Errorf("upstream impl_ver must beat the session one, got %q", rp.ImplVer)
	}
	if rp.Params[domain.ParamRestoreEnc] != "/ck/placement_new.enc.dat" {
		t.Errorf("checkpoint and version must come from the same flow, got %v", rp.Params[domain.ParamRestoreEnc])
	}

	// Явное переопределение запроса сильнее даже Upstream.
	req.Overrides = map[string]any{domain.ParamSynVer: "cpV3_clkP1_drcV1"}
	rp, err = r.Resolve(placementDesc(t), req, sess, Upstream{SynVer: "cpV2_clkP1_drcV1"})
	if err != nil {
		t.Fatalf("override: unexpected error: %v", err)
	}
	if rp.SynVer != "cpV3_clkP1_drcV1" {
		t.Errorf("explicit override must beat upstream, got %q", rp.SynVer)
	}
}
