package cli

import (
	"testing"
)

func TestParseSetFlags(t *testing.T) {
	params, err := parseSetFlags([]string{
		"syn_ver=cpV1_clkP1_drcV1",
		"target_util=0.7",
		"g_idx=2",
		"archive=false",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if params["syn_ver"] != "cpV1_clkP1_drcV1" {
		t.Errorf("string value mangled: %v", params["syn_ver"])
	}
	if params["target_util"] != 0.7 {
		t.Errorf("float value expected, got %T %v", params["target_util"], params["target_util"])
	}
	if params["g_idx"] != 2 {
		t.Errorf("int value expected, got %T %v", params["g_idx"], params["g_idx"])
	}
	if params["archive"] != false {
		t.Errorf("bool value expected, got %T %v", params["archive"], params["archive"])
	}
}

func TestParseSetFlags_NumericAndBoolTokens(t *testing.T) {
	params, err := parseSetFlags([]string{
		"c_idx=1",
		"g_idx=0",
		"tech=t",
		"force=true",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// "1" и "0" — числа, хотя ParseBool их тоже принял бы.
	if params["c_idx"] != 1 {
		t.Errorf("c_idx should be int 1, got %T %v", params["c_idx"], params["c_idx"])
	}
	if params["g_idx"] != 0 {
		t.Errorf("g_idx should be int 0, got %T %v", params["g_idx"], params["g_idx"])
	}
	if params["tech"] != "t" {
		t.Errorf("tech should stay a string, got %T %v", params["tech"], params["tech"])
	}
	if params["force"] != true {
		t.Errorf("literal true should be bool, got %T %v", params["force"], params["force"])
	}
}

func TestParseSetFlags_Invalid(t *testing.T) {
	if _, err := parseSetFlags([]string{"no-equals-sign"}); err == nil {
		t.Error("expected error for value without =")
	}
	if _, err := parseSetFlags([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestParseStageSetFlags(t *testing.T) {
	reqs, err := parseStageSetFlags([]string{
		"unified_placement:target_util=0.7",
		"unified_placement:ASPECT_RATIO=1.5",
		"cts:c_idx=1",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if reqs["unified_placement"]["target_util"] != 0.7 {
		t.Errorf("placement override lost: %v", reqs["unified_placement"])
	}
	if reqs["unified_placement"]["ASPECT_RATIO"] != 1.5 {
		t.Errorf("second override for the same stage lost: %v", reqs["unified_placement"])
	}
	if reqs["cts"]["c_idx"] != 1 {
		t.Errorf("cts override lost: %v", reqs["cts"])
	}

	if _, err := parseStageSetFlags([]string{"no-colon=1"}); err == nil {
		t.Error("expected error for missing stage prefix")
	}
}
