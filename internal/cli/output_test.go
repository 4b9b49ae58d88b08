package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutput_TableEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf, errW: &bytes.Buffer{}}

	out.Table([]string{"STAGE", "STATUS"}, nil)

	got := buf.String()
	if !strings.Contains(got, "(no results)") {
		t.Errorf("empty table should say so, got %q", got)
	}
	if strings.Contains(got, "STAGE") {
		t.Errorf("no header without rows, got %q", got)
	}
}

func TestOutput_WarnGoesToStderr(t *testing.T) {
	var dataBuf, errBuf bytes.Buffer
	out := &Output{w: &dataBuf, errW: &errBuf}

	out.Warn("advisory: placement utilization above target")

	if dataBuf.Len() != 0 {
		t.Errorf("stdout must stay clean for piping, got %q", dataBuf.String())
	}
	got := errBuf.String()
	if !strings.HasPrefix(got, "Warning: advisory:") {
		t.Errorf("unexpected warning format: %q", got)
	}
}

func TestOutput_PrintJSONMode(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{jsonMode: true, w: &buf, errW: &bytes.Buffer{}}

	out.Print([]string{"STAGE"}, [][]string{{"synth"}}, map[string]string{"stage": "synth"})

	if !strings.Contains(buf.String(), `"stage": "synth"`) {
		t.Errorf("json mode should emit JSON, got %q", buf.String())
	}
}
