package stageclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return New(Config{
		Endpoints: map[domain.Stage]string{domain.StageCTS: url},
		Timeout:   timeout,
	})
}

func TestInvoke_Success(t *testing.T) {
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"restore_enc": "/designs/b14/FreePDK45/implementation/v__g0_p0/pnr_save/cts.enc.dat",
			"log_path":    "/logs/cts.log",
			"reports":     map[string]string{"timing": "/rpt/timing.rpt"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res := c.Invoke(context.Background(), domain.StageCTS, map[string]any{"design": "b14"})

	if !res.OK() {
		t.Fatalf("expected ok, got %s: %s", res.Status, res.Detail)
	}
	if res.Checkpoint == "" {
		t.Error("checkpoint should be set")
	}
	if res.Reports["timing"] != "/rpt/timing.rpt" {
		t.Errorf("reports not passed through: %v", res.Reports)
	}
	if gotPayload["design"] != "b14" {
		t.Errorf("payload not delivered: %v", gotPayload)
	}
}

func TestInvoke_RemoteErrorPassedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "executor failed with code 1",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res := c.Invoke(context.Background(), domain.StageCTS, nil)

	if res.OK() {
		t.Fatal("expected error result")
	}
	if res.Detail != "executor failed with code 1" {
		t.Errorf("remote detail must pass through verbatim, got %q", res.Detail)
	}
}

func TestInvoke_DetailFieldPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"detail": "No synthesis version found for design b14. Please run synthesis first.",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res := c.Invoke(context.Background(), domain.StageCTS, nil)

	if !strings.Contains(res.Detail, "No synthesis version found") {
		t.Errorf("detail field should be preferred, got %q", res.Detail)
	}
}

func TestInvoke_Unreachable(t *testing.T) {
	// Закрытый сервер: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res := c.Invoke(context.Background(), domain.StageCTS, nil)

	if res.OK() {
		t.Fatal("expected error result")
	}
	if res.Detail != "cts unreachable" {
		t.Errorf("got detail %q, want \"cts unreachable\"", res.Detail)
	}
}

func TestInvoke_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 50*time.Millisecond)
	res := c.Invoke(context.Background(), domain.StageCTS, nil)

	if res.OK() {
		t.Fatal("expected error result")
	}
	if res.Detail != "cts timed out" {
		t.Errorf("got detail %q, want \"cts timed out\"", res.Detail)
	}
}

func TestInvoke_NoEndpoint(t *testing.T) {
	c := New(Config{Endpoints: map[domain.Stage]string{}, Timeout: time.Second})

	res := c.Invoke(context.Background(), domain.StageSynth, nil)
	if res.OK() {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.Detail, "no endpoint configured") {
		t.Errorf("unexpected detail: %q", res.Detail)
	}
}

func TestInvoke_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	res := c.Invoke(context.Background(), domain.StageCTS, nil)

	if res.OK() {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.Detail, "HTTP 500") {
		t.Errorf("unexpected detail: %q", res.Detail)
	}
}
