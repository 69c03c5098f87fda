package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/internal/serverdb"
)

func TestHealth(t *testing.T) {
	h := newTestHarness(t)
	resp, env := h.DoJSON("GET", "/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK || !env.OK {
		t.Fatalf("expected 200 ok, got %d %+v", resp.StatusCode, env)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestHarness(t)
	req, _ := http.NewRequest("GET", h.BaseURL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestCreateVerification(t *testing.T) {
	h := newTestHarness(t)

	var v models.Verification
	resp, env := h.DoJSON("POST", "/v1/jeux", models.VerifyRequest{
		DimensionID: 5,
		Atelier:     []string{"alpha", "beta"},
		Bbox:        []string{"generated text"},
	}, &v)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", resp.StatusCode, env.Error)
	}
	if v.ID == "" || v.DimensionID != 5 || len(v.Atelier) != 2 || v.Bbox[0] != "generated text" {
		t.Fatalf("unexpected verification %+v", v)
	}

	stored, err := h.Store.GetVerification(5)
	if err != nil || stored == nil {
		t.Fatalf("expected stored verification, got %v, %v", stored, err)
	}
}

func TestCreateVerificationValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"invalid json", []byte(`{"dimension_id":`)},
		{"zero dimension", models.VerifyRequest{DimensionID: 0, Bbox: []string{"x"}}},
		{"negative dimension", models.VerifyRequest{DimensionID: -2, Bbox: []string{"x"}}},
		{"missing bbox", models.VerifyRequest{DimensionID: 1}},
		{"blank bbox", models.VerifyRequest{DimensionID: 1, Bbox: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			resp, env := h.DoJSON("POST", "/v1/jeux", tt.body, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if env.OK || env.Error == nil || env.Error.Code != ErrValidation {
				t.Fatalf("expected validation error envelope, got %+v", env)
			}
		})
	}
}

func TestCreateVerificationConflict(t *testing.T) {
	h := newTestHarness(t)
	req := models.VerifyRequest{DimensionID: 9, Bbox: []string{"x"}}

	resp, _ := h.DoJSON("POST", "/v1/jeux", req, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first submit: expected 201, got %d", resp.StatusCode)
	}
	resp, env := h.DoJSON("POST", "/v1/jeux", req, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrConflict {
		t.Fatalf("expected conflict code, got %+v", env.Error)
	}
}

func TestCreateVerificationTooLarge(t *testing.T) {
	h := newTestHarness(t, func(c *Config) { c.MaxBodyBytes = 64 })
	req := models.VerifyRequest{DimensionID: 1, Bbox: []string{strings.Repeat("x", 500)}}
	resp, _ := h.DoJSON("POST", "/v1/jeux", req, nil)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestGetVerification(t *testing.T) {
	h := newTestHarness(t)
	if _, err := h.Store.CreateVerification(models.VerifyRequest{DimensionID: 4, Bbox: []string{"c"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var v models.Verification
	resp, _ := h.DoJSON("GET", "/v1/jeux/4", nil, &v)
	if resp.StatusCode != http.StatusOK || v.DimensionID != 4 {
		t.Fatalf("expected 200 with dimension 4, got %d %+v", resp.StatusCode, v)
	}

	resp, env := h.DoJSON("GET", "/v1/jeux/5", nil, nil)
	if resp.StatusCode != http.StatusNotFound || env.Error.Code != ErrNotFound {
		t.Fatalf("expected 404, got %d %+v", resp.StatusCode, env.Error)
	}

	resp, _ = h.DoJSON("GET", "/v1/jeux/abc", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.StatusCode)
	}
}

func TestListVerifications(t *testing.T) {
	h := newTestHarness(t)
	for _, id := range []int{1, 2, 3} {
		if _, err := h.Store.CreateVerification(models.VerifyRequest{DimensionID: id, Bbox: []string{"c"}}); err != nil {
			t.Fatalf("seed %d: %v", id, err)
		}
	}

	var page serverdb.Page[models.Verification]
	resp, _ := h.DoJSON("GET", "/v1/jeux?limit=2", nil, &page)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(page.Data) != 2 || !page.HasMore || page.Data[0].DimensionID != 3 {
		t.Fatalf("unexpected page %+v", page)
	}

	var next serverdb.Page[models.Verification]
	h.DoJSON("GET", "/v1/jeux?limit=2&cursor="+page.NextCursor, nil, &next)
	if len(next.Data) != 1 || next.Data[0].DimensionID != 1 || next.HasMore {
		t.Fatalf("unexpected second page %+v", next)
	}

	resp, _ = h.DoJSON("GET", "/v1/jeux?limit=abc", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
	resp, _ = h.DoJSON("GET", "/v1/jeux?cursor=@@@", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.DoJSON("POST", "/v1/jeux", models.VerifyRequest{DimensionID: 2, Bbox: []string{"c"}}, nil)

	resp := h.Do("GET", "/metrics", nil)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{
		`atelier_verifications_total{outcome="accepted"} 1`,
		`atelier_http_requests_total{method="POST",route="POST /v1/jeux",status="201"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestListenThenRun(t *testing.T) {
	h := newTestHarness(t)
	srv, err := NewServer(Config{ListenAddr: "127.0.0.1:0"}, h.Store, discardLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Fatalf("addr not bound: %s", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewServerRequiresStore(t *testing.T) {
	if _, err := NewServer(Config{}, nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestRunStopsWhenContextDone(t *testing.T) {
	h := newTestHarness(t)
	srv, err := NewServer(Config{ListenAddr: "127.0.0.1:0"}, h.Store, discardLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunListenError(t *testing.T) {
	h := newTestHarness(t)
	srv, err := NewServer(Config{ListenAddr: "256.0.0.1:bad"}, h.Store, discardLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Run(context.Background(), time.Second); err == nil {
		t.Fatal("expected listen error")
	}
}
