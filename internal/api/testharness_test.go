package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/marcus/atelier/internal/serverdb"
)

// TestHarness wraps a full Server with a real HTTP listener for integration tests.
type TestHarness struct {
	t       *testing.T
	Server  *Server
	Store   *serverdb.ServerDB
	BaseURL string
	client  *http.Client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHarness creates a TestHarness with a real HTTP server on a random port.
func newTestHarness(t *testing.T, opts ...func(*Config)) *TestHarness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server.db")
	store, err := serverdb.Open(dbPath)
	if err != nil {
		t.Fatalf("open server db: %v", err)
	}

	cfg := Config{ListenAddr: ":0", ServerDBPath: dbPath}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := NewServer(cfg, store, discardLogger())
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	httpSrv := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		httpSrv.Close()
		store.Close()
	})

	return &TestHarness{
		t:       t,
		Server:  srv,
		Store:   store,
		BaseURL: httpSrv.URL,
		client:  httpSrv.Client(),
	}
}

// Do sends an HTTP request and returns the response. body may be raw
// bytes, which are sent as-is.
func (h *TestHarness) Do(method, path string, body any) *http.Response {
	h.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		rdr = &buf
	}

	req, err := http.NewRequest(method, h.BaseURL+path, rdr)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("do request %s %s: %v", method, path, err)
	}
	return resp
}

// DoJSON sends an HTTP request and decodes the envelope into env; data is
// decoded into out when non-nil.
func (h *TestHarness) DoJSON(method, path string, body any, out any) (*http.Response, Envelope) {
	h.t.Helper()

	resp := h.Do(method, path, body)
	defer resp.Body.Close()

	var raw struct {
		OK    bool            `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error *ErrorPayload   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		h.t.Fatalf("decode response: %v", err)
	}
	if out != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, out); err != nil {
			h.t.Fatalf("decode data: %v", err)
		}
	}
	return resp, Envelope{OK: raw.OK, Error: raw.Error}
}
