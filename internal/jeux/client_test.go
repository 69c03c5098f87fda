package jeux

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcus/atelier/internal/api"
	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/internal/serverdb"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newAPI starts a real submission API backed by a temp sqlite file.
func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := serverdb.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	srv, err := api.NewServer(api.Config{}, store, quietLogger())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return ts
}

func TestSubmitAndStatus(t *testing.T) {
	ts := newAPI(t)
	c := NewClient(ts.URL, 5*time.Second, quietLogger())
	ctx := context.Background()

	v, err := c.Status(ctx, 12)
	if err != nil {
		t.Fatalf("status before submit: %v", err)
	}
	if v != nil {
		t.Fatalf("expected no verification, got %+v", v)
	}

	criteria := models.CriteriaFromPairs("k1", "first", "k2", "second")
	created, err := c.Submit(ctx, models.NewVerifyRequest(12, criteria, "output"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.DimensionID != 12 || created.Bbox[0] != "output" || created.Atelier[1] != "second" {
		t.Fatalf("unexpected verification %+v", created)
	}

	v, err = c.Status(ctx, 12)
	if err != nil {
		t.Fatalf("status after submit: %v", err)
	}
	if v == nil || v.ID != created.ID {
		t.Fatalf("expected stored verification %s, got %+v", created.ID, v)
	}
}

func TestSubmitConflict(t *testing.T) {
	ts := newAPI(t)
	c := NewClient(ts.URL, 5*time.Second, quietLogger())
	req := models.VerifyRequest{DimensionID: 3, Atelier: []string{"a"}, Bbox: []string{"b"}}

	if _, err := c.Submit(context.Background(), req); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := c.Submit(context.Background(), req)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestSubmitValidationError(t *testing.T) {
	ts := newAPI(t)
	c := NewClient(ts.URL, 5*time.Second, quietLogger())

	_, err := c.Submit(context.Background(), models.VerifyRequest{DimensionID: 3})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Code != "validation_error" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestSubmitNonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 5*time.Second, quietLogger())
	_, err := c.Submit(context.Background(), models.VerifyRequest{DimensionID: 1, Bbox: []string{"x"}})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 status error, got %v", err)
	}
	if se.Message != "upstream down" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}

func TestSubmitUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, time.Second, quietLogger())
	if _, err := c.Submit(context.Background(), models.VerifyRequest{DimensionID: 1, Bbox: []string{"x"}}); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0, nil)
	if c.baseURL != DefaultURL {
		t.Fatalf("expected default url, got %q", c.baseURL)
	}
	if c.logger == nil {
		t.Fatal("expected default logger")
	}
}
