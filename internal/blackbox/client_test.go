package blackbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/atelier/internal/models"
)

// fakeService records the last request and answers with a canned reply.
type fakeService struct {
	path   string
	body   map[string]any
	status int
	reply  string
}

func (f *fakeService) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		f.path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		f.body = nil
		_ = json.Unmarshal(data, &f.body)
		w.Header().Set("Content-Type", "application/json")
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		io.WriteString(w, f.reply)
	}
}

func newFake(t *testing.T, status int, reply string) (*fakeService, *Client) {
	t.Helper()
	f := &fakeService{status: status, reply: reply}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL + "/")
}

func TestGenerateSumLetters(t *testing.T) {
	f, client := newFake(t, http.StatusOK, `{"sums":[1,"NaN",2,3]}`)
	cfg, _ := DefaultConfig(FunctionSumLetters, models.NewCriteria())

	res, err := client.Generate(context.Background(), cfg, models.CriteriaFromPairs("a", "DES"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f.path != "/sum-letters" {
		t.Errorf("path = %s", f.path)
	}
	if !res.Updated || res.Content != "123" {
		t.Errorf("result = %+v", res)
	}
	if res.Function != FunctionSumLetters {
		t.Errorf("Function = %s", res.Function)
	}
}

func TestGenerateText(t *testing.T) {
	f, client := newFake(t, http.StatusOK, `{"text":"Le ciment durable"}`)
	cfg, _ := DefaultConfig(FunctionText, models.NewCriteria())

	res, err := client.Generate(context.Background(), cfg, models.CriteriaFromPairs("a", "DES", "b", "CAS"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Content != "Le ciment durable" {
		t.Errorf("content = %q", res.Content)
	}
	if f.path != "/generate-text" {
		t.Errorf("path = %s", f.path)
	}
	crit, _ := f.body["criteria"].([]any)
	if len(crit) != 2 || crit[0] != "DES" || crit[1] != "CAS" {
		t.Errorf("criteria = %v", f.body["criteria"])
	}
	if f.body["tokens"] != 100.0 || f.body["language"] != "french" || f.body["is_order"] != true {
		t.Errorf("text config fields not sent: %v", f.body)
	}
}

func TestGenerateAxesWithoutAxesKeepsContent(t *testing.T) {
	_, client := newFake(t, http.StatusOK, `{}`)
	cfg, _ := DefaultConfig(FunctionAxes, models.NewCriteria())

	res, err := client.Generate(context.Background(), cfg, models.CriteriaFromPairs("a", "x"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Updated {
		t.Errorf("Updated = true for reply without axes")
	}
}

func TestGenerateStatusError(t *testing.T) {
	_, client := newFake(t, http.StatusInternalServerError, `{"detail":"boom"}`)
	cfg, _ := DefaultConfig(FunctionText, models.NewCriteria())

	_, err := client.Generate(context.Background(), cfg, models.CriteriaFromPairs("a", "x"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Endpoint != "/generate-text" {
		t.Errorf("StatusError = %+v", se)
	}
	if !strings.Contains(se.Error(), "boom") {
		t.Errorf("error should include body: %v", se)
	}
}

func TestStatusErrorBodyKeepsCharactersWhole(t *testing.T) {
	body := "x" + strings.Repeat("日本", 150)
	_, client := newFake(t, http.StatusBadGateway, body)
	cfg, _ := DefaultConfig(FunctionText, models.NewCriteria())

	_, err := client.Generate(context.Background(), cfg, models.CriteriaFromPairs("a", "x"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if !utf8.ValidString(se.Body) {
		t.Fatalf("body snippet is not valid UTF-8: %q", se.Body)
	}
	if !strings.HasSuffix(se.Body, "...") || !strings.HasPrefix(se.Body, "x日本") {
		t.Errorf("body snippet = %q", se.Body)
	}
	if w := ansi.StringWidth(se.Body); w > 200 {
		t.Errorf("snippet width = %d, want <= 200", w)
	}
	if got := snippet([]byte("  short  ")); got != "short" {
		t.Errorf("snippet(short) = %q", got)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	_, client := newFake(t, http.StatusOK, `not json`)
	cfg, _ := DefaultConfig(FunctionText, models.NewCriteria())

	if _, err := client.Generate(context.Background(), cfg, models.NewCriteria()); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestGenerateInvalidConfigSkipsRequest(t *testing.T) {
	f, client := newFake(t, http.StatusOK, `{}`)
	_, err := client.Generate(context.Background(), &DescriptionsConfig{Tokens: 0}, models.NewCriteria())

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if f.path != "" {
		t.Errorf("request sent despite invalid config: %s", f.path)
	}
}

func TestGenerateCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, WithTimeout(5*time.Second))
	cfg, _ := DefaultConfig(FunctionText, models.NewCriteria())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, cfg, models.NewCriteria()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	if got := NewClient("").BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL = %s", got)
	}
	if got := NewClient("http://host:1/").BaseURL(); got != "http://host:1" {
		t.Errorf("BaseURL = %s", got)
	}
}
