package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/atelier/internal/api"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/serverdb"
)

// executeCommand runs the root command with args in an isolated config
// dir and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ATELIER_HOME", t.TempDir())
	configFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCriteria(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crit.yaml")
	if err := os.WriteFile(path, []byte("first: DES\nsecond: AU\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDimensionID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDimensionID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseDimensionID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg, err := blackbox.DefaultConfig(blackbox.FunctionText, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = applyOverrides(cfg, []string{"tokens=250", "language=english", "target_words=[A, B]", "is_order=false"})
	if err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	tc := cfg.(*blackbox.TextConfig)
	if tc.Tokens != 250 || tc.Language != "english" || tc.IsOrder {
		t.Fatalf("unexpected config %+v", tc)
	}
	if len(tc.TargetWords) != 2 || tc.TargetWords[0] != "A" || tc.TargetWords[1] != "B" {
		t.Fatalf("target words = %v", tc.TargetWords)
	}

	for _, bad := range []string{"nokey", "=1", "unknown=1", "tokens=[1"} {
		if err := applyOverrides(cfg, []string{bad}); err == nil {
			t.Errorf("applyOverrides(%q) should fail", bad)
		}
	}
}

func TestFunctionsMarkdown(t *testing.T) {
	md := functionsMarkdown(blackbox.Functions)
	for _, want := range []string{
		"## Generate Text",
		"`POST /generate-text`",
		"| `tokens` | 100 |",
		"| `positions` | [[1,3],[3,4],[1,2]] |",
		"_No settings;",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestFunctionsCommandFiltersByQuery(t *testing.T) {
	out, err := executeCommand(t, "functions", "sum", "--plain")
	if err != nil {
		t.Fatalf("functions: %v", err)
	}
	if !strings.Contains(out, "Sum Letters") || strings.Contains(out, "Generate Axes") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestGenerateCommand(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sum-letters" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"sums":[1,"NaN",2,3]}`)
	}))
	defer svc.Close()

	out, err := executeCommand(t, "generate",
		"--function", "sum-letters",
		"-f", writeCriteria(t),
		"--blackbox-url", svc.URL,
		"--log-level", "error",
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "123\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	store, err := serverdb.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	srv, err := api.NewServer(api.Config{}, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	args := []string{"verify", "5",
		"-f", writeCriteria(t),
		"--content", "hello",
		"--submit-url", ts.URL,
		"--log-level", "error",
	}
	out, err := executeCommand(t, args...)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.HasPrefix(out, "VERIFIED dimension 5 (vf_") {
		t.Fatalf("output = %q", out)
	}

	v, err := store.GetVerification(5)
	if err != nil || v == nil {
		t.Fatalf("stored verification: %v %v", v, err)
	}
	if len(v.Atelier) != 2 || v.Atelier[0] != "DES" || v.Bbox[0] != "hello" {
		t.Fatalf("stored = %+v", v)
	}

	if _, err := executeCommand(t, args...); err == nil || !strings.Contains(err.Error(), "already verified") {
		t.Fatalf("second verify err = %v", err)
	}
}

func TestReadContentTrimsTrailingNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	os.WriteFile(path, []byte("line one\nline two\n\n"), 0644)
	got, err := readContent(verifyCmd, path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "line one\nline two" {
		t.Fatalf("got %q", got)
	}
}
