package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/atelier/internal/config"
	"github.com/spf13/cobra"
)

var (
	version    string
	configFile string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Edit dimension criteria, generate content and verify it",
	Long: `atelier - A terminal workbench for dimension criteria.

Open a dimension to edit its ordered criteria, run one of the Black Box
generation functions against them, preview the result and submit it as a
verification. The same operations are available headless for scripts.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "modal", Title: "Dimension Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default "+filepath.Join(config.Dir(), "config.yaml")+")")
	pf.String("blackbox-url", config.DefaultBlackboxURL, "generation service base URL")
	pf.String("submit-url", config.DefaultSubmitURL, "submission API base URL")
	pf.Duration("timeout", config.DefaultRequestTimeout, "per-request timeout")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.String("log-file", "", "log file used by the TUI")
}

// loadConfig resolves the effective config for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger returns a JSON logger on w and installs it as the default.
func newLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// fileLogger logs to cfg.LogFile so the TUI owns the terminal. The returned
// func closes the file.
func fileLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, cfg.LogLevel), func() { f.Close() }, nil
}
