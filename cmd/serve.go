package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcus/atelier/internal/api"
	"github.com/marcus/atelier/internal/config"
	"github.com/marcus/atelier/internal/serverdb"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the submission API server",
	Long: `Start the HTTP API that stores dimension verifications.

Verifications are kept in a SQLite database (--db). Each dimension can be
verified once; a second submission is answered with 409 Conflict.

Endpoints:
  POST /v1/jeux                  record a verification
  GET  /v1/jeux                  list verifications, newest first
  GET  /v1/jeux/{dimension_id}   fetch one verification
  GET  /healthz                  liveness and database check
  GET  /metrics                  Prometheus metrics`,
	Args:    cobra.NoArgs,
	GroupID: "system",
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", config.DefaultListenAddr, "Address to listen on")
	serveCmd.Flags().String("db", "", "SQLite database path (default in the config dir)")
	serveCmd.Flags().Int64("max-body", 1<<20, "Maximum request body size in bytes")
	serveCmd.Flags().Duration("grace", 10*time.Second, "Graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	maxBody, _ := cmd.Flags().GetInt64("max-body")
	grace, _ := cmd.Flags().GetDuration("grace")

	store, err := serverdb.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	srv, err := api.NewServer(api.Config{
		ListenAddr:   cfg.ListenAddr,
		ServerDBPath: cfg.DBPath,
		MaxBodyBytes: maxBody,
	}, store, logger)
	if err != nil {
		return err
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "atelier serve listening on http://%s\n", srv.Addr())
	fmt.Fprintf(os.Stderr, "  database:   %s\n", cfg.DBPath)
	if cfg.File != "" {
		fmt.Fprintf(os.Stderr, "  config:     %s\n", cfg.File)
	}

	if err := srv.Run(ctx, grace); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
