package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/jeux"
	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/pkg/dimension"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var openCmd = &cobra.Command{
	Use:   "open <dimension-id>",
	Short: "Open the dimension modal",
	Long: `Open the interactive dimension modal.

The criteria record is loaded from --criteria (YAML or JSON object, key order
preserved). The submission API is asked whether the dimension is already
verified; if it cannot be reached the modal opens unverified.`,
	Example: `  atelier open 12 --criteria crit.yaml
  atelier open 12 --name Colors --function axes`,
	Args:    cobra.ExactArgs(1),
	GroupID: "modal",
	RunE:    runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().String("name", "", "Dimension display name")
	openCmd.Flags().StringP("criteria", "f", "", "Criteria file (YAML or JSON)")
	openCmd.Flags().String("function", string(blackbox.FunctionText), "Initial generation function")
}

func runOpen(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("open needs an interactive terminal; use generate or verify instead")
	}

	dimID, err := parseDimensionID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	name, _ := cmd.Flags().GetString("name")
	critPath, _ := cmd.Flags().GetString("criteria")
	fnName, _ := cmd.Flags().GetString("function")

	fn, err := blackbox.ParseFunction(fnName)
	if err != nil {
		return err
	}
	criteria, err := loadCriteria(critPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	gen := blackbox.NewClient(cfg.BlackboxURL, blackbox.WithLogger(logger))
	sub := jeux.NewClient(cfg.SubmitURL, cfg.RequestTimeout, logger)

	submitted := false
	if v, err := sub.Status(ctx, dimID); err != nil {
		logger.Warn("verification status unavailable", "err", err, "dimension_id", dimID)
	} else if v != nil {
		submitted = true
	}

	logger.Info("open dimension", "dimension_id", dimID, "function", fn, "criteria", criteria.Len(), "submitted", submitted)

	m := dimension.New(models.Dimension{ID: dimID, Name: name}, gen, sub,
		dimension.WithCriteria(criteria),
		dimension.WithFunction(fn),
		dimension.WithSubmitted(submitted),
		dimension.WithLogger(logger),
		dimension.WithContext(ctx),
		dimension.WithTimeout(cfg.RequestTimeout),
	)
	host := dimension.NewHost(m)

	p := tea.NewProgram(host, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run modal: %w", err)
	}
	if host.Submitted && !submitted {
		fmt.Fprintf(cmd.OutOrStdout(), "Dimension %d verified\n", dimID)
	}
	return nil
}

func parseDimensionID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid dimension id %q: must be a positive integer", s)
	}
	return id, nil
}

// loadCriteria reads a criteria file. An empty path yields an empty record.
func loadCriteria(path string) (*models.Criteria, error) {
	if path == "" {
		return models.NewCriteria(), nil
	}
	c, err := models.LoadCriteriaFile(path)
	if err != nil {
		return nil, fmt.Errorf("load criteria: %w", err)
	}
	return c, nil
}
