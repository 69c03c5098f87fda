package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/marcus/atelier/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after applying the config file, ATELIER_*
environment variables and flags. With --save the result is written to the
config file so later runs pick it up.`,
	Args:    cobra.NoArgs,
	GroupID: "system",
	RunE:    runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("save", false, "Write the effective config to the config file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		path := cfg.File
		if path == "" {
			path = filepath.Join(config.Dir(), "config.yaml")
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return fmt.Errorf("save config: %s is not a YAML file", path)
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", path)
	}

	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	if cfg.File != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.File)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
