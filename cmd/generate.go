package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/marcus/atelier/internal/blackbox"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a generation function and print the result",
	Long: `Run one Black Box function against a criteria file and print the
display text. Config fields start from the function defaults, seeded from the
criteria, and can be overridden with --set using the request field names.
Values are parsed as YAML, so lists and numbers work as expected.`,
	Example: `  atelier generate --function text --criteria crit.yaml --set tokens=200
  atelier generate --function sum-letters -f crit.json --set 'positions=[[1,2],[2,3]]'`,
	Args:    cobra.NoArgs,
	GroupID: "modal",
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("function", string(blackbox.FunctionText), "Generation function")
	generateCmd.Flags().StringP("criteria", "f", "", "Criteria file (YAML or JSON)")
	generateCmd.Flags().StringArray("set", nil, "Override a config field (key=value, repeatable)")
	generateCmd.MarkFlagRequired("criteria")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	fnName, _ := cmd.Flags().GetString("function")
	critPath, _ := cmd.Flags().GetString("criteria")
	sets, _ := cmd.Flags().GetStringArray("set")

	fn, err := blackbox.ParseFunction(fnName)
	if err != nil {
		return err
	}
	criteria, err := loadCriteria(critPath)
	if err != nil {
		return err
	}
	if criteria.Len() == 0 {
		return fmt.Errorf("criteria file %s is empty", critPath)
	}

	fnCfg, err := blackbox.DefaultConfig(fn, criteria)
	if err != nil {
		return err
	}
	if err := applyOverrides(fnCfg, sets); err != nil {
		return err
	}
	if err := blackbox.Validate(fnCfg); err != nil {
		return err
	}

	client := blackbox.NewClient(cfg.BlackboxURL,
		blackbox.WithLogger(logger),
		blackbox.WithTimeout(cfg.RequestTimeout),
	)
	res, err := client.Generate(cmd.Context(), fnCfg, criteria)
	if err != nil {
		return err
	}
	if !res.Updated {
		logger.Warn("reply carried no displayable content", "function", fn)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Content)
	return nil
}

// applyOverrides writes key=value pairs into cfg through its JSON field
// names.
func applyOverrides(cfg blackbox.Config, sets []string) error {
	if len(sets) == 0 {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q: want key=value", s)
		}
		if _, known := fields[key]; !known {
			return fmt.Errorf("invalid --set %q: %s has no field %q", s, cfg.Function(), key)
		}
		var v any
		if err := yaml.Unmarshal([]byte(value), &v); err != nil {
			return fmt.Errorf("invalid --set %q: %w", s, err)
		}
		fields[key] = v
	}

	raw, err = json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}
