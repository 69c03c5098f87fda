package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var functionsCmd = &cobra.Command{
	Use:     "functions [query]",
	Aliases: []string{"fn"},
	Short:   "List the Black Box generation functions",
	Long: `List the generation functions with their endpoints and default
settings. An optional query filters by fuzzy match on the function name.`,
	Args:    cobra.MaximumNArgs(1),
	GroupID: "modal",
	RunE:    runFunctions,
}

func init() {
	rootCmd.AddCommand(functionsCmd)

	functionsCmd.Flags().Bool("plain", false, "Print markdown without styling")
}

func runFunctions(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	fns := blackbox.MatchFunctions(query)
	if len(fns) == 0 {
		return fmt.Errorf("no function matches %q", query)
	}

	md := functionsMarkdown(fns)
	plain, _ := cmd.Flags().GetBool("plain")
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = min(w, 120)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// functionsMarkdown documents fns with their endpoint and default config.
func functionsMarkdown(fns []blackbox.Function) string {
	var sb strings.Builder
	sb.WriteString("# Black Box functions\n")
	for _, fn := range fns {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", fn.Label()))
		sb.WriteString(fmt.Sprintf("**Name:** `%s` | **Endpoint:** `POST %s`\n\n", fn, fn.Endpoint()))

		cfg, err := blackbox.DefaultConfig(fn, models.NewCriteria())
		if err != nil {
			continue
		}
		fields := defaultFields(cfg)
		if len(fields) == 0 {
			sb.WriteString("_No settings; the criteria record is sent as the input dictionary._\n")
			continue
		}
		sb.WriteString("| Field | Default |\n|---|---|\n")
		for _, f := range fields {
			sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", f[0], f[1]))
		}
	}
	return sb.String()
}

// defaultFields returns cfg's JSON fields in declaration order as
// name/value pairs. Long values are truncated.
func defaultFields(cfg blackbox.Config) [][2]string {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var out [][2]string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		name, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return out
		}
		text := strings.ReplaceAll(string(value), "|", "\\|")
		out = append(out, [2]string{name, ansi.Truncate(text, 60, "…")})
	}
	return out
}
