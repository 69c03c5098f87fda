package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcus/atelier/internal/jeux"
	"github.com/marcus/atelier/internal/models"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <dimension-id>",
	Short: "Submit criteria and generated content as a verification",
	Long: `Submit a verification without opening the modal. The criteria values are
sent in file order along with the generated content.`,
	Example: `  atelier verify 12 -f crit.yaml --content "Generated text"
  atelier generate -f crit.yaml > out.txt && atelier verify 12 -f crit.yaml --content-file out.txt`,
	Args:    cobra.ExactArgs(1),
	GroupID: "modal",
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("criteria", "f", "", "Criteria file (YAML or JSON)")
	verifyCmd.Flags().String("content", "", "Generated content")
	verifyCmd.Flags().String("content-file", "", "Read generated content from a file (- for stdin)")
	verifyCmd.Flags().Bool("json", false, "Print the stored verification as JSON")
	verifyCmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

func runVerify(cmd *cobra.Command, args []string) error {
	dimID, err := parseDimensionID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	critPath, _ := cmd.Flags().GetString("criteria")
	content, _ := cmd.Flags().GetString("content")
	contentFile, _ := cmd.Flags().GetString("content-file")
	asJSON, _ := cmd.Flags().GetBool("json")

	if contentFile != "" {
		content, err = readContent(cmd, contentFile)
		if err != nil {
			return err
		}
	}
	if content == "" {
		return fmt.Errorf("nothing to verify: --content or --content-file is required")
	}

	criteria, err := loadCriteria(critPath)
	if err != nil {
		return err
	}

	client := jeux.NewClient(cfg.SubmitURL, cfg.RequestTimeout, logger)
	v, err := client.Submit(cmd.Context(), models.NewVerifyRequest(dimID, criteria, content))
	if errors.Is(err, jeux.ErrAlreadyVerified) {
		return fmt.Errorf("dimension %d is already verified", dimID)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "VERIFIED dimension %d (%s)\n", v.DimensionID, v.ID)
	return nil
}

func readContent(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
