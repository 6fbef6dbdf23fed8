package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/engine"
)

var (
	explainInput  string
	explainFormat string
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain how a prediction is calculated",
	Long: `Show each cost factor of a heuristic prediction, or the encoded and
scaled features a trained model saw.

Examples:
  lesotho-cost explain --input person.json
  lesotho-cost explain --input person.json --format json`,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainInput, "input", "", "Path to request JSON file (- for stdin)")
	explainCmd.Flags().StringVar(&explainFormat, "format", "cli", "Output format (cli, json)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(explainInput, nil)
	if err != nil {
		return err
	}

	_, eng, err := loadEngine(cmd.Context(), nil)
	if err != nil {
		return err
	}

	explanation, err := eng.Explain(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("explanation failed: %w", err)
	}

	switch explainFormat {
	case "json":
		return engine.OutputJSON(os.Stdout, explanation)
	case "cli":
		return engine.OutputExplanation(os.Stdout, explanation)
	default:
		return fmt.Errorf("unsupported output format: %s", explainFormat)
	}
}
