package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/engine"
)

var (
	beforeFile    string
	afterFile     string
	diffOverrides []string
	diffFormat    string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the predicted cost of two requests",
	Long: `Calculate the cost delta between a before and an after request, for
what-if analysis.

Examples:
  # Diff two request files
  lesotho-cost diff --before person.json --after person-insured.json

  # What if this person lost their insurance?
  lesotho-cost diff --before person.json --set is_insured=0`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&beforeFile, "before", "", "Path to before request JSON")
	diffCmd.Flags().StringVar(&afterFile, "after", "", "Path to after request JSON (defaults to --before)")
	diffCmd.Flags().StringArrayVar(&diffOverrides, "set", nil, "Override a field of the after request (field=value)")
	diffCmd.Flags().StringVar(&diffFormat, "format", "cli", "Output format (cli, json)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	if beforeFile == "" {
		return fmt.Errorf("--before must be specified")
	}
	if afterFile == "" && len(diffOverrides) == 0 {
		return fmt.Errorf("either --after or --set must be specified")
	}

	before, err := loadRequest(beforeFile, nil)
	if err != nil {
		return fmt.Errorf("before request: %w", err)
	}

	source := afterFile
	if source == "" {
		source = beforeFile
	}
	after, err := loadRequest(source, diffOverrides)
	if err != nil {
		return fmt.Errorf("after request: %w", err)
	}

	_, eng, err := loadEngine(cmd.Context(), nil)
	if err != nil {
		return err
	}

	result, err := eng.Diff(cmd.Context(), before, after)
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	switch diffFormat {
	case "json":
		return engine.OutputJSON(os.Stdout, result)
	case "cli":
		return engine.OutputDiff(os.Stdout, result)
	default:
		return fmt.Errorf("unsupported output format: %s", diffFormat)
	}
}
