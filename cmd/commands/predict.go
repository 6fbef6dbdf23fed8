package commands

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/engine"
)

var (
	inputFile    string
	overrides    []string
	outputFormat string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict healthcare cost for one individual",
	Long: `Validate a prediction request and estimate the annual healthcare cost.

Examples:
  # Predict from a request file
  lesotho-cost predict --input person.json

  # Read the request from stdin and print JSON
  cat person.json | lesotho-cost predict --input - --format json

  # Override a field
  lesotho-cost predict --input person.json --set region=Leribe`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&inputFile, "input", "", "Path to request JSON file (- for stdin)")
	predictCmd.Flags().StringArrayVar(&overrides, "set", nil, "Override a request field (field=value)")
	predictCmd.Flags().StringVar(&outputFormat, "format", "cli", "Output format (cli, json)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	req, err := loadRequest(inputFile, overrides)
	if err != nil {
		return err
	}

	_, eng, err := loadEngine(cmd.Context(), nil)
	if err != nil {
		return err
	}

	log.WithField("method", eng.Method()).Debug("Running prediction")

	result, err := eng.Predict(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	switch outputFormat {
	case "json":
		return engine.OutputJSON(os.Stdout, result)
	case "cli":
		return engine.OutputPrediction(os.Stdout, result)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
