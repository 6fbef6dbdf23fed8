package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var artifactDir string

var rootCmd = &cobra.Command{
	Use:   "lesotho-cost",
	Short: "Lesotho healthcare cost prediction",
	Long: `Predict annual healthcare costs in Lesotho from demographic and
socioeconomic factors, using a trained model artifact when one is available
and a heuristic cost model otherwise.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&artifactDir, "artifact-dir", "", "Model artifact directory (overrides ARTIFACT_DIR)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(publishCmd)
}
