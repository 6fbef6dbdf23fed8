package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/database"
	"github.com/lesotho-health/cost-api/pkg/engine"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check artifact storage and model health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.ArtifactDatabaseURL != "" {
		db, err := database.Connect(cmd.Context(), cfg.ArtifactDatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		fmt.Println("✓ Artifact database connection healthy")
	}

	a, err := engine.LoadArtifact(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	status := engine.New(a, engine.Options{MinCost: cfg.MinPredictedCost}).Status()
	if !status.ModelLoaded {
		fmt.Printf("⚠ No usable model artifact, serving %s\n", status.ModelType)
		return nil
	}

	fmt.Printf("✓ %s %s loaded from %s (%d features, %s encoding)\n",
		status.ModelType, status.Version, status.Location, status.FeaturesCount(), status.Encoding)
	return nil
}
