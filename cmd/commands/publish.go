package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/database"
)

var publishName string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a model artifact directory to PostgreSQL",
	Long: `Validate the artifact in --artifact-dir and store it as a new version in
the database named by ARTIFACT_DATABASE_URL. The version comes from the
manifest. Servers started with the same ARTIFACT_DATABASE_URL load the most
recently published version.

Examples:
  ARTIFACT_DATABASE_URL=postgres://localhost/costs lesotho-cost publish --artifact-dir ./models`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishName, "name", "", "Artifact name (overrides ARTIFACT_NAME)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ArtifactDatabaseURL == "" {
		return fmt.Errorf("ARTIFACT_DATABASE_URL must be set to publish")
	}
	name := cfg.ArtifactName
	if publishName != "" {
		name = publishName
	}

	db, err := database.Connect(cmd.Context(), cfg.ArtifactDatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	a, err := publishDir(cmd.Context(), db, cfg.ArtifactDir, name)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Published %s %s (%s, %d features) from %s\n",
		name, a.Manifest.Version, a.Manifest.ModelType, len(a.Features), cfg.ArtifactDir)
	return nil
}

// publishDir validates the artifact in dir and stores it under name. Nothing
// is written when the artifact does not decode.
func publishDir(ctx context.Context, db *database.DB, dir, name string) (*artifact.Artifact, error) {
	bundle, err := artifact.NewDirSource(dir).Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	a, err := artifact.Decode(bundle, name)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)
	for _, file := range a.Manifest.Files() {
		data, err := bundle.ReadFile(file)
		if err != nil {
			return nil, err
		}
		files[file] = data
	}

	if _, err := db.Exec(ctx, artifact.PostgresSchema); err != nil {
		return nil, fmt.Errorf("failed to prepare artifact tables: %w", err)
	}
	if err := artifact.Publish(ctx, db, name, a.Manifest.Version, bundle.Manifest, files); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"name":    name,
		"version": a.Manifest.Version,
		"files":   len(files),
	}).Info("Artifact published")
	return a, nil
}
