package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/config"
	"github.com/lesotho-health/cost-api/pkg/database"
	"github.com/lesotho-health/cost-api/pkg/metrics"
)

// artifactLoadTimeout bounds the start-up fetch from a remote source
const artifactLoadTimeout = 30 * time.Second

// Bootstrap loads the configured artifact and builds the engine. A missing
// artifact selects the heuristic. A malformed one does too, unless the
// configuration requires an artifact.
func Bootstrap(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	a, err := LoadArtifact(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return New(a, Options{
		MinCost: cfg.MinPredictedCost,
		Jitter:  cfg.HeuristicJitter,
		Metrics: m,
	}), nil
}

// LoadArtifact returns nil, nil when the service should run in demo mode
func LoadArtifact(ctx context.Context, cfg *config.Config) (*artifact.Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, artifactLoadTimeout)
	defer cancel()

	a, err := loadFromSource(ctx, cfg)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"name":     a.Manifest.Name,
			"version":  a.Manifest.Version,
			"model":    a.Model.Kind(),
			"encoding": a.Scheme,
			"features": len(a.Features),
			"location": a.Location,
		}).Info("Model artifact loaded")
		return a, nil

	case errors.Is(err, artifact.ErrArtifactNotFound):
		log.WithError(err).Warn("No model artifact found, serving heuristic estimates in demo mode")
		return nil, nil

	case cfg.ArtifactRequired:
		return nil, fmt.Errorf("model artifact required: %w", err)

	default:
		log.WithError(err).Error("Model artifact unusable, serving heuristic estimates in demo mode")
		return nil, nil
	}
}

func loadFromSource(ctx context.Context, cfg *config.Config) (*artifact.Artifact, error) {
	if cfg.ArtifactDatabaseURL == "" {
		return artifact.Load(ctx, artifact.NewDirSource(cfg.ArtifactDir), cfg.ArtifactName)
	}

	db, err := database.Connect(ctx, cfg.ArtifactDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("artifact database: %w", err)
	}
	defer db.Close()

	return artifact.Load(ctx, artifact.NewPostgresSource(db), cfg.ArtifactName)
}
