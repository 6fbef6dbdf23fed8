package commands

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lesotho-health/cost-api/pkg/api"
	"github.com/lesotho-health/cost-api/pkg/metrics"
)

var serverPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP API server",
	Long: `Start the healthcare cost prediction HTTP API server.

The server exposes:
  - GET  /            API information
  - POST /predict     Healthcare cost prediction
  - GET  /health      Service and model health
  - GET  /model-info  Model metadata
  - GET  /metrics     Prometheus metrics

Examples:
  # Start server on the default port
  lesotho-cost server

  # Start server on a custom port with a model directory
  lesotho-cost server --port 9090 --artifact-dir ./models

Environment variables:
  PORT                   - HTTP port (default: 10000)
  ARTIFACT_DIR           - Model artifact directory (default: models)
  ARTIFACT_DATABASE_URL  - Load the artifact from PostgreSQL instead
  ARTIFACT_REQUIRED      - Fail start-up on a malformed artifact
  MIN_PREDICTED_COST     - Lowest predicted cost in Maloti (default: 1000)
  HEURISTIC_JITTER       - Add ±5% variation to demo predictions
  CORS_ORIGINS           - Comma-separated CORS origins (default: *)
  RATE_LIMIT_RPS         - /predict requests per second, 0 disables
  LOG_LEVEL, LOG_FORMAT  - Logging level and format (text/json)`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&serverPort, "port", "", "HTTP server port (overrides PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	log.Info("Initializing healthcare cost prediction API server")

	m := metrics.New()
	cfg, eng, err := loadEngine(cmd.Context(), m)
	if err != nil {
		return err
	}

	status := eng.Status()
	log.WithFields(log.Fields{
		"port":         cfg.Port,
		"model_status": status.ModelStatus(),
		"model":        status.ModelType,
		"features":     status.FeaturesCount(),
		"min_cost":     cfg.MinPredictedCost,
	}).Info("Server configuration loaded")

	server := api.New(cfg, eng, m)
	return server.Start(cfg.Port)
}
