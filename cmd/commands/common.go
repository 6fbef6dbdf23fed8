package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lesotho-health/cost-api/pkg/config"
	"github.com/lesotho-health/cost-api/pkg/engine"
	"github.com/lesotho-health/cost-api/pkg/metrics"
	"github.com/lesotho-health/cost-api/pkg/types"
	"github.com/lesotho-health/cost-api/pkg/validation"
)

// loadConfig reads the environment, applies and re-validates flag overrides,
// then sets up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if artifactDir != "" {
		cfg.ArtifactDir = artifactDir
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEngine(ctx context.Context, m *metrics.Metrics) (*config.Config, *engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.Bootstrap(ctx, cfg, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	return cfg, eng, nil
}

// readRequestJSON loads a request body from a file, or stdin when path is "-"
func readRequestJSON(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, fmt.Errorf("--input must be specified")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("request must be a JSON object: %w", err)
	}
	return fields, nil
}

// applyOverrides sets field=value pairs. Values are parsed as JSON when
// possible so numbers stay numbers.
func applyOverrides(fields map[string]interface{}, overrides []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, o := range overrides {
		key, raw, ok := strings.Cut(o, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q, want field=value", o)
		}
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

// validate runs fields through the same validator the HTTP API uses
func validate(fields map[string]interface{}) (types.PredictionRequest, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return types.PredictionRequest{}, err
	}
	return validation.New().Decode(bytes.NewReader(data))
}

func loadRequest(path string, overrides []string) (types.PredictionRequest, error) {
	fields, err := readRequestJSON(path)
	if err != nil {
		return types.PredictionRequest{}, err
	}
	if fields, err = applyOverrides(fields, overrides); err != nil {
		return types.PredictionRequest{}, err
	}
	return validate(fields)
}
