package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesotho-health/cost-api/pkg/api/handlers"
	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/config"
	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/engine"
	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/metrics"
	"github.com/lesotho-health/cost-api/pkg/types"
)

const scenarioBody = `{
	"age": 45,
	"sex": "male",
	"region": "Maseru",
	"is_insured": 1,
	"employment": "employed",
	"household_size": 4,
	"primary_healthcare_access": "easy",
	"annual_income": 50000,
	"healthcare_type": "private"
}`

func testConfig() *config.Config {
	return &config.Config{
		Port:             "10000",
		CORSOrigins:      []string{"*"},
		RequestTimeout:   5 * time.Second,
		MinPredictedCost: 1000,
	}
}

func newTestServer(t *testing.T, a *artifact.Artifact) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	eng := engine.New(a, engine.Options{MinCost: 1000, Metrics: m})
	ts := httptest.NewServer(New(testConfig(), eng, m).Handler())
	t.Cleanup(ts.Close)
	return ts, m
}

func loadLinear(t *testing.T) *artifact.Artifact {
	t.Helper()
	dir := filepath.Join("..", "artifact", "testdata", "linear")
	a, err := artifact.Load(context.Background(), artifact.NewDirSource(dir), "lesotho-healthcare-cost")
	require.NoError(t, err)
	return a
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func postPredict(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

type predictResponse struct {
	Cost           float64   `json:"predicted_healthcare_cost"`
	ModelUsed      string    `json:"model_used"`
	ConfidenceInfo string    `json:"confidence_info"`
	Timestamp      time.Time `json:"timestamp"`
	PredictionID   string    `json:"prediction_id"`
}

func TestPredictHeuristic(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postPredict(t, ts.URL, scenarioBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body predictResponse
	decode(t, resp, &body)
	assert.Equal(t, 9575.0, body.Cost)
	assert.Equal(t, estimator.HeuristicLabel, body.ModelUsed)
	assert.True(t, strings.HasSuffix(body.ConfidenceInfo, "out-of-pocket costs. Private healthcare costs included."))
	assert.NotEmpty(t, body.PredictionID)
	assert.False(t, body.Timestamp.IsZero())

	resp = postPredict(t, ts.URL, strings.Replace(scenarioBody, `"is_insured": 1`, `"is_insured": 0`, 1))
	decode(t, resp, &body)
	assert.Equal(t, 14075.0, body.Cost)
}

func TestPredictModel(t *testing.T) {
	ts, _ := newTestServer(t, loadLinear(t))

	resp := postPredict(t, ts.URL, scenarioBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body predictResponse
	decode(t, resp, &body)
	assert.Equal(t, 6300.0, body.Cost)
	assert.Equal(t, "Linear Regression", body.ModelUsed)
	assert.Contains(t, body.ConfidenceInfo, "trained on Lesotho healthcare data")
}

func TestPredictValidationError(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	body := strings.Replace(scenarioBody, `"age": 45`, `"age": 17`, 1)
	body = strings.Replace(body, `"household_size": 4,`, ``, 1)
	resp := postPredict(t, ts.URL, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Status  int    `json:"status"`
			Details struct {
				Fields []struct {
					Field string `json:"field"`
					Rule  string `json:"rule"`
				} `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	decode(t, resp, &envelope)

	assert.Equal(t, handlers.CodeValidation, envelope.Error.Code)
	assert.Equal(t, http.StatusBadRequest, envelope.Error.Status)
	require.Len(t, envelope.Error.Details.Fields, 2)
	assert.Equal(t, "age", envelope.Error.Details.Fields[0].Field)
	assert.Equal(t, "household_size", envelope.Error.Details.Fields[1].Field)
	assert.Equal(t, "required", envelope.Error.Details.Fields[1].Rule)
}

func TestPredictMalformedBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	for _, body := range []string{`{"age":`, scenarioBody + ` {"age": 12} garbage`} {
		resp := postPredict(t, ts.URL, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		resp.Body.Close()
	}
}

func TestPredictOversizedBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	body := strings.Replace(scenarioBody, `"age": 45,`, `"age": 45, "notes": "`+strings.Repeat("x", 70<<10)+`",`, 1)
	resp := postPredict(t, ts.URL, body)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decode(t, resp, &envelope)
	assert.Equal(t, handlers.CodePayloadTooLarge, envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "65536 bytes")
}

type failingPredictor struct {
	err error
}

func (f failingPredictor) Predict(context.Context, types.PredictionRequest) (*types.PredictionResult, error) {
	return nil, f.err
}

func (f failingPredictor) Status() engine.Status {
	return engine.New(nil, engine.Options{}).Status()
}

func TestPredictEstimationFailure(t *testing.T) {
	err := fmt.Errorf("%w: model produced non-finite output", estimator.ErrEstimationFailure)
	ts := httptest.NewServer(New(testConfig(), failingPredictor{err: err}, nil).Handler())
	defer ts.Close()

	resp := postPredict(t, ts.URL, scenarioBody)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var envelope handlers.ErrorResponse
	decode(t, resp, &envelope)
	assert.Equal(t, handlers.CodeEstimation, envelope.Error.Code)
	assert.NotContains(t, envelope.Error.Message, "non-finite")
}

func TestPredictUnknownCategoryOnModelPath(t *testing.T) {
	a := loadLinear(t)
	// Drop a district from the artifact vocabulary so a valid request is unseen
	vocab := map[string][]string{}
	for k, v := range a.Vocabulary {
		vocab[k] = v
	}
	vocab[types.FieldRegion] = []string{"Leribe", "Maseru"}
	restricted := *a
	enc, err := encoding.NewLabelEncoder(vocab)
	require.NoError(t, err)
	restricted.Encoder = enc

	ts, _ := newTestServer(t, &restricted)
	resp := postPredict(t, ts.URL, strings.Replace(scenarioBody, `"Maseru"`, `"Quthing"`, 1))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope handlers.ErrorResponse
	decode(t, resp, &envelope)
	assert.Equal(t, handlers.CodeUnknownCategory, envelope.Error.Code)
	assert.Equal(t, "region", envelope.Error.Details["field"])
	assert.Equal(t, "Quthing", envelope.Error.Details["value"])
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.HealthResponse
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "demo_mode", body.ModelStatus)
	assert.Equal(t, 9, body.FeaturesLoaded)

	ts, _ = newTestServer(t, loadLinear(t))
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	decode(t, resp, &body)
	assert.Equal(t, "loaded", body.ModelStatus)
}

func TestModelInfo(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/model-info")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var demo map[string]interface{}
	decode(t, resp, &demo)
	assert.Equal(t, false, demo["model_loaded"])
	assert.Equal(t, "Demo mode - no model performance data", demo["model_performance"])
	assert.Equal(t, types.Currency, demo["currency"])
	assert.Len(t, demo["supported_regions"], 8)
	assert.Len(t, demo["expected_features"], 9)

	ts, _ = newTestServer(t, loadLinear(t))
	resp, err = http.Get(ts.URL + "/model-info")
	require.NoError(t, err)

	var info handlers.ModelInfoResponse
	decode(t, resp, &info)
	assert.True(t, info.ModelLoaded)
	assert.True(t, info.ScalerLoaded)
	assert.Equal(t, "label", info.Encoding)
	assert.Equal(t, "2024.06.1", info.ArtifactVersion)
	perf, ok := info.ModelPerformance.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 0.87, perf["test_r2"])
	assert.Equal(t, "Linear Regression", perf["model_type"])
}

func TestRoot(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)

	var body handlers.RootResponse
	decode(t, resp, &body)
	assert.Equal(t, handlers.APIVersion, body.Version)
	assert.Contains(t, body.Endpoints, "/predict")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var envelope handlers.ErrorResponse
	decode(t, resp, &envelope)
	assert.Equal(t, handlers.CodeNotFound, envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details["available_endpoints"], "/model-info")

	resp, err = http.Get(ts.URL + "/predict")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	m := metrics.New()
	ts := httptest.NewServer(New(cfg, engine.New(nil, engine.Options{}), m).Handler())
	defer ts.Close()

	resp := postPredict(t, ts.URL, scenarioBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postPredict(t, ts.URL, scenarioBody)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	var envelope handlers.ErrorResponse
	decode(t, resp, &envelope)
	assert.Equal(t, handlers.CodeRateLimited, envelope.Error.Code)

	// Other routes are not limited
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	postPredict(t, ts.URL, scenarioBody).Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `healthcost_predictions_total{method="heuristic",outcome="success"} 1`)
	assert.Contains(t, buf.String(), `route="/predict"`)
}

func TestConcurrentPredictions(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(scenarioBody))
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			var body predictResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				errs <- err
				return
			}
			if body.Cost != 9575 {
				errs <- errors.New("unexpected cost")
				return
			}
			errs <- nil
		}()
	}
	for i := 0; i < 20; i++ {
		assert.NoError(t, <-errs)
	}
}
