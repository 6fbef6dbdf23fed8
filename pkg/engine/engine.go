package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/diff"
	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/explainability"
	"github.com/lesotho-health/cost-api/pkg/metrics"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// Engine runs validated requests through the estimator chosen at start-up.
// It is immutable after New and safe for concurrent use.
type Engine struct {
	artifact  *artifact.Artifact
	estimator estimator.Estimator
	explainer *explainability.Explainer
	differ    *diff.Differ
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Options configures the engine
type Options struct {
	MinCost float64
	// Jitter enables ±5% variation on heuristic estimates
	Jitter bool
	// Metrics may be nil
	Metrics *metrics.Metrics
}

// New builds an engine around a loaded artifact, or the heuristic when a is nil
func New(a *artifact.Artifact, opts Options) *Engine {
	estOpts := estimator.Options{MinCost: opts.MinCost}
	if opts.Jitter {
		estOpts.Perturber = estimator.UniformPerturbation{Spread: estimator.DefaultSpread}
	}

	e := &Engine{
		artifact:  a,
		estimator: estimator.New(a, estOpts),
		explainer: explainability.New(),
		differ:    diff.New(),
		metrics:   opts.Metrics,
		now:       time.Now,
	}

	if e.metrics != nil {
		status := e.Status()
		e.metrics.SetModel(status.ModelLoaded, status.FeaturesCount())
	}
	return e
}

// Predict estimates the annual healthcare cost for req
func (e *Engine) Predict(ctx context.Context, req types.PredictionRequest) (*types.PredictionResult, error) {
	start := time.Now()
	method := e.estimator.Method()

	est, err := e.estimator.Estimate(ctx, req)
	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, encoding.ErrUnknownCategory) {
			outcome = metrics.OutcomeUnknownCategory
		}
		e.observe(string(method), outcome, 0, time.Since(start))

		log.WithFields(log.Fields{
			"method":  method,
			"outcome": outcome,
			"error":   err,
		}).Warn("Prediction failed")
		return nil, err
	}

	cost := decimal.NewFromFloat(est.Cost).Round(2)
	result := &types.PredictionResult{
		ID:             uuid.New().String(),
		Cost:           cost.InexactFloat64(),
		Method:         est.Method,
		ModelUsed:      est.Label,
		ConfidenceInfo: ConfidenceInfo(est, req),
		Timestamp:      e.now(),
	}
	e.observe(string(method), metrics.OutcomeSuccess, result.Cost, time.Since(start))

	log.WithFields(log.Fields{
		"prediction_id": result.ID,
		"method":        method,
		"cost":          cost.StringFixed(2),
		"floored":       est.Floored,
		"region":        req.Region,
	}).Debug("Prediction completed")

	return result, nil
}

// Explain reports how the active estimator arrived at the cost for req
func (e *Engine) Explain(ctx context.Context, req types.PredictionRequest) (*explainability.Explanation, error) {
	return e.explainer.Explain(ctx, e.estimator, req)
}

// Diff predicts both requests and compares them
func (e *Engine) Diff(ctx context.Context, before, after types.PredictionRequest) (*diff.DetailedDiff, error) {
	b, err := e.Predict(ctx, before)
	if err != nil {
		return nil, err
	}
	a, err := e.Predict(ctx, after)
	if err != nil {
		return nil, err
	}

	d := e.differ.Diff(before, after, b, a)
	if h, ok := e.estimator.(*estimator.HeuristicEstimator); ok {
		d.Terms = e.differ.DiffBreakdowns(h.Breakdown(before), h.Breakdown(after))
	}
	return d, nil
}

// Method is the estimation path chosen at start-up
func (e *Engine) Method() types.EstimationMethod {
	return e.estimator.Method()
}

func (e *Engine) observe(method, outcome string, cost float64, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObservePrediction(method, outcome, cost, d)
}
