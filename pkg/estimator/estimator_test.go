package estimator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/types"
)

func scenario() types.PredictionRequest {
	return types.PredictionRequest{
		Age:            45,
		Sex:            types.SexMale,
		Region:         types.RegionMaseru,
		IsInsured:      1,
		Employment:     types.EmploymentEmployed,
		HouseholdSize:  4,
		Access:         types.AccessEasy,
		AnnualIncome:   50000,
		HealthcareType: types.HealthcarePrivate,
	}
}

func loadFixture(t *testing.T, name string) *artifact.Artifact {
	t.Helper()
	dir := filepath.Join("..", "artifact", "testdata", name)
	a, err := artifact.Load(context.Background(), artifact.NewDirSource(dir), "lesotho-healthcare-cost")
	require.NoError(t, err)
	return a
}

type fixedFactor float64

func (f fixedFactor) Factor() float64 { return float64(f) }

func TestNewPicksPath(t *testing.T) {
	assert.Equal(t, types.MethodHeuristic, New(nil, Options{}).Method())
	assert.Equal(t, types.MethodModel, New(loadFixture(t, "linear"), Options{}).Method())
}

func TestHeuristicScenario(t *testing.T) {
	h := NewHeuristic(Options{})

	est, err := h.Estimate(context.Background(), scenario())
	require.NoError(t, err)
	assert.InDelta(t, 9575.0, est.Cost, 1e-6)
	assert.False(t, est.Floored)
	assert.Equal(t, HeuristicLabel, est.Label)

	req := scenario()
	req.IsInsured = 0
	est, err = h.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 14075.0, est.Cost, 1e-6)
}

func TestHeuristicIsDeterministicByDefault(t *testing.T) {
	h := NewHeuristic(Options{})
	first, err := h.Estimate(context.Background(), scenario())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			est, err := h.Estimate(context.Background(), scenario())
			assert.NoError(t, err)
			assert.Equal(t, first.Cost, est.Cost)
		}()
	}
	wg.Wait()
}

func TestHeuristicFloor(t *testing.T) {
	// Youngest, insured, large household, easy access, lowest-cost region
	req := types.PredictionRequest{
		Age:            18,
		Sex:            types.SexMale,
		Region:         types.RegionThabaTseka,
		IsInsured:      1,
		Employment:     types.EmploymentEmployed,
		HouseholdSize:  15,
		Access:         types.AccessEasy,
		AnnualIncome:   5000,
		HealthcareType: types.HealthcarePublic,
	}

	est, err := NewHeuristic(Options{}).Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinCost, est.Cost)
	assert.True(t, est.Floored)
	assert.Less(t, est.Raw, DefaultMinCost)

	est, err = NewHeuristic(Options{MinCost: 250}).Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 250.0, est.Cost)
}

func TestHeuristicAgeIsMonotonic(t *testing.T) {
	h := NewHeuristic(Options{})
	prev := 0.0
	for age := 18; age <= 100; age++ {
		req := scenario()
		req.Age = age
		est, err := h.Estimate(context.Background(), req)
		require.NoError(t, err)
		require.False(t, est.Floored, "age %d", age)
		if age > 18 {
			assert.Greater(t, est.Cost, prev, "age %d", age)
		}
		prev = est.Cost
	}
}

func TestHeuristicInsuranceLowersCost(t *testing.T) {
	h := NewHeuristic(Options{})
	for _, region := range types.Regions {
		insured := scenario()
		insured.Region = region
		uninsured := insured
		uninsured.IsInsured = 0

		a, err := h.Estimate(context.Background(), insured)
		require.NoError(t, err)
		b, err := h.Estimate(context.Background(), uninsured)
		require.NoError(t, err)
		assert.Less(t, a.Cost, b.Cost, string(region))
	}
}

func TestHeuristicUnknownCategoryIsNeutral(t *testing.T) {
	h := NewHeuristic(Options{})
	req := scenario()
	req.Region = "Gotham"

	b := h.Breakdown(req)
	var found bool
	for _, c := range b.Contributions {
		if c.Field == types.FieldRegion {
			found = true
			assert.True(t, c.Defaulted)
			assert.Zero(t, c.Amount)
		}
	}
	assert.True(t, found)
	assert.InDelta(t, 9575.0-1500.0, b.Subtotal, 1e-6)
}

func TestHeuristicPerturbation(t *testing.T) {
	est, err := NewHeuristic(Options{Perturber: fixedFactor(1.05)}).Estimate(context.Background(), scenario())
	require.NoError(t, err)
	assert.InDelta(t, 9575.0*1.05, est.Cost, 1e-6)

	p := UniformPerturbation{Spread: DefaultSpread}
	for i := 0; i < 1000; i++ {
		f := p.Factor()
		assert.GreaterOrEqual(t, f, 0.95)
		assert.LessOrEqual(t, f, 1.05)
	}
}

func TestHeuristicBreakdownSumsToEstimate(t *testing.T) {
	h := NewHeuristic(Options{})
	b := h.Breakdown(scenario())
	assert.Len(t, b.Contributions, 10)

	var sum float64
	for _, c := range b.Contributions {
		assert.False(t, c.Defaulted, c.Name)
		sum += c.Amount
	}
	assert.InDelta(t, b.Subtotal, sum, 1e-9)
	assert.InDelta(t, 9575.0, b.Subtotal, 1e-6)
}

func TestModelEstimate(t *testing.T) {
	m := NewModel(loadFixture(t, "linear"), Options{})
	assert.Equal(t, "Linear Regression", m.Label())

	// 8000 + 500*0.5 + 100*1 + 50*3 - 1500*1 + 200*0 - 100*4 - 300*1 + 400*0 - 2000*0
	est, err := m.Estimate(context.Background(), scenario())
	require.NoError(t, err)
	assert.InDelta(t, 6300, est.Cost, 1e-9)
	assert.Equal(t, types.MethodModel, est.Method)

	trace, err := m.Inspect(scenario())
	require.NoError(t, err)
	assert.Len(t, trace.Aligned, 9)
	assert.Equal(t, 3.0, trace.Encoded[types.FieldRegion])
	assert.InDelta(t, 0.5, trace.Scaled[0], 1e-9)
}

func TestModelEstimateFloors(t *testing.T) {
	m := NewModel(loadFixture(t, "linear"), Options{MinCost: 7000})
	est, err := m.Estimate(context.Background(), scenario())
	require.NoError(t, err)
	assert.Equal(t, 7000.0, est.Cost)
	assert.True(t, est.Floored)
}

func TestModelEstimateUnknownCategory(t *testing.T) {
	m := NewModel(loadFixture(t, "linear"), Options{})
	req := scenario()
	req.Employment = "retired"

	_, err := m.Estimate(context.Background(), req)
	var unknown *encoding.UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, types.FieldEmployment, unknown.Field)
	assert.False(t, errors.Is(err, ErrEstimationFailure))
}

func TestModelEstimateNonFiniteOutput(t *testing.T) {
	a := loadFixture(t, "linear")
	broken := *a
	broken.Model = &artifact.LinearRegression{
		Intercept:    0,
		Coefficients: []float64{1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308},
	}

	req := scenario()
	req.Age = 100
	_, err := NewModel(&broken, Options{}).Estimate(context.Background(), req)
	assert.True(t, errors.Is(err, ErrEstimationFailure))
}

func TestModelForestOneHot(t *testing.T) {
	m := NewModel(loadFixture(t, "forest"), Options{})
	est, err := m.Estimate(context.Background(), scenario())
	require.NoError(t, err)
	assert.InDelta(t, 8000, est.Cost, 1e-9)

	trace, err := m.Inspect(scenario())
	require.NoError(t, err)
	assert.Contains(t, trace.Dropped, "sex_male")
	assert.Equal(t, 1.0, trace.Aligned[4])

	req := scenario()
	req.Age = 30
	req.HealthcareType = types.HealthcarePublic
	est, err = m.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 3500, est.Cost, 1e-9)
	assert.False(t, est.Floored)
}

func TestEstimateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristic(Options{}).Estimate(ctx, scenario())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeuristicPerturbedFlag(t *testing.T) {
	assert.False(t, NewHeuristic(Options{}).Perturbed())
	assert.True(t, NewHeuristic(Options{Perturber: UniformPerturbation{Spread: DefaultSpread}}).Perturbed())
}
