package estimator

import (
	"context"

	"github.com/lesotho-health/cost-api/pkg/types"
)

// HeuristicLabel names the heuristic model in responses
const HeuristicLabel = "Heuristic Cost Model (Demo Mode)"

// Heuristic cost factors, in Maloti
const (
	baseCost          = 5000.0
	adultAge          = 18
	costPerYear       = 75.0
	insuredAdjustment = -2500.0
	uninsuredPenalty  = 2000.0
	incomeUnit        = 60000.0
	costPerIncomeUnit = 1500.0
	perExtraMember    = -300.0
	privateSurcharge  = 4000.0
)

var accessCost = map[types.Access]float64{
	types.AccessEasy:      -800,
	types.AccessModerate:  200,
	types.AccessDifficult: 1500,
}

var employmentCost = map[types.Employment]float64{
	types.EmploymentEmployed:     0,
	types.EmploymentUnemployed:   1200,
	types.EmploymentSelfEmployed: 600,
}

var regionCost = map[types.Region]float64{
	types.RegionMaseru:      1500,
	types.RegionLeribe:      800,
	types.RegionMafeteng:    500,
	types.RegionButhaButhe:  300,
	types.RegionMohalesHoek: 200,
	types.RegionQuthing:     0,
	types.RegionQachasNek:   -300,
	types.RegionThabaTseka:  -500,
}

var healthcareCost = map[types.HealthcareType]float64{
	types.HealthcarePublic:  0,
	types.HealthcarePrivate: privateSurcharge,
}

var sexCost = map[types.Sex]float64{
	types.SexMale:   0,
	types.SexFemale: 300,
}

// Contribution is one additive term of the heuristic formula
type Contribution struct {
	Name   string  `json:"name"`
	Field  string  `json:"field,omitempty"`
	Value  string  `json:"value,omitempty"`
	Amount float64 `json:"amount"`
	// Defaulted marks a categorical value with no known cost, counted as 0
	Defaulted bool `json:"defaulted,omitempty"`
}

// Breakdown lists every term of a heuristic estimate before flooring
type Breakdown struct {
	Contributions []Contribution `json:"contributions"`
	Subtotal      float64        `json:"subtotal"`
}

// HeuristicEstimator applies a fixed additive cost formula
type HeuristicEstimator struct {
	opts Options
}

func NewHeuristic(opts Options) *HeuristicEstimator {
	return &HeuristicEstimator{opts: opts.withDefaults()}
}

func (h *HeuristicEstimator) Method() types.EstimationMethod { return types.MethodHeuristic }

func (h *HeuristicEstimator) Label() string { return HeuristicLabel }

func (h *HeuristicEstimator) MinCost() float64 { return h.opts.MinCost }

// Perturbed reports whether estimates vary between calls
func (h *HeuristicEstimator) Perturbed() bool {
	_, fixed := h.opts.Perturber.(NoPerturbation)
	return !fixed
}

func (h *HeuristicEstimator) Estimate(ctx context.Context, req types.PredictionRequest) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	raw := h.Breakdown(req).Subtotal * h.opts.Perturber.Factor()
	cost, floored := floor(raw, h.opts.MinCost)

	return Estimate{
		Cost:    cost,
		Raw:     raw,
		Floored: floored,
		Method:  types.MethodHeuristic,
		Label:   HeuristicLabel,
	}, nil
}

// Breakdown returns the unperturbed, unfloored terms of the formula
func (h *HeuristicEstimator) Breakdown(req types.PredictionRequest) Breakdown {
	insurance := uninsuredPenalty
	if req.Insured() {
		insurance = insuredAdjustment
	}

	terms := []Contribution{
		{Name: "base", Amount: baseCost},
		{Name: "age", Field: types.FieldAge, Amount: float64(req.Age-adultAge) * costPerYear},
		{Name: "insurance", Field: types.FieldIsInsured, Amount: insurance},
		{Name: "income", Field: types.FieldAnnualIncome, Amount: req.AnnualIncome / incomeUnit * costPerIncomeUnit},
		{Name: "household", Field: types.FieldHouseholdSize, Amount: float64(req.HouseholdSize-1) * perExtraMember},
		categorical("access", types.FieldAccess, req.Access, accessCost),
		categorical("healthcare type", types.FieldHealthcareType, req.HealthcareType, healthcareCost),
		categorical("employment", types.FieldEmployment, req.Employment, employmentCost),
		categorical("region", types.FieldRegion, req.Region, regionCost),
		categorical("sex", types.FieldSex, req.Sex, sexCost),
	}

	var subtotal float64
	for _, c := range terms {
		subtotal += c.Amount
	}
	return Breakdown{Contributions: terms, Subtotal: subtotal}
}

func categorical[K ~string](name, field string, value K, costs map[K]float64) Contribution {
	amount, ok := costs[value]
	return Contribution{
		Name:      name,
		Field:     field,
		Value:     string(value),
		Amount:    amount,
		Defaulted: !ok,
	}
}
