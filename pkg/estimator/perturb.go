package estimator

import "math/rand"

// Perturber returns the multiplicative factor applied to a heuristic estimate
type Perturber interface {
	Factor() float64
}

// NoPerturbation keeps heuristic estimates deterministic
type NoPerturbation struct{}

func (NoPerturbation) Factor() float64 { return 1 }

// UniformPerturbation varies an estimate uniformly by up to ±Spread
type UniformPerturbation struct {
	Spread float64
}

// DefaultSpread is the ±5% variation used when jitter is enabled
const DefaultSpread = 0.05

func (p UniformPerturbation) Factor() float64 {
	return 1 + (rand.Float64()*2-1)*p.Spread
}
