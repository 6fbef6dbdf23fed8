package artifact

import (
	"encoding/json"
	"fmt"
	"math"
)

// StandardScaler standardizes features as (x - mean) / scale
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ParseScaler decodes scaler parameters. A zero scale is treated as 1, the
// way the training library stores constant columns.
func ParseScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid scaler: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler mean has %d entries, scale has %d", len(s.Mean), len(s.Scale))
	}
	for i, sc := range s.Scale {
		if math.IsNaN(sc) || math.IsInf(sc, 0) || math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) {
			return nil, fmt.Errorf("scaler parameter %d is not finite", i)
		}
		if sc == 0 {
			s.Scale[i] = 1
		}
	}
	return &s, nil
}

// Dim is the number of features the scaler was fitted on
func (s *StandardScaler) Dim() int {
	return len(s.Mean)
}

// Transform returns a standardized copy of x
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
