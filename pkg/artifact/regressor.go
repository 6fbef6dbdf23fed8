package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Supported model types
const (
	ModelLinearRegression = "linear_regression"
	ModelRandomForest     = "random_forest"
)

// Regressor maps a scaled feature vector to a cost
type Regressor interface {
	Kind() string
	// Validate checks the parameters against the feature count
	Validate(dim int) error
	Predict(x []float64) (float64, error)
}

// ParseRegressor decodes model parameters for the given model type
func ParseRegressor(modelType string, data []byte) (Regressor, error) {
	switch strings.ToLower(strings.TrimSpace(modelType)) {
	case ModelLinearRegression, "linear":
		var m LinearRegression
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid linear model: %w", err)
		}
		return &m, nil
	case ModelRandomForest, "forest":
		var m RandomForest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid random forest: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

// LinearRegression is intercept + coefficients . x
type LinearRegression struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (m *LinearRegression) Kind() string { return ModelLinearRegression }

func (m *LinearRegression) Validate(dim int) error {
	if len(m.Coefficients) != dim {
		return fmt.Errorf("linear model has %d coefficients for %d features", len(m.Coefficients), dim)
	}
	if !finite(m.Intercept) {
		return fmt.Errorf("intercept is not finite")
	}
	for i, c := range m.Coefficients {
		if !finite(c) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

func (m *LinearRegression) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(m.Coefficients), len(x))
	}
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * x[i]
	}
	return y, nil
}

// Node is one split or leaf of a regression tree. Feature -1 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flattened regression tree rooted at node 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// RandomForest averages the predictions of its trees
type RandomForest struct {
	Trees []Tree `json:"trees"`
}

func (m *RandomForest) Kind() string { return ModelRandomForest }

// Validate also guarantees traversal terminates: children always sit after
// their parent.
func (m *RandomForest) Validate(dim int) error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("random forest has no trees")
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				if !finite(n.Value) {
					return fmt.Errorf("tree %d leaf %d value is not finite", t, i)
				}
				continue
			}
			if n.Feature >= dim {
				return fmt.Errorf("tree %d node %d splits on feature %d of %d", t, i, n.Feature, dim)
			}
			if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children %d/%d", t, i, n.Left, n.Right)
			}
		}
	}
	return nil
}

func (m *RandomForest) Predict(x []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, fmt.Errorf("random forest has no trees")
	}
	var sum float64
	for t, tree := range m.Trees {
		v, err := tree.predict(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", t, err)
		}
		sum += v
	}
	return sum / float64(len(m.Trees)), nil
}

func (t Tree) predict(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", i)
		}
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("feature %d out of range", n.Feature)
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("traversal did not reach a leaf")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
