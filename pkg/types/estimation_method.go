package types

// EstimationMethod identifies which path produced a prediction
type EstimationMethod string

const (
	// MethodModel uses the trained regression artifact
	MethodModel EstimationMethod = "model"

	// MethodHeuristic uses the closed-form fallback formula
	MethodHeuristic EstimationMethod = "heuristic"
)

// ModelStatus reports the method in the vocabulary of the health endpoint
func (m EstimationMethod) ModelStatus() string {
	switch m {
	case MethodModel:
		return "loaded"
	default:
		return "demo_mode"
	}
}

