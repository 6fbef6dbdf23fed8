package artifact

import "errors"

var (
	// ErrArtifactNotFound means no artifact exists at the configured location.
	// Callers fall back to the heuristic estimator.
	ErrArtifactNotFound = errors.New("model artifact not found")

	// ErrMalformedArtifact means an artifact exists but cannot be used
	ErrMalformedArtifact = errors.New("malformed model artifact")
)
