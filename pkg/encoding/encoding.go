// Package encoding converts validated requests into the numeric feature
// vectors a trained artifact expects.
package encoding

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme names a categorical encoding strategy. An artifact is trained with
// exactly one scheme and must be fed vectors produced by the same one.
type Scheme string

const (
	// SchemeLabel maps each category to its index in a fixed vocabulary
	SchemeLabel Scheme = "label"

	// SchemeOneHot expands each category into <field>_<value> indicator columns
	SchemeOneHot Scheme = "onehot"
)

// ParseScheme validates a scheme name
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeLabel:
		return SchemeLabel, nil
	case SchemeOneHot, "one_hot", "one-hot":
		return SchemeOneHot, nil
	default:
		return "", fmt.Errorf("unsupported encoding scheme %q (want %q or %q)", s, SchemeLabel, SchemeOneHot)
	}
}

// ErrUnknownCategory is matched by every UnknownCategoryError
var ErrUnknownCategory = errors.New("unknown category")

// UnknownCategoryError reports a value missing from a field's vocabulary
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for field %s", e.Value, e.Field)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// Encoder turns raw numeric and categorical inputs into named features
type Encoder interface {
	Scheme() Scheme
	Encode(numeric map[string]float64, categorical map[string]string) (map[string]float64, error)
}

// NewEncoder builds the encoder for scheme. vocab is required for label
// encoding and optional for one-hot, where it enables unknown-value checks.
func NewEncoder(scheme Scheme, vocab map[string][]string) (Encoder, error) {
	switch scheme {
	case SchemeLabel:
		return NewLabelEncoder(vocab)
	case SchemeOneHot:
		return NewOneHotEncoder(vocab)
	default:
		return nil, fmt.Errorf("unsupported encoding scheme %q", scheme)
	}
}

func copyNumeric(numeric map[string]float64, extra int) map[string]float64 {
	out := make(map[string]float64, len(numeric)+extra)
	for k, v := range numeric {
		out[k] = v
	}
	return out
}
