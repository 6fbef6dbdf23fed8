package encoding

import "sort"

// Alignment is a feature vector re-indexed to an artifact's column order
type Alignment struct {
	Vector  []float64
	Missing []string // expected by the artifact, absent from the input (zero-filled)
	Dropped []string // present in the input, unknown to the artifact
}

// Align re-indexes features to exactly match order
func Align(features map[string]float64, order []string) []float64 {
	return AlignWithReport(features, order).Vector
}

// AlignWithReport is Align plus the list of padded and discarded columns
func AlignWithReport(features map[string]float64, order []string) Alignment {
	a := Alignment{Vector: make([]float64, len(order))}

	expected := make(map[string]struct{}, len(order))
	for i, name := range order {
		expected[name] = struct{}{}
		v, ok := features[name]
		if !ok {
			a.Missing = append(a.Missing, name)
			continue
		}
		a.Vector[i] = v
	}

	for name := range features {
		if _, ok := expected[name]; !ok {
			a.Dropped = append(a.Dropped, name)
		}
	}
	sort.Strings(a.Dropped)
	return a
}
