package encoding

import "fmt"

// LabelEncoder maps categories to integer codes using the vocabulary fixed
// at training time. The code of a value is its index in the stored class list.
type LabelEncoder struct {
	codes map[string]map[string]int
}

// NewLabelEncoder validates vocab and indexes it
func NewLabelEncoder(vocab map[string][]string) (*LabelEncoder, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("label encoding requires a vocabulary")
	}

	e := &LabelEncoder{codes: make(map[string]map[string]int, len(vocab))}
	for field, classes := range vocab {
		if len(classes) == 0 {
			return nil, fmt.Errorf("vocabulary for %s is empty", field)
		}
		codes := make(map[string]int, len(classes))
		for i, c := range classes {
			if _, dup := codes[c]; dup {
				return nil, fmt.Errorf("vocabulary for %s lists %q twice", field, c)
			}
			codes[c] = i
		}
		e.codes[field] = codes
	}
	return e, nil
}

func (e *LabelEncoder) Scheme() Scheme { return SchemeLabel }

// EncodeValue returns the code of value in field's vocabulary
func (e *LabelEncoder) EncodeValue(field, value string) (float64, error) {
	codes, ok := e.codes[field]
	if !ok {
		return 0, fmt.Errorf("no vocabulary for field %s", field)
	}
	code, ok := codes[value]
	if !ok {
		return 0, &UnknownCategoryError{Field: field, Value: value}
	}
	return float64(code), nil
}

// Encode replaces every categorical field that has a vocabulary with its
// code. Fields without a vocabulary are not features of the artifact and are
// left out.
func (e *LabelEncoder) Encode(numeric map[string]float64, categorical map[string]string) (map[string]float64, error) {
	out := copyNumeric(numeric, len(categorical))
	for field, value := range categorical {
		if _, ok := e.codes[field]; !ok {
			continue
		}
		code, err := e.EncodeValue(field, value)
		if err != nil {
			return nil, err
		}
		out[field] = code
	}
	return out, nil
}
