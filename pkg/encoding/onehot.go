package encoding

// OneHotEncoder expands categories into indicator columns named
// <field>_<value>. The reference level of each field is simply the column the
// artifact does not list, so alignment zero-fills it away.
type OneHotEncoder struct {
	levels map[string]map[string]struct{}
}

// NewOneHotEncoder creates an encoder. When levels is non-empty, values
// outside a field's levels are rejected instead of silently encoding as the
// reference level.
func NewOneHotEncoder(levels map[string][]string) (*OneHotEncoder, error) {
	e := &OneHotEncoder{levels: make(map[string]map[string]struct{}, len(levels))}
	for field, values := range levels {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		e.levels[field] = set
	}
	return e, nil
}

func (e *OneHotEncoder) Scheme() Scheme { return SchemeOneHot }

func (e *OneHotEncoder) Encode(numeric map[string]float64, categorical map[string]string) (map[string]float64, error) {
	out := copyNumeric(numeric, len(categorical))
	for field, value := range categorical {
		if set, ok := e.levels[field]; ok {
			if _, known := set[value]; !known {
				return nil, &UnknownCategoryError{Field: field, Value: value}
			}
		}
		out[ColumnName(field, value)] = 1
	}
	return out, nil
}

// ColumnName is the indicator column for value of field
func ColumnName(field, value string) string {
	return field + "_" + value
}
