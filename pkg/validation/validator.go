// Package validation turns untrusted request bodies into validated prediction requests
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lesotho-health/cost-api/pkg/types"
)

// ErrUnreadableBody wraps errors returned by the body reader
var ErrUnreadableBody = errors.New("failed to read request body")

// RawRequest mirrors the JSON body of a prediction call. Pointer fields let
// the validator tell a missing field apart from a zero value.
type RawRequest struct {
	Age            *int     `json:"age" validate:"required,gte=18,lte=100"`
	Sex            *string  `json:"sex" validate:"required,oneof=male female"`
	Region         *string  `json:"region" validate:"required,lesotho_region"`
	IsInsured      *int     `json:"is_insured" validate:"required,oneof=0 1"`
	Employment     *string  `json:"employment" validate:"required,oneof=employed unemployed self-employed"`
	HouseholdSize  *int     `json:"household_size" validate:"required,gte=1,lte=15"`
	Access         *string  `json:"primary_healthcare_access" validate:"required,oneof=easy moderate difficult"`
	AnnualIncome   *float64 `json:"annual_income" validate:"required,gte=5000,lte=200000"`
	HealthcareType *string  `json:"healthcare_type" validate:"required,oneof=public private"`
}

// FieldError describes one violated constraint
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid input data: " + strings.Join(msgs, "; ")
}

// FieldNames returns the names of the offending fields in report order
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Validator checks prediction requests. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the domain rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names, not Go field names
	v.RegisterTagNameFunc(jsonName)

	// Region names contain spaces and apostrophes, which oneof cannot express
	_ = v.RegisterValidation("lesotho_region", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, r := range types.Regions {
			if string(r) == value {
				return true
			}
		}
		return false
	})

	return &Validator{validate: v}
}

// Decode reads a JSON body and validates it. Fields are decoded one by one
// so that every wrong-typed field is reported, not just the first. Errors
// from r itself are returned wrapped, not as a *ValidationError.
func (v *Validator) Decode(r io.Reader) (types.PredictionRequest, error) {
	dec := json.NewDecoder(r)

	var body map[string]json.RawMessage
	if err := dec.Decode(&body); err != nil {
		var unmarshalErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return types.PredictionRequest{}, bodyError("required", "request body is empty")
		case errors.As(err, &unmarshalErr):
			return types.PredictionRequest{}, bodyError("type",
				fmt.Sprintf("request body must be a JSON object, got %s", unmarshalErr.Value))
		case isSyntaxError(err):
			return types.PredictionRequest{}, bodyError("json", fmt.Sprintf("malformed JSON body: %v", err))
		default:
			return types.PredictionRequest{}, fmt.Errorf("%w: %w", ErrUnreadableBody, err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil && !isSyntaxError(err) {
			return types.PredictionRequest{}, fmt.Errorf("%w: %w", ErrUnreadableBody, err)
		}
		return types.PredictionRequest{}, bodyError("json", "malformed JSON body: unexpected data after the request object")
	}

	raw, typeErrs := decodeFields(body)

	req, err := v.Validate(raw)
	if len(typeErrs) == 0 {
		return req, err
	}

	fields := make([]FieldError, 0, len(typeErrs))
	mistyped := make(map[string]bool, len(typeErrs))
	for _, f := range typeErrs {
		fields = append(fields, f)
		mistyped[f.Field] = true
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			if mistyped[f.Field] {
				continue
			}
			fields = append(fields, f)
		}
	}
	sortFields(fields)
	return types.PredictionRequest{}, &ValidationError{Fields: fields}
}

// decodeFields fills a RawRequest from the body members it knows. A member
// that does not fit its field's type is left unset and reported.
func decodeFields(body map[string]json.RawMessage) (RawRequest, []FieldError) {
	var raw RawRequest
	var errs []FieldError

	rv := reflect.ValueOf(&raw).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := jsonName(rt.Field(i))
		data, ok := body[name]
		if !ok {
			continue
		}

		field := rv.Field(i)
		if err := json.Unmarshal(data, field.Addr().Interface()); err != nil {
			field.Set(reflect.Zero(field.Type()))
			errs = append(errs, typeError(name, rt.Field(i).Type.Elem(), err))
		}
	}
	return raw, errs
}

func typeError(name string, want reflect.Type, err error) FieldError {
	msg := fmt.Sprintf("%s must be of type %s", name, want)
	var unmarshalErr *json.UnmarshalTypeError
	if errors.As(err, &unmarshalErr) {
		msg = fmt.Sprintf("%s, got %s", msg, unmarshalErr.Value)
	}
	return FieldError{Field: name, Rule: "type", Message: msg}
}

func isSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func bodyError(rule, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: "body", Rule: rule, Message: msg}}}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks every field of raw and returns the typed request
func (v *Validator) Validate(raw RawRequest) (types.PredictionRequest, error) {
	if err := v.validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return types.PredictionRequest{}, fmt.Errorf("validator failure: %w", err)
		}

		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: message(fe),
			})
		}
		sortFields(fields)
		return types.PredictionRequest{}, &ValidationError{Fields: fields}
	}

	return types.PredictionRequest{
		Age:            *raw.Age,
		Sex:            types.Sex(*raw.Sex),
		Region:         types.Region(*raw.Region),
		IsInsured:      *raw.IsInsured,
		Employment:     types.Employment(*raw.Employment),
		HouseholdSize:  *raw.HouseholdSize,
		Access:         types.Access(*raw.Access),
		AnnualIncome:   *raw.AnnualIncome,
		HealthcareType: types.HealthcareType(*raw.HealthcareType),
	}, nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field required: %s", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "lesotho_region":
		names := make([]string, 0, len(types.Regions))
		for _, r := range types.Regions {
			names = append(names, string(r))
		}
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), strings.Join(names, ", "), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// sortFields orders errors by request field position so reports are stable
func sortFields(fields []FieldError) {
	position := make(map[string]int, len(types.InputFields))
	for i, name := range types.InputFields {
		position[name] = i
	}
	sort.SliceStable(fields, func(i, j int) bool {
		pi, ok := position[fields[i].Field]
		if !ok {
			pi = len(position)
		}
		pj, ok := position[fields[j].Field]
		if !ok {
			pj = len(position)
		}
		return pi < pj
	})
}
