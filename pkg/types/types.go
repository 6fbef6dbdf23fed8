package types

import "time"

// Sex of the individual
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Region is one of the administrative districts covered by the training data
type Region string

const (
	RegionQuthing     Region = "Quthing"
	RegionThabaTseka  Region = "Thaba-Tseka"
	RegionButhaButhe  Region = "Butha-Buthe"
	RegionMafeteng    Region = "Mafeteng"
	RegionMohalesHoek Region = "Mohale's Hoek"
	RegionQachasNek   Region = "Qacha's Nek"
	RegionLeribe      Region = "Leribe"
	RegionMaseru      Region = "Maseru"
)

// Regions lists every supported region in the order the API documents them
var Regions = []Region{
	RegionQuthing,
	RegionThabaTseka,
	RegionButhaButhe,
	RegionMafeteng,
	RegionMohalesHoek,
	RegionQachasNek,
	RegionLeribe,
	RegionMaseru,
}

// Employment status
type Employment string

const (
	EmploymentEmployed     Employment = "employed"
	EmploymentUnemployed   Employment = "unemployed"
	EmploymentSelfEmployed Employment = "self-employed"
)

// Access describes how difficult it is to reach primary healthcare
type Access string

const (
	AccessEasy      Access = "easy"
	AccessModerate  Access = "moderate"
	AccessDifficult Access = "difficult"
)

// HealthcareType is the healthcare system the individual uses
type HealthcareType string

const (
	HealthcarePublic  HealthcareType = "public"
	HealthcarePrivate HealthcareType = "private"
)

// Input field names as they appear on the wire and in artifact feature lists
const (
	FieldAge            = "age"
	FieldSex            = "sex"
	FieldRegion         = "region"
	FieldIsInsured      = "is_insured"
	FieldEmployment     = "employment"
	FieldHouseholdSize  = "household_size"
	FieldAccess         = "primary_healthcare_access"
	FieldAnnualIncome   = "annual_income"
	FieldHealthcareType = "healthcare_type"
)

// InputFields is the ordered list of request fields
var InputFields = []string{
	FieldAge,
	FieldSex,
	FieldRegion,
	FieldIsInsured,
	FieldEmployment,
	FieldHouseholdSize,
	FieldAccess,
	FieldAnnualIncome,
	FieldHealthcareType,
}

// CategoricalFields are the request fields that must be encoded before regression
var CategoricalFields = []string{
	FieldSex,
	FieldRegion,
	FieldEmployment,
	FieldAccess,
	FieldHealthcareType,
}

// PredictionRequest is a validated prediction input. Only the validation
// package should construct one from untrusted data.
type PredictionRequest struct {
	Age            int            `json:"age"`
	Sex            Sex            `json:"sex"`
	Region         Region         `json:"region"`
	IsInsured      int            `json:"is_insured"`
	Employment     Employment     `json:"employment"`
	HouseholdSize  int            `json:"household_size"`
	Access         Access         `json:"primary_healthcare_access"`
	AnnualIncome   float64        `json:"annual_income"`
	HealthcareType HealthcareType `json:"healthcare_type"`
}

// Insured reports whether the individual has insurance coverage
func (r PredictionRequest) Insured() bool {
	return r.IsInsured == 1
}

// Numeric returns the numeric fields keyed by feature name
func (r PredictionRequest) Numeric() map[string]float64 {
	return map[string]float64{
		FieldAge:           float64(r.Age),
		FieldIsInsured:     float64(r.IsInsured),
		FieldHouseholdSize: float64(r.HouseholdSize),
		FieldAnnualIncome:  r.AnnualIncome,
	}
}

// Categorical returns the categorical fields keyed by feature name
func (r PredictionRequest) Categorical() map[string]string {
	return map[string]string{
		FieldSex:            string(r.Sex),
		FieldRegion:         string(r.Region),
		FieldEmployment:     string(r.Employment),
		FieldAccess:         string(r.Access),
		FieldHealthcareType: string(r.HealthcareType),
	}
}

// PredictionResult is the outcome of a single prediction
type PredictionResult struct {
	ID             string           `json:"prediction_id"`
	Cost           float64          `json:"predicted_healthcare_cost"`
	Method         EstimationMethod `json:"-"`
	ModelUsed      string           `json:"model_used"`
	ConfidenceInfo string           `json:"confidence_info"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Currency of every cost this service produces
const Currency = "Lesotho Loti (M)"
