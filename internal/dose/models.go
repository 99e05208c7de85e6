package dose

import (
	"fmt"

	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
)

// Field names an editable input.
type Field string

const (
	FieldBloodGlucose       Field = "blood_glucose"
	FieldTotalDailyDose     Field = "total_daily_dose"
	FieldBasalDose          Field = "basal_dose"
	FieldTargetBloodGlucose Field = "target_blood_glucose"
	FieldCarbGrams          Field = "carb_grams"
	FieldCarbUnits          Field = "carb_units"
)

// Slider bounds for carb units.
const (
	minCarbUnits = 0
	maxCarbUnits = 10
)

// Edit is one user change to one field. Value is raw form text.
type Edit struct {
	Field Field
	Value string
}

func (e Edit) Validate() error {
	switch e.Field {
	case FieldBloodGlucose, FieldTotalDailyDose, FieldBasalDose, FieldTargetBloodGlucose, FieldCarbGrams:
		return nil
	case FieldCarbUnits:
		units := dosecalc.Coerce(e.Value)
		if units < minCarbUnits || units > maxCarbUnits {
			return fmt.Errorf("carb_units must be in range %d..%d", minCarbUnits, maxCarbUnits)
		}
		return nil
	default:
		return fmt.Errorf("unknown field %q", e.Field)
	}
}

// persisted reports whether the field belongs to PersistedState.
func (f Field) persisted() bool {
	return f == FieldTotalDailyDose || f == FieldBasalDose || f == FieldTargetBloodGlucose
}

// Inputs is the full form state.
type Inputs struct {
	BloodGlucose       dosecalc.Quantity
	TotalDailyDose     dosecalc.Quantity
	BasalDose          dosecalc.Quantity
	TargetBloodGlucose dosecalc.Quantity
	Carbs              dosecalc.CarbConverter
}

func (in Inputs) persistedState() PersistedState {
	return PersistedState{
		TotalDailyDose:     in.TotalDailyDose,
		BasalDose:          in.BasalDose,
		TargetBloodGlucose: in.TargetBloodGlucose,
	}
}

// State is a point-in-time copy of a Session.
type State struct {
	Inputs     Inputs
	ShowRatios bool
	Language   i18n.Language

	// LanguageStored is false until the user picks a language.
	LanguageStored bool
}

// InputsDTO echoes the form fields back as text; "" means empty.
type InputsDTO struct {
	BloodGlucose       string            `json:"blood_glucose"`
	TotalDailyDose     string            `json:"total_daily_dose"`
	BasalDose          string            `json:"basal_dose"`
	TargetBloodGlucose string            `json:"target_blood_glucose"`
	CarbGrams          string            `json:"carb_grams"`
	CarbUnits          string            `json:"carb_units"`
	CarbMode           dosecalc.CarbMode `json:"carb_mode"`
}

// DisplayDTO holds values as rendered, with "-" for zero or missing.
type DisplayDTO struct {
	Bolus      string   `json:"bolus"`
	Correction string   `json:"correction"`
	Total      string   `json:"total"`
	ICR        string   `json:"icr,omitempty"`
	ISF        string   `json:"isf,omitempty"`
	TableDoses []string `json:"table_doses"`
}

// View is everything a client needs to render the calculator.
type View struct {
	Language            i18n.Language               `json:"language"`
	Inputs              InputsDTO                   `json:"inputs"`
	ShowRatios          bool                        `json:"show_ratios"`
	Ratios              *dosecalc.Ratios            `json:"ratios,omitempty"`
	Recommendation      dosecalc.DoseRecommendation `json:"recommendation"`
	BasalRecommendation *dosecalc.BasalBand         `json:"basal_recommendation,omitempty"`
	Table               []dosecalc.TableRow         `json:"table"`
	Display             DisplayDTO                  `json:"display"`
	Labels              i18n.Labels                 `json:"labels"`
}

type SetLanguageRequest struct {
	Language string `json:"language"`
}

// CalculateResponse is the stateless calculation result.
type CalculateResponse struct {
	Ratios              dosecalc.Ratios             `json:"ratios"`
	CarbGrams           float64                     `json:"carb_grams"`
	Recommendation      dosecalc.DoseRecommendation `json:"recommendation"`
	BasalRecommendation *dosecalc.BasalBand         `json:"basal_recommendation,omitempty"`
	Table               []dosecalc.TableRow         `json:"table"`
}
