package dosecalc

import "iter"

// TableCarbUnits is the number of rows shown in the preview table (0..5).
const TableCarbUnits = 6

// DoseRecommendation is the mealtime dose split into its parts, in units.
type DoseRecommendation struct {
	Bolus      float64 `json:"bolus"`
	Correction float64 `json:"correction"`
	Total      float64 `json:"total"`
}

// Calculate computes bolus, correction and total dose. Correction may be
// negative when glucose is below target. A zero glucose reading or target
// means "not entered yet" and yields no correction.
func Calculate(r Ratios, carbGrams, bloodGlucose, targetBloodGlucose float64) DoseRecommendation {
	var bolus, correction float64
	if r.ICR > 0 {
		bolus = Round(carbGrams / r.ICR)
	}
	if r.ISF > 0 && bloodGlucose != 0 && targetBloodGlucose != 0 {
		correction = Round((bloodGlucose - targetBloodGlucose) / r.ISF)
	}
	return DoseRecommendation{
		Bolus:      bolus,
		Correction: correction,
		Total:      Round(bolus + correction),
	}
}

// TableRow is one line of the carb-to-dose preview.
type TableRow struct {
	CarbUnits int     `json:"carb_units"`
	Grams     int     `json:"grams"`
	Dose      float64 `json:"dose"`
	HasDose   bool    `json:"has_dose"`
}

// Table yields the preview rows for 0..5 carb units. The sequence is
// recomputed on every iteration.
func Table(r Ratios) iter.Seq[TableRow] {
	return func(yield func(TableRow) bool) {
		for units := 0; units < TableCarbUnits; units++ {
			grams := units * GramsPerCarbUnit
			row := TableRow{CarbUnits: units, Grams: grams}
			if r.ICR > 0 {
				row.Dose = Round(float64(grams) / r.ICR)
				row.HasDose = true
			}
			if !yield(row) {
				return
			}
		}
	}
}
