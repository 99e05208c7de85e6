package dose

import (
	"slices"
	"strconv"

	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
)

// RenderView builds the view, letting acceptLanguage choose the language
// when none is stored.
func RenderView(st State, acceptLanguage string) View {
	if !st.LanguageStored {
		st.Language = i18n.Match(acceptLanguage)
	}
	return BuildView(st)
}

// BuildView derives ratios, dose, basal band and table from a state.
func BuildView(st State) View {
	in := st.Inputs
	tdd := in.TotalDailyDose.Float()
	ratios := dosecalc.DeriveRatios(tdd)
	rec := dosecalc.Calculate(ratios, in.Carbs.Grams.Float(), in.BloodGlucose.Float(), in.TargetBloodGlucose.Float())
	table := slices.Collect(dosecalc.Table(ratios))

	v := View{
		Language: st.Language,
		Inputs: InputsDTO{
			BloodGlucose:       in.BloodGlucose.String(),
			TotalDailyDose:     in.TotalDailyDose.String(),
			BasalDose:          in.BasalDose.String(),
			TargetBloodGlucose: in.TargetBloodGlucose.String(),
			CarbGrams:          in.Carbs.Grams.String(),
			CarbUnits:          in.Carbs.Units.String(),
			CarbMode:           in.Carbs.Mode,
		},
		ShowRatios:     st.ShowRatios,
		Recommendation: rec,
		Table:          table,
		Display: DisplayDTO{
			Bolus:      dosecalc.Display(rec.Bolus),
			Correction: dosecalc.Display(rec.Correction),
			Total:      dosecalc.Display(rec.Total),
			TableDoses: tableDoses(table),
		},
		Labels: i18n.For(st.Language),
	}

	if st.ShowRatios {
		v.Ratios = &ratios
		v.Display.ICR = dosecalc.Display(ratios.ICR)
		v.Display.ISF = dosecalc.Display(ratios.ISF)
	}
	if band, ok := dosecalc.BasalRange(tdd); ok {
		v.BasalRecommendation = &band
	}
	return v
}

func tableDoses(rows []dosecalc.TableRow) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if !row.HasDose {
			out = append(out, dosecalc.Placeholder)
			continue
		}
		out = append(out, strconv.FormatFloat(row.Dose, 'f', -1, 64))
	}
	return out
}
