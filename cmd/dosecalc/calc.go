package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
)

const maxCarbUnits = 10

type calcInput struct {
	TotalDailyDose     float64
	BloodGlucose       float64
	TargetBloodGlucose float64
	CarbGrams          float64
	CarbUnits          float64
	UnitsSet           bool
	GramsSet           bool
}

// carbGrams resolves the meal size. Grams win when both are given.
func (in calcInput) carbGrams() (float64, error) {
	if in.GramsSet {
		return in.CarbGrams, nil
	}
	if in.UnitsSet {
		if in.CarbUnits < 0 || in.CarbUnits > maxCarbUnits {
			return 0, fmt.Errorf("--units must be between 0 and %d", maxCarbUnits)
		}
		return dosecalc.Round(in.CarbUnits * dosecalc.GramsPerCarbUnit), nil
	}
	return 0, nil
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Prints the recommended mealtime dose.",
	Long:  "Prints ICR/ISF, bolus, correction and total dose, plus the basal insulin band.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := calcInput{
			TotalDailyDose:     viper.GetFloat64("tdd"),
			TargetBloodGlucose: viper.GetFloat64("target"),
			GramsSet:           cmd.Flags().Changed("grams"),
			UnitsSet:           cmd.Flags().Changed("units"),
		}
		in.BloodGlucose, _ = cmd.Flags().GetFloat64("bg")
		in.CarbGrams, _ = cmd.Flags().GetFloat64("grams")
		in.CarbUnits, _ = cmd.Flags().GetFloat64("units")

		return writeCalc(cmd.OutOrStdout(), in, labels())
	},
}

func writeCalc(out io.Writer, in calcInput, l i18n.Labels) error {
	grams, err := in.carbGrams()
	if err != nil {
		return err
	}

	ratios := dosecalc.DeriveRatios(in.TotalDailyDose)
	rec := dosecalc.Calculate(ratios, grams, in.BloodGlucose, in.TargetBloodGlucose)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", l.Label("icr"), dosecalc.Display(ratios.ICR))
	fmt.Fprintf(w, "%s\t%s\n", l.Label("isf"), dosecalc.Display(ratios.ISF))
	fmt.Fprintf(w, "%s\t%s %s\n", l.Label("carbGram"), dosecalc.Display(grams), l.Label("gramUnit"))
	fmt.Fprintf(w, "%s\t%s %s\n", l.Label("bolus"), dosecalc.Display(rec.Bolus), l.Label("units"))
	fmt.Fprintf(w, "%s\t%s %s\n", l.Label("correction"), dosecalc.Display(rec.Correction), l.Label("units"))
	fmt.Fprintf(w, "%s\t%s %s\n", l.Label("totalDose"), dosecalc.Display(rec.Total), l.Label("units"))
	if band, ok := dosecalc.BasalRange(in.TotalDailyDose); ok {
		fmt.Fprintf(w, "%s\t%s - %s %s\n", l.Label("basalRec"),
			dosecalc.Display(band.Low), dosecalc.Display(band.High), l.Label("unitsRange"))
	}
	return w.Flush()
}

func init() {
	calcCmd.Flags().Float64("bg", 0, "Blood glucose before meal, mg/dL")
	calcCmd.Flags().Float64("target", 130, "Target blood glucose, mg/dL")
	calcCmd.Flags().Float64("grams", 0, "Carbohydrate in grams")
	calcCmd.Flags().Float64("units", 0, "Carbohydrate in carb units (1 unit = 15 g)")

	_ = viper.BindPFlag("target", calcCmd.Flags().Lookup("target"))

	rootCmd.AddCommand(calcCmd)
}
