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

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Prints the bolus dose for 0 to 5 carb units.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTable(cmd.OutOrStdout(), viper.GetFloat64("tdd"), labels())
	},
}

func writeTable(out io.Writer, tdd float64, l i18n.Labels) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\t%s\t%s\t\n", l.Label("carbUnits"), l.Label("grams"), l.Label("doseUnits"))

	for row := range dosecalc.Table(dosecalc.DeriveRatios(tdd)) {
		dose := dosecalc.Placeholder
		if row.HasDose {
			dose = fmt.Sprintf("%g", row.Dose)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t\n", row.CarbUnits, row.Grams, dose)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
