package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/insulin-calc/internal/dose"
	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
	"github.com/jung-kurt/gofpdf"
)

// Generator renders a dose view as CSV or PDF.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(format string, v dose.View) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(v)
	case FormatCSV:
		return g.generateCSV(v)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// generateCSV writes the table followed by the recommendation, with labels
// in the view's language. Every record has three columns.
func (g *Generator) generateCSV(v dose.View) ([]byte, error) {
	labels := v.Labels
	if labels == nil {
		labels = i18n.For(v.Language)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{labels.Label("grams"), labels.Label("carbUnits"), labels.Label("doseUnits")},
	}
	for i, row := range v.Table {
		records = append(records, []string{
			strconv.Itoa(row.Grams),
			strconv.Itoa(row.CarbUnits),
			tableDose(v, i),
		})
	}
	records = append(records,
		[]string{labels.Label("bolus"), dosecalc.Display(v.Recommendation.Bolus), labels.Label("units")},
		[]string{labels.Label("correction"), dosecalc.Display(v.Recommendation.Correction), labels.Label("units")},
		[]string{labels.Label("totalDose"), dosecalc.Display(v.Recommendation.Total), labels.Label("units")},
	)
	if b := v.BasalRecommendation; b != nil {
		records = append(records, []string{labels.Label("basalRec"), formatBand(*b), labels.Label("unitsRange")})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// generatePDF uses a core font, which has no Thai glyphs, so the PDF is
// always labelled in English.
func (g *Generator) generatePDF(v dose.View) ([]byte, error) {
	labels := i18n.For(i18n.English)

	pdf := gofpdf.New("P", "mm", "A4", "")
	fontName := "Arial"
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, labels.Label("title"))
	pdf.Ln(12)

	pdf.SetFont(fontName, "", 11)
	inputs := [][2]string{
		{labels.Label("tdd"), orPlaceholder(v.Inputs.TotalDailyDose)},
		{labels.Label("basal"), orPlaceholder(v.Inputs.BasalDose)},
		{labels.Label("targetBg"), orPlaceholder(v.Inputs.TargetBloodGlucose)},
		{labels.Label("bgLabel"), orPlaceholder(v.Inputs.BloodGlucose)},
		{labels.Label("carbGram"), orPlaceholder(v.Inputs.CarbGrams)},
	}
	for _, in := range inputs {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", in[0], in[1]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 13)
	pdf.Cell(0, 8, labels.Label("doseRec"))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 11)
	units := labels.Label("units")
	pdf.Cell(0, 6, fmt.Sprintf("%s: %s %s", labels.Label("bolus"), dosecalc.Display(v.Recommendation.Bolus), units))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s: %s %s", labels.Label("correction"), dosecalc.Display(v.Recommendation.Correction), units))
	pdf.Ln(6)
	pdf.SetFont(fontName, "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("%s %s %s", labels.Label("totalDose"), dosecalc.Display(v.Recommendation.Total), units))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 11)
	if b := v.BasalRecommendation; b != nil {
		pdf.Cell(0, 6, fmt.Sprintf("%s %s %s", labels.Label("basalRec"), formatBand(*b), labels.Label("unitsRange")))
		pdf.Ln(6)
	}
	if v.Ratios != nil {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", labels.Label("icr"), dosecalc.Display(v.Ratios.ICR)))
		pdf.Ln(6)
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", labels.Label("isf"), dosecalc.Display(v.Ratios.ISF)))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont(fontName, "B", 13)
	pdf.Cell(0, 8, labels.Label("tableTitle"))
	pdf.Ln(10)

	g.drawTable(pdf, v, labels, fontName)

	pdf.Ln(8)
	pdf.SetFont(fontName, "I", 9)
	pdf.MultiCell(0, 5, labels.Label("footer"), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawTable(pdf *gofpdf.Fpdf, v dose.View, labels i18n.Labels, fontName string) {
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(40, 7, labels.Label("grams"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 7, labels.Label("carbUnits"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 7, labels.Label("doseUnits"), "1", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 10)
	for i, row := range v.Table {
		pdf.CellFormat(40, 7, strconv.Itoa(row.Grams), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, strconv.Itoa(row.CarbUnits), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, tableDose(v, i), "1", 1, "C", false, 0, "")
	}
}

func tableDose(v dose.View, i int) string {
	if i < len(v.Display.TableDoses) {
		return v.Display.TableDoses[i]
	}
	row := v.Table[i]
	if !row.HasDose {
		return dosecalc.Placeholder
	}
	return strconv.FormatFloat(row.Dose, 'f', -1, 64)
}

func formatBand(b dosecalc.BasalBand) string {
	return strconv.FormatFloat(b.Low, 'f', -1, 64) + " - " + strconv.FormatFloat(b.High, 'f', -1, 64)
}

func orPlaceholder(s string) string {
	if s == "" {
		return dosecalc.Placeholder
	}
	return s
}
