package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fdg312/insulin-calc/internal/i18n"
)

func TestWriteCalcExample(t *testing.T) {
	var buf bytes.Buffer
	in := calcInput{
		TotalDailyDose:     50,
		BloodGlucose:       250,
		TargetBloodGlucose: 130,
		CarbGrams:          45,
		GramsSet:           true,
	}
	if err := writeCalc(&buf, in, i18n.For(i18n.English)); err != nil {
		t.Fatalf("writeCalc failed: %v", err)
	}

	out := buf.String()
	tests := []struct {
		label string
		want  string
	}{
		{"Insulin-to-Carb Ratio (ICR)", "10"},
		{"Insulin Sensitivity Factor (ISF)", "36"},
		{"Bolus dose (for carbs)", "5 units"},
		{"Corrected BGL dose", "3 units"},
		{"Total mealtime dose:", "8 units"},
		{"Basal insulin dose recommended:", "20 - 25 units"},
	}
	for _, tt := range tests {
		if got := valueFor(out, tt.label); got != tt.want {
			t.Errorf("%s = %q, want %q\n%s", tt.label, got, tt.want, out)
		}
	}
}

func valueFor(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, label); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func TestWriteCalcUnitsConvertToGrams(t *testing.T) {
	var buf bytes.Buffer
	in := calcInput{TotalDailyDose: 50, CarbUnits: 3, UnitsSet: true}
	if err := writeCalc(&buf, in, i18n.For(i18n.English)); err != nil {
		t.Fatalf("writeCalc failed: %v", err)
	}
	if !strings.Contains(buf.String(), "45 g") {
		t.Fatalf("expected 45 g in output:\n%s", buf.String())
	}
}

func TestWriteCalcRejectsUnitsOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	in := calcInput{TotalDailyDose: 50, CarbUnits: 11, UnitsSet: true}
	if err := writeCalc(&buf, in, i18n.For(i18n.English)); err == nil {
		t.Fatal("expected error for 11 carb units")
	}
}

func TestWriteCalcWithoutTDD(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCalc(&buf, calcInput{}, i18n.For(i18n.English)); err != nil {
		t.Fatalf("writeCalc failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Basal insulin dose recommended") {
		t.Fatalf("basal band must be hidden without TDD:\n%s", out)
	}
	if !strings.Contains(out, "- units") {
		t.Fatalf("expected placeholder doses:\n%s", out)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, 50, i18n.For(i18n.English)); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected header + 6 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	wantDoses := []string{"0", "2", "3", "5", "6", "8"}
	for i, want := range wantDoses {
		fields := strings.Fields(lines[i+1])
		if got := fields[len(fields)-1]; got != want {
			t.Errorf("row %d dose = %q, want %q", i, got, want)
		}
	}
}

func TestWriteTableWithoutTDD(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, 0, i18n.For(i18n.English)); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if fields[len(fields)-1] != "-" {
			t.Fatalf("expected placeholder dose, got %q", line)
		}
	}
}
