package dosecalc

import (
	"encoding/json"
	"fmt"
)

// GramsPerCarbUnit is the fixed size of one carb unit.
const GramsPerCarbUnit = 15

// CarbMode records which carb field was edited last and is therefore the
// source of truth.
type CarbMode int

const (
	CarbModeNone CarbMode = iota
	CarbModeGrams
	CarbModeUnits
)

func (m CarbMode) String() string {
	switch m {
	case CarbModeGrams:
		return "grams"
	case CarbModeUnits:
		return "units"
	default:
		return "none"
	}
}

func (m CarbMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *CarbMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "grams":
		*m = CarbModeGrams
	case "units":
		*m = CarbModeUnits
	case "none", "":
		*m = CarbModeNone
	default:
		return fmt.Errorf("unknown carb mode %q", s)
	}
	return nil
}

// CarbConverter keeps the grams and carb-unit fields consistent. Only the
// field named by Mode is user-owned; the other one is always derived.
type CarbConverter struct {
	Grams Quantity
	Units Quantity
	Mode  CarbMode
}

// EditGrams records a grams edit and re-derives units.
func (c *CarbConverter) EditGrams(q Quantity) {
	c.Grams = q
	c.Mode = CarbModeGrams
	c.recompute()
}

// EditUnits records a carb-unit edit (numeric field or slider) and
// re-derives grams.
func (c *CarbConverter) EditUnits(q Quantity) {
	c.Units = q
	c.Mode = CarbModeUnits
	c.recompute()
}

// Reset clears both fields and forgets the last edit.
func (c *CarbConverter) Reset() {
	*c = CarbConverter{}
}

func (c *CarbConverter) recompute() {
	switch c.Mode {
	case CarbModeGrams:
		if c.Grams.Positive() {
			c.Units = QuantityOf(Round(c.Grams.Float() / GramsPerCarbUnit))
		} else {
			c.Units = Empty()
		}
	case CarbModeUnits:
		if c.Units.Positive() {
			c.Grams = QuantityOf(Round(c.Units.Float() * GramsPerCarbUnit))
		} else {
			c.Grams = Empty()
		}
	}
}
