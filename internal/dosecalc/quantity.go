package dosecalc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder is rendered instead of a zero or missing quantity.
const Placeholder = "-"

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Coerce turns raw form text into a finite number. Empty or unparsable input
// yields 0. A leading numeric prefix is accepted ("50u" -> 50).
func Coerce(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finiteOrZero(v)
	}

	prefix := leadingNumber.FindString(s)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round rounds half away from zero. Every displayed quantity goes through it.
func Round(v float64) float64 {
	return math.Round(v)
}

// Quantity is an optional number as held by a form field.
type Quantity struct {
	value float64
	set   bool
}

// Empty returns a quantity with no value.
func Empty() Quantity {
	return Quantity{}
}

// QuantityOf wraps a known value. Non-finite values become empty.
func QuantityOf(v float64) Quantity {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{}
	}
	return Quantity{value: v, set: true}
}

// ParseQuantity keeps blank text empty and coerces everything else.
func ParseQuantity(raw string) Quantity {
	if strings.TrimSpace(raw) == "" {
		return Quantity{}
	}
	return QuantityOf(Coerce(raw))
}

func (q Quantity) IsEmpty() bool { return !q.set }

// Float returns the value, or 0 when empty.
func (q Quantity) Float() float64 {
	if !q.set {
		return 0
	}
	return q.value
}

// Positive reports whether the quantity holds a value greater than zero.
func (q Quantity) Positive() bool {
	return q.set && q.value > 0
}

// String formats the value the way it is echoed back into a form field.
func (q Quantity) String() string {
	if !q.set {
		return ""
	}
	return strconv.FormatFloat(q.value, 'f', -1, 64)
}

// Display renders a computed quantity; zero shows as the placeholder.
func Display(v float64) string {
	if v == 0 {
		return Placeholder
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
