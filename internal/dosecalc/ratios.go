package dosecalc

const (
	// icrRule is the "500 rule": grams of carbohydrate covered by one unit.
	icrRule = 500
	// isfRule is the "1800 rule": mg/dL drop per unit of rapid insulin.
	isfRule = 1800

	basalLowShare  = 0.4
	basalHighShare = 0.5
)

// Ratios holds the insulin-to-carb ratio and the sensitivity factor.
// Both are zero when total daily dose is unknown.
type Ratios struct {
	ICR float64 `json:"icr"`
	ISF float64 `json:"isf"`
}

// DeriveRatios computes ICR and ISF from total daily dose.
func DeriveRatios(tdd float64) Ratios {
	if tdd <= 0 {
		return Ratios{}
	}
	return Ratios{
		ICR: Round(icrRule / tdd),
		ISF: Round(isfRule / tdd),
	}
}

// BasalBand is the recommended long-acting dose range.
type BasalBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// BasalRange returns 40-50% of TDD. ok is false when TDD is not positive
// and nothing should be shown.
func BasalRange(tdd float64) (band BasalBand, ok bool) {
	if tdd <= 0 {
		return BasalBand{}, false
	}
	return BasalBand{
		Low:  Round(tdd * basalLowShare),
		High: Round(tdd * basalHighShare),
	}, true
}
