package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// THRESHOLD CLASSIFIER - Pure function of the aggregated total
// =============================================================================

// Classification is the result of applying the $50,000 threshold rule to an
// aggregated lookback total.
type Classification struct {
	ExceedsThreshold bool
	Schedule         DepositSchedule
}

// Classify applies the statutory threshold to a lookback total.
//
// RULE: strictly greater than $50,000.00 means semi-weekly. Exactly
// $50,000.00 is NOT exceeding and stays monthly. A total of zero (new
// employer, no filings in the window) is monthly.
//
// A negative total is not valid input: the aggregator never produces
// negative sums from well-formed filings, so encountering one is a
// data-integrity failure and is surfaced, never clamped.
func Classify(total decimal.Decimal) (Classification, error) {
	if total.IsNegative() {
		return Classification{}, ErrNegativeLiability
	}

	if total.GreaterThan(DepositThreshold) {
		return Classification{ExceedsThreshold: true, Schedule: ScheduleSemiWeekly}, nil
	}
	return Classification{ExceedsThreshold: false, Schedule: ScheduleMonthly}, nil
}
