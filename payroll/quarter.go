package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// QUARTER - Calendar quarter identity and arithmetic
// =============================================================================

// Quarter identifies one calendar quarter of one year (Q 1-4).
type Quarter struct {
	Year int
	Q    int
}

// NewQuarter validates and constructs a Quarter.
func NewQuarter(year, q int) (Quarter, error) {
	if q < 1 || q > 4 {
		return Quarter{}, fmt.Errorf("%w: Q%d", ErrInvalidQuarter, q)
	}
	if year < MinLookbackYear || year > MaxLookbackYear {
		return Quarter{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return Quarter{Year: year, Q: q}, nil
}

// Start returns the first day of the quarter (UTC, midnight).
func (q Quarter) Start() time.Time {
	month := time.Month((q.Q-1)*3 + 1)
	return time.Date(q.Year, month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the quarter (UTC, midnight).
func (q Quarter) End() time.Time {
	return q.Start().AddDate(0, 3, -1)
}

// Prev returns the immediately preceding quarter.
func (q Quarter) Prev() Quarter {
	if q.Q == 1 {
		return Quarter{Year: q.Year - 1, Q: 4}
	}
	return Quarter{Year: q.Year, Q: q.Q - 1}
}

// Next returns the immediately following quarter.
func (q Quarter) Next() Quarter {
	if q.Q == 4 {
		return Quarter{Year: q.Year + 1, Q: 1}
	}
	return Quarter{Year: q.Year, Q: q.Q + 1}
}

func (q Quarter) String() string {
	return fmt.Sprintf("%d-Q%d", q.Year, q.Q)
}

// =============================================================================
// LOOKBACK WINDOW - The four quarters that determine the schedule
// =============================================================================

// Year bounds accepted for a lookback computation. Form 941 predates 1950
// and nothing meaningful lives past 2100; anything outside is caller error.
const (
	MinLookbackYear = 1950
	MaxLookbackYear = 2100
)

// ValidLookbackYear reports whether year is acceptable input for a
// computation.
func ValidLookbackYear(year int) bool {
	return year >= MinLookbackYear && year <= MaxLookbackYear
}

// LookbackWindow returns the four quarters composing the lookback window
// for the given year, in chronological order:
//
//	Q3(year-2), Q4(year-2), Q1(year-1), Q2(year-1)
//
// i.e. the twelve months from July 1 of year-2 through June 30 of year-1.
func LookbackWindow(year int) [4]Quarter {
	return [4]Quarter{
		{Year: year - 2, Q: 3},
		{Year: year - 2, Q: 4},
		{Year: year - 1, Q: 1},
		{Year: year - 1, Q: 2},
	}
}

// WindowBounds returns the inclusive date bounds of the lookback window:
// July 1 of year-2 through June 30 of year-1.
func WindowBounds(year int) (start, end time.Time) {
	quarters := LookbackWindow(year)
	return quarters[0].Start(), quarters[3].End()
}
