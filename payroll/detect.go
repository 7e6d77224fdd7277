package payroll

import "time"

// =============================================================================
// SCHEDULE CHANGE DETECTOR - Year-over-year transitions
// =============================================================================

// ScheduleChange describes whether the newly computed schedule differs from
// the one stored for the preceding lookback year.
type ScheduleChange struct {
	Changed bool

	// EffectiveDate is January 1 of lookbackYear+1 when Changed is true;
	// the new schedule governs deposits starting with the calendar year
	// following the computation. Nil when Changed is false.
	EffectiveDate *time.Time
}

// DetectChange compares the schedule computed for lookbackYear against the
// record stored for lookbackYear-1.
//
// A first computation (no prior record) is a baseline, not a change: the
// employer had no schedule to transition away from.
func DetectChange(current DepositSchedule, prior *LookbackPeriod, lookbackYear int) ScheduleChange {
	if prior == nil || prior.DepositSchedule == current {
		return ScheduleChange{}
	}

	effective := time.Date(lookbackYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return ScheduleChange{Changed: true, EffectiveDate: &effective}
}
