/*
Package payroll implements the Form 941 deposit-schedule determination engine.

PURPOSE:
  Given an employer and a lookback year, determine whether the employer must
  deposit employment taxes on a monthly or semi-weekly schedule. The rule
  (IRS Pub. 15, "lookback period"): sum the employment tax liability reported
  on Form 941 for the four quarters ending June 30 of the preceding year; if
  the total exceeds $50,000 the employer is a semi-weekly depositor,
  otherwise monthly.

KEY CONCEPTS IN THIS FILE (types.go):
  - DepositSchedule: The monthly/semi-weekly enum
  - Filing941:       A quarterly federal payroll tax return
  - LookbackPeriod:  The computed determination record, one per
                     (employer, lookback year)
  - Employer:        The entity on whose behalf schedules are computed

DESIGN PRINCIPLES:
  1. Precision: All monetary amounts are decimal.Decimal, rounded to cents.
     No floats cross the domain boundary.
  2. Derived fields stay derived: TotalTaxLiability is always the sum of the
     four quarterly fields; DepositSchedule is always a function of the
     total. Callers never set them independently.
  3. Type Safety: EmployerID and DepositSchedule are distinct types, not
     bare strings.

SEE ALSO:
  - quarter.go:  Quarter arithmetic and the lookback window
  - classify.go: Threshold classification
  - detect.go:   Year-over-year schedule change detection
  - engine.go:   Orchestration (aggregate -> classify -> detect -> persist)
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployerID string

// MustDecimal parses a decimal string, returning zero on malformed input.
// For literals in tests and seed data, not for user input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// DEPOSIT SCHEDULE - The statutory enum
// =============================================================================

// DepositSchedule is the cadence at which an employer must remit withheld
// employment taxes.
type DepositSchedule string

const (
	ScheduleMonthly    DepositSchedule = "monthly"
	ScheduleSemiWeekly DepositSchedule = "semi-weekly"
)

// Valid reports whether s is one of the two statutory schedules.
func (s DepositSchedule) Valid() bool {
	switch s {
	case ScheduleMonthly, ScheduleSemiWeekly:
		return true
	}
	return false
}

// DepositThreshold is the statutory cutoff separating monthly from
// semi-weekly depositors: $50,000.00 over the lookback period.
// Strictly greater than the threshold means semi-weekly; exactly
// $50,000.00 remains monthly.
var DepositThreshold = decimal.New(5000000, -2)

// =============================================================================
// EMPLOYER
// =============================================================================

type Employer struct {
	ID        EmployerID
	Name      string
	EIN       string
	CreatedAt time.Time
}

// =============================================================================
// FORM 941 FILING - Quarterly federal payroll tax return
// =============================================================================

// FilingStatus tracks where a Form 941 sits in the e-file lifecycle.
// Draft filings count toward the lookback aggregation; employers calculate
// mid-quarter before acceptance comes back from the e-file provider.
type FilingStatus string

const (
	FilingDraft     FilingStatus = "draft"
	FilingSubmitted FilingStatus = "submitted"
	FilingAccepted  FilingStatus = "accepted"
)

// Filing941 is one quarter's federal payroll tax return. Only
// TotalTaxesAfterAdjustments (Form 941 line 12) feeds the lookback
// computation; the component fields are carried for display and audit.
type Filing941 struct {
	EmployerID EmployerID
	Quarter    Quarter
	Status     FilingStatus

	WagesTipsCompensation      decimal.Decimal // line 2
	FederalIncomeTaxWithheld   decimal.Decimal // line 3
	SocialSecurityMedicareTax  decimal.Decimal // line 5e
	TotalTaxesAfterAdjustments decimal.Decimal // line 12

	FiledAt time.Time
}

// =============================================================================
// LOOKBACK PERIOD - The determination record
// =============================================================================

// LookbackPeriod is the computed deposit-schedule determination for one
// (employer, lookback year) pair. Recomputation overwrites the stored
// record; the computation is a pure function of the employer's filings, so
// repeated computation over unchanged filings yields an identical record.
type LookbackPeriod struct {
	EmployerID   EmployerID
	LookbackYear int

	// Window bounds: July 1 of LookbackYear-2 through June 30 of
	// LookbackYear-1, inclusive.
	LookbackStartDate time.Time
	LookbackEndDate   time.Time

	// The four quarterly liabilities composing the window, each >= 0.
	Q3PriorYear   decimal.Decimal
	Q4PriorYear   decimal.Decimal
	Q1CurrentYear decimal.Decimal
	Q2CurrentYear decimal.Decimal

	// TotalTaxLiability is always the exact sum of the four quarterly
	// fields. Never set independently.
	TotalTaxLiability decimal.Decimal

	ExceedsThreshold bool
	DepositSchedule  DepositSchedule

	// PreviousDepositSchedule is the schedule stored for LookbackYear-1,
	// nil when no prior record exists (first computation is a baseline,
	// not a change).
	PreviousDepositSchedule *DepositSchedule
	ScheduleChanged         bool

	// ScheduleChangeDate is January 1 of LookbackYear+1 when
	// ScheduleChanged is true, nil otherwise.
	ScheduleChangeDate *time.Time
}

// EffectiveYear returns the calendar year whose deposits this schedule
// governs. The lookback computed in year Y governs deposits for Y+1; the
// record's nominal LookbackYear is the computation year, not the year the
// schedule applies to.
func (lp *LookbackPeriod) EffectiveYear() int {
	return lp.LookbackYear + 1
}

// QuarterlyAmounts returns the four window liabilities in chronological
// order: Q3, Q4 of the earlier year, then Q1, Q2 of the later year.
func (lp *LookbackPeriod) QuarterlyAmounts() [4]decimal.Decimal {
	return [4]decimal.Decimal{lp.Q3PriorYear, lp.Q4PriorYear, lp.Q1CurrentYear, lp.Q2CurrentYear}
}
