/*
errors.go - Centralized error types for the deposit-schedule engine

PURPOSE:
  All domain error types in one place. Callers match with errors.Is/As;
  the API layer maps these onto HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - bad caller input (year, quarter)
  2. Consistency errors - corrupted upstream data (negative liability)
  3. Lookup errors - referenced records that do not exist

Missing filings are NOT an error anywhere in this package: a quarter with
no Form 941 on file contributes zero liability.
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidYear is returned when a lookback year is outside the
	// accepted range. No computation is attempted.
	ErrInvalidYear = errors.New("invalid lookback year")

	// ErrInvalidQuarter is returned for a quarter number outside 1-4.
	ErrInvalidQuarter = errors.New("invalid quarter")

	// ErrInvalidSchedule is returned when a stored schedule value is
	// neither "monthly" nor "semi-weekly".
	ErrInvalidSchedule = errors.New("invalid deposit schedule")

	// ErrNegativeLiability indicates a corrupted filing: aggregated
	// liability can never be negative. This is fatal for the computation
	// and surfaced rather than clamped, since it means the upstream
	// filing data is broken.
	ErrNegativeLiability = errors.New("negative tax liability")

	// ErrEmployerNotFound is returned when a referenced employer doesn't exist.
	ErrEmployerNotFound = errors.New("employer not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NegativeLiabilityError identifies which quarter's filing produced a
// negative amount.
type NegativeLiabilityError struct {
	EmployerID EmployerID
	Quarter    Quarter
	Amount     decimal.Decimal
}

func (e *NegativeLiabilityError) Error() string {
	return fmt.Sprintf("negative tax liability %s for %s in %s",
		e.Amount, e.EmployerID, e.Quarter)
}

func (e *NegativeLiabilityError) Unwrap() error {
	return ErrNegativeLiability
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than a server-side failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidYear) ||
		errors.Is(err, ErrInvalidQuarter) ||
		errors.Is(err, ErrInvalidSchedule)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployerNotFound)
}
