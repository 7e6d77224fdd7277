/*
engine.go - Deposit-schedule determination engine

PURPOSE:
  Orchestrates the full determination for one (employer, lookback year):

    1. Aggregate: sum Form 941 liability for the four window quarters
    2. Classify:  apply the $50,000 threshold
    3. Detect:    compare against the prior year's stored schedule
    4. Persist:   idempotent upsert of the LookbackPeriod record

  The computation is deterministic over already-persisted filings:
  recomputing with unchanged filings yields an identical record, so the
  whole operation is safe to retry and safe to race (last-write-wins).

AGGREGATION RULE:
  A quarter with no filing on file contributes zero liability. Missing
  filings silently degrade the total; they never fail the computation.
  A filing carrying a negative liability is a data-integrity failure and
  aborts the computation before anything is persisted.

SEE ALSO:
  - quarter.go:  LookbackWindow / WindowBounds
  - classify.go: Classify
  - detect.go:   DetectChange
  - store.go:    FilingStore / LookbackStore contracts
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Engine computes and persists deposit-schedule determinations. Stores are
// injected explicitly; the engine holds no ambient state.
type Engine struct {
	Filings   FilingStore
	Lookbacks LookbackStore
}

// NewEngine creates an engine over the given stores.
func NewEngine(filings FilingStore, lookbacks LookbackStore) *Engine {
	return &Engine{Filings: filings, Lookbacks: lookbacks}
}

// Calculate runs the full determination for (employerID, lookbackYear) and
// persists the result. Returns the persisted record.
//
// Single-pass and synchronous: every sub-step is a deterministic read or
// computation over durable data, so there is nothing to retry internally.
func (e *Engine) Calculate(ctx context.Context, employerID EmployerID, lookbackYear int) (*LookbackPeriod, error) {
	if !ValidLookbackYear(lookbackYear) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, lookbackYear)
	}

	// 1. Aggregate the four window quarters.
	window := LookbackWindow(lookbackYear)
	var amounts [4]decimal.Decimal
	for i, q := range window {
		amount, err := e.quarterLiability(ctx, employerID, q)
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}
	total := amounts[0].Add(amounts[1]).Add(amounts[2]).Add(amounts[3])

	// 2. Classify against the threshold.
	classification, err := Classify(total)
	if err != nil {
		return nil, fmt.Errorf("classify %s year %d: %w", employerID, lookbackYear, err)
	}

	// 3. Detect a change from the prior year's stored schedule.
	prior, err := e.Lookbacks.GetLookback(ctx, employerID, lookbackYear-1)
	if err != nil {
		return nil, fmt.Errorf("load prior lookback: %w", err)
	}
	change := DetectChange(classification.Schedule, prior, lookbackYear)

	start, end := WindowBounds(lookbackYear)
	record := &LookbackPeriod{
		EmployerID:        employerID,
		LookbackYear:      lookbackYear,
		LookbackStartDate: start,
		LookbackEndDate:   end,
		Q3PriorYear:       amounts[0],
		Q4PriorYear:       amounts[1],
		Q1CurrentYear:     amounts[2],
		Q2CurrentYear:     amounts[3],
		TotalTaxLiability: total,
		ExceedsThreshold:  classification.ExceedsThreshold,
		DepositSchedule:   classification.Schedule,
		ScheduleChanged:   change.Changed,
	}
	if prior != nil {
		prev := prior.DepositSchedule
		record.PreviousDepositSchedule = &prev
	}
	if change.Changed {
		record.ScheduleChangeDate = change.EffectiveDate
	}

	// 4. Persist. Upsert keyed by (employer, year); recomputation
	// overwrites the existing record.
	if err := e.Lookbacks.UpsertLookback(ctx, record); err != nil {
		return nil, fmt.Errorf("persist lookback: %w", err)
	}

	return record, nil
}

// Get returns the stored determination for (employerID, year), or nil when
// none has been computed.
func (e *Engine) Get(ctx context.Context, employerID EmployerID, year int) (*LookbackPeriod, error) {
	if !ValidLookbackYear(year) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return e.Lookbacks.GetLookback(ctx, employerID, year)
}

// History returns every stored determination for the employer, newest
// lookback year first.
func (e *Engine) History(ctx context.Context, employerID EmployerID) ([]LookbackPeriod, error) {
	return e.Lookbacks.ListLookbacks(ctx, employerID)
}

// quarterLiability returns the employer's tax liability for one quarter:
// the filing's total-taxes-after-adjustments rounded to the cent, or zero
// when no filing exists.
func (e *Engine) quarterLiability(ctx context.Context, employerID EmployerID, q Quarter) (decimal.Decimal, error) {
	filing, err := e.Filings.FilingForQuarter(ctx, employerID, q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load filing %s: %w", q, err)
	}
	if filing == nil {
		// Missing filing degrades to zero, never an error.
		return decimal.Zero, nil
	}

	amount := filing.TotalTaxesAfterAdjustments.Round(2)
	if amount.IsNegative() {
		return decimal.Zero, &NegativeLiabilityError{
			EmployerID: employerID,
			Quarter:    q,
			Amount:     amount,
		}
	}
	return amount, nil
}
