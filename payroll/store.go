/*
store.go - Persistence interfaces for the deposit-schedule engine

PURPOSE:
  Defines the boundary between the domain logic and the database. The
  engine is handed these interfaces explicitly (dependency injection); it
  never reaches for a shared client.

KEY INTERFACES:
  EmployerStore: Employer records
  FilingStore:   Form 941 quarterly filings
  LookbackStore: Computed lookback determinations

UPSERT CONTRACT:
  Exactly one LookbackPeriod exists per (employer, lookback year).
  UpsertLookback atomically overwrites any existing record for the same
  key. No further locking is required: the computation is a pure function
  of already-durable filings, so concurrent recomputations racing on the
  upsert are idempotent and last-write-wins is safe.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - payroll/store: in-memory store for tests and dev
*/
package payroll

import "context"

// EmployerStore handles employer records.
type EmployerStore interface {
	// SaveEmployer creates or updates an employer.
	SaveEmployer(ctx context.Context, emp Employer) error

	// GetEmployer returns nil (not an error) when the employer doesn't exist.
	GetEmployer(ctx context.Context, id EmployerID) (*Employer, error)

	// ListEmployers returns all employers ordered by creation time.
	ListEmployers(ctx context.Context) ([]Employer, error)
}

// FilingStore handles Form 941 quarterly filings.
type FilingStore interface {
	// SaveFiling creates or overwrites the filing for (employer, quarter).
	// One filing per employer per quarter.
	SaveFiling(ctx context.Context, filing Filing941) error

	// FilingForQuarter returns nil (not an error) when no filing exists
	// for that quarter. The aggregator treats nil as zero liability.
	FilingForQuarter(ctx context.Context, employerID EmployerID, q Quarter) (*Filing941, error)

	// FilingsByEmployer returns all filings for an employer in
	// chronological quarter order.
	FilingsByEmployer(ctx context.Context, employerID EmployerID) ([]Filing941, error)
}

// LookbackStore handles computed lookback determinations, keyed by
// (employer, lookback year).
type LookbackStore interface {
	// GetLookback returns nil (not an error) when no record exists for
	// that year.
	GetLookback(ctx context.Context, employerID EmployerID, year int) (*LookbackPeriod, error)

	// UpsertLookback atomically creates or overwrites the record for
	// (record.EmployerID, record.LookbackYear).
	UpsertLookback(ctx context.Context, record *LookbackPeriod) error

	// ListLookbacks returns all records for an employer, newest lookback
	// year first. Records are retained for historical audit, never
	// deleted.
	ListLookbacks(ctx context.Context, employerID EmployerID) ([]LookbackPeriod, error)
}
