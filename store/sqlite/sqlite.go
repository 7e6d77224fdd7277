/*
Package sqlite provides a SQLite-backed implementation of the payroll
storage interfaces.

PURPOSE:
  Implements EmployerStore, FilingStore and LookbackStore using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  employers:        Employer records
  filings_941:      One Form 941 filing per (employer, year, quarter)
  lookback_periods: One determination per (employer, lookback_year)

UPSERT SEMANTICS:
  filings_941 and lookback_periods both carry UNIQUE keys and write via
  INSERT ... ON CONFLICT DO UPDATE. For lookback_periods this is the
  idempotent recompute-and-overwrite the engine relies on: concurrent
  recomputations race harmlessly, last write wins.

DECIMAL STORAGE:
  Monetary amounts are stored as TEXT (decimal string), never REAL.
  SQLite REAL is IEEE 754 and would reintroduce the float drift the
  domain layer exists to avoid.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block, single
  writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/deposit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/taxflow/deposit-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements all payroll storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employers
	CREATE TABLE IF NOT EXISTS employers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ein TEXT,
		created_at TEXT NOT NULL
	);

	-- Form 941 filings: one per employer per calendar quarter
	CREATE TABLE IF NOT EXISTS filings_941 (
		employer_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		quarter INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
		status TEXT NOT NULL,
		wages_tips_compensation TEXT NOT NULL,
		federal_income_tax_withheld TEXT NOT NULL,
		social_security_medicare_tax TEXT NOT NULL,
		total_taxes_after_adjustments TEXT NOT NULL,
		filed_at TEXT NOT NULL,
		PRIMARY KEY (employer_id, year, quarter)
	);

	CREATE INDEX IF NOT EXISTS idx_filings_employer
		ON filings_941(employer_id, year, quarter);

	-- Lookback determinations: one per employer per lookback year.
	-- Recomputation overwrites; rows are never deleted (historical audit).
	CREATE TABLE IF NOT EXISTS lookback_periods (
		employer_id TEXT NOT NULL,
		lookback_year INTEGER NOT NULL,
		lookback_start_date TEXT NOT NULL,
		lookback_end_date TEXT NOT NULL,
		q3_prior_year TEXT NOT NULL,
		q4_prior_year TEXT NOT NULL,
		q1_current_year TEXT NOT NULL,
		q2_current_year TEXT NOT NULL,
		total_tax_liability TEXT NOT NULL,
		exceeds_threshold BOOLEAN NOT NULL,
		deposit_schedule TEXT NOT NULL,
		previous_deposit_schedule TEXT,
		schedule_changed BOOLEAN NOT NULL,
		schedule_change_date TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employer_id, lookback_year)
	);

	CREATE INDEX IF NOT EXISTS idx_lookback_employer_year
		ON lookback_periods(employer_id, lookback_year DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYERS
// =============================================================================

// SaveEmployer creates or updates an employer record.
func (s *Store) SaveEmployer(ctx context.Context, emp payroll.Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employers (id, name, ein, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, ein = excluded.ein`,
		string(emp.ID), emp.Name, emp.EIN, createdAt.Format(time.RFC3339))
	return err
}

// GetEmployer returns nil when the employer doesn't exist.
func (s *Store) GetEmployer(ctx context.Context, id payroll.EmployerID) (*payroll.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, ein, created_at FROM employers WHERE id = ?`, string(id))

	var emp payroll.Employer
	var empID, createdAt string
	var ein sql.NullString
	if err := row.Scan(&empID, &emp.Name, &ein, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	emp.ID = payroll.EmployerID(empID)
	emp.EIN = ein.String
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	emp.CreatedAt = t
	return &emp, nil
}

// ListEmployers returns all employers ordered by creation time.
func (s *Store) ListEmployers(ctx context.Context) ([]payroll.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ein, created_at FROM employers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Employer
	for rows.Next() {
		var emp payroll.Employer
		var empID, createdAt string
		var ein sql.NullString
		if err := rows.Scan(&empID, &emp.Name, &ein, &createdAt); err != nil {
			return nil, err
		}
		emp.ID = payroll.EmployerID(empID)
		emp.EIN = ein.String
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		emp.CreatedAt = t
		out = append(out, emp)
	}
	return out, rows.Err()
}

// =============================================================================
// FILINGS
// =============================================================================

// SaveFiling creates or overwrites the filing for (employer, quarter).
func (s *Store) SaveFiling(ctx context.Context, filing payroll.Filing941) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filedAt := filing.FiledAt
	if filedAt.IsZero() {
		filedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO filings_941 (
			employer_id, year, quarter, status,
			wages_tips_compensation, federal_income_tax_withheld,
			social_security_medicare_tax, total_taxes_after_adjustments,
			filed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employer_id, year, quarter) DO UPDATE SET
			status = excluded.status,
			wages_tips_compensation = excluded.wages_tips_compensation,
			federal_income_tax_withheld = excluded.federal_income_tax_withheld,
			social_security_medicare_tax = excluded.social_security_medicare_tax,
			total_taxes_after_adjustments = excluded.total_taxes_after_adjustments,
			filed_at = excluded.filed_at`,
		string(filing.EmployerID), filing.Quarter.Year, filing.Quarter.Q, string(filing.Status),
		filing.WagesTipsCompensation.String(), filing.FederalIncomeTaxWithheld.String(),
		filing.SocialSecurityMedicareTax.String(), filing.TotalTaxesAfterAdjustments.String(),
		filedAt.Format(time.RFC3339))
	return err
}

// FilingForQuarter returns nil when no filing exists for that quarter.
func (s *Store) FilingForQuarter(ctx context.Context, employerID payroll.EmployerID, q payroll.Quarter) (*payroll.Filing941, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employer_id, year, quarter, status,
		       wages_tips_compensation, federal_income_tax_withheld,
		       social_security_medicare_tax, total_taxes_after_adjustments,
		       filed_at
		FROM filings_941
		WHERE employer_id = ? AND year = ? AND quarter = ?`,
		string(employerID), q.Year, q.Q)

	filing, err := scanFiling(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return filing, nil
}

// FilingsByEmployer returns all filings in chronological quarter order.
func (s *Store) FilingsByEmployer(ctx context.Context, employerID payroll.EmployerID) ([]payroll.Filing941, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employer_id, year, quarter, status,
		       wages_tips_compensation, federal_income_tax_withheld,
		       social_security_medicare_tax, total_taxes_after_adjustments,
		       filed_at
		FROM filings_941
		WHERE employer_id = ?
		ORDER BY year, quarter`, string(employerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Filing941
	for rows.Next() {
		filing, err := scanFiling(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *filing)
	}
	return out, rows.Err()
}

// scanFiling decodes one filings_941 row from any Scan-shaped source.
func scanFiling(scan func(...any) error) (*payroll.Filing941, error) {
	var filing payroll.Filing941
	var empID, status, wages, withheld, ssMedicare, total, filedAt string
	var year, quarter int

	if err := scan(&empID, &year, &quarter, &status,
		&wages, &withheld, &ssMedicare, &total, &filedAt); err != nil {
		return nil, err
	}

	filing.EmployerID = payroll.EmployerID(empID)
	filing.Quarter = payroll.Quarter{Year: year, Q: quarter}
	filing.Status = payroll.FilingStatus(status)

	var err error
	if filing.WagesTipsCompensation, err = decimal.NewFromString(wages); err != nil {
		return nil, fmt.Errorf("parse wages: %w", err)
	}
	if filing.FederalIncomeTaxWithheld, err = decimal.NewFromString(withheld); err != nil {
		return nil, fmt.Errorf("parse withheld: %w", err)
	}
	if filing.SocialSecurityMedicareTax, err = decimal.NewFromString(ssMedicare); err != nil {
		return nil, fmt.Errorf("parse ss/medicare: %w", err)
	}
	if filing.TotalTaxesAfterAdjustments, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if filing.FiledAt, err = time.Parse(time.RFC3339, filedAt); err != nil {
		return nil, fmt.Errorf("parse filed_at: %w", err)
	}
	return &filing, nil
}

// =============================================================================
// LOOKBACK PERIODS
// =============================================================================

// UpsertLookback atomically creates or overwrites the determination for
// (record.EmployerID, record.LookbackYear).
func (s *Store) UpsertLookback(ctx context.Context, record *payroll.LookbackPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevSchedule sql.NullString
	if record.PreviousDepositSchedule != nil {
		prevSchedule = sql.NullString{String: string(*record.PreviousDepositSchedule), Valid: true}
	}
	var changeDate sql.NullString
	if record.ScheduleChangeDate != nil {
		changeDate = sql.NullString{String: record.ScheduleChangeDate.Format(dateLayout), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lookback_periods (
			employer_id, lookback_year, lookback_start_date, lookback_end_date,
			q3_prior_year, q4_prior_year, q1_current_year, q2_current_year,
			total_tax_liability, exceeds_threshold, deposit_schedule,
			previous_deposit_schedule, schedule_changed, schedule_change_date,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employer_id, lookback_year) DO UPDATE SET
			lookback_start_date = excluded.lookback_start_date,
			lookback_end_date = excluded.lookback_end_date,
			q3_prior_year = excluded.q3_prior_year,
			q4_prior_year = excluded.q4_prior_year,
			q1_current_year = excluded.q1_current_year,
			q2_current_year = excluded.q2_current_year,
			total_tax_liability = excluded.total_tax_liability,
			exceeds_threshold = excluded.exceeds_threshold,
			deposit_schedule = excluded.deposit_schedule,
			previous_deposit_schedule = excluded.previous_deposit_schedule,
			schedule_changed = excluded.schedule_changed,
			schedule_change_date = excluded.schedule_change_date,
			updated_at = excluded.updated_at`,
		string(record.EmployerID), record.LookbackYear,
		record.LookbackStartDate.Format(dateLayout), record.LookbackEndDate.Format(dateLayout),
		record.Q3PriorYear.String(), record.Q4PriorYear.String(),
		record.Q1CurrentYear.String(), record.Q2CurrentYear.String(),
		record.TotalTaxLiability.String(), record.ExceedsThreshold,
		string(record.DepositSchedule), prevSchedule, record.ScheduleChanged, changeDate,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetLookback returns nil when no determination exists for that year.
func (s *Store) GetLookback(ctx context.Context, employerID payroll.EmployerID, year int) (*payroll.LookbackPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employer_id, lookback_year, lookback_start_date, lookback_end_date,
		       q3_prior_year, q4_prior_year, q1_current_year, q2_current_year,
		       total_tax_liability, exceeds_threshold, deposit_schedule,
		       previous_deposit_schedule, schedule_changed, schedule_change_date
		FROM lookback_periods
		WHERE employer_id = ? AND lookback_year = ?`,
		string(employerID), year)

	record, err := scanLookback(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListLookbacks returns all determinations for an employer, newest
// lookback year first.
func (s *Store) ListLookbacks(ctx context.Context, employerID payroll.EmployerID) ([]payroll.LookbackPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employer_id, lookback_year, lookback_start_date, lookback_end_date,
		       q3_prior_year, q4_prior_year, q1_current_year, q2_current_year,
		       total_tax_liability, exceeds_threshold, deposit_schedule,
		       previous_deposit_schedule, schedule_changed, schedule_change_date
		FROM lookback_periods
		WHERE employer_id = ?
		ORDER BY lookback_year DESC`, string(employerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.LookbackPeriod
	for rows.Next() {
		record, err := scanLookback(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

// scanLookback decodes one lookback_periods row.
func scanLookback(scan func(...any) error) (*payroll.LookbackPeriod, error) {
	var record payroll.LookbackPeriod
	var empID, startDate, endDate, q3, q4, q1, q2, total, schedule string
	var prevSchedule, changeDate sql.NullString

	if err := scan(&empID, &record.LookbackYear, &startDate, &endDate,
		&q3, &q4, &q1, &q2, &total,
		&record.ExceedsThreshold, &schedule,
		&prevSchedule, &record.ScheduleChanged, &changeDate); err != nil {
		return nil, err
	}

	record.EmployerID = payroll.EmployerID(empID)
	record.DepositSchedule = payroll.DepositSchedule(schedule)
	if !record.DepositSchedule.Valid() {
		return nil, fmt.Errorf("%w: %q", payroll.ErrInvalidSchedule, schedule)
	}

	var err error
	if record.LookbackStartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, fmt.Errorf("parse lookback_start_date: %w", err)
	}
	if record.LookbackEndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return nil, fmt.Errorf("parse lookback_end_date: %w", err)
	}
	if record.Q3PriorYear, err = decimal.NewFromString(q3); err != nil {
		return nil, fmt.Errorf("parse q3_prior_year: %w", err)
	}
	if record.Q4PriorYear, err = decimal.NewFromString(q4); err != nil {
		return nil, fmt.Errorf("parse q4_prior_year: %w", err)
	}
	if record.Q1CurrentYear, err = decimal.NewFromString(q1); err != nil {
		return nil, fmt.Errorf("parse q1_current_year: %w", err)
	}
	if record.Q2CurrentYear, err = decimal.NewFromString(q2); err != nil {
		return nil, fmt.Errorf("parse q2_current_year: %w", err)
	}
	if record.TotalTaxLiability, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total_tax_liability: %w", err)
	}

	if prevSchedule.Valid {
		prev := payroll.DepositSchedule(prevSchedule.String)
		if !prev.Valid() {
			return nil, fmt.Errorf("%w: %q", payroll.ErrInvalidSchedule, prevSchedule.String)
		}
		record.PreviousDepositSchedule = &prev
	}
	if changeDate.Valid {
		t, err := time.Parse(dateLayout, changeDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse schedule_change_date: %w", err)
		}
		record.ScheduleChangeDate = &t
	}
	return &record, nil
}
