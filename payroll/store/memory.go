// Package store provides in-memory implementations of the payroll
// persistence interfaces, for testing and dev mode.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/taxflow/deposit-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements EmployerStore, FilingStore and LookbackStore with maps
// behind a RWMutex. Stored records are copied on the way in and out so
// callers can't mutate shared state.
type Memory struct {
	mu        sync.RWMutex
	employers map[payroll.EmployerID]payroll.Employer
	filings   map[filingKey]payroll.Filing941
	lookbacks map[lookbackKey]payroll.LookbackPeriod
}

type filingKey struct {
	EmployerID payroll.EmployerID
	Quarter    payroll.Quarter
}

type lookbackKey struct {
	EmployerID payroll.EmployerID
	Year       int
}

func NewMemory() *Memory {
	return &Memory{
		employers: make(map[payroll.EmployerID]payroll.Employer),
		filings:   make(map[filingKey]payroll.Filing941),
		lookbacks: make(map[lookbackKey]payroll.LookbackPeriod),
	}
}

// =============================================================================
// EMPLOYERS
// =============================================================================

func (m *Memory) SaveEmployer(_ context.Context, emp payroll.Employer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employers[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployer(_ context.Context, id payroll.EmployerID) (*payroll.Employer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employers[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Memory) ListEmployers(_ context.Context) ([]payroll.Employer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.Employer, 0, len(m.employers))
	for _, emp := range m.employers {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// =============================================================================
// FILINGS
// =============================================================================

func (m *Memory) SaveFiling(_ context.Context, filing payroll.Filing941) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filings[filingKey{EmployerID: filing.EmployerID, Quarter: filing.Quarter}] = filing
	return nil
}

func (m *Memory) FilingForQuarter(_ context.Context, employerID payroll.EmployerID, q payroll.Quarter) (*payroll.Filing941, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	filing, ok := m.filings[filingKey{EmployerID: employerID, Quarter: q}]
	if !ok {
		return nil, nil
	}
	return &filing, nil
}

func (m *Memory) FilingsByEmployer(_ context.Context, employerID payroll.EmployerID) ([]payroll.Filing941, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.Filing941
	for key, filing := range m.filings {
		if key.EmployerID == employerID {
			out = append(out, filing)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Quarter, out[j].Quarter
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Q < b.Q
	})
	return out, nil
}

// =============================================================================
// LOOKBACKS
// =============================================================================

func (m *Memory) GetLookback(_ context.Context, employerID payroll.EmployerID, year int) (*payroll.LookbackPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.lookbacks[lookbackKey{EmployerID: employerID, Year: year}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *Memory) UpsertLookback(_ context.Context, record *payroll.LookbackPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookbacks[lookbackKey{EmployerID: record.EmployerID, Year: record.LookbackYear}] = *record
	return nil
}

func (m *Memory) ListLookbacks(_ context.Context, employerID payroll.EmployerID) ([]payroll.LookbackPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.LookbackPeriod
	for key, record := range m.lookbacks {
		if key.EmployerID == employerID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LookbackYear > out[j].LookbackYear
	})
	return out, nil
}
