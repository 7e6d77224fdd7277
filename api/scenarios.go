/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  employers and Form 941 filings, then run the determination so the
  result is immediately visible in a demo.

AVAILABLE SCENARIOS:
  monthly-depositor:     Four quarters summing under $50,000
  semiweekly-depositor:  Four quarters summing over $50,000
  boundary:              Exactly $50,000.00 (stays monthly)
  schedule-change:       Monthly one year, semi-weekly the next
  missing-quarters:      A new employer with only three filings on record

HOW SCENARIOS WORK:
  1. Create employer
  2. Save quarterly filings for the lookback window
  3. Run Calculate for the demo year(s)

NOTE:
  Scenarios write into the live store. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - payroll/engine.go: Calculate
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxflow/deposit-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// demoYear is the lookback year the scenarios compute for; its window is
// July 1 2023 through June 30 2024.
const demoYear = 2025

var scenarios = []ScenarioDTO{
	{
		ID:          "monthly-depositor",
		Name:        "Monthly Depositor",
		Description: "Four quarters at $10,000 each: $40,000 total, monthly schedule",
	},
	{
		ID:          "semiweekly-depositor",
		Name:        "Semi-weekly Depositor",
		Description: "Four quarters at $15,000 each: $60,000 total, semi-weekly schedule",
	},
	{
		ID:          "boundary",
		Name:        "Threshold Boundary",
		Description: "Exactly $50,000.00 over the window: not exceeding, stays monthly",
	},
	{
		ID:          "schedule-change",
		Name:        "Schedule Change",
		Description: "Monthly one year, then growth pushes the next lookback over $50,000",
	},
	{
		ID:          "missing-quarters",
		Name:        "Missing Quarters",
		Description: "Only three filings in the window; the missing quarter counts as zero",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the store with one scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "monthly-depositor":
		err = h.loadUniformScenario(ctx, "acme-bakery", "Acme Bakery LLC", "10000.00")
	case "semiweekly-depositor":
		err = h.loadUniformScenario(ctx, "bolt-logistics", "Bolt Logistics Inc", "15000.00")
	case "boundary":
		err = h.loadUniformScenario(ctx, "edge-consulting", "Edge Consulting Group", "12500.00")
	case "schedule-change":
		err = h.loadScheduleChangeScenario(ctx)
	case "missing-quarters":
		err = h.loadMissingQuartersScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadUniformScenario seeds one employer with the same liability in all
// four window quarters, then calculates.
func (h *Handler) loadUniformScenario(ctx context.Context, id, name, quarterly string) error {
	amount := payroll.MustDecimal(quarterly)
	if err := h.seedEmployer(ctx, id, name); err != nil {
		return err
	}
	for _, q := range payroll.LookbackWindow(demoYear) {
		if err := h.seedFiling(ctx, payroll.EmployerID(id), q, amount); err != nil {
			return err
		}
	}
	_, err := h.Engine.Calculate(ctx, payroll.EmployerID(id), demoYear)
	return err
}

// loadScheduleChangeScenario seeds two consecutive lookback years: under
// the threshold for demoYear-1, over it for demoYear. Calculating both in
// order produces a flagged schedule change effective Jan 1 of demoYear+1.
func (h *Handler) loadScheduleChangeScenario(ctx context.Context) error {
	const id = payroll.EmployerID("grove-staffing")
	if err := h.seedEmployer(ctx, string(id), "Grove Staffing Co"); err != nil {
		return err
	}

	low := payroll.MustDecimal("9000.00")
	high := payroll.MustDecimal("16000.00")
	for _, q := range payroll.LookbackWindow(demoYear - 1) {
		if err := h.seedFiling(ctx, id, q, low); err != nil {
			return err
		}
	}
	for _, q := range payroll.LookbackWindow(demoYear) {
		if err := h.seedFiling(ctx, id, q, high); err != nil {
			return err
		}
	}

	if _, err := h.Engine.Calculate(ctx, id, demoYear-1); err != nil {
		return err
	}
	_, err := h.Engine.Calculate(ctx, id, demoYear)
	return err
}

// loadMissingQuartersScenario seeds only three of the four window
// quarters; the determination still succeeds with the gap counted as zero.
func (h *Handler) loadMissingQuartersScenario(ctx context.Context) error {
	const id = payroll.EmployerID("fern-roasters")
	if err := h.seedEmployer(ctx, string(id), "Fern Roasters"); err != nil {
		return err
	}

	amount := payroll.MustDecimal("20000.00")
	window := payroll.LookbackWindow(demoYear)
	for _, q := range window[1:] { // skip Q3 of the prior year
		if err := h.seedFiling(ctx, id, q, amount); err != nil {
			return err
		}
	}
	_, err := h.Engine.Calculate(ctx, id, demoYear)
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedEmployer(ctx context.Context, id, name string) error {
	return h.Store.SaveEmployer(ctx, payroll.Employer{
		ID:        payroll.EmployerID(id),
		Name:      name,
		EIN:       fmt.Sprintf("90-%07d", len(id)*1111111%9999999),
		CreatedAt: time.Now().UTC(),
	})
}

// seedFiling derives plausible component amounts from the target total so
// demo filings look like real Form 941 data.
func (h *Handler) seedFiling(ctx context.Context, employerID payroll.EmployerID, q payroll.Quarter, total decimal.Decimal) error {
	withheld := total.Mul(decimal.NewFromFloat(0.55)).Round(2)
	ssMedicare := total.Sub(withheld)

	return h.Store.SaveFiling(ctx, payroll.Filing941{
		EmployerID:                 employerID,
		Quarter:                    q,
		Status:                     payroll.FilingAccepted,
		WagesTipsCompensation:      total.Mul(decimal.NewFromInt(4)).Round(2),
		FederalIncomeTaxWithheld:   withheld,
		SocialSecurityMedicareTax:  ssMedicare,
		TotalTaxesAfterAdjustments: total,
		FiledAt:                    q.End().AddDate(0, 1, 0),
	})
}
