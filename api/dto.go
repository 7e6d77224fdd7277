/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Also the presentation
  adapter: raw decimal strings for machine consumers live next to
  formatted currency/date display fields for UI consumers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TAGGED RESULTS:
  Calculate responses are a discriminated success/failure shape:
    {"success": true,  "lookback": {...}, "status": {"message": "..."}}
    {"success": false, "error": "..."}

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain records these are built from
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taxflow/deposit-engine/payroll"
)

const dateLayout = "2006-01-02"

// =============================================================================
// EMPLOYER TYPES
// =============================================================================

// EmployerDTO represents an employer in API responses.
type EmployerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EIN       string `json:"ein,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployerRequest is the request to create an employer.
type CreateEmployerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	EIN  string `json:"ein"`
}

func toEmployerDTO(emp payroll.Employer) EmployerDTO {
	dto := EmployerDTO{
		ID:   string(emp.ID),
		Name: emp.Name,
		EIN:  emp.EIN,
	}
	if !emp.CreatedAt.IsZero() {
		dto.CreatedAt = emp.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// FILING TYPES
// =============================================================================

// FilingDTO represents a Form 941 filing in API responses.
type FilingDTO struct {
	EmployerID                 string `json:"employer_id"`
	Year                       int    `json:"year"`
	Quarter                    int    `json:"quarter"`
	Status                     string `json:"status"`
	WagesTipsCompensation      string `json:"wages_tips_compensation"`
	FederalIncomeTaxWithheld   string `json:"federal_income_tax_withheld"`
	SocialSecurityMedicareTax  string `json:"social_security_medicare_tax"`
	TotalTaxesAfterAdjustments string `json:"total_taxes_after_adjustments"`
	FiledAt                    string `json:"filed_at,omitempty"`
}

// UpsertFilingRequest is the request to create or replace one quarter's
// filing. Amounts are decimal strings ("12500.00"); floats are rejected at
// parse time by the handler.
type UpsertFilingRequest struct {
	Year                       int    `json:"year"`
	Quarter                    int    `json:"quarter"`
	Status                     string `json:"status"`
	WagesTipsCompensation      string `json:"wages_tips_compensation"`
	FederalIncomeTaxWithheld   string `json:"federal_income_tax_withheld"`
	SocialSecurityMedicareTax  string `json:"social_security_medicare_tax"`
	TotalTaxesAfterAdjustments string `json:"total_taxes_after_adjustments"`
}

func toFilingDTO(f payroll.Filing941) FilingDTO {
	dto := FilingDTO{
		EmployerID:                 string(f.EmployerID),
		Year:                       f.Quarter.Year,
		Quarter:                    f.Quarter.Q,
		Status:                     string(f.Status),
		WagesTipsCompensation:      f.WagesTipsCompensation.StringFixed(2),
		FederalIncomeTaxWithheld:   f.FederalIncomeTaxWithheld.StringFixed(2),
		SocialSecurityMedicareTax:  f.SocialSecurityMedicareTax.StringFixed(2),
		TotalTaxesAfterAdjustments: f.TotalTaxesAfterAdjustments.StringFixed(2),
	}
	if !f.FiledAt.IsZero() {
		dto.FiledAt = f.FiledAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// LOOKBACK TYPES
// =============================================================================

// LookbackPeriodDTO represents a deposit-schedule determination.
type LookbackPeriodDTO struct {
	EmployerID              string             `json:"employer_id"`
	LookbackYear            int                `json:"lookback_year"`
	EffectiveYear           int                `json:"effective_year"`
	LookbackStartDate       string             `json:"lookback_start_date"`
	LookbackEndDate         string             `json:"lookback_end_date"`
	Q3PriorYear             string             `json:"q3_prior_year"`
	Q4PriorYear             string             `json:"q4_prior_year"`
	Q1CurrentYear           string             `json:"q1_current_year"`
	Q2CurrentYear           string             `json:"q2_current_year"`
	TotalTaxLiability       string             `json:"total_tax_liability"`
	ExceedsThreshold        bool               `json:"exceeds_threshold"`
	DepositSchedule         string             `json:"deposit_schedule"`
	PreviousDepositSchedule *string            `json:"previous_deposit_schedule"`
	ScheduleChanged         bool               `json:"schedule_changed"`
	ScheduleChangeDate      *string            `json:"schedule_change_date"`
	Display                 LookbackDisplayDTO `json:"display"`
}

// LookbackDisplayDTO carries pre-formatted values for UI consumers.
type LookbackDisplayDTO struct {
	TotalTaxLiability string `json:"total_tax_liability"` // "$60,000.00"
	Threshold         string `json:"threshold"`           // "$50,000.00"
	Window            string `json:"window"`              // "Jul 1, 2023 - Jun 30, 2024"
	DepositSchedule   string `json:"deposit_schedule"`    // "Semi-weekly"
}

// CalculateLookbackRequest is the request body for POST /api/lookback/calculate.
type CalculateLookbackRequest struct {
	LookbackYear int `json:"lookback_year"`
}

// CalculateLookbackResponse is the success arm of the calculate result.
type CalculateLookbackResponse struct {
	Success  bool               `json:"success"`
	Lookback *LookbackPeriodDTO `json:"lookback"`
	Status   StatusDTO          `json:"status"`
}

// StatusDTO wraps the human-readable outcome message.
type StatusDTO struct {
	Message string `json:"message"`
}

// GetLookbackResponse wraps a read; Lookback is null when no determination
// has been computed for the requested year.
type GetLookbackResponse struct {
	Lookback *LookbackPeriodDTO `json:"lookback"`
}

// FailureResponse is the failure arm of the calculate result.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ErrorResponse is the generic error shape for non-lookback endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// PRESENTATION ADAPTER
// =============================================================================

func toLookbackDTO(lp *payroll.LookbackPeriod) *LookbackPeriodDTO {
	if lp == nil {
		return nil
	}

	dto := &LookbackPeriodDTO{
		EmployerID:        string(lp.EmployerID),
		LookbackYear:      lp.LookbackYear,
		EffectiveYear:     lp.EffectiveYear(),
		LookbackStartDate: lp.LookbackStartDate.Format(dateLayout),
		LookbackEndDate:   lp.LookbackEndDate.Format(dateLayout),
		Q3PriorYear:       lp.Q3PriorYear.StringFixed(2),
		Q4PriorYear:       lp.Q4PriorYear.StringFixed(2),
		Q1CurrentYear:     lp.Q1CurrentYear.StringFixed(2),
		Q2CurrentYear:     lp.Q2CurrentYear.StringFixed(2),
		TotalTaxLiability: lp.TotalTaxLiability.StringFixed(2),
		ExceedsThreshold:  lp.ExceedsThreshold,
		DepositSchedule:   string(lp.DepositSchedule),
		ScheduleChanged:   lp.ScheduleChanged,
		Display: LookbackDisplayDTO{
			TotalTaxLiability: formatUSD(lp.TotalTaxLiability),
			Threshold:         formatUSD(payroll.DepositThreshold),
			Window: fmt.Sprintf("%s - %s",
				lp.LookbackStartDate.Format("Jan 2, 2006"),
				lp.LookbackEndDate.Format("Jan 2, 2006")),
			DepositSchedule: displaySchedule(lp.DepositSchedule),
		},
	}
	if lp.PreviousDepositSchedule != nil {
		prev := string(*lp.PreviousDepositSchedule)
		dto.PreviousDepositSchedule = &prev
	}
	if lp.ScheduleChangeDate != nil {
		d := lp.ScheduleChangeDate.Format(dateLayout)
		dto.ScheduleChangeDate = &d
	}
	return dto
}

// statusMessage builds the human-readable outcome line. The named year is
// the effective deposit year, not the record's nominal lookback year.
func statusMessage(lp *payroll.LookbackPeriod) string {
	msg := fmt.Sprintf("Your deposit schedule for %d is %s.",
		lp.EffectiveYear(), lp.DepositSchedule)
	if lp.ScheduleChanged && lp.ScheduleChangeDate != nil {
		msg += fmt.Sprintf(" This is a change from %s, effective %s.",
			*lp.PreviousDepositSchedule,
			lp.ScheduleChangeDate.Format("January 2, 2006"))
	}
	return msg
}

// formatUSD renders a decimal amount as "$1,234,567.89".
func formatUSD(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	whole, frac := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%s", sign, grouped.String(), frac)
}

// displaySchedule capitalizes the enum for UI display.
func displaySchedule(s payroll.DepositSchedule) string {
	switch s {
	case payroll.ScheduleSemiWeekly:
		return "Semi-weekly"
	case payroll.ScheduleMonthly:
		return "Monthly"
	default:
		return string(s)
	}
}
