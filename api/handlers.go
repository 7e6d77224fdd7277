/*
handlers.go - HTTP API handlers for the deposit-schedule service

PURPOSE:
  Exposes the determination engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Lookback (employer resolved from X-Employer-ID header):
    POST   /api/lookback/calculate           Run the determination
    GET    /api/lookback/get?lookback_year=Y Read a stored determination

  Employers:
    GET    /api/employers                    List all employers
    POST   /api/employers                    Create employer
    GET    /api/employers/{id}               Get employer details
    GET    /api/employers/{id}/lookback/history  All determinations, newest first

  Filings:
    PUT    /api/employers/{id}/filings       Upsert one quarter's Form 941
    GET    /api/employers/{id}/filings       List filings

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, stores)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 422: Data-integrity failures (negative liability upstream)
  - 500: Internal errors
  The lookback endpoints use the tagged success/failure shape
  ({"success": false, "error": ...}) the frontend consumes.

SECURITY NOTE:
  No real authentication. The X-Employer-ID header stands in for the
  authenticated employer context a session layer would resolve.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/taxflow/deposit-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need: everything the
// engine uses plus employer records.
type Store interface {
	payroll.EmployerStore
	payroll.FilingStore
	payroll.LookbackStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Engine *payroll.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: payroll.NewEngine(store, store),
	}
}

// =============================================================================
// LOOKBACK HANDLERS
// =============================================================================

// CalculateLookback runs the full determination for the calling employer
// and returns the persisted record with a human-readable status message.
func (h *Handler) CalculateLookback(w http.ResponseWriter, r *http.Request) {
	employerID, ok := h.employerFromHeader(w, r)
	if !ok {
		return
	}

	var req CalculateLookbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !payroll.ValidLookbackYear(req.LookbackYear) {
		writeFailure(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid lookback_year: %d", req.LookbackYear))
		return
	}

	record, err := h.Engine.Calculate(r.Context(), employerID, req.LookbackYear)
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrNegativeLiability):
			// Corrupted filing upstream; surface, don't clamp.
			writeFailure(w, http.StatusUnprocessableEntity, err.Error())
		case payroll.IsClientError(err):
			writeFailure(w, http.StatusBadRequest, err.Error())
		default:
			writeFailure(w, http.StatusInternalServerError, "Failed to calculate lookback period")
		}
		return
	}

	writeJSON(w, http.StatusOK, CalculateLookbackResponse{
		Success:  true,
		Lookback: toLookbackDTO(record),
		Status:   StatusDTO{Message: statusMessage(record)},
	})
}

// GetLookback returns the stored determination for ?lookback_year=Y, or
// {"lookback": null} when none has been computed.
func (h *Handler) GetLookback(w http.ResponseWriter, r *http.Request) {
	employerID, ok := h.employerFromHeader(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("lookback_year"))
	if err != nil || !payroll.ValidLookbackYear(year) {
		writeFailure(w, http.StatusBadRequest, "Invalid or missing lookback_year")
		return
	}

	record, err := h.Engine.Get(r.Context(), employerID, year)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to get lookback period")
		return
	}

	writeJSON(w, http.StatusOK, GetLookbackResponse{Lookback: toLookbackDTO(record)})
}

// LookbackHistory returns every determination for an employer, newest
// lookback year first.
func (h *Handler) LookbackHistory(w http.ResponseWriter, r *http.Request) {
	employerID := payroll.EmployerID(chi.URLParam(r, "id"))

	records, err := h.Engine.History(r.Context(), employerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list lookback history", err)
		return
	}

	dtos := make([]*LookbackPeriodDTO, len(records))
	for i := range records {
		dtos[i] = toLookbackDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": dtos})
}

// employerFromHeader resolves the calling employer from X-Employer-ID and
// verifies it exists. Writes the failure response itself when it can't.
func (h *Handler) employerFromHeader(w http.ResponseWriter, r *http.Request) (payroll.EmployerID, bool) {
	id := r.Header.Get("X-Employer-ID")
	if id == "" {
		writeFailure(w, http.StatusUnauthorized, "Missing X-Employer-ID header")
		return "", false
	}

	emp, err := h.Store.GetEmployer(r.Context(), payroll.EmployerID(id))
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to resolve employer")
		return "", false
	}
	if emp == nil {
		writeFailure(w, http.StatusNotFound, "Employer not found")
		return "", false
	}
	return emp.ID, true
}

// =============================================================================
// EMPLOYER HANDLERS
// =============================================================================

// ListEmployers returns all employers.
func (h *Handler) ListEmployers(w http.ResponseWriter, r *http.Request) {
	employers, err := h.Store.ListEmployers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employers", err)
		return
	}

	dtos := make([]EmployerDTO, len(employers))
	for i, e := range employers {
		dtos[i] = toEmployerDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployer returns a single employer.
func (h *Handler) GetEmployer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployer(r.Context(), payroll.EmployerID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employer", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employer not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toEmployerDTO(*emp))
}

// CreateEmployer creates a new employer.
func (h *Handler) CreateEmployer(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := payroll.Employer{
		ID:        payroll.EmployerID(req.ID),
		Name:      req.Name,
		EIN:       req.EIN,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveEmployer(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employer", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployerDTO(emp))
}

// =============================================================================
// FILING HANDLERS
// =============================================================================

// UpsertFiling creates or replaces one quarter's Form 941 for an employer.
func (h *Handler) UpsertFiling(w http.ResponseWriter, r *http.Request) {
	employerID := payroll.EmployerID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployer(r.Context(), employerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve employer", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employer not found", nil)
		return
	}

	var req UpsertFilingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quarter, err := payroll.NewQuarter(req.Year, req.Quarter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/quarter", err)
		return
	}

	status := payroll.FilingStatus(req.Status)
	switch status {
	case payroll.FilingDraft, payroll.FilingSubmitted, payroll.FilingAccepted:
	case "":
		status = payroll.FilingDraft
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status: %s", req.Status), nil)
		return
	}

	filing := payroll.Filing941{
		EmployerID: employerID,
		Quarter:    quarter,
		Status:     status,
		FiledAt:    time.Now().UTC(),
	}

	amounts := []struct {
		name  string
		raw   string
		field *decimal.Decimal
	}{
		{"wages_tips_compensation", req.WagesTipsCompensation, &filing.WagesTipsCompensation},
		{"federal_income_tax_withheld", req.FederalIncomeTaxWithheld, &filing.FederalIncomeTaxWithheld},
		{"social_security_medicare_tax", req.SocialSecurityMedicareTax, &filing.SocialSecurityMedicareTax},
		{"total_taxes_after_adjustments", req.TotalTaxesAfterAdjustments, &filing.TotalTaxesAfterAdjustments},
	}
	for _, a := range amounts {
		if a.raw == "" {
			*a.field = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", a.name, a.raw), err)
			return
		}
		*a.field = d.Round(2)
	}

	if err := h.Store.SaveFiling(r.Context(), filing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save filing", err)
		return
	}

	writeJSON(w, http.StatusOK, toFilingDTO(filing))
}

// ListFilings returns all filings for an employer in quarter order.
func (h *Handler) ListFilings(w http.ResponseWriter, r *http.Request) {
	employerID := payroll.EmployerID(chi.URLParam(r, "id"))

	filings, err := h.Store.FilingsByEmployer(r.Context(), employerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list filings", err)
		return
	}

	dtos := make([]FilingDTO, len(filings))
	for i, f := range filings {
		dtos[i] = toFilingDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeFailure emits the tagged failure shape the lookback endpoints use.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, FailureResponse{Success: false, Error: message})
}
