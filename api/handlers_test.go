/*
handlers_test.go - Tests for the lookback HTTP surface

Runs the real router against an in-memory SQLite store, exercising the
calculate/get endpoints end to end: validation, the tagged
success/failure response shapes, and the presentation fields.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxflow/deposit-engine/payroll"
	"github.com/taxflow/deposit-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	return h, NewRouter(h)
}

func seedEmployerWithQuarters(t *testing.T, h *Handler, id payroll.EmployerID, year int, quarterly string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, h.Store.SaveEmployer(ctx, payroll.Employer{
		ID:        id,
		Name:      "Test Employer",
		CreatedAt: time.Now().UTC(),
	}))

	amount := payroll.MustDecimal(quarterly)
	for _, q := range payroll.LookbackWindow(year) {
		require.NoError(t, h.Store.SaveFiling(ctx, payroll.Filing941{
			EmployerID:                 id,
			Quarter:                    q,
			Status:                     payroll.FilingAccepted,
			TotalTaxesAfterAdjustments: amount,
			FiledAt:                    q.End().AddDate(0, 1, 0),
		}))
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, employerID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if employerID != "" {
		req.Header.Set("X-Employer-ID", employerID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculateLookback_Success(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "15000.00")

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
		CalculateLookbackRequest{LookbackYear: 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CalculateLookbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Lookback)
	assert.Equal(t, 2025, resp.Lookback.LookbackYear)
	assert.Equal(t, 2026, resp.Lookback.EffectiveYear)
	assert.Equal(t, "60000.00", resp.Lookback.TotalTaxLiability)
	assert.True(t, resp.Lookback.ExceedsThreshold)
	assert.Equal(t, "semi-weekly", resp.Lookback.DepositSchedule)
	assert.Equal(t, "2023-07-01", resp.Lookback.LookbackStartDate)
	assert.Equal(t, "2024-06-30", resp.Lookback.LookbackEndDate)

	// Presentation fields
	assert.Equal(t, "$60,000.00", resp.Lookback.Display.TotalTaxLiability)
	assert.Equal(t, "$50,000.00", resp.Lookback.Display.Threshold)
	assert.Equal(t, "Semi-weekly", resp.Lookback.Display.DepositSchedule)
	assert.Equal(t, "Your deposit schedule for 2026 is semi-weekly.", resp.Status.Message)
}

func TestCalculateLookback_MissingEmployerHeader(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "",
		CalculateLookbackRequest{LookbackYear: 2025})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestCalculateLookback_UnknownEmployer(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "nobody",
		CalculateLookbackRequest{LookbackYear: 2025})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculateLookback_InvalidYear(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "1000.00")

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
		CalculateLookbackRequest{LookbackYear: 12})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestCalculateLookback_ScheduleChangeMessage(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2024, "9000.00")
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "16000.00")

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
		CalculateLookbackRequest{LookbackYear: 2024})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
		CalculateLookbackRequest{LookbackYear: 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CalculateLookbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotNil(t, resp.Lookback)
	assert.True(t, resp.Lookback.ScheduleChanged)
	require.NotNil(t, resp.Lookback.ScheduleChangeDate)
	assert.Equal(t, "2026-01-01", *resp.Lookback.ScheduleChangeDate)
	require.NotNil(t, resp.Lookback.PreviousDepositSchedule)
	assert.Equal(t, "monthly", *resp.Lookback.PreviousDepositSchedule)
	assert.Equal(t,
		"Your deposit schedule for 2026 is semi-weekly. This is a change from monthly, effective January 1, 2026.",
		resp.Status.Message)
}

// =============================================================================
// GET
// =============================================================================

func TestGetLookback_NullBeforeCalculate(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "1000.00")

	rec := doJSON(t, router, http.MethodGet, "/api/lookback/get?lookback_year=2025", "emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GetLookbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Lookback)
}

func TestGetLookback_AfterCalculate(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "12500.00")

	rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
		CalculateLookbackRequest{LookbackYear: 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/lookback/get?lookback_year=2025", "emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GetLookbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotNil(t, resp.Lookback)
	// Boundary case: exactly $50,000.00 stays monthly.
	assert.Equal(t, "50000.00", resp.Lookback.TotalTaxLiability)
	assert.False(t, resp.Lookback.ExceedsThreshold)
	assert.Equal(t, "monthly", resp.Lookback.DepositSchedule)
}

func TestGetLookback_MissingYearParam(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "1000.00")

	rec := doJSON(t, router, http.MethodGet, "/api/lookback/get", "emp-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EMPLOYERS AND FILINGS
// =============================================================================

func TestCreateEmployerAndUpsertFiling(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/employers", "",
		CreateEmployerRequest{ID: "emp-9", Name: "Niner Corp", EIN: "12-3456789"})
	require.Equal(t, http.StatusCreated, rec.Code)

	filing := UpsertFilingRequest{
		Year:                       2024,
		Quarter:                    1,
		Status:                     "accepted",
		TotalTaxesAfterAdjustments: "12345.67",
	}
	rec = doJSON(t, router, http.MethodPut, "/api/employers/emp-9/filings", "", filing)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto FilingDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "12345.67", dto.TotalTaxesAfterAdjustments)
	assert.Equal(t, 1, dto.Quarter)

	// Upsert the same quarter with a corrected amount; still one filing.
	filing.TotalTaxesAfterAdjustments = "13000.00"
	rec = doJSON(t, router, http.MethodPut, "/api/employers/emp-9/filings", "", filing)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/employers/emp-9/filings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var filings []FilingDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filings))
	require.Len(t, filings, 1)
	assert.Equal(t, "13000.00", filings[0].TotalTaxesAfterAdjustments)
}

func TestUpsertFiling_InvalidAmount(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/employers", "",
		CreateEmployerRequest{ID: "emp-9", Name: "Niner Corp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/employers/emp-9/filings", "",
		UpsertFilingRequest{Year: 2024, Quarter: 2, TotalTaxesAfterAdjustments: "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertFiling_InvalidQuarter(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/employers", "",
		CreateEmployerRequest{ID: "emp-9", Name: "Niner Corp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/employers/emp-9/filings", "",
		UpsertFilingRequest{Year: 2024, Quarter: 5, TotalTaxesAfterAdjustments: "100.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookbackHistory(t *testing.T) {
	h, router := newTestServer(t)
	seedEmployerWithQuarters(t, h, "emp-1", 2024, "9000.00")
	seedEmployerWithQuarters(t, h, "emp-1", 2025, "16000.00")

	for _, year := range []int{2024, 2025} {
		rec := doJSON(t, router, http.MethodPost, "/api/lookback/calculate", "emp-1",
			CalculateLookbackRequest{LookbackYear: year})
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("year %d", year))
	}

	rec := doJSON(t, router, http.MethodGet, "/api/employers/emp-1/lookback/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		History []*LookbackPeriodDTO `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, 2025, resp.History[0].LookbackYear)
	assert.Equal(t, 2024, resp.History[1].LookbackYear)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_ScheduleChange(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", "",
		LoadScenarioRequest{ScenarioID: "schedule-change"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/lookback/get?lookback_year=2025", "grove-staffing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GetLookbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Lookback)
	assert.True(t, resp.Lookback.ScheduleChanged)
	assert.Equal(t, "semi-weekly", resp.Lookback.DepositSchedule)
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", "",
		LoadScenarioRequest{ScenarioID: "does-not-exist"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
