package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func setup(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	ce := calculation.NewCalculationEngine()
	ce.SetLogger(calculation.NewSlogLogger(testLogger()))
	return New(ce, testLogger(), opts...).Handler()
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const salaryReturnJSON = `{
  "tax_settings": {"tax_year": 2024, "filing_type": "white"},
  "deductions": {"basic_deduction": true},
  "transactions": [
    {"id": "s1", "date": "2024-12-25", "type": "income", "category": "salary", "amount": 3000000, "description": "給与"}
  ]
}`

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPostCalculate(t *testing.T) {
	h := setup(t)

	rr := do(t, h, http.MethodPost, "/v1/calculate", "application/json; charset=utf-8", salaryReturnJSON)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got struct {
		TotalTax          string    `json:"total_tax"`
		IncomeTax         string    `json:"income_tax"`
		ReconstructionTax string    `json:"reconstruction_tax"`
		ResidentTax       string    `json:"resident_tax"`
		TaxDue            string    `json:"tax_due"`
		Quarterly         [4]string `json:"estimated_quarterly_tax"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "153633", got.TotalTax)
	assert.Equal(t, "49200", got.IncomeTax)
	assert.Equal(t, "1033", got.ReconstructionTax)
	assert.Equal(t, "103400", got.ResidentTax)
	assert.Equal(t, "153633", got.TaxDue)
	assert.Equal(t, "12300", got.Quarterly[0])
}

func TestPostCalculate_Errors(t *testing.T) {
	h := setup(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{"not json", "application/json", `{"tax_settings": `, http.StatusBadRequest, "bad_request"},
		{"wrong content type", "text/plain", salaryReturnJSON, http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"unknown filing type", "application/json", `{"tax_settings": {"tax_year": 2024, "filing_type": "green"}}`, http.StatusBadRequest, "bad_request"},
		{"unknown category", "application/json",
			strings.Replace(salaryReturnJSON, `"category": "salary"`, `"category": "lottery"`, 1),
			http.StatusUnprocessableEntity, "unknown_category"},
		{"negative amount", "application/json",
			strings.Replace(salaryReturnJSON, `"amount": 3000000`, `"amount": -1`, 1),
			http.StatusUnprocessableEntity, "negative_amount"},
		{"missing tax year", "application/json", `{"transactions": []}`, http.StatusUnprocessableEntity, "validation_error"},
		{"bad rule table", "application/json",
			`{"tax_return": ` + salaryReturnJSON + `, "tax_rules": {"income_tax_brackets": [{"up_to": 100, "rate": 0.1}]}}`,
			http.StatusUnprocessableEntity, "invalid_brackets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/calculate", tt.contentType, tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			var e errResp
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
			assert.Equal(t, tt.wantCode, e.Code)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestPostCalculate_WithRules(t *testing.T) {
	h := setup(t)
	body := `{"tax_return": ` + salaryReturnJSON + `, "tax_rules": {"income_tax_brackets": [{"rate": "0.1", "offset": 0}]}}`

	rr := do(t, h, http.MethodPost, "/v1/calculate", "application/json", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got struct {
		IncomeTax string `json:"income_tax"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "98400", got.IncomeTax)
}

func TestPostScenarios(t *testing.T) {
	h := setup(t)
	body := `{
  "tax_return": ` + salaryReturnJSON + `,
  "scenarios": [
    {"name": "life insurance", "deductions": {"basic_deduction": true, "life_insurance_premium": 60000}},
    {"name": "no basic deduction", "deductions": {}}
  ]
}`
	rr := do(t, h, http.MethodPost, "/v1/scenarios", "application/json", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got struct {
		Baseline struct {
			TotalTax string `json:"total_tax"`
		} `json:"baseline"`
		Scenarios []struct {
			Name          string `json:"name"`
			TotalTaxDelta string `json:"total_tax_delta"`
		} `json:"scenarios"`
		LowestTaxScenario string `json:"lowest_tax_scenario"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "153633", got.Baseline.TotalTax)
	require.Len(t, got.Scenarios, 2)
	assert.Equal(t, "life insurance", got.Scenarios[0].Name)
	assert.Equal(t, "-5287", got.Scenarios[0].TotalTaxDelta)
	assert.Equal(t, "72504", got.Scenarios[1].TotalTaxDelta)
	assert.Equal(t, "life insurance", got.LowestTaxScenario)
}

func TestPostScenarios_UnnamedScenario(t *testing.T) {
	h := setup(t)
	body := `{"tax_return": ` + salaryReturnJSON + `, "scenarios": [{"filing_type": "blue"}]}`
	rr := do(t, h, http.MethodPost, "/v1/scenarios", "application/json", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCategories(t *testing.T) {
	h := setup(t)
	rr := do(t, h, http.MethodGet, "/v1/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got categoriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Income, 8)
	assert.Equal(t, categoryItem{Key: "salary", Label: "給与所得"}, got.Income[0])
	assert.Len(t, got.Expense, 14)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := setup(t)

	rr := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	do(t, h, http.MethodPost, "/v1/calculate", "application/json", salaryReturnJSON)

	rr = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "taxcalc_http_requests_total")
	assert.Contains(t, body, `route="/v1/calculate"`)
	assert.Contains(t, body, "taxcalc_calculations_total")
}

func TestRequestIDHeaderPassthrough(t *testing.T) {
	h := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := setup(t)
	rr := do(t, h, http.MethodGet, "/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResultCache(t *testing.T) {
	h := setup(t)

	first := do(t, h, http.MethodPost, "/v1/calculate", "application/json", salaryReturnJSON)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(t, h, http.MethodPost, "/v1/calculate", "application/json", salaryReturnJSON)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// same body on another endpoint is a different entry
	other := do(t, h, http.MethodPost, "/v1/scenarios", "application/json", salaryReturnJSON)
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
}

func TestResultCache_Disabled(t *testing.T) {
	h := setup(t, WithResultCache(0))
	for i := 0; i < 2; i++ {
		rr := do(t, h, http.MethodPost, "/v1/calculate", "application/json", salaryReturnJSON)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	}
}

func TestResultCache_ErrorsAreNotCached(t *testing.T) {
	h := setup(t)
	body := strings.Replace(salaryReturnJSON, `"amount": 3000000`, `"amount": -1`, 1)
	for i := 0; i < 2; i++ {
		rr := do(t, h, http.MethodPost, "/v1/calculate", "application/json", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	}
}

func TestRateLimit(t *testing.T) {
	h := setup(t, WithRateLimit(rate.Every(time.Hour), 2))

	for i := 0; i < 2; i++ {
		rr := do(t, h, http.MethodGet, "/v1/categories", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/v1/categories", "", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	var e errResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "rate_limited", e.Code)

	// health and metrics stay reachable
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", "").Code)
}
