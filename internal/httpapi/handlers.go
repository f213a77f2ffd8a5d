package httpapi

import (
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kakutei/tax-calculator/internal/config"
	"github.com/kakutei/tax-calculator/internal/domain"
)

// readBody enforces the JSON content type and the body size limit. It writes
// the error response itself and reports whether the caller may go on.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if !requireJSON(w, r) {
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, http.StatusRequestEntityTooLarge, "request body too large", "body_too_large")
		return nil, false
	}
	return body, true
}

// readConfiguration decodes, normalizes and validates a request body.
func (s *Server) readConfiguration(w http.ResponseWriter, body []byte) (*domain.Configuration, bool) {
	cfg, err := s.parser.Decode(body, config.FormatJSON)
	if err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return nil, false
	}
	s.parser.Normalize(cfg)
	if err := s.parser.ValidateConfiguration(cfg); err != nil {
		writeMappedErr(w, err)
		return nil, false
	}
	return cfg, true
}

// cached answers from the result cache. X-Cache tells clients which path served them.
func (s *Server) cached(w http.ResponseWriter, kind, key string) bool {
	v, hit := s.cache.get(kind, key)
	if !hit {
		w.Header().Set("X-Cache", "MISS")
		return false
	}
	w.Header().Set("X-Cache", "HIT")
	toJSON(w, http.StatusOK, v)
	return true
}

// calculate handles POST /v1/calculate. The body is a tax return, or a
// configuration whose tax_return is computed; scenarios are ignored.
func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	key := cacheKey("single", body)
	if s.cached(w, "single", key) {
		return
	}
	cfg, ok := s.readConfiguration(w, body)
	if !ok {
		return
	}
	ce, err := s.engineFor(cfg.TaxRules)
	if err != nil {
		writeMappedErr(w, err)
		return
	}

	result, err := ce.CalculateAllTaxes(&cfg.TaxReturn)
	observeCalculation("single", err)
	if err != nil {
		s.log.Warn("calculation failed", "req_id", chimw.GetReqID(r.Context()), "err", err)
		writeMappedErr(w, err)
		return
	}
	s.cache.set(key, result)
	toJSON(w, http.StatusOK, result)
}

// scenarios handles POST /v1/scenarios with a configuration body.
func (s *Server) scenarios(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	key := cacheKey("scenarios", body)
	if s.cached(w, "scenarios", key) {
		return
	}
	cfg, ok := s.readConfiguration(w, body)
	if !ok {
		return
	}
	ce, err := s.engineFor(cfg.TaxRules)
	if err != nil {
		writeMappedErr(w, err)
		return
	}

	scenariosPerRequest.Observe(float64(len(cfg.Scenarios)))
	cmp, err := ce.RunScenarios(r.Context(), cfg)
	observeCalculation("scenarios", err)
	if err != nil {
		s.log.Warn("scenario run failed", "req_id", chimw.GetReqID(r.Context()), "err", err)
		writeMappedErr(w, err)
		return
	}
	s.cache.set(key, cmp)
	toJSON(w, http.StatusOK, cmp)
}

type categoryItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type categoriesResponse struct {
	Income  []categoryItem `json:"income"`
	Expense []categoryItem `json:"expense"`
}

// categories lists the accepted category vocabulary.
func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	var resp categoriesResponse
	for _, c := range domain.IncomeCategories() {
		resp.Income = append(resp.Income, categoryItem{Key: c.String(), Label: c.Label()})
	}
	for _, c := range domain.ExpenseCategories() {
		resp.Expense = append(resp.Expense, categoryItem{Key: c.String(), Label: c.Label()})
	}
	toJSON(w, http.StatusOK, resp)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
