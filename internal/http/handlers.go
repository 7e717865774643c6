package http

import (
	"net/http"

	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/report"
	"finreport/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

// handleReady reports ready once the transaction source can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Loader.Load(r.Context(), nil); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		writeError(w, r, http.StatusServiceUnavailable, "transaction source unavailable")
		return
	}
	writeRaw(w, http.StatusOK, []byte(`{"status":"ready"}`))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	asOf, err := ParseReferenceDate(r.URL.Query(), s.now())
	if err != nil {
		writeFailure(w, r, log.OpHome, err)
		return
	}
	doc, err := s.deps.Home.Build(r.Context(), asOf)
	if err != nil {
		writeFailure(w, r, log.OpHome, err)
		return
	}
	writeRaw(w, http.StatusOK, []byte(doc))
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := ParseCategory(q)
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}
	asOf, err := ParseOptionalDate(q)
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}
	save, err := ParseBool(q, "save")
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}

	table, err := s.deps.Loader.Load(r.Context(), nil)
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}
	compute := func() (*core.Table, error) {
		return services.SpendingByCategory(table, category, asOf, s.now())
	}

	var result *core.Table
	if save && s.deps.Reports != nil {
		result, err = report.Persisted(r.Context(), s.deps.Reports, log.OpSpending, "", compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}

	body, err := report.Encode(result)
	if err != nil {
		writeFailure(w, r, log.OpSpending, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Spending report served",
		log.FieldOperation, log.OpSpending, log.FieldCategory, category, log.FieldRows, result.Len(), "saved", save)
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handleCashback(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeFailure(w, r, log.OpCashback, err)
		return
	}
	table, err := s.deps.Loader.Load(r.Context(), nil)
	if err != nil {
		writeFailure(w, r, log.OpCashback, err)
		return
	}
	doc, err := services.CashbackByCategory(table, params.Year, params.Month)
	if err != nil {
		writeFailure(w, r, log.OpCashback, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Cashback report served",
		log.FieldOperation, log.OpCashback, log.FieldYear, params.Year, log.FieldMonth, int(params.Month))
	writeRaw(w, http.StatusOK, []byte(doc))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, r, http.StatusServiceUnavailable, "quote history is disabled: set SNAPSHOT_DB_PATH")
		return
	}
	filter, err := ParseHistoryFilter(r.URL.Query())
	if err != nil {
		writeFailure(w, r, log.OpHistory, err)
		return
	}
	snaps, err := s.deps.History.History(r.Context(), filter)
	if err != nil {
		writeFailure(w, r, log.OpHistory, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snaps)
}
