package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moneymood/internal/backup"
	"moneymood/internal/core"
	"moneymood/internal/lifestate"
	"moneymood/internal/log"
	"moneymood/internal/rates"
)

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"home":       core.HomeCurrency,
		"currencies": core.SupportedCurrencies(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": core.Categories()})
}

// handleTiers lists the life-state thresholds, lowest tier first.
func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lifestate.Levels())
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	entries, err := s.rates.Rates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	source := rates.SourceAPI
	if len(entries) > 0 {
		source = entries[0].Source
	}
	body := map[string]any{
		"base":   core.HomeCurrency,
		"source": source,
		"rates":  entries,
	}
	if lr, ok := s.rates.(interface{ LastRefresh() (time.Time, bool) }); ok {
		if at, ok := lr.LastRefresh(); ok {
			body["refreshedAt"] = at.UTC()
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type convertRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type convertResponse struct {
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	ConvertedAmount float64       `json:"convertedAmount"`
	ExchangeRate    float64       `json:"exchangeRate"`
	Source          rates.Source  `json:"source"`
	HomeCurrency    core.Currency `json:"homeCurrency"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	conv, err := s.converter.ToHome(r.Context(), req.Amount, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, _ := core.ParseCurrency(req.Currency)
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:          req.Amount,
		Currency:        string(currency),
		ConvertedAmount: conv.HomeAmount,
		ExchangeRate:    conv.Rate,
		Source:          conv.Source,
		HomeCurrency:    core.HomeCurrency,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.expenses.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.expenses.UpdateSettings(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.expenses.ResetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := s.expenses.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("moneymood-backup-%s.json", s.now().Format(time.DateOnly))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := backup.Write(w, b); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export write failed", log.FieldError, err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	b, err := backup.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.expenses.Import(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}
