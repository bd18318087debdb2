package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"moneymood/internal/core"
	"moneymood/internal/ledger"
	"moneymood/internal/lifestate"
	"moneymood/internal/services"
)

// expenseRequest is the create body. amount may be a JSON number or the raw
// text typed into the form.
type expenseRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
	Category core.Category   `json:"category"`
	Memo     string          `json:"memo"`
	Date     string          `json:"date"`
}

type expenseUpdateRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Currency *string         `json:"currency"`
	Category *core.Category  `json:"category"`
	Memo     *string         `json:"memo"`
	Date     *string         `json:"date"`
}

type summaryResponse struct {
	ledger.Summary
	Month  string           `json:"month,omitempty"`
	Status lifestate.Status `json:"status"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if month != "" {
		writeJSON(w, http.StatusOK, s.expenses.ExpensesByMonth(month))
		return
	}
	writeJSON(w, http.StatusOK, s.expenses.ListExpenses())
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := services.NewExpense{
		Currency: req.Currency,
		Category: core.Category(sanitizeInput(string(req.Category))),
		Memo:     sanitizeInput(req.Memo),
		Date:     core.Today(s.now()),
	}
	amount, text, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.Amount, in.AmountText = amount, text
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Date = d
	}

	e, err := s.expenses.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// parseAmountField accepts a number or a string. A string is returned as text
// for the form rules (half-width digits, at most two decimals).
func parseAmountField(raw json.RawMessage) (float64, string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, "", core.NewError(core.KindValidation, "amount is required")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, "", core.WrapError(core.KindInvalidInput, "amount must be a number or a string", err)
		}
		if strings.TrimSpace(text) == "" {
			return 0, "", core.NewError(core.KindValidation, "amount is required")
		}
		return 0, text, nil
	}
	amount, err := strconv.ParseFloat(string(raw), 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, "", core.WrapError(core.KindValidation, "amount must be a finite number", err)
	}
	if err != nil {
		return 0, "", core.WrapError(core.KindInvalidInput, "amount must be a number or a string", err)
	}
	return amount, "", nil
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	upd := services.ExpenseUpdate{
		Currency: req.Currency,
		Category: req.Category,
	}
	if len(req.Amount) > 0 && string(req.Amount) != "null" {
		amount, text, err := parseAmountField(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if text != "" {
			upd.AmountText = text
		} else {
			upd.Amount = &amount
		}
	}
	if req.Memo != nil {
		memo := sanitizeInput(*req.Memo)
		upd.Memo = &memo
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.Date = &d
	}

	e, err := s.expenses.UpdateExpense(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.ClearExpenses(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary aggregates all expenses or one month, and evaluates the life
// state of that total.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum := s.expenses.Summary(month)
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: sum,
		Month:   month,
		Status:  lifestate.Evaluate(sum.Total),
	})
}

func (s *Server) handleLifeState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.expenses.LifeState())
}

// monthParam reads ?month=YYYY-MM. An absent parameter is not an error.
func monthParam(r *http.Request) (string, error) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return "", core.WrapError(core.KindInvalidInput, "month must be YYYY-MM", err)
	}
	return month, nil
}
