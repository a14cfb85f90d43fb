package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/reports"
)

// Handler wires statement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *reports.Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *reports.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers statement routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/trial-balance.csv", h.trialBalanceCSV)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/income-statement", h.incomeStatement)
	r.Get("/cash-flow", h.cashFlow)
}

const dayFormat = "2006-01-02"

func asOfFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(dayFormat, raw)
}

func rangeFromQuery(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(dayFormat, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse(dayFormat, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
	}
	return from, to, nil
}

func (h *Handler) respondStatementError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrInvalidWindow) {
		httpx.BadRequest(w, err.Error())
		return
	}
	h.logger.Error("statement build failed", "error", err)
	httpx.Internal(w)
}

func (h *Handler) buildTrialBalance(r *http.Request, asOf time.Time) (reports.TrialBalance, error) {
	result, err := singleflightBuild(r.Context(), "tb:"+asOf.Format(dayFormat), func(ctx context.Context) (any, error) {
		return h.service.TrialBalance(ctx, asOf)
	})
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return result.(reports.TrialBalance), nil
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, "as_of must be YYYY-MM-DD")
		return
	}
	tb, err := h.buildTrialBalance(r, asOf)
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) trialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, "as_of must be YYYY-MM-DD")
		return
	}
	tb, err := h.buildTrialBalance(r, asOf)
	if err != nil {
		h.respondStatementError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"code", "name", "type", "debit", "credit"})
	for _, row := range tb.Rows {
		_ = cw.Write([]string{row.Code, row.Name, string(row.Type), row.Debit.StringFixed(2), row.Credit.StringFixed(2)})
	}
	_ = cw.Write([]string{"", "TOTAL", "", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2)})
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trial-balance-`+asOf.Format(dayFormat)+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, "as_of must be YYYY-MM-DD")
		return
	}
	result, err := singleflightBuild(r.Context(), "bs:"+asOf.Format(dayFormat), func(ctx context.Context) (any, error) {
		return h.service.BalanceSheet(ctx, asOf)
	})
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	result, err := singleflightBuild(r.Context(), "is:"+from.Format(dayFormat)+":"+to.Format(dayFormat), func(ctx context.Context) (any, error) {
		return h.service.IncomeStatement(ctx, from, to)
	})
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	result, err := singleflightBuild(r.Context(), "cf:"+from.Format(dayFormat)+":"+to.Format(dayFormat), func(ctx context.Context) (any, error) {
		return h.service.CashFlow(ctx, from, to)
	})
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
