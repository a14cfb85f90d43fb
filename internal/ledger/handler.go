package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes ledger operations over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// MountRoutes registers ledger routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Delete("/accounts/{id}", h.deleteAccount)
	r.Post("/accounts/{id}/deactivate", h.deactivateAccount)
	r.Get("/accounts/{id}/balance", h.accountBalance)

	r.Get("/entries", h.listEntries)
	r.Post("/entries", h.createDraft)
	r.Get("/entries/{id}", h.getEntry)
	r.Post("/entries/{id}/lines", h.addLine)
	r.Delete("/entries/{id}/lines/{lineID}", h.removeLine)
	r.Post("/entries/{id}/post", h.postDraft)

	r.Post("/fiscal-years", h.createFiscalYear)
	r.Post("/periods", h.createPeriod)
	r.Post("/periods/{id}/close", h.closePeriod)

	r.Post("/mappings", h.mapRole)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrPeriodNotFound):
		httpx.NotFound(w, err)
	case errors.Is(err, ErrAccountCodeTaken):
		httpx.Duplicate(w, err)
	case errors.Is(err, ErrAccountInUse), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrSourceAlreadyLinked), errors.Is(err, ErrRangeOverlap):
		httpx.Conflict(w, err)
	case errors.Is(err, ErrUnbalancedEntry), errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrAccountInactive), errors.Is(err, ErrInvalidWindow):
		httpx.Unprocessable(w, err)
	case errors.Is(err, ErrNoOpenPeriod), errors.Is(err, ErrRoleNotMapped):
		httpx.Unprocessable(w, err)
	default:
		httpx.Internal(w)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type createAccountRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=120"`
	Type        string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID    *int64 `json:"parent_id"`
	Description string `json:"description"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), Account{
		Code:        req.Code,
		Name:        req.Name,
		Type:        AccountType(req.Type),
		ParentID:    req.ParentID,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid account id")
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid account id")
		return
	}
	if err := h.svc.DeactivateAccount(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid account id")
		return
	}
	win, err := windowFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	balance, err := h.svc.Balance(r.Context(), id, win)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"account_id": id,
		"balance":    balance,
	})
}

func windowFromQuery(r *http.Request) (Window, error) {
	to := time.Now()
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Window{}, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Window{}, errors.New("from must be YYYY-MM-DD")
		}
		return Between(from, to)
	}
	return AsOf(to), nil
}

type lineRequest struct {
	AccountID   int64           `json:"account_id" validate:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

func (l lineRequest) toInput() LineInput {
	return LineInput{
		AccountID:   l.AccountID,
		Description: l.Description,
		Debit:       l.Debit,
		Credit:      l.Credit,
	}
}

type createDraftRequest struct {
	Date      string        `json:"date" validate:"required"`
	Memo      string        `json:"memo" validate:"required,max=255"`
	Reference string        `json:"reference" validate:"max=100"`
	CreatedBy string        `json:"created_by" validate:"required,max=100"`
	Lines     []lineRequest `json:"lines" validate:"dive"`
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	lines := make([]LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, l.toInput())
	}
	entry, err := h.svc.CreateDraft(r.Context(), DraftInput{
		Date:      date,
		Memo:      req.Memo,
		Reference: req.Reference,
		CreatedBy: req.CreatedBy,
		Lines:     lines,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid entry id")
		return
	}
	entry, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid entry id")
		return
	}
	var req lineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	entry, err := h.svc.AddLine(r.Context(), id, req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid entry id")
		return
	}
	lineID, err := pathID(r, "lineID")
	if err != nil {
		httpx.BadRequest(w, "invalid line id")
		return
	}
	entry, err := h.svc.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) postDraft(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid entry id")
		return
	}
	entry, err := h.svc.PostDraft(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type createFiscalYearRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

func (h *Handler) createFiscalYear(w http.ResponseWriter, r *http.Request) {
	var req createFiscalYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.BadRequest(w, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.BadRequest(w, "end_date must be YYYY-MM-DD")
		return
	}
	fy, err := h.svc.CreateFiscalYear(r.Context(), FiscalYear{Name: req.Name, StartDate: start, EndDate: end})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fy)
}

type createPeriodRequest struct {
	FiscalYearID int64  `json:"fiscal_year_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=50"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.BadRequest(w, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.BadRequest(w, "end_date must be YYYY-MM-DD")
		return
	}
	period, err := h.svc.CreatePeriod(r.Context(), Period{
		FiscalYearID: req.FiscalYearID,
		Name:         req.Name,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid period id")
		return
	}
	if err := h.svc.ClosePeriod(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mapRoleRequest struct {
	Role      string `json:"role" validate:"required,oneof=CASH ACCOUNTS_RECEIVABLE SALES_REVENUE"`
	AccountID int64  `json:"account_id" validate:"required"`
}

func (h *Handler) mapRole(w http.ResponseWriter, r *http.Request) {
	var req mapRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.svc.MapRole(r.Context(), Role(req.Role), req.AccountID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
