package projects

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

// Handler exposes project operations over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// MountRoutes registers project routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listProjects)
	r.Post("/", h.createProject)
	r.Get("/{id}", h.getProject)
	r.Get("/{id}/sales", h.getSales)
	r.Post("/{id}/sales/close", h.closeSales)
	r.Get("/{id}/payments", h.listPayments)
	r.Post("/{id}/payments", h.recordPayment)
	r.Patch("/payments/{paymentID}/status", h.updatePaymentStatus)
	r.Delete("/payments/{paymentID}", h.deletePayment)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound), errors.Is(err, ErrSalesNotFound), errors.Is(err, ErrPaymentNotFound):
		httpx.NotFound(w, err)
	case errors.Is(err, ErrSalesClosed):
		httpx.Conflict(w, err)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidStatus):
		httpx.Unprocessable(w, err)
	default:
		httpx.Internal(w)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type createProjectRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Client      string          `json:"client" validate:"required,max=200"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   string          `json:"start_date" validate:"required"`
	Description string          `json:"description"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
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
	project, err := h.svc.CreateProject(r.Context(), CreateProjectInput{
		Name:        req.Name,
		Client:      req.Client,
		Budget:      req.Budget,
		StartDate:   start,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid project id")
		return
	}
	project, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) getSales(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid project id")
		return
	}
	sales, err := h.svc.GetSales(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) closeSales(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid project id")
		return
	}
	sales, err := h.svc.CloseSales(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid project id")
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

type recordPaymentRequest struct {
	AmountOriginal decimal.Decimal `json:"amount_original"`
	Fees           decimal.Decimal `json:"fees"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	Status         string          `json:"status" validate:"required,oneof=PENDING TRANSFERRED RECONCILED FAILED"`
	PaidAt         string          `json:"paid_at" validate:"required"`
	Reference      string          `json:"reference" validate:"max=100"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "invalid project id")
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	paidAt, err := time.Parse("2006-01-02", req.PaidAt)
	if err != nil {
		httpx.BadRequest(w, "paid_at must be YYYY-MM-DD")
		return
	}
	payment, err := h.svc.RecordPayment(r.Context(), RecordPaymentInput{
		ProjectID:      id,
		AmountOriginal: req.AmountOriginal,
		Fees:           req.Fees,
		ConversionRate: req.ConversionRate,
		Status:         PaymentStatus(req.Status),
		PaidAt:         paidAt,
		Reference:      req.Reference,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

type updatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING TRANSFERRED RECONCILED FAILED"`
}

func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		httpx.BadRequest(w, "invalid payment id")
		return
	}
	var req updatePaymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	payment, err := h.svc.UpdatePaymentStatus(r.Context(), id, PaymentStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		httpx.BadRequest(w, "invalid payment id")
		return
	}
	if err := h.svc.DeletePayment(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
