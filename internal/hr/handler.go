package hr

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

// Handler exposes HR operations over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// MountRoutes registers HR routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/employees", h.listEmployees)
	r.Post("/employees", h.createEmployee)
	r.Post("/employees/{id}/attendance", h.recordAttendance)
	r.Get("/payroll", h.listPayroll)
	r.Post("/payroll/run", h.runPayroll)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		httpx.NotFound(w, err)
	case errors.Is(err, ErrPayrollExists):
		httpx.Conflict(w, err)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidMonth):
		httpx.Unprocessable(w, err)
	default:
		httpx.Internal(w)
	}
}

type createEmployeeRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Email      string          `json:"email" validate:"required,email"`
	Department string          `json:"department" validate:"max=100"`
	Position   string          `json:"position" validate:"max=100"`
	Salary     decimal.Decimal `json:"salary"`
	HiredAt    string          `json:"hired_at" validate:"required"`
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	hiredAt, err := time.Parse("2006-01-02", req.HiredAt)
	if err != nil {
		httpx.BadRequest(w, "hired_at must be YYYY-MM-DD")
		return
	}
	employee, err := h.svc.CreateEmployee(r.Context(), Employee{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		Salary:     req.Salary,
		HiredAt:    hiredAt,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, employee)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, employees)
}

type recordAttendanceRequest struct {
	Date   string `json:"date" validate:"required"`
	Status string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE HALF_DAY"`
	Note   string `json:"note" validate:"max=255"`
}

func (h *Handler) recordAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid employee id")
		return
	}
	var req recordAttendanceRequest
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
	attendance, err := h.svc.RecordAttendance(r.Context(), id, date, AttendanceStatus(req.Status), req.Note)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, attendance)
}

func monthFromQuery(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, errors.New("year is required")
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, errors.New("month is required")
	}
	return year, time.Month(month), nil
}

func (h *Handler) listPayroll(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthFromQuery(r)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	payroll, err := h.svc.ListPayroll(r.Context(), year, month)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payroll)
}

type runPayrollRequest struct {
	Year       int             `json:"year" validate:"required"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	Bonus      decimal.Decimal `json:"bonus"`
	Deductions decimal.Decimal `json:"deductions"`
}

func (h *Handler) runPayroll(w http.ResponseWriter, r *http.Request) {
	var req runPayrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	payroll, err := h.svc.RunPayroll(r.Context(), RunPayrollInput{
		Year:       req.Year,
		Month:      time.Month(req.Month),
		Bonus:      req.Bonus,
		Deductions: req.Deductions,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payroll)
}
