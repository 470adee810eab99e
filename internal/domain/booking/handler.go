package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediarent/storefront-api/internal/middleware"
	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/response"
	"github.com/mediarent/storefront-api/internal/pkg/validator"
)

// Handler handles schedule HTTP requests
type Handler struct {
	calendar  *Calendar
	loginPath string
}

// NewHandler creates schedule handler
func NewHandler(calendar *Calendar, loginPath string) *Handler {
	return &Handler{calendar: calendar, loginPath: loginPath}
}

// Get handles GET /schedule
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sel, err := h.calendar.Selection(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "get schedule", err)
		return
	}
	response.OK(w, sel)
}

// BookedDates handles GET /schedule/booked-dates
func (h *Handler) BookedDates(w http.ResponseWriter, r *http.Request) {
	booked, _ := h.calendar.LoadBookings(r.Context())
	response.OK(w, BookedDatesResponse{Dates: booked.Sorted()})
}

// Calendar handles GET /schedule/calendar?year=&month=
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.calendar.clock.Now()
	q := MonthQuery{Year: now.Year(), Month: int(now.Month())}

	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "year must be a number")
			return
		}
		q.Year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "month must be a number")
			return
		}
		q.Month = n
	}
	if errs := validator.Validate(&q); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	view, err := h.calendar.Month(r.Context(), middleware.GetUserID(r.Context()), q.Year, time.Month(q.Month))
	if err != nil {
		h.handleError(w, r, "calendar month", err)
		return
	}
	response.OK(w, view)
}

// Click handles POST /schedule/click
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req DateClickRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	sel, err := h.calendar.HandleDateClick(r.Context(), middleware.GetUserID(r.Context()), req.Date)
	if err != nil {
		h.handleError(w, r, "date click", err)
		return
	}
	response.OK(w, sel)
}

// Next handles POST /schedule/next
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	result, err := h.calendar.HandleNext(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "schedule next", err)
		return
	}
	response.OK(w, result)
}

// Reset handles DELETE /schedule
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sel, err := h.calendar.ResetSelection(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "reset schedule", err)
		return
	}
	response.OK(w, sel)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var conflictErr *ConflictError
	var dateErr *DateError

	switch {
	case errors.Is(err, ErrUnauthenticated):
		response.LoginRequired(w, h.loginPath)
	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(w, http.StatusConflict, "DATE_CONFLICT", conflictErr.Error(), map[string]string{
			"date": conflictErr.Date,
		})
	case errors.As(err, &dateErr):
		switch {
		case errors.Is(err, ErrDateBooked):
			response.ErrorWithDetails(w, http.StatusConflict, "DATE_BOOKED", "This date is already booked", map[string]string{"date": dateErr.Date})
		case errors.Is(err, ErrPastDate):
			response.ErrorWithDetails(w, http.StatusUnprocessableEntity, "PAST_DATE", "You cannot select a date in the past", map[string]string{"date": dateErr.Date})
		default:
			response.ValidationError(w, map[string]string{"date": "Invalid date. Expected YYYY-MM-DD"})
		}
	case errors.Is(err, ErrNoSelection):
		response.Error(w, http.StatusUnprocessableEntity, "NO_SELECTION", "Please add items to your cart or choose a package first")
	case errors.Is(err, ErrIncompleteRange), errors.Is(err, ErrInvalidRange), errors.Is(err, ErrStartInPast):
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_RANGE", err.Error())
	default:
		errorhandler.HandleError(r.Context(), w, operation, err)
	}
}

// Routes returns schedule router. next is wrapped in gate, which requires
// identity verification before dates can be handed on.
func (h *Handler) Routes(authMiddleware, gate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)
	r.Delete("/", h.Reset)
	r.Get("/booked-dates", h.BookedDates)
	r.Get("/calendar", h.Calendar)
	r.Post("/click", h.Click)
	r.With(gate).Post("/next", h.Next)

	return r
}
