package bundle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mediarent/storefront-api/internal/middleware"
	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/response"
)

// Handler handles package HTTP requests
type Handler struct {
	service       *Service
	loginPath     string
	dashboardPath string
}

// NewHandler creates package handler
func NewHandler(service *Service, loginPath, dashboardPath string) *Handler {
	return &Handler{service: service, loginPath: loginPath, dashboardPath: dashboardPath}
}

// List handles GET /packages
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.List())
}

// Get handles GET /packages/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "get package", err)
		return
	}
	response.OK(w, view)
}

// Selected handles GET /packages/selected. Data is null when no package is active.
func (h *Handler) Selected(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.Selected(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "get selected package", err)
		return
	}
	response.OK(w, sel)
}

// Select handles POST /packages/{id}/select
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.SelectPackage(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "select package", err)
		return
	}
	response.OK(w, sel)
}

// Schedule handles POST /packages/{id}/schedule
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ProceedToSchedule(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "proceed to schedule", err)
		return
	}
	response.OK(w, result)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var unavailableErr *UnavailableError

	switch {
	case errors.Is(err, ErrPackageNotFound):
		response.NotFound(w, "Package not found")
	case errors.Is(err, ErrUnauthenticated):
		response.LoginRequired(w, h.loginPath)
	case errors.Is(err, ErrVerificationRequired):
		response.VerificationRequired(w, h.dashboardPath)
	case errors.As(err, &unavailableErr):
		ids := make([]string, 0, len(unavailableErr.Items))
		for _, it := range unavailableErr.Items {
			ids = append(ids, it.ID)
		}
		code := "PACKAGE_UNAVAILABLE"
		if unavailableErr.Changed {
			code = "AVAILABILITY_CHANGED"
		}
		response.ErrorWithDetails(w, http.StatusConflict, code, unavailableErr.Error(), map[string]string{
			"unavailableItems": strings.Join(ids, ","),
		})
	default:
		errorhandler.HandleError(r.Context(), w, operation, err)
	}
}

// Routes returns package router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/selected", h.Selected)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/select", h.Select)
	r.Post("/{id}/schedule", h.Schedule)

	return r
}
