package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediarent/storefront-api/internal/middleware"
	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/events"
	"github.com/mediarent/storefront-api/internal/pkg/response"
	"github.com/mediarent/storefront-api/internal/pkg/validator"
)

// Handler serves the merged catalog.
type Handler struct {
	service *Service
	bus     events.Bus
}

func NewHandler(service *Service, bus events.Bus) *Handler {
	return &Handler{service: service, bus: bus}
}

// List handles GET /catalog/items
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, NewListResponse(h.service.Snapshot()))
}

// Availability handles GET /catalog/items/{id}/availability?quantity=N
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := h.service.Snapshot()
	if _, ok := snap.Get(id); !ok {
		response.NotFound(w, ErrItemNotFound.Error())
		return
	}

	requested := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			response.BadRequest(w, "quantity must be a positive integer")
			return
		}
		requested = n
	}

	response.OK(w, AvailabilityResponse{
		ItemID:      id,
		MaxQuantity: snap.MaxQuantity(id),
		Requested:   requested,
		Available:   snap.IsItemAvailable(id, requested),
	})
}

// Reload handles POST /catalog/reload (admin)
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, applied := h.service.Reload(r.Context())
	response.OK(w, ReloadResponse{
		Applied:    applied,
		Version:    snap.Version(),
		Items:      snap.Len(),
		Collisions: snap.Collisions(),
	})
}

// PublishEvent handles POST /catalog/events (admin)
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var req PublishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	if err := h.bus.Publish(r.Context(), events.Event{Topic: events.Topic(req.Type)}); err != nil {
		errorhandler.HandleError(r.Context(), w, "publish catalog event", err)
		return
	}
	response.Accepted(w, map[string]string{"type": req.Type})
}

// Routes returns catalog router. Browsing is public; reload and events are admin only.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/items", h.List)
	r.Get("/items/{id}/availability", h.Availability)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin())
		r.Post("/reload", h.Reload)
		r.Post("/events", h.PublishEvent)
	})

	return r
}
