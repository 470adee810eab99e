package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediarent/storefront-api/internal/middleware"
	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/response"
	"github.com/mediarent/storefront-api/internal/pkg/validator"
)

// Handler handles cart HTTP requests
type Handler struct {
	service       *Service
	loginPath     string
	dashboardPath string
}

// NewHandler creates cart handler
func NewHandler(service *Service, loginPath, dashboardPath string) *Handler {
	return &Handler{service: service, loginPath: loginPath, dashboardPath: dashboardPath}
}

// Get handles GET /cart
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "get cart", err)
		return
	}
	response.OK(w, view)
}

// AddItem handles POST /cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	view, err := h.service.AddToCart(r.Context(), middleware.GetUserID(r.Context()), req.ItemID, req.Name, req.Price)
	if err != nil {
		h.handleError(w, r, "add to cart", err)
		return
	}
	response.OK(w, view)
}

// UpdateItem handles PATCH /cart/items/{itemId}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "itemId"), *req.Quantity)
	if err != nil {
		h.handleError(w, r, "update cart quantity", err)
		return
	}
	response.OK(w, view)
}

// RemoveItem handles DELETE /cart/items/{itemId}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveFromCart(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "itemId"))
	if err != nil {
		h.handleError(w, r, "remove from cart", err)
		return
	}
	response.OK(w, view)
}

// Clear handles DELETE /cart
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.handleError(w, r, "clear cart", err)
		return
	}
	response.NoContent(w)
}

// Violations handles GET /cart/violations
func (h *Handler) Violations(w http.ResponseWriter, r *http.Request) {
	violations, err := h.service.Validate(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "validate cart", err)
		return
	}
	response.OK(w, map[string]interface{}{
		"violations":  violations,
		"canCheckout": len(violations) == 0,
	})
}

// Checkout handles POST /cart/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Checkout(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, "checkout", err)
		return
	}
	response.OK(w, result)
}

// EndSession handles POST /cart/session/end. The persisted cart stays for the
// next sign-in.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.LoginRequired(w, h.loginPath)
		return
	}
	h.service.Logout(userID)
	response.NoContent(w)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var limitErr *LimitError
	var unavailableErr *UnavailableError
	var violationsErr *ViolationsError

	switch {
	case errors.Is(err, ErrUnauthenticated):
		response.LoginRequired(w, h.loginPath)
	case errors.Is(err, ErrVerificationRequired):
		response.VerificationRequired(w, h.dashboardPath)
	case errors.As(err, &limitErr):
		response.ErrorWithDetails(w, http.StatusConflict, "INVENTORY_EXCEEDED", limitErr.Error(), map[string]string{
			"itemId": limitErr.ItemID,
			"max":    strconv.Itoa(limitErr.Max),
			"have":   strconv.Itoa(limitErr.Have),
		})
	case errors.As(err, &unavailableErr):
		response.ErrorWithDetails(w, http.StatusConflict, "OUT_OF_STOCK", unavailableErr.Error(), map[string]string{
			"itemId": unavailableErr.ItemID,
		})
	case errors.As(err, &violationsErr):
		details := make(map[string]string, len(violationsErr.Violations))
		for i, v := range violationsErr.Violations {
			details[strconv.Itoa(i)] = v
		}
		response.ErrorWithDetails(w, http.StatusConflict, "CART_INVALID", "Please fix your cart before checkout", details)
	case errors.Is(err, ErrEmptyCart):
		response.BadRequest(w, "Your cart is empty")
	case errors.Is(err, ErrLineNotFound):
		response.NotFound(w, err.Error())
	default:
		errorhandler.HandleError(r.Context(), w, operation, err)
	}
}

// Routes returns cart router. Identity is optional at the router level; every
// action answers anonymous callers with a login hint.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Get("/violations", h.Violations)
	r.Post("/checkout", h.Checkout)
	r.Post("/session/end", h.EndSession)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{itemId}", h.UpdateItem)
	r.Delete("/items/{itemId}", h.RemoveItem)

	return r
}
