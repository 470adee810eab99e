package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mediarent/storefront-api/internal/middleware"
)

func asUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var eb errorBody
	if rec.Code >= 400 {
		if err := json.Unmarshal(rec.Body.Bytes(), &eb); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
	}
	return rec, eb
}

func TestHandlerAnonymousGetsLoginHint(t *testing.T) {
	svc, _, _ := newTestService(newCatalog(pmw200))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.Nil))

	rec, eb := do(t, router, http.MethodPost, "/items", `{"itemId":"pmw-200"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if eb.Error.Details["redirect"] != "/login" {
		t.Fatalf("expected login redirect, got %v", eb.Error.Details)
	}
}

func TestHandlerAddOverLimit(t *testing.T) {
	svc, _, _ := newTestService(newCatalog(pmw200))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.New()))

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, router, http.MethodPost, "/items", `{"itemId":"pmw-200"}`); rec.Code != http.StatusOK {
			t.Fatalf("add %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec, eb := do(t, router, http.MethodPost, "/items", `{"itemId":"pmw-200"}`)
	if rec.Code != http.StatusConflict || eb.Error.Code != "INVENTORY_EXCEEDED" {
		t.Fatalf("expected 409 INVENTORY_EXCEEDED, got %d %s", rec.Code, eb.Error.Code)
	}
	if eb.Error.Details["max"] != "2" || eb.Error.Details["have"] != "2" {
		t.Fatalf("unexpected details %v", eb.Error.Details)
	}
}

func TestHandlerValidation(t *testing.T) {
	svc, _, _ := newTestService(newCatalog(pmw200))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.New()))

	rec, eb := do(t, router, http.MethodPost, "/items", `{"price":10}`)
	if rec.Code != http.StatusUnprocessableEntity || eb.Error.Details["itemId"] == "" {
		t.Fatalf("expected itemId validation error, got %d %v", rec.Code, eb.Error.Details)
	}

	rec, _ = do(t, router, http.MethodPatch, "/items/pmw-200", `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing quantity, got %d", rec.Code)
	}

	rec, _ = do(t, router, http.MethodPost, "/items", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerCheckoutUnverified(t *testing.T) {
	svc := NewService(newCatalog(pmw200), nil, nil, fixedGate(false))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.New()))

	rec, eb := do(t, router, http.MethodPost, "/checkout", "")
	if rec.Code != http.StatusForbidden || eb.Error.Code != "VERIFICATION_REQUIRED" {
		t.Fatalf("expected 403 VERIFICATION_REQUIRED, got %d %s", rec.Code, eb.Error.Code)
	}
	if eb.Error.Details["redirect"] != "/dashboard" {
		t.Fatalf("expected dashboard redirect, got %v", eb.Error.Details)
	}
}

func TestHandlerRemoveAndClear(t *testing.T) {
	svc, _, _ := newTestService(newCatalog(pmw200, tripod))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.New()))

	do(t, router, http.MethodPost, "/items", `{"itemId":"pmw-200"}`)
	do(t, router, http.MethodPost, "/items", `{"itemId":"sach-18"}`)

	rec, _ := do(t, router, http.MethodDelete, "/items/pmw-200", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data View `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Data.Count != 1 || env.Data.Items[0].ItemID != "sach-18" {
		t.Fatalf("unexpected cart %+v", env.Data)
	}

	rec, _ = do(t, router, http.MethodDelete, "/", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestHandlerEndSessionKeepsPersistedCart(t *testing.T) {
	svc, _, _ := newTestService(newCatalog(pmw200))
	router := NewHandler(svc, "/login", "/dashboard").Routes(asUser(uuid.New()))

	do(t, router, http.MethodPost, "/items", `{"itemId":"pmw-200"}`)

	if rec, _ := do(t, router, http.MethodPost, "/session/end", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec, _ := do(t, router, http.MethodGet, "/", "")
	var env struct {
		Data View `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Data.Count != 1 {
		t.Fatalf("expected cart to be restored from the store, got %+v", env.Data)
	}
}
