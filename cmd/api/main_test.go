package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediarent/storefront-api/internal/config"
	"github.com/mediarent/storefront-api/internal/domain/booking"
	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
	"github.com/mediarent/storefront-api/internal/pkg/storage"
)

type stubRoutes struct{}

func (stubRoutes) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(authMiddleware).Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestMountStorefrontRoutes(t *testing.T) {
	root := chi.NewRouter()
	pass := func(next http.Handler) http.Handler { return next }

	calendar := booking.NewCalendar(nil, kvstore.NewMemoryStore())
	h := storefrontHandlers{
		catalog:  stubRoutes{},
		cart:     stubRoutes{},
		packages: stubRoutes{},
		schedule: booking.NewHandler(calendar, "/login"),
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("mounting storefront routes panicked: %v", rec)
			}
		}()
		mountStorefrontRoutes(root, h, pass, pass, pass)
	}()

	for _, path := range []string{"/catalog/", "/cart/", "/packages/", "/schedule/booked-dates"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
		})
	}
}

func TestNewSessionStoreWithoutRedis(t *testing.T) {
	if _, ok := newSessionStore(nil, time.Hour).(*kvstore.MemoryStore); !ok {
		t.Fatal("expected in-memory store when Redis is not configured")
	}
}

func TestNewCatalogStorageLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rental-items.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := newCatalogStorage(&config.Config{CatalogStorage: "local", CatalogLocalPath: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*storage.LocalStorage); !ok {
		t.Fatalf("expected local storage, got %T", s)
	}
}

func TestLoadPackagesDefault(t *testing.T) {
	packages, err := loadPackages("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(packages) == 0 {
		t.Fatal("expected embedded packages")
	}
}
