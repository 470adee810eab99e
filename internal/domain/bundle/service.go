package bundle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/domain/catalog"
	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
)

const NextStepSchedule = "schedule"

// Catalog supplies the current catalog snapshot.
type Catalog interface {
	Snapshot() *catalog.Snapshot
}

// VerificationGate reports whether a user passed identity verification.
type VerificationGate interface {
	IsVerified(ctx context.Context, userID uuid.UUID) bool
}

// Service serves the static package list and records the active package.
type Service struct {
	packages []Package
	byID     map[string]int
	catalog  Catalog
	store    kvstore.Store
	gate     VerificationGate
	now      func() time.Time
}

// NewService creates package service
func NewService(packages []Package, cat Catalog, store kvstore.Store, gate VerificationGate) *Service {
	byID := make(map[string]int, len(packages))
	for i, p := range packages {
		byID[p.ID] = i
	}
	return &Service{
		packages: packages,
		byID:     byID,
		catalog:  cat,
		store:    store,
		gate:     gate,
		now:      time.Now,
	}
}

// List returns every package with its availability against the current catalog.
func (s *Service) List() []PackageView {
	snap := s.catalog.Snapshot()
	out := make([]PackageView, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, PackageView{Package: p, Availability: GetPackageAvailability(p, snap)})
	}
	return out
}

// Get returns one package with its availability.
func (s *Service) Get(id string) (*PackageView, error) {
	p, ok := s.lookup(id)
	if !ok {
		return nil, ErrPackageNotFound
	}
	return &PackageView{Package: p, Availability: GetPackageAvailability(p, s.catalog.Snapshot())}, nil
}

// SelectPackage makes the package the sole active selection. The item cart
// snapshot is cleared.
func (s *Service) SelectPackage(ctx context.Context, userID uuid.UUID, id string) (*Selection, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, ok := s.lookup(id)
	if !ok {
		return nil, ErrPackageNotFound
	}

	if avail := GetPackageAvailability(p, s.catalog.Snapshot()); !avail.IsAvailable {
		return nil, &UnavailableError{Package: p.Name, Items: avail.UnavailableItems}
	}
	return s.persistSelection(ctx, userID, p)
}

// ProceedToSchedule checks identity and re-checks availability right before the
// user moves on to picking dates.
func (s *Service) ProceedToSchedule(ctx context.Context, userID uuid.UUID, id string) (*ProceedResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, ok := s.lookup(id)
	if !ok {
		return nil, ErrPackageNotFound
	}
	if s.gate != nil && !s.gate.IsVerified(ctx, userID) {
		return nil, ErrVerificationRequired
	}

	if avail := GetPackageAvailability(p, s.catalog.Snapshot()); !avail.IsAvailable {
		log.Info().
			Str("user_id", userID.String()).
			Str("package_id", p.ID).
			Int("unavailable", len(avail.UnavailableItems)).
			Msg("Package availability changed before scheduling")
		return nil, &UnavailableError{Package: p.Name, Items: avail.UnavailableItems, Changed: true}
	}

	sel, err := s.persistSelection(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &ProceedResult{Selection: *sel, NextStep: NextStepSchedule}, nil
}

// Selected returns the user's active package, or nil.
func (s *Service) Selected(ctx context.Context, userID uuid.UUID) (*Selection, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var sel Selection
	ok, err := kvstore.GetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeySelectedPackage), &sel)
	if err != nil || !ok {
		return nil, err
	}
	return &sel, nil
}

func (s *Service) persistSelection(ctx context.Context, userID uuid.UUID, p Package) (*Selection, error) {
	sel := &Selection{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Items:      p.Items,
		SelectedAt: s.now().UTC(),
	}
	itemsKey := kvstore.UserKey(userID, kvstore.KeySelectedItems)

	// The item selection is dropped first so a failed write never leaves two
	// active selections; it is put back if the package cannot be stored.
	previous, err := s.store.Get(ctx, itemsKey)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("read selected items: %w", err)
	}
	if err := s.store.Delete(ctx, itemsKey); err != nil {
		return nil, fmt.Errorf("clear selected items: %w", err)
	}
	if err := kvstore.SetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeySelectedPackage), sel); err != nil {
		if previous != nil {
			if rbErr := s.store.Set(ctx, itemsKey, previous); rbErr != nil {
				log.Error().Err(rbErr).Str("user_id", userID.String()).Msg("Failed to restore selected items")
			}
		}
		return nil, fmt.Errorf("persist selected package: %w", err)
	}
	return sel, nil
}

func (s *Service) lookup(id string) (Package, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Package{}, false
	}
	return s.packages[i], true
}

// ItemAvailability is the part of the catalog package checks need.
type ItemAvailability interface {
	IsItemAvailable(id string, qty int) bool
}

// GetPackageAvailability checks every member at its required quantity.
// UnavailableItems is exactly the failing subset, in package order.
func GetPackageAvailability(p Package, avail ItemAvailability) AvailabilityResult {
	res := AvailabilityResult{IsAvailable: true, UnavailableItems: make([]Item, 0)}
	for _, it := range p.Items {
		if !avail.IsItemAvailable(it.ID, it.Quantity) {
			res.IsAvailable = false
			res.UnavailableItems = append(res.UnavailableItems, it)
		}
	}
	return res
}
