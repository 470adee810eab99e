package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/domain/catalog"
	"github.com/mediarent/storefront-api/internal/domain/realtime"
	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
)

// Catalog supplies the current catalog snapshot.
type Catalog interface {
	Snapshot() *catalog.Snapshot
}

// Notifier pushes events to a user's open connections.
type Notifier interface {
	SendToUser(userID uuid.UUID, event *realtime.Event)
}

// VerificationGate reports whether a user passed identity verification.
type VerificationGate interface {
	IsVerified(ctx context.Context, userID uuid.UUID) bool
}

// Service owns the per-user carts. Carts are cached in memory and written
// through to the store after every change.
type Service struct {
	catalog  Catalog
	store    kvstore.Store
	notifier Notifier
	gate     VerificationGate

	mu    sync.Mutex
	carts map[uuid.UUID]*Cart
}

// NewService creates cart service. notifier may be nil.
func NewService(cat Catalog, store kvstore.Store, notifier Notifier, gate VerificationGate) *Service {
	return &Service{
		catalog:  cat,
		store:    store,
		notifier: notifier,
		gate:     gate,
		carts:    make(map[uuid.UUID]*Cart),
	}
}

// Get returns the user's cart with its current violations.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

// AddToCart adds one unit of itemID. name and price fall back to the catalog
// values when empty.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, itemID, name string, price float64) (*View, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	snap := s.catalog.Snapshot()
	item, _ := snap.Get(itemID)
	if name == "" {
		name = item.Name
	}
	if price <= 0 {
		price = item.Price
	}

	max := snap.MaxQuantity(itemID)
	if max == 0 {
		if name == "" {
			name = itemID
		}
		return nil, &UnavailableError{ItemID: itemID, Name: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := c.clone()
	if l, ok := next.get(itemID); ok {
		if l.Quantity+1 > max {
			return nil, &LimitError{ItemID: itemID, Name: l.Name, Max: max, Have: l.Quantity}
		}
		l.Quantity++
		next.put(l)
	} else {
		next.put(Line{ItemID: itemID, Name: name, Quantity: 1, Price: price})
	}

	if err := s.commit(ctx, userID, c, next); err != nil {
		return nil, err
	}
	return s.view(next), nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID uuid.UUID, itemID string, qty int) (*View, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	l, ok := c.get(itemID)
	if !ok {
		return nil, ErrLineNotFound
	}

	next := c.clone()
	if qty <= 0 {
		next.remove(itemID)
	} else {
		if max := s.catalog.Snapshot().MaxQuantity(itemID); qty > max {
			return nil, &LimitError{ItemID: itemID, Name: l.Name, Max: max, Have: l.Quantity}
		}
		l.Quantity = qty
		next.put(l)
	}

	if err := s.commit(ctx, userID, c, next); err != nil {
		return nil, err
	}
	return s.view(next), nil
}

// RemoveFromCart deletes a line. Removing an absent line is not an error.
func (s *Service) RemoveFromCart(ctx context.Context, userID uuid.UUID, itemID string) (*View, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := c.clone()
	next.remove(itemID)
	if err := s.commit(ctx, userID, c, next); err != nil {
		return nil, err
	}
	return s.view(next), nil
}

// ClearCart empties the cart and deletes its persisted copy and snapshots.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx,
		kvstore.UserKey(userID, kvstore.KeyCart),
		kvstore.UserKey(userID, kvstore.KeySelectedItems),
		kvstore.UserKey(userID, kvstore.KeyCartTotal),
	); err != nil {
		// The store may have dropped some keys; rehydrate on next access.
		delete(s.carts, userID)
		return fmt.Errorf("clear cart: %w", err)
	}
	s.carts[userID] = newCart(nil)
	return nil
}

// Validate lists the lines that no longer match the catalog.
func (s *Service) Validate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Violations(c.lines, s.catalog.Snapshot()), nil
}

// Checkout re-validates the cart and makes it the active selection for
// scheduling, clearing any selected package.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if s.gate != nil && !s.gate.IsVerified(ctx, userID) {
		return nil, ErrVerificationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if violations := Violations(c.lines, s.catalog.Snapshot()); len(violations) > 0 {
		return nil, &ViolationsError{Violations: violations}
	}
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.persist(ctx, userID, c); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, kvstore.UserKey(userID, kvstore.KeySelectedPackage)); err != nil {
		return nil, fmt.Errorf("clear selected package: %w", err)
	}

	return &CheckoutResult{
		Items:    c.SelectedItems(),
		Total:    c.Total(),
		NextStep: NextStepSchedule,
	}, nil
}

// Logout forgets the in-memory cart. The persisted copy stays for the next login.
func (s *Service) Logout(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

// OnCatalogChange reconciles every cached cart with the new catalog, persists
// the changed ones and tells their owners what was adjusted.
func (s *Service) OnCatalogChange(ctx context.Context, snap *catalog.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, c := range s.carts {
		kept, adjustments := Reconcile(c.lines, snap)
		if len(adjustments) > 0 {
			next := newCart(kept)
			if err := s.commit(ctx, userID, c, next); err != nil {
				// Reconciled again from the store on next access.
				delete(s.carts, userID)
				log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to persist reconciled cart")
				continue
			}
			c = next
			s.notify(userID, &realtime.Event{Type: realtime.EventCartAdjusted, Data: adjustments})
		}

		if violations := Violations(c.lines, snap); len(violations) > 0 {
			s.notify(userID, &realtime.Event{Type: realtime.EventCartViolations, Data: violations})
		}
	}
}

// load returns the cached cart, rehydrating it from the store on first access.
// Caller holds s.mu.
func (s *Service) load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if c, ok := s.carts[userID]; ok {
		return c, nil
	}

	var stored []Line
	if _, err := kvstore.GetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeyCart), &stored); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	kept, adjustments := Reconcile(stored, s.catalog.Snapshot())
	c := newCart(kept)

	if len(adjustments) > 0 {
		log.Info().
			Str("user_id", userID.String()).
			Int("adjusted", len(adjustments)).
			Msg("Cart reconciled on load")
		if err := s.persist(ctx, userID, c); err != nil {
			return nil, err
		}
		s.notify(userID, &realtime.Event{Type: realtime.EventCartAdjusted, Data: adjustments})
	}
	s.carts[userID] = c
	return c, nil
}

// commit persists next and makes it the cached cart. On failure prev is written
// back and stays cached. Caller holds s.mu.
func (s *Service) commit(ctx context.Context, userID uuid.UUID, prev, next *Cart) error {
	if err := s.persist(ctx, userID, next); err != nil {
		if rbErr := s.persist(ctx, userID, prev); rbErr != nil {
			log.Error().Err(rbErr).Str("user_id", userID.String()).Msg("Failed to restore cart after write error")
		}
		return err
	}
	s.carts[userID] = next
	return nil
}

// persist writes the lines, the checkout snapshot and the running total.
func (s *Service) persist(ctx context.Context, userID uuid.UUID, c *Cart) error {
	if err := kvstore.SetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeyCart), c.Lines()); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	if err := kvstore.SetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeySelectedItems), c.SelectedItems()); err != nil {
		return fmt.Errorf("persist selected items: %w", err)
	}
	if err := kvstore.SetJSON(ctx, s.store, kvstore.UserKey(userID, kvstore.KeyCartTotal), c.Total()); err != nil {
		return fmt.Errorf("persist cart total: %w", err)
	}
	return nil
}

func (s *Service) notify(userID uuid.UUID, event *realtime.Event) {
	if s.notifier != nil {
		s.notifier.SendToUser(userID, event)
	}
}

func (s *Service) view(c *Cart) *View {
	return &View{
		Items:      c.Lines(),
		Total:      c.Total(),
		Count:      c.Len(),
		Violations: Violations(c.lines, s.catalog.Snapshot()),
	}
}
