package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/events"
)

// Observer is notified after every applied catalog reload.
type Observer interface {
	OnCatalogChange(ctx context.Context, snap *Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, snap *Snapshot)

func (f ObserverFunc) OnCatalogChange(ctx context.Context, snap *Snapshot) { f(ctx, snap) }

// Service owns the merged catalog snapshot.
type Service struct {
	rental      RentalSource
	inventory   InventorySource
	ids         IDGen
	settleDelay time.Duration
	now         func() time.Time

	// seq is the last issued load token. Only the load holding the latest
	// token may replace the snapshot.
	seq atomic.Uint64

	mu   sync.RWMutex
	snap *Snapshot

	obsMu     sync.RWMutex
	observers []Observer

	// notifyMu serializes observer notification so observers see versions in
	// increasing order.
	notifyMu sync.Mutex

	timerMu     sync.Mutex
	settleTimer *time.Timer
}

// NewService creates the catalog service. settleDelay is how long to wait after a
// damage report before reloading, so the source of truth can finish updating.
func NewService(rental RentalSource, inventory InventorySource, settleDelay time.Duration) *Service {
	return &Service{
		rental:      rental,
		inventory:   inventory,
		ids:         ulidGen{},
		settleDelay: settleDelay,
		now:         time.Now,
		snap:        emptySnapshot(),
	}
}

// Snapshot returns the current catalog. Never nil.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// MaxQuantity is the rentable quantity of itemID in the current catalog.
func (s *Service) MaxQuantity(itemID string) int {
	return s.Snapshot().MaxQuantity(itemID)
}

// IsItemAvailable reports whether qty units of itemID can be rented.
func (s *Service) IsItemAvailable(itemID string, qty int) bool {
	return s.Snapshot().IsItemAvailable(itemID, qty)
}

// AddObserver registers o for reload notifications.
func (s *Service) AddObserver(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// LoadAllItems reloads both sources and returns the merged list. If a newer load
// was issued meanwhile, the list of the snapshot in effect is returned instead.
func (s *Service) LoadAllItems(ctx context.Context) []Item {
	snap, _ := s.Reload(ctx)
	return snap.Items()
}

// Reload reads both sources, merges them and, unless a newer load has been
// issued in the meantime, installs the result and notifies observers. Source
// failures are logged and treated as empty. The returned flag tells whether
// this load was applied.
func (s *Service) Reload(ctx context.Context) (*Snapshot, bool) {
	token := s.seq.Add(1)

	predefined := s.readRental(ctx)
	inventory := s.readInventory(ctx)

	res := Merge(predefined, inventory)
	for _, c := range res.Collisions {
		log.Warn().
			Str("kind", string(c.Kind)).
			Str("key", c.Key).
			Str("kept", string(c.Kept)).
			Str("other", string(c.Other)).
			Bool("dropped", c.Dropped).
			Msg("Catalog collision")
	}

	s.mu.Lock()
	if token != s.seq.Load() {
		current := s.snap
		s.mu.Unlock()
		log.Debug().Uint64("token", token).Msg("Discarding stale catalog load")
		return current, false
	}
	snap := NewSnapshot(res.Items, res.Collisions, token, s.now())
	s.snap = snap
	s.mu.Unlock()

	log.Info().
		Uint64("version", token).
		Int("items", snap.Len()).
		Int("collisions", len(res.Collisions)).
		Msg("Catalog reloaded")

	s.notify(ctx, snap)
	return snap, true
}

func (s *Service) readRental(ctx context.Context) []Item {
	if s.rental == nil {
		return nil
	}
	raw, err := s.rental.GetRentalItems(ctx)
	if err != nil {
		errorhandler.LogLoadFailure(ctx, "rental_items", err)
		return nil
	}
	return s.normalize(raw, SourcePredefined)
}

func (s *Service) readInventory(ctx context.Context) []Item {
	if s.inventory == nil {
		return nil
	}
	raw, err := s.inventory.GetInventoryItems(ctx)
	if err != nil {
		errorhandler.LogLoadFailure(ctx, "inventory_items", err)
		raw = nil
	}
	if len(raw) == 0 {
		raw, err = s.inventory.GetAllInventoryItems(ctx)
		if err != nil {
			errorhandler.LogLoadFailure(ctx, "inventory_items_all", err)
			return nil
		}
	}
	return s.normalize(raw, SourceInventory)
}

func (s *Service) normalize(raw []RawItem, src Source) []Item {
	out := make([]Item, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r, src, s.ids))
	}
	return out
}

// notify hands snap to every observer unless a newer snapshot has been
// installed meanwhile. Observers must not call Reload.
func (s *Service) notify(ctx context.Context, snap *Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if current := s.Snapshot(); snap.Version() < current.Version() {
		log.Debug().
			Uint64("version", snap.Version()).
			Uint64("current", current.Version()).
			Msg("Skipping notification for superseded catalog")
		return
	}

	s.obsMu.RLock()
	obs := make([]Observer, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.RUnlock()

	for _, o := range obs {
		o.OnCatalogChange(ctx, snap)
	}
}

// Watch subscribes the service to catalog change notifications and returns the
// func that removes every subscription.
func (s *Service) Watch(bus events.Bus) (stop func()) {
	reload := func(ctx context.Context, e events.Event) {
		log.Debug().Str("topic", string(e.Topic)).Msg("Catalog change notification")
		s.Reload(context.WithoutCancel(ctx))
	}

	unsubs := []func(){
		bus.Subscribe(events.TopicInventoryUpdated, reload),
		bus.Subscribe(events.TopicRentalItemsChanged, reload),
		bus.Subscribe(events.TopicInventoryChanged, reload),
		bus.Subscribe(events.TopicDamageReportProcessed, func(ctx context.Context, e events.Event) {
			s.scheduleSettledReload(context.WithoutCancel(ctx))
		}),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
		s.timerMu.Lock()
		if s.settleTimer != nil {
			s.settleTimer.Stop()
		}
		s.timerMu.Unlock()
	}
}

// scheduleSettledReload reloads once settleDelay has passed since the last damage
// report. Reports arriving within the delay restart it.
func (s *Service) scheduleSettledReload(ctx context.Context) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleTimer = time.AfterFunc(s.settleDelay, func() {
		s.Reload(ctx)
	})
}

// Poll reloads every interval until ctx is done (call in goroutine).
func (s *Service) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reload(ctx)
		}
	}
}
