package catalog

import (
	"time"

	"github.com/rs/zerolog/log"
)

// AvailableForRent is available minus reserved, never below zero.
func AvailableForRent(it Item) int {
	n := it.AvailableQuantity - it.ReservedQuantity
	if n < 0 {
		return 0
	}
	return n
}

// Snapshot is an immutable view of the merged catalog at one point in time.
type Snapshot struct {
	items      []Item
	byID       map[string]int
	collisions []Collision
	version    uint64
	loadedAt   time.Time
}

// NewSnapshot indexes items. Ids are expected to be unique (see Merge).
func NewSnapshot(items []Item, collisions []Collision, version uint64, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		items:      items,
		byID:       make(map[string]int, len(items)),
		collisions: collisions,
		version:    version,
		loadedAt:   loadedAt,
	}
	for i, it := range items {
		if _, dup := s.byID[it.ID]; !dup {
			s.byID[it.ID] = i
		}
	}
	return s
}

func emptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil, 0, time.Time{})
}

// Items returns a copy of the merged list.
func (s *Snapshot) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Snapshot) Collisions() []Collision {
	out := make([]Collision, len(s.collisions))
	copy(out, s.collisions)
	return out
}

func (s *Snapshot) Version() uint64     { return s.version }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
func (s *Snapshot) Len() int            { return len(s.items) }

// Get looks an item up by id.
func (s *Snapshot) Get(id string) (Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// MaxQuantity is the number of units of id that can still be rented.
// Unknown ids yield 0.
func (s *Snapshot) MaxQuantity(id string) int {
	it, ok := s.Get(id)
	if !ok {
		log.Debug().Str("item_id", id).Uint64("catalog_version", s.version).Msg("Availability lookup miss")
		return 0
	}
	return AvailableForRent(it)
}

// IsItemAvailable reports whether qty units of id can be rented.
func (s *Snapshot) IsItemAvailable(id string, qty int) bool {
	return qty <= s.MaxQuantity(id)
}
