package catalog

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

const unnamedItem = "Unnamed Item"

// IDGen produces ids for items stored without one.
type IDGen interface {
	New() string
}

// ulidGen issues time-ordered ids so generated ids sort by creation time.
type ulidGen struct{}

func (ulidGen) New() string {
	return ulid.Make().String()
}

// Normalize fills in defaults for every missing field.
func Normalize(raw RawItem, src Source, ids IDGen) Item {
	it := Item{
		Name:     unnamedItem,
		Category: CategoryUncategorized,
		Source:   src,
	}

	if raw.ID != nil && strings.TrimSpace(*raw.ID) != "" {
		it.ID = strings.TrimSpace(*raw.ID)
	} else {
		it.ID = ids.New()
	}
	if raw.Name != nil && strings.TrimSpace(*raw.Name) != "" {
		it.Name = strings.TrimSpace(*raw.Name)
	}
	if raw.Category != nil && strings.TrimSpace(*raw.Category) != "" {
		it.Category = Category(strings.ToLower(strings.TrimSpace(*raw.Category)))
	}
	if raw.Price != nil && *raw.Price > 0 {
		it.Price = *raw.Price
	}
	if raw.AvailableQuantity != nil && *raw.AvailableQuantity > 0 {
		it.AvailableQuantity = *raw.AvailableQuantity
	}
	if raw.ReservedQuantity != nil && *raw.ReservedQuantity > 0 {
		it.ReservedQuantity = *raw.ReservedQuantity
	}
	it.CategoryLabel = it.Category.Label()

	return it
}

// MergeResult is the merged catalog plus everything that clashed on the way.
type MergeResult struct {
	Items      []Item
	Collisions []Collision
}

// Merge combines the predefined and inventory catalogs. Entries are taken in
// order, predefined first, so on an id tie the predefined entry wins. Entries
// sharing a display name under different ids are all kept and reported.
func Merge(predefined, inventory []Item) MergeResult {
	res := MergeResult{Items: make([]Item, 0, len(predefined)+len(inventory))}

	byID := make(map[string]Item, cap(res.Items))
	byName := make(map[string]Item, cap(res.Items))

	for _, list := range [][]Item{predefined, inventory} {
		for _, it := range list {
			if kept, ok := byID[it.ID]; ok {
				res.Collisions = append(res.Collisions, Collision{
					Kind:    CollisionID,
					Key:     it.ID,
					Kept:    kept.Source,
					Other:   it.Source,
					KeptID:  kept.ID,
					OtherID: it.ID,
					Dropped: true,
				})
				continue
			}

			nameKey := strings.ToLower(it.Name)
			if first, ok := byName[nameKey]; ok {
				res.Collisions = append(res.Collisions, Collision{
					Kind:    CollisionName,
					Key:     it.Name,
					Kept:    first.Source,
					Other:   it.Source,
					KeptID:  first.ID,
					OtherID: it.ID,
				})
			} else {
				byName[nameKey] = it
			}

			byID[it.ID] = it
			res.Items = append(res.Items, it)
		}
	}

	return res
}
