package cart

import (
	"fmt"

	"github.com/mediarent/storefront-api/internal/domain/catalog"
)

// Availability is the part of the catalog the cart needs.
type Availability interface {
	Get(id string) (catalog.Item, bool)
	MaxQuantity(id string) int
}

// Violations lists every line that no longer matches the catalog. The result
// depends only on its inputs.
func Violations(lines []Line, avail Availability) []string {
	out := make([]string, 0)
	for _, l := range lines {
		if _, ok := avail.Get(l.ItemID); !ok {
			out = append(out, fmt.Sprintf("%s is no longer available", l.Name))
			continue
		}
		if max := avail.MaxQuantity(l.ItemID); l.Quantity > max {
			out = append(out, (&LimitError{ItemID: l.ItemID, Name: l.Name, Max: max, Have: l.Quantity}).Error())
		}
	}
	return out
}

// Reconcile re-resolves stored lines against the catalog: lines whose item is
// gone are dropped, quantities are clamped to the rentable maximum and lines
// clamped to zero are dropped.
func Reconcile(lines []Line, avail Availability) ([]Line, []Adjustment) {
	kept := make([]Line, 0, len(lines))
	var adjustments []Adjustment

	for _, l := range lines {
		if _, ok := avail.Get(l.ItemID); !ok {
			adjustments = append(adjustments, Adjustment{
				ItemID: l.ItemID, Name: l.Name, From: l.Quantity, Removed: true, Reason: ReasonItemMissing,
			})
			continue
		}

		max := avail.MaxQuantity(l.ItemID)
		qty := l.Quantity
		if qty > max {
			qty = max
		}
		if qty <= 0 {
			adjustments = append(adjustments, Adjustment{
				ItemID: l.ItemID, Name: l.Name, From: l.Quantity, Removed: true, Reason: ReasonOutOfStock,
			})
			continue
		}
		if qty != l.Quantity {
			adjustments = append(adjustments, Adjustment{
				ItemID: l.ItemID, Name: l.Name, From: l.Quantity, To: qty, Reason: ReasonClamped,
			})
			l.Quantity = qty
		}
		kept = append(kept, l)
	}

	return kept, adjustments
}
