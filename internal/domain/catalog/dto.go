package catalog

import "time"

// ItemResponse is an item with its rentable quantity.
type ItemResponse struct {
	Item
	MaxQuantity int  `json:"maxQuantity"`
	InStock     bool `json:"inStock"`
}

// ListResponse is the catalog as served to the storefront.
type ListResponse struct {
	Items    []ItemResponse `json:"items"`
	Version  uint64         `json:"version"`
	LoadedAt time.Time      `json:"loadedAt"`
}

// AvailabilityResponse answers "can I rent N of this item".
type AvailabilityResponse struct {
	ItemID      string `json:"itemId"`
	MaxQuantity int    `json:"maxQuantity"`
	Requested   int    `json:"requested"`
	Available   bool   `json:"available"`
}

// ReloadResponse reports the outcome of a forced reload.
type ReloadResponse struct {
	Applied    bool        `json:"applied"`
	Version    uint64      `json:"version"`
	Items      int         `json:"items"`
	Collisions []Collision `json:"collisions"`
}

// PublishEventRequest lets admin tooling raise a change notification.
type PublishEventRequest struct {
	Type string `json:"type" validate:"required,catalog_event"`
}

func NewListResponse(snap *Snapshot) ListResponse {
	items := snap.Items()
	out := ListResponse{
		Items:    make([]ItemResponse, 0, len(items)),
		Version:  snap.Version(),
		LoadedAt: snap.LoadedAt(),
	}
	for _, it := range items {
		max := AvailableForRent(it)
		out.Items = append(out.Items, ItemResponse{Item: it, MaxQuantity: max, InStock: max > 0})
	}
	return out
}
