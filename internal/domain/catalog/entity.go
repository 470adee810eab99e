package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups items on the storefront.
type Category string

const (
	CategoryTripod           Category = "tripod"
	CategoryCamera           Category = "camera"
	CategoryComset           Category = "comset"
	CategorySwitcher         Category = "switcher"
	CategoryAudioMixer       Category = "audio-mixer"
	CategoryMonitor          Category = "monitor"
	CategoryVideoTransmitter Category = "video-transmitter"
	CategoryCameraDolly      Category = "camera-dolly"
	CategoryUncategorized    Category = "uncategorized"
)

var titleCaser = cases.Title(language.English)

// Label returns the display form, e.g. "audio-mixer" -> "Audio Mixer".
func (c Category) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(c), "-", " "))
}

// Source tells which catalog an item came from.
type Source string

const (
	SourcePredefined Source = "predefined"
	SourceInventory  Source = "inventory"
)

// Item is one rentable unit after normalization.
type Item struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Category          Category `json:"category"`
	CategoryLabel     string   `json:"categoryLabel"`
	Price             float64  `json:"price"`
	AvailableQuantity int      `json:"availableQuantity"`
	ReservedQuantity  int      `json:"reservedQuantity"`
	Source            Source   `json:"source"`
}

// RawItem is an item as stored by either source. Any field may be missing.
type RawItem struct {
	ID                *string  `json:"id" db:"id"`
	Name              *string  `json:"name" db:"name"`
	Category          *string  `json:"category" db:"category"`
	Price             *float64 `json:"price" db:"price"`
	AvailableQuantity *int     `json:"availableQuantity" db:"available_quantity"`
	ReservedQuantity  *int     `json:"reservedQuantity" db:"reserved_quantity"`
}

// CollisionKind says what two catalog entries had in common.
type CollisionKind string

const (
	CollisionID   CollisionKind = "id"
	CollisionName CollisionKind = "name"
)

// Collision reports two entries that clashed during the merge. For id collisions
// the first entry (predefined wins) is kept and the other dropped; name
// collisions keep both entries.
type Collision struct {
	Kind    CollisionKind `json:"kind"`
	Key     string        `json:"key"`
	Kept    Source        `json:"kept"`
	Other   Source        `json:"other"`
	KeptID  string        `json:"keptId"`
	OtherID string        `json:"otherId"`
	Dropped bool          `json:"dropped"`
}
