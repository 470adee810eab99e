package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// InventoryRepository reads managed inventory rows. Columns are nullable; the
// merger fills defaults.
type InventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

const inventoryColumns = `id, name, category, price, available_quantity, reserved_quantity`

// GetInventoryItems returns the items flagged as rentable.
func (r *InventoryRepository) GetInventoryItems(ctx context.Context) ([]RawItem, error) {
	return r.list(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		WHERE is_rentable = TRUE
		ORDER BY created_at, id
	`)
}

// GetAllInventoryItems returns every inventory row regardless of flags.
func (r *InventoryRepository) GetAllInventoryItems(ctx context.Context) ([]RawItem, error) {
	return r.list(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		ORDER BY created_at, id
	`)
}

func (r *InventoryRepository) list(ctx context.Context, query string) ([]RawItem, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	items := make([]RawItem, 0)
	if err := r.db.SelectContext(ctx2, &items, query); err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	return items, nil
}
