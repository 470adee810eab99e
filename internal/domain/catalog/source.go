package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mediarent/storefront-api/internal/pkg/storage"
)

// RentalSource reads the predefined rental catalog.
type RentalSource interface {
	GetRentalItems(ctx context.Context) ([]RawItem, error)
}

// InventorySource reads the user-managed inventory. GetAllInventoryItems is the
// fallback used when GetInventoryItems comes back empty.
type InventorySource interface {
	GetInventoryItems(ctx context.Context) ([]RawItem, error)
	GetAllInventoryItems(ctx context.Context) ([]RawItem, error)
}

// DocumentSource serves the predefined catalog from a JSON document in blob
// storage. The document is either a bare array of items or an object with a
// "rentalItems" array.
type DocumentSource struct {
	store storage.Storage
	key   string
}

func NewDocumentSource(store storage.Storage, key string) *DocumentSource {
	return &DocumentSource{store: store, key: key}
}

func (s *DocumentSource) GetRentalItems(ctx context.Context) ([]RawItem, error) {
	rc, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, s.key)
		}
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	return decodeRentalItems(body)
}

func decodeRentalItems(body []byte) ([]RawItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var items []RawItem
	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return items, nil
	}

	var envelope struct {
		RentalItems []RawItem `json:"rentalItems"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return envelope.RentalItems, nil
}
