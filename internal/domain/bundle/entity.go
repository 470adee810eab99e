package bundle

import "time"

// Package is a fixed-price bundle of catalog items.
type Package struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Price        float64  `json:"price" yaml:"price"`
	DisplayItems []string `json:"displayItems" yaml:"displayItems"`
	Items        []Item   `json:"items" yaml:"items"`
}

// Item is one member of a package at its required quantity.
type Item struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// Availability of a package against the current catalog.
type AvailabilityResult struct {
	IsAvailable      bool   `json:"isAvailable"`
	UnavailableItems []Item `json:"unavailableItems"`
}

// Selection is the persisted active package.
type Selection struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Items      []Item    `json:"items"`
	SelectedAt time.Time `json:"selectedAt"`
}
