// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/NoManNayeem/Terraform-POC/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for item storage operations.
// The HTTP layer depends on this interface only, so the SQLite backend can be
// swapped without touching handlers.
type Store interface {
	// ListItems returns every item, most recently created first.
	// The result is empty (not nil) when there are no items.
	ListItems(ctx context.Context) ([]models.Item, error)

	// CreateItem inserts a new item and returns it as stored,
	// including the store-assigned ID and CreatedAt.
	CreateItem(ctx context.Context, item models.NewItem) (*models.Item, error)

	// GetItem retrieves an item by ID.
	// Returns ErrNotFound if no item has that ID.
	GetItem(ctx context.Context, id int64) (*models.Item, error)

	// DeleteItem removes an item by ID and reports how many rows were removed (0 or 1).
	DeleteItem(ctx context.Context, id int64) (int64, error)

	// CountItems returns the number of stored items.
	CountItems(ctx context.Context) (int64, error)

	// Ping checks that the store can serve requests.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
