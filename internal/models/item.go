package models

import "time"

// Item is a named entry with an optional description.
// Items are immutable once created; the only mutation is deletion.
type Item struct {
	// ID is assigned by the store on insertion and is never reused.
	ID int64 `json:"id"`

	// Name is required. No length or content constraint is enforced.
	Name string `json:"name"`

	// Description is optional; nil is rendered as JSON null.
	Description *string `json:"description"`

	// CreatedAt is set by the store at insertion time.
	// Nil only if the stored value could not be read back.
	CreatedAt *time.Time `json:"created_at"`
}

// NewItem holds the caller-supplied fields for a create.
type NewItem struct {
	Name        string
	Description *string
}
