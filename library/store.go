// Package library persists studio artifacts in the user's media library.
package library

import (
	"context"
	"errors"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/google/uuid"
)

// ErrInvalidItem is returned when an item has no id.
var ErrInvalidItem = errors.New("library: item id is required")

// Store is the media library.
type Store interface {
	// List returns every item, newest first.
	List(ctx context.Context) ([]vitrine.LibraryItem, error)

	// Save inserts item, or updates url, prompt and title of the item with
	// the same id.
	Save(ctx context.Context, item vitrine.LibraryItem) error

	// Delete removes the item with id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// NewItem builds an item with a fresh id stamped with the current time.
func NewItem(url string, typ vitrine.ItemType, prompt, title string) vitrine.LibraryItem {
	return vitrine.LibraryItem{
		ID:        uuid.NewString(),
		URL:       url,
		Type:      typ,
		Timestamp: time.Now().UnixMilli(),
		Prompt:    prompt,
		Title:     title,
	}
}
