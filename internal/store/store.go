// Package store persists the bot's two JSON documents: the portfolio book
// and the settings overrides. Implementations include flat files (default),
// PostgreSQL, and in-memory (for testing).
//
// Documents are read and rewritten whole. Concurrent writers are serialized
// by the callers that mutate them, not by the store.
package store

import (
	"context"

	"github.com/domwatch/dominance-bot/internal/model"
)

// Document names used by keyed backends.
const (
	DocPortfolios = "portfolios"
	DocSettings   = "settings"
)

// Store is the document persistence interface. Loads never fail on a missing
// or malformed document — they log and return an empty one, so the bot keeps
// running on defaults.
type Store interface {
	// LoadBook reads the portfolio document.
	LoadBook(ctx context.Context) (*model.Book, error)

	// SaveBook rewrites the portfolio document.
	SaveBook(ctx context.Context, book *model.Book) error

	// LoadSettings reads the settings-overrides document.
	LoadSettings(ctx context.Context) (*model.Settings, error)

	// SaveSettings rewrites the settings-overrides document.
	SaveSettings(ctx context.Context, settings *model.Settings) error
}
