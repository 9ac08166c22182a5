// Package checkpoint persists auto-scan state so a scan can resume after a
// pause or a process restart.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/ederson/cardforge/internal/models"
)

// Store is a keyed checkpoint store. Load returns (nil, nil) when no usable
// checkpoint exists for the key: missing and unreadable entries look the
// same to callers, which then start fresh.
type Store interface {
	Save(ctx context.Context, key string, state models.AutoScanState) error
	Load(ctx context.Context, key string) (*models.AutoScanState, error)
	Clear(ctx context.Context, key string) error
}

// Key derives the checkpoint key for a deck+source pair. One scan per pair
// is assumed; the key is what scopes that.
func Key(deckID int64, sourceID string) string {
	return fmt.Sprintf("autoscan:%d:%s", deckID, sourceID)
}
