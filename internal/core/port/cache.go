package port

import (
	"context"
	"stickerbot/internal/core/domain"
)

type OutputCache interface {
	// Lookup returns the cached reference for id. Storage errors are logged and reported as a miss.
	Lookup(ctx context.Context, id domain.ConversionID) (domain.OutputReference, bool)
	// Store persists ref under id unless an entry for id already exists.
	Store(ctx context.Context, id domain.ConversionID, ref domain.OutputReference) error
	// Count returns the number of cached entries, or -1 if it can't be determined.
	Count(ctx context.Context) int64
	// Close releases the underlying storage.
	Close() error
}
