package port

import (
	"context"
	"stickerbot/internal/core/domain"
)

type StatsProvider interface {
	// Stats reports the number of conversions in flight and the number of cached results.
	Stats(ctx context.Context) domain.ConversionStats
}

type StickerConverter interface {
	// Convert returns the converted output for the sticker attached to message, from the cache, from a
	// conversion already in flight or from a new conversion.
	Convert(ctx context.Context, message *domain.Message) (domain.ConversionResult, error)
	StatsProvider
}
