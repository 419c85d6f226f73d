package service

import (
	"context"
	"fmt"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const (
	cacheWriteTimeout   = 10 * time.Second
	cacheWriteErrBuffer = 64
)

// CacheWriter persists conversion results in the background. Write failures never reach the request that
// produced the result; they are published on Errors for logging only.
type CacheWriter struct {
	cache  port.OutputCache
	errs   chan error
	wg     conc.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewCacheWriter(cache port.OutputCache) *CacheWriter {
	return &CacheWriter{
		cache: cache,
		errs:  make(chan error, cacheWriteErrBuffer),
	}
}

// Write stores ref under id asynchronously. A non-nil done is called once the write has finished, failed or
// been dropped.
func (w *CacheWriter) Write(id domain.ConversionID, ref domain.OutputReference, done func()) {
	if done == nil {
		done = func() {}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		log.Warn().Str("conversionId", string(id)).Msg("cache writer closed, dropping write")
		done()
		return
	}

	w.wg.Go(func() {
		defer done()

		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := w.cache.Store(ctx, id, ref); err != nil {
			w.report(fmt.Errorf("write-through %s: %w", id.Short(), err))
		}
	})
}

func (w *CacheWriter) report(err error) {
	select {
	case w.errs <- err:
	default:
		log.Warn().Err(err).Msg("cache write error channel full")
	}
}

// Errors returns the channel of failed writes. It is closed by Close.
func (w *CacheWriter) Errors() <-chan error {
	return w.errs
}

// Close waits for pending writes and closes the error channel. Later writes are dropped.
func (w *CacheWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
	close(w.errs)
}

// LogCacheWriteErrors logs every error received on errs until the channel is closed.
func LogCacheWriteErrors(errs <-chan error) {
	for err := range errs {
		log.Warn().Err(err).Msg("failed to persist conversion result")
	}
}
