package service

import (
	"stickerbot/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWriter_Write(t *testing.T) {
	cache := newFakeCache()
	w := NewCacheWriter(cache)
	id := domain.Derive(domain.InputDescriptor{SourceFileID: "AgADBQAD"})

	w.Write(id, "file-ref-77", nil)
	w.Close()

	ref, ok := cache.get(id)
	require.True(t, ok)
	assert.Equal(t, domain.OutputReference("file-ref-77"), ref)

	_, open := <-w.Errors()
	assert.False(t, open)
}

func TestCacheWriter_WriteCallsDone(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
	}{
		{
			name: "stored",
		},
		{
			name:     "store failed",
			storeErr: domain.ErrCache,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cache := newFakeCache()
			cache.storeErr = tc.storeErr
			w := NewCacheWriter(cache)

			done := make(chan struct{})
			w.Write(domain.Derive(domain.InputDescriptor{SourceFileID: "AgADBQAD"}), "file-ref-77",
				func() { close(done) })

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("done was not called")
			}
			w.Close()
		})
	}
}

func TestCacheWriter_ErrorsAreReported(t *testing.T) {
	cache := newFakeCache()
	cache.storeErr = domain.ErrCache
	w := NewCacheWriter(cache)
	id := domain.Derive(domain.InputDescriptor{SourceFileID: "AgADBQAD"})

	w.Write(id, "file-ref-77", nil)

	err := <-w.Errors()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCache)
	assert.Contains(t, err.Error(), id.Short())

	w.Close()
	_, ok := cache.get(id)
	assert.False(t, ok)
}

func TestCacheWriter_WriteAfterClose(t *testing.T) {
	cache := newFakeCache()
	w := NewCacheWriter(cache)
	w.Close()
	w.Close()

	done := false
	w.Write(domain.Derive(domain.InputDescriptor{SourceFileID: "late"}), "ref", func() { done = true })

	assert.Equal(t, int32(0), cache.stores.Load())
	assert.True(t, done)
}

func TestLogCacheWriteErrors(t *testing.T) {
	errs := make(chan error, 2)
	errs <- domain.ErrCache
	errs <- domain.ErrCache
	close(errs)

	done := make(chan struct{})
	go func() {
		LogCacheWriteErrors(errs)
		close(done)
	}()
	<-done
}
