package service

import (
	"context"
	"stickerbot/internal/core/domain"
	"sync"

	"github.com/rs/zerolog/log"
)

// Coordinator tracks in-flight conversions so that concurrent requests for the same ConversionID share a single
// conversion.
type Coordinator struct {
	mu      sync.Mutex
	pending map[domain.ConversionID]*flight
	writer  *CacheWriter
}

type flight struct {
	done     chan struct{}
	ref      domain.OutputReference
	err      error
	waiters  int
	resolved bool
}

// Claim is a caller's stake in an in-flight conversion. The owner drives the conversion and must call Resolve
// exactly once; waiters call Wait.
type Claim struct {
	id     domain.ConversionID
	owner  bool
	flight *flight
	c      *Coordinator
	once   sync.Once
}

// NewCoordinator returns a coordinator writing successful results through writer. A nil writer disables
// write-through.
func NewCoordinator(writer *CacheWriter) *Coordinator {
	return &Coordinator{
		pending: make(map[domain.ConversionID]*flight),
		writer:  writer,
	}
}

// AcquireOrJoin makes the caller the owner of a new pending conversion for id, or joins the one already in
// flight as a waiter.
func (c *Coordinator) AcquireOrJoin(id domain.ConversionID) *Claim {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.pending[id]; ok {
		f.waiters++
		log.Debug().Str("conversionId", string(id)).Int("waiters", f.waiters).Msg("joined pending conversion")
		return &Claim{id: id, flight: f, c: c}
	}

	f := &flight{done: make(chan struct{})}
	c.pending[id] = f
	log.Debug().Str("conversionId", string(id)).Msg("acquired conversion")

	return &Claim{id: id, owner: true, flight: f, c: c}
}

// Pending returns the number of conversions currently in flight. Resolved conversions whose result is still
// being written to the cache are not counted.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, f := range c.pending {
		if !f.resolved {
			n++
		}
	}
	return n
}

func (c *Coordinator) resolve(id domain.ConversionID, f *flight, ref domain.OutputReference, err error) {
	c.mu.Lock()
	f.ref, f.err = ref, err
	f.resolved = true
	waiters := f.waiters
	c.mu.Unlock()

	close(f.done)

	log.Debug().Str("conversionId", string(id)).Int("waiters", waiters).Bool("failed", err != nil).
		Msg("resolved conversion")

	if err != nil || c.writer == nil {
		c.release(id, f)
		return
	}

	// late arrivals join the resolved flight until the result is readable from the cache
	c.writer.Write(id, ref, func() { c.release(id, f) })
}

func (c *Coordinator) release(id domain.ConversionID, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[id] == f {
		delete(c.pending, id)
	}
}

func (cl *Claim) ID() domain.ConversionID {
	return cl.id
}

func (cl *Claim) Owner() bool {
	return cl.owner
}

// Resolve publishes the outcome to every waiter. Only the owner's first call has an effect. A failure clears the
// pending entry at once; a success is written through to the cache and the entry is cleared once the write has
// finished, so requests arriving in between join the resolved conversion.
func (cl *Claim) Resolve(ref domain.OutputReference, err error) {
	if !cl.owner {
		log.Warn().Str("conversionId", string(cl.id)).Msg("waiter attempted to resolve conversion")
		return
	}

	resolved := false
	cl.once.Do(func() {
		resolved = true
		cl.c.resolve(cl.id, cl.flight, ref, err)
	})

	if !resolved {
		log.Warn().Str("conversionId", string(cl.id)).Msg("conversion already resolved")
	}
}

// Wait blocks until the conversion is resolved or ctx ends. Giving up does not stop the conversion.
func (cl *Claim) Wait(ctx context.Context) (domain.OutputReference, error) {
	select {
	case <-cl.flight.done:
		return cl.flight.ref, cl.flight.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
