package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"stickerbot/internal/core/domain"
	"sync"
	"sync/atomic"
	"time"
)

type fakeCache struct {
	mu         sync.Mutex
	entries    map[domain.ConversionID]domain.OutputReference
	storeErr   error
	storeDelay time.Duration
	lookups    atomic.Int32
	stores     atomic.Int32
	stored     chan domain.ConversionID
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[domain.ConversionID]domain.OutputReference),
		stored:  make(chan domain.ConversionID, 16),
	}
}

func (c *fakeCache) Lookup(_ context.Context, id domain.ConversionID) (domain.OutputReference, bool) {
	c.lookups.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.entries[id]
	return ref, ok
}

func (c *fakeCache) Store(_ context.Context, id domain.ConversionID, ref domain.OutputReference) error {
	c.stores.Add(1)
	defer func() { c.stored <- id }()

	if c.storeDelay > 0 {
		time.Sleep(c.storeDelay)
	}

	if c.storeErr != nil {
		return c.storeErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		c.entries[id] = ref
	}
	return nil
}

func (c *fakeCache) Count(_ context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries))
}

func (c *fakeCache) Close() error {
	return nil
}

func (c *fakeCache) get(id domain.ConversionID) (domain.OutputReference, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.entries[id]
	return ref, ok
}

// fakeRunner counts runs and blocks each one until release is closed, if set.
type fakeRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	ref     domain.OutputReference
	err     error
	panic   bool
}

func (r *fakeRunner) Run(ctx context.Context, id domain.ConversionID, _ *domain.Message) (
	domain.OutputReference, error) {
	r.calls.Add(1)
	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.release != nil {
		<-r.release
	}
	if r.panic {
		panic("converter exploded")
	}
	if r.err != nil {
		return "", &domain.ConversionError{ID: id, Stage: domain.StageConvert, Err: r.err}
	}
	return r.ref, ctx.Err()
}

type fakeSource struct {
	data []byte
	err  error
}

func (s *fakeSource) OpenSource(_ context.Context, _ string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("connection reset")
}

type readerSource struct {
	r io.Reader
}

func (s *readerSource) OpenSource(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(s.r), nil
}

// recordingStaging stages into dir and remembers every path it created.
type recordingStaging struct {
	dir   string
	mu    sync.Mutex
	paths []string
}

func (s *recordingStaging) CreateTempFile(extension string) (*os.File, error) {
	f, err := os.CreateTemp(s.dir, "staged-*"+extension)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.paths = append(s.paths, f.Name())
	s.mu.Unlock()
	return f, nil
}

func (s *recordingStaging) RemoveTempFile(path string) {
	_ = os.Remove(path)
}

type fakeConverter struct {
	calls  atomic.Int32
	out    []byte
	err    error
	inputs chan []byte
}

func (c *fakeConverter) Convert(_ context.Context, inputPath string) ([]byte, error) {
	c.calls.Add(1)
	if c.inputs != nil {
		data, _ := os.ReadFile(inputPath)
		c.inputs <- data
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.out, nil
}

type fakeDocuments struct {
	mu       sync.Mutex
	uploads  []string
	ref      domain.OutputReference
	err      error
	data     []byte
	refSends []domain.OutputReference
}

func (d *fakeDocuments) SendDocumentReply(_ context.Context, _ *domain.Message, filename string, data []byte) (
	domain.OutputReference, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads = append(d.uploads, filename)
	d.data = data
	if d.err != nil {
		return "", d.err
	}
	return d.ref, nil
}

func (d *fakeDocuments) SendDocumentRefReply(_ context.Context, _ *domain.Message, ref domain.OutputReference) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refSends = append(d.refSends, ref)
	return d.err
}
