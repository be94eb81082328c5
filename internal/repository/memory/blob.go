package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.Storage = (*Blobs)(nil)

// Blobs is an in-process object store.
type Blobs struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewBlobs creates an empty Blobs.
func NewBlobs() *Blobs {
	return &Blobs{objects: make(map[string][]byte)}
}

func (b *Blobs) Upload(_ context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *Blobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("failed to get object %s: %w", key, model.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, key)
	return nil
}

func (b *Blobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.objects[key]
	return ok, nil
}
