package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/emart/internal/domain"
	"github.com/iho/emart/internal/usecase"
)

// SequentialIDGenerator returns evt-1, evt-2, ...
type SequentialIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("evt-%d", g.n)
}

// MemoryCache is a map-backed usecase.Cache that ignores TTLs.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	Deletes int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	return v, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.Deletes++
	return nil
}

// Has reports whether key is cached.
func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// RecordingPublisher remembers every event it is asked to publish.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	PublishFunc func(ctx context.Context, event *domain.OutboxEvent) error
}

func (p *RecordingPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if p.PublishFunc != nil {
		if err := p.PublishFunc(ctx, event); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}
