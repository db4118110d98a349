package agent

import (
	"context"
	"sync"
	"time"

	"github.com/Spandan7724/songbird/pkg/models"
)

// DiscoveryTTL is how long a provider's discovered model list is
// considered fresh before Cache probes it again.
const DiscoveryTTL = 300 * time.Second

// ProbeTimeout bounds a single provider's discovery call; a provider
// that hangs past this is treated as unreachable for this round rather
// than blocking the whole discovery pass.
const ProbeTimeout = 3 * time.Second

type discoveryEntry struct {
	models    []models.DiscoveredModel
	fetchedAt time.Time
	err       error
}

// DiscoveryCache maintains a per-provider TTL cache of discovered
// models (C6), so `songbird --list-providers` and the CLI's model
// picker avoid re-probing every provider on every invocation.
type DiscoveryCache struct {
	mu       sync.Mutex
	entries  map[string]discoveryEntry
	ttl      time.Duration
	probe    time.Duration
}

// NewDiscoveryCache builds a cache with the spec's default TTL and
// per-provider probe timeout.
func NewDiscoveryCache() *DiscoveryCache {
	return &DiscoveryCache{
		entries: make(map[string]discoveryEntry),
		ttl:     DiscoveryTTL,
		probe:   ProbeTimeout,
	}
}

// Discover returns provider's model list, from cache when fresh,
// otherwise probing provider.Models() (bounded by ProbeTimeout) and
// refreshing the cache entry. A probe that times out or errors still
// updates the cache with the error so repeated calls within the TTL
// window don't re-hammer an unreachable provider.
func (c *DiscoveryCache) Discover(ctx context.Context, provider LLMProvider) ([]models.DiscoveredModel, error) {
	name := provider.Name()

	c.mu.Lock()
	entry, ok := c.entries[name]
	c.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.models, entry.err
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.probe)
	defer cancel()

	discovered, err := c.probeModels(probeCtx, provider)
	c.mu.Lock()
	c.entries[name] = discoveryEntry{models: discovered, fetchedAt: time.Now(), err: err}
	c.mu.Unlock()
	return discovered, err
}

func (c *DiscoveryCache) probeModels(ctx context.Context, provider LLMProvider) ([]models.DiscoveredModel, error) {
	done := make(chan []models.DiscoveredModel, 1)
	go func() {
		list := provider.Models()
		out := make([]models.DiscoveredModel, 0, len(list))
		for _, m := range list {
			out = append(out, models.DiscoveredModel{
				ID:                      m.ID,
				Name:                    m.Name,
				Provider:                provider.Name(),
				SupportsFunctionCalling: provider.SupportsTools(),
				SupportsStreaming:       true,
				ContextLength:           intPtr(m.ContextSize),
			})
		}
		done <- out
	}()
	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops provider's cached entry, forcing the next Discover
// call to re-probe regardless of TTL.
func (c *DiscoveryCache) Invalidate(provider string) {
	c.mu.Lock()
	delete(c.entries, provider)
	c.mu.Unlock()
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
