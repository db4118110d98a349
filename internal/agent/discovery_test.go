package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModelProvider struct {
	name    string
	models  []Model
	delay   time.Duration
	calls   int
}

func (p *fakeModelProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	return nil, nil
}
func (p *fakeModelProvider) Name() string        { return p.name }
func (p *fakeModelProvider) SupportsTools() bool { return true }
func (p *fakeModelProvider) Models() []Model {
	p.calls++
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.models
}

func TestDiscoverReturnsModelsAndCaches(t *testing.T) {
	provider := &fakeModelProvider{name: "fake", models: []Model{{ID: "m1", Name: "Model One", ContextSize: 8192}}}
	cache := NewDiscoveryCache()

	discovered, err := cache.Discover(context.Background(), provider)
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, "m1", discovered[0].ID)
	assert.Equal(t, "fake", discovered[0].Provider)

	_, err = cache.Discover(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "second call within TTL should hit the cache")
}

func TestDiscoverTimesOutOnSlowProvider(t *testing.T) {
	provider := &fakeModelProvider{name: "slow", delay: 50 * time.Millisecond}
	cache := &DiscoveryCache{entries: make(map[string]discoveryEntry), ttl: DiscoveryTTL, probe: 5 * time.Millisecond}

	_, err := cache.Discover(context.Background(), provider)
	require.Error(t, err)
}

func TestInvalidateForcesReprobe(t *testing.T) {
	provider := &fakeModelProvider{name: "fake", models: []Model{{ID: "m1"}}}
	cache := NewDiscoveryCache()

	_, err := cache.Discover(context.Background(), provider)
	require.NoError(t, err)
	cache.Invalidate("fake")
	_, err = cache.Discover(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}
