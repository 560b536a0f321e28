package xassetretry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_StatsIsCopy(t *testing.T) {
	s := NewStore()
	c := s.getOrCreate("a.com")
	c.recordFailure("http://a.com/x.png")

	stats := c.Stats()
	stats.Failed[0] = "mutated"
	stats.RetryCount = 100

	again := c.Stats()
	assert.Equal(t, []string{"http://a.com/x.png"}, again.Failed)
	assert.Equal(t, 1, again.RetryCount)
}

func TestStore_GetOrCreate(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("a.com")
	assert.False(t, ok)

	var wg sync.WaitGroup
	got := make([]*Collector, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = s.getOrCreate("a.com")
		}()
	}
	wg.Wait()

	for _, c := range got[1:] {
		assert.Same(t, got[0], c)
	}
	assert.Equal(t, 1, s.Len())

	c, ok := s.Get("a.com")
	require.True(t, ok)
	assert.Same(t, got[0], c)
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore()
	s.getOrCreate("a.com").recordFailure("http://a.com/1.png")
	s.getOrCreate("c.com").recordSuccess("http://d.com/2.png")

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, Stats{Domain: "a.com", RetryCount: 1, Failed: []string{"http://a.com/1.png"}}, snap["a.com"])
	assert.Equal(t, []string{"http://d.com/2.png"}, snap["c.com"].Succeeded)
}
