package xcapture

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// retryCache 已经自动重试过一次的元素集合。
type retryCache interface {
	// markOnce 标记 id，id 之前未被标记时返回 true
	markOnce(id string) bool
	len() int
}

// newRetryCache 创建重试缓存。size 为 0 时集合只增不减，否则为容量 size 的 LRU。
func newRetryCache(size int) (retryCache, error) {
	if size < 0 {
		return nil, ErrInvalidRetryCacheSize
	}
	if size == 0 {
		return &setCache{seen: make(map[uint64]struct{})}, nil
	}
	c, err := lru.New[uint64, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{lru: c}, nil
}

func cacheKey(id string) uint64 {
	return xxhash.Sum64String(id)
}

type setCache struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

func (c *setCache) markOnce(id string) bool {
	k := cacheKey(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[k]; ok {
		return false
	}
	c.seen[k] = struct{}{}
	return true
}

func (c *setCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

type lruCache struct {
	lru *lru.Cache[uint64, struct{}]
}

func (c *lruCache) markOnce(id string) bool {
	found, _ := c.lru.ContainsOrAdd(cacheKey(id), struct{}{})
	return !found
}

func (c *lruCache) len() int {
	return c.lru.Len()
}
