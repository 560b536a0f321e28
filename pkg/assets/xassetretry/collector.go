package xassetretry

import (
	"slices"
	"sync"
)

// Collector 单个源域名的重试记录。
//
// Collector 由 Store 惰性创建并持有，生命周期与 Store 相同，从不被替换或删除。
// 所有方法并发安全；一次失败的计数与记录在同一把锁内完成。
type Collector struct {
	mu         sync.Mutex
	domain     string
	retryCount int
	failed     []string
	succeeded  []string
}

// Stats Collector 的只读快照，传递给 OnRetry 钩子和报告方。
type Stats struct {
	Domain     string   `json:"domain"`
	RetryCount int      `json:"retry_count"`
	Failed     []string `json:"failed"`
	Succeeded  []string `json:"succeeded"`
}

// Domain 返回 Collector 对应的源域名。
func (c *Collector) Domain() string {
	return c.domain
}

// RetryCount 返回当前失败计数。
func (c *Collector) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Stats 返回当前记录的快照。
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

// recordFailure 计数加一并追加失败 URL，返回更新后的快照。
func (c *Collector) recordFailure(rawURL string) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryCount++
	c.failed = append(c.failed, rawURL)
	return c.statsLocked()
}

// recordSuccess 追加重试后成功的 URL。
func (c *Collector) recordSuccess(rawURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.succeeded = append(c.succeeded, rawURL)
}

func (c *Collector) statsLocked() Stats {
	return Stats{
		Domain:     c.domain,
		RetryCount: c.retryCount,
		Failed:     slices.Clone(c.failed),
		Succeeded:  slices.Clone(c.succeeded),
	}
}

// Store 按源域名持有 Collector。
//
// 零值不可用，请使用 NewStore 创建。同一个 Store 可以注入多个 Engine，
// 让它们共享计数；测试中每个用例创建独立的 Store 即可隔离状态。
type Store struct {
	mu         sync.Mutex
	collectors map[string]*Collector
}

// NewStore 创建空的 Store。
func NewStore() *Store {
	return &Store{collectors: make(map[string]*Collector)}
}

// Get 返回 domain 对应的 Collector，不存在时返回 nil 和 false，不会创建。
func (s *Store) Get(domain string) (*Collector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collectors[domain]
	return c, ok
}

// getOrCreate 返回 domain 对应的 Collector，不存在时创建计数为零的新实例。
func (s *Store) getOrCreate(domain string) *Collector {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collectors[domain]
	if !ok {
		c = &Collector{domain: domain}
		s.collectors[domain] = c
	}
	return c
}

// Snapshot 返回所有 Collector 的快照，键为源域名。
func (s *Store) Snapshot() map[string]Stats {
	s.mu.Lock()
	collectors := make([]*Collector, 0, len(s.collectors))
	for _, c := range s.collectors {
		collectors = append(collectors, c)
	}
	s.mu.Unlock()

	out := make(map[string]Stats, len(collectors))
	for _, c := range collectors {
		out[c.domain] = c.Stats()
	}
	return out
}

// Len 返回已创建的 Collector 数量。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collectors)
}
