package xassetretry

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DomainMap 源域名到备用域名的映射。
//
// 创建后不可变，可在多个 goroutine 间共享。
// 既不是源域名、也不是任何源域名的备用域名的主机永远不会被重试。
type DomainMap struct {
	next  map[string]string // 源域名 → 备用域名
	owner map[string]string // 仅作为备用域名出现的主机 → 所属源域名
	keys  []string          // 排序后的源域名
}

// NewDomainMap 从映射形式创建 DomainMap。
//
// 主机名会被规范化（去空白、转小写、去掉 scheme 和路径）。
// 规范化后为空的键或值返回 ErrInvalidDomain。
//
// 只作为备用域名出现的主机归属于映射到它的源域名；
// 多个源域名映射到同一个备用域名时，取字典序最小的源域名。
func NewDomainMap(m map[string]string) (*DomainMap, error) {
	next := make(map[string]string, len(m))
	for k, v := range m {
		from, to := normalizeHost(k), normalizeHost(v)
		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: %q -> %q", ErrInvalidDomain, k, v)
		}
		next[from] = to
	}
	return buildDomainMap(next), nil
}

// NewDomainRing 从有序列表创建环形 DomainMap：h0→h1, h1→h2, ..., hn→h0。
//
// 只有一个主机时映射到自身；重复的主机返回 ErrInvalidDomain。
func NewDomainRing(hosts []string) (*DomainMap, error) {
	next := make(map[string]string, len(hosts))
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		n := normalizeHost(h)
		if n == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, h)
		}
		if slices.Contains(normalized, n) {
			return nil, fmt.Errorf("%w: duplicate host %q", ErrInvalidDomain, h)
		}
		normalized = append(normalized, n)
	}
	for i, h := range normalized {
		next[h] = normalized[(i+1)%len(normalized)]
	}
	return buildDomainMap(next), nil
}

func buildDomainMap(next map[string]string) *DomainMap {
	keys := make([]string, 0, len(next))
	for k := range next {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	owner := make(map[string]string)
	for _, k := range keys {
		v := next[k]
		if _, isKey := next[v]; isKey {
			continue
		}
		if _, taken := owner[v]; !taken {
			owner[v] = k
		}
	}
	return &DomainMap{next: next, owner: owner, keys: keys}
}

// Replacement 返回 domain 的备用域名。
func (m *DomainMap) Replacement(domain string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.next[domain]
	return v, ok
}

// Origin 返回 host 所属的源域名。
// host 本身是源域名时返回自身；host 仅作为备用域名出现时返回映射到它的源域名。
func (m *DomainMap) Origin(host string) (string, bool) {
	if m == nil {
		return "", false
	}
	if _, ok := m.next[host]; ok {
		return host, true
	}
	o, ok := m.owner[host]
	return o, ok
}

// Known 报告 host 是否在映射范围内（源域名或备用域名）。
func (m *DomainMap) Known(host string) bool {
	_, ok := m.Origin(host)
	return ok
}

// Domains 返回排序后的源域名列表。
func (m *DomainMap) Domains() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Len 返回源域名数量。
func (m *DomainMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.next)
}

// normalizeHost 将配置中的主机规范化为小写的 host[:port]。
// 允许配置写成 "https://cdn.example.com/" 的形式。
func normalizeHost(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "//") {
		if !strings.Contains(s, "://") && strings.HasPrefix(s, "//") {
			s = "http:" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		return u.Host
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
