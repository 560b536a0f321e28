package xassetretry

import (
	"net/url"
	"strings"
)

// SplitURL URL 按映射域名拆分后的结果。
//
// Prefix + Host + Port + Path 还原为原始 URL。Path 是与最终成功的备用域名无关的
// 稳定标识，回调 OnSuccess/OnFail 收到的就是它。
type SplitURL struct {
	// Prefix scheme 与 "//"（含 userinfo），协议相对 URL 为 "//"
	Prefix string
	// Host URL 中实际出现的主机文本
	Host string
	// Port 按主机名匹配时 URL 中的端口，含前导 ":"；按 host:port 匹配时为空
	Port string
	// Domain 规范化后匹配到的映射主机
	Domain string
	// Path 主机之后的剩余部分（路径、查询、片段），非空时以 "/"、"?" 或 "#" 开头
	Path string
}

// Join 使用 domain 替换主机，返回新的 URL。
// domain 自带端口时不再保留原 URL 的端口。
func (s SplitURL) Join(domain string) string {
	if strings.Contains(domain, ":") {
		return s.Prefix + domain + s.Path
	}
	return s.Prefix + domain + s.Port + s.Path
}

// String 返回原始 URL。
func (s SplitURL) String() string {
	return s.Prefix + s.Host + s.Port + s.Path
}

// Analyzer 解析 URL 所属的映射域名并定位对应的 Collector。
//
// Analyzer 只读持有 DomainMap，写入仅发生在 Store 的惰性创建上。
type Analyzer struct {
	domains *DomainMap
	store   *Store
}

// NewAnalyzer 创建 Analyzer。domains 或 store 为 nil 时使用空映射和新建的 Store。
func NewAnalyzer(domains *DomainMap, store *Store) *Analyzer {
	if domains == nil {
		domains = buildDomainMap(nil)
	}
	if store == nil {
		store = NewStore()
	}
	return &Analyzer{domains: domains, store: store}
}

// Domains 返回 Analyzer 使用的域名映射。
func (a *Analyzer) Domains() *DomainMap {
	return a.domains
}

// Resolve 返回 rawURL 匹配到的映射主机以及所属源域名的 Collector。
//
// 相对 URL、无法解析的 URL、主机不在映射中的 URL 返回 ok=false，且不会创建 Collector。
// 匹配成功时 Collector 不存在则以零计数创建。
func (a *Analyzer) Resolve(rawURL string) (domain string, collector *Collector, ok bool) {
	s, ok := a.Split(rawURL)
	if !ok {
		return "", nil, false
	}
	origin, ok := a.domains.Origin(s.Domain)
	if !ok {
		return "", nil, false
	}
	return s.Domain, a.store.getOrCreate(origin), true
}

// Split 按映射主机拆分 rawURL。主机不在映射中时返回 ok=false。
func (a *Analyzer) Split(rawURL string) (SplitURL, bool) {
	prefix, authority, rest, ok := splitAuthority(rawURL)
	if !ok {
		return SplitURL{}, false
	}

	if d := strings.ToLower(authority); a.domains.Known(d) {
		return SplitURL{Prefix: prefix, Host: authority, Domain: d, Path: rest}, true
	}

	// 带端口的 URL 再按不带端口的主机名匹配一次，端口单独保留
	name, port, found := strings.Cut(authority, ":")
	if found && !strings.HasPrefix(authority, "[") {
		if d := strings.ToLower(name); a.domains.Known(d) {
			return SplitURL{Prefix: prefix, Host: name, Port: ":" + port, Domain: d, Path: rest}, true
		}
	}
	return SplitURL{}, false
}

// splitAuthority 将绝对 URL 或协议相对 URL 拆成前缀、主机段和剩余部分。
func splitAuthority(rawURL string) (prefix, authority, rest string, ok bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", "", "", false
	}

	var schemeEnd int
	parseable := s
	if strings.HasPrefix(s, "//") {
		schemeEnd = 2
		parseable = "http:" + s
	} else {
		i := strings.Index(s, "://")
		if i <= 0 {
			return "", "", "", false
		}
		schemeEnd = i + 3
	}

	u, err := url.Parse(parseable)
	if err != nil || u.Host == "" {
		return "", "", "", false
	}

	after := s[schemeEnd:]
	end := strings.IndexAny(after, "/?#")
	if end < 0 {
		end = len(after)
	}
	authority = after[:end]
	rest = after[end:]
	prefix = s[:schemeEnd]
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		prefix += authority[:at+1]
		authority = authority[at+1:]
	}
	if authority == "" {
		return "", "", "", false
	}
	return prefix, authority, rest, true
}
