package xpage

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omeyang/xassets/pkg/assets/xcapture"
)

// 确保 *element 实现 xcapture.Element 接口
var _ xcapture.Element = (*element)(nil)

// element 文档中的一个资源元素。
//
// 只在 Run 的事件循环 goroutine 中读写，不需要加锁。
type element struct {
	id       string
	kind     xcapture.Kind
	sel      *goquery.Selection
	attr     string // 资源地址所在的属性：src 或 href
	declared string
	src      string
	attempts []string
	loaded   bool
	reload   bool
}

func (e *element) ID() string          { return e.id }
func (e *element) Kind() xcapture.Kind { return e.kind }
func (e *element) SourceURL() string   { return e.src }

// SetSourceURL 更新资源地址并写回文档，事件循环随后重新加载该元素。
func (e *element) SetSourceURL(u string) {
	e.src = u
	e.sel.SetAttr(e.attr, u)
	e.reload = true
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) SetAttr(name, value string) {
	e.sel.SetAttr(name, value)
}

// kindOf 返回 sel 的元素类型以及资源地址所在的属性。
func kindOf(sel *goquery.Selection) (xcapture.Kind, string) {
	switch goquery.NodeName(sel) {
	case "img":
		return xcapture.KindImage, "src"
	case "script":
		return xcapture.KindScript, "src"
	case "link":
		rel, _ := sel.Attr("rel")
		if slices.Contains(strings.Fields(strings.ToLower(rel)), "stylesheet") {
			return xcapture.KindStylesheet, "href"
		}
	}
	return xcapture.KindOther, ""
}

// collectElements 收集 img[src]、script[src] 和样式表 link[href]。
func collectElements(doc *goquery.Document, base *url.URL) []*element {
	var out []*element
	doc.Find("img[src], script[src], link[href]").Each(func(i int, sel *goquery.Selection) {
		kind, attr := kindOf(sel)
		if !kind.Eligible() {
			return
		}
		raw, _ := sel.Attr(attr)
		raw = resolve(base, strings.TrimSpace(raw))
		if raw == "" {
			return
		}
		out = append(out, &element{
			id:       fmt.Sprintf("%s#%d", kind, i),
			kind:     kind,
			sel:      sel,
			attr:     attr,
			declared: raw,
			src:      raw,
		})
	})
	return out
}

// resolve 以 base 解析相对地址。base 为 nil 或解析失败时原样返回。
func resolve(base *url.URL, raw string) string {
	if base == nil || raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
