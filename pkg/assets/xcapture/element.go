package xcapture

import "context"

const (
	// AttrIgnore 带此属性的元素不参与重试。
	AttrIgnore = "data-assets-retry-ignore"
	// AttrRetryID 重试时写入的标记属性。
	AttrRetryID = "data-retry-id"
)

// Kind 元素类型。
type Kind uint8

const (
	KindOther Kind = iota
	KindImage
	KindScript
	KindStylesheet
)

// String 返回类型名称。
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "img"
	case KindScript:
		return "script"
	case KindStylesheet:
		return "link"
	default:
		return "other"
	}
}

// Eligible 报告该类型是否参与全局捕获重试。
func (k Kind) Eligible() bool {
	return k == KindImage || k == KindScript || k == KindStylesheet
}

// Element 宿主环境中的资源元素。
type Element interface {
	// ID 返回元素的稳定身份标识，用于单元素重试上限
	ID() string
	Kind() Kind
	// SourceURL 返回当前资源地址（img/script 的 src，link 的 href）
	SourceURL() string
	// SetSourceURL 重新设置资源地址，由宿主决定如何触发重新加载
	SetSourceURL(url string)
	Attr(name string) (string, bool)
	SetAttr(name, value string)
}

// Handler 资源事件处理函数。
// 返回的错误只来自配置错误（如 OnRetry 钩子返回非法结果）。
type Handler func(ctx context.Context, el Element) error

// Source 资源加载通知的来源。
type Source interface {
	OnResourceFailure(h Handler)
	OnResourceLoad(h Handler)
}
