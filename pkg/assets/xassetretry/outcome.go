package xassetretry

// Action Engine.OnFailure 对一次失败给出的处理动作。
type Action uint8

const (
	// ActionIgnore 不做任何处理
	ActionIgnore Action = iota
	// ActionTerminal 预算耗尽，已调用 OnFail
	ActionTerminal
	// ActionRetry 投递机制应使用 Outcome.URL 重新加载
	ActionRetry
)

// String 返回动作名称。
func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionTerminal:
		return "terminal"
	case ActionRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Reason 给出动作的原因。
//
// 预算耗尽和缺少备用域名在可观察行为上都是"不重试"，
// 这里用不同的 Reason 区分，便于统计和测试。
type Reason uint8

const (
	// ReasonOutOfScope URL 的主机不在映射中
	ReasonOutOfScope Reason = iota
	// ReasonNoMapping 匹配到的主机没有备用域名
	ReasonNoMapping
	// ReasonExhausted 重试预算耗尽
	ReasonExhausted
	// ReasonVetoed OnRetry 钩子放弃了本次重试
	ReasonVetoed
	// ReasonSubstituted 已完成域名替换
	ReasonSubstituted
)

// String 返回原因名称。
func (r Reason) String() string {
	switch r {
	case ReasonOutOfScope:
		return "out_of_scope"
	case ReasonNoMapping:
		return "no_mapping"
	case ReasonExhausted:
		return "exhausted"
	case ReasonVetoed:
		return "vetoed"
	case ReasonSubstituted:
		return "substituted"
	default:
		return "unknown"
	}
}

// Outcome Engine.OnFailure 的结果。
type Outcome struct {
	Action Action
	Reason Reason
	// URL ActionRetry 时为需要重新加载的 URL
	URL string
	// Path ActionTerminal 时为传给 OnFail 的路径
	Path string
	// Domain 匹配到的映射主机，ReasonOutOfScope 时为空
	Domain string
}

// IsRetry 报告是否需要重新加载。
func (o Outcome) IsRetry() bool {
	return o.Action == ActionRetry
}
