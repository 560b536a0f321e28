// Package xpage 以 HTML 文档为宿主运行资源域名重试。
//
// Page 用 goquery 解析文档，收集 img[src]、script[src]、rel=stylesheet 的 link[href]
// 以及带内联 background-image: url(...) 的元素，然后：
//
//   - 资源元素：由 Prober 探测加载结果，经 xcapture.Dispatcher 派发给 xcapture.Listener；
//     监听器改写地址后，Page 重新加载该元素
//   - 内联背景图：每个元素对应一个 xbgimg.Container，结束后把渲染出的 style 写回文档
//
// 两种机制共享同一个 xassetretry.Engine，因此共享计数与回调。
//
// # 并发模型
//
// 探测在 worker goroutine 中并发执行（上限见 WithConcurrency），结果汇入单个事件循环
// goroutine 依次派发，处理函数之间不会并发执行。
//
// # 使用示例
//
//	engine, _ := xassetretry.New(xassetretry.WithDomainMap(map[string]string{"a.com": "b.com"}))
//	page, err := xpage.New(strings.NewReader(html), engine, xprobe.NewHTTPProber())
//	if err != nil {
//	    return err
//	}
//	report, err := page.Run(ctx)
package xpage
