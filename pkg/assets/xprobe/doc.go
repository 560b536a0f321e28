// Package xprobe 提供资源探测实现。
//
// 探测是一次带外的资源加载，只用于判断资源能否成功加载，
// 与资源实际如何展示无关。xbgimg 用它检测背景图，xpage 用它模拟页面资源加载。
//
// 内置实现：
//   - HTTPProber：发起一次 HTTP 请求，2xx 视为成功
//   - Func：函数适配器
//   - Static：按 URL 查表，适合测试和离线演练
//   - DownHosts：装饰器，让指定主机上的资源一律失败，用于演练域名故障
//
// 探测本身不做任何重试。
package xprobe
