// Package xcapture 提供全局捕获式的资源重试投递机制。
//
// Listener 在宿主环境（Source）上注册一对错误/加载监听，
// 把 img、script、样式表 link 的加载失败交给共享的 xassetretry.Engine 决策，
// 需要重试时为元素打上重试标记并重新设置资源地址。
//
// # 宿主抽象
//
//   - Source：提供 OnResourceFailure / OnResourceLoad 两种通知注册
//   - Element：暴露元素类型、属性、资源地址，以及稳定的身份标识
//   - Dispatcher：Source 的同步实现，供宿主和测试直接派发事件
//
// # 单元素重试上限
//
// 每个元素（按 Element.ID 识别）经由本机制最多自动重试一次，
// 这是叠加在 Engine 计数预算之上的额外上限。已重试集合默认只增不减；
// 宿主会复用元素身份时，可通过 WithRetryCacheSize 改用 LRU 有界集合，
// 被淘汰的元素可能再次获得一次重试。
//
// # 属性约定
//
//   - AttrIgnore（data-assets-retry-ignore）：带此属性的元素不参与重试
//   - AttrRetryID（data-retry-id）：重试时写入的标记，加载监听据此识别重试后的成功
package xcapture
