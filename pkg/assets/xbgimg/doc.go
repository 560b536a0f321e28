// Package xbgimg 提供背景图容器的探测式资源重试。
//
// CSS 背景图加载失败不会产生任何可监听的事件，全局捕获机制（xcapture）对它无能为力。
// Container 在声明背景图的同时用 xprobe.Prober 对同一地址发起一次带外探测，
// 探测失败交给共享的 xassetretry.Engine 决策，需要重试时切换 activeURL 并再次探测，
// 直到成功、引擎给出终止或忽略结论为止。
//
// # 生命周期
//
//   - New：创建容器，处于 PhaseIdle
//   - Mount：开始探测声明的地址
//   - Update：ImgSrc 变化时重置 activeURL 与重试标记并重新探测
//   - Unmount：取消进行中的探测，之后到达的结果被丢弃
//
// 每次重置或卸载都会递增内部代次，过期代次的探测结果不会触发引擎回调。
//
// # 渲染
//
// Render 返回的 Node 在调用方样式上合并 background-image: url("<activeURL>")，
// 其余属性和子节点原样透传。探测不阻塞渲染。
package xbgimg

//go:generate mockgen -destination=mock_prober_test.go -package=xbgimg github.com/omeyang/xassets/pkg/assets/xprobe Prober
