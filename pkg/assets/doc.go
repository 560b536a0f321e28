// Package assets 提供页面静态资源加载失败后的域名切换重试相关子包。
//
// 子包列表：
//   - xassetretry: 重试决策引擎（域名解析、结果收集、重试判定）
//   - xcapture: 全局捕获监听（img/script/link）
//   - xbgimg: 背景图容器的探测式重试
//   - xprobe: 资源探测实现（HTTP、静态表）
//   - xpage: 基于 HTML 文档的宿主环境，串联上述组件
//   - xassetconf: 配置加载与文件监视
//   - xassetsink: 基于 Redis 的结果上报
//
// 设计原则：
//   - 引擎与投递机制分离，引擎通过依赖注入共享
//   - 重试是立即的、逐个的，仅受计数器约束，不做网络层退避
package assets
