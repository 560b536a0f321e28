// Package xassetsink 把资源重试结果写入 Redis。
//
// Sink 提供两类写入：
//
//   - OnFail / OnSuccess：签名与 xassetretry.PathHook 一致，可直接作为引擎回调，
//     分别 RPUSH 到 <prefix>:fail 和 <prefix>:success 列表
//   - Publish：把 Engine.Snapshot() 的结果写入 <prefix>:domain:<源域名> 哈希，
//     并登记到 <prefix>:domains 集合
//
// 写入失败按 WithAttempts / WithDelay 重试，这里的重试只针对 Redis 写入，
// 与资源加载的域名重试无关。回调形式的写入无法返回错误，最终失败只记录日志。
package xassetsink
