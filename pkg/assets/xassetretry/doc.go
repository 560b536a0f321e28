// Package xassetretry 提供静态资源加载失败后的域名切换重试决策。
//
// # 核心概念
//
//   - DomainMap：源域名 → 备用域名的不可变映射，支持映射形式和环形列表形式
//   - Analyzer：解析 URL 所属的源域名，并惰性创建对应的 Collector
//   - Collector：按源域名记录重试次数、失败 URL、重试后成功的 URL
//   - Store：Collector 的所有者，可注入，便于测试隔离
//   - Engine：共享的重试决策引擎，由各投递机制（xcapture、xbgimg）调用
//
// # 决策流程
//
// Engine.OnFailure 按以下顺序执行：
//  1. 解析源域名，不在映射内则忽略（ReasonOutOfScope）
//  2. RetryCount 加一，记录失败 URL
//  3. RetryCount > MaxRetryCount 时调用 OnFail，结果为终止（ReasonExhausted）
//  4. 源域名没有备用域名时忽略（ReasonNoMapping）
//  5. 将 URL 中第一次出现的源域名替换为备用域名
//  6. 调用 OnRetry 钩子：Veto 放弃本次重试，Substitute 返回最终 URL，
//     其他返回值视为编程错误，返回 ErrInvalidHookResult
//
// 引擎本身不发起任何加载，重新加载由投递机制负责。
//
// # 预算语义
//
// 预算比较使用 RetryCount > MaxRetryCount，即第 MaxRetryCount+1 次失败
// 触发终止并调用 OnFail：在放弃之前会尝试 MaxRetryCount 次重试。
// 同一源域名的 Collector 在所有投递机制之间共享。
//
// # 用法
//
//	engine, err := xassetretry.New(
//	    xassetretry.WithDomainMap(map[string]string{"a.com": "b.com"}),
//	    xassetretry.WithMaxRetryCount(3),
//	    xassetretry.WithOnFail(func(ctx context.Context, path string) {
//	        slog.WarnContext(ctx, "asset failed", slog.String("path", path))
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	outcome, err := engine.OnFailure(ctx, "https://a.com/x.png")
//	if err != nil {
//	    return err // OnRetry 钩子返回了非法结果
//	}
//	if outcome.Action == xassetretry.ActionRetry {
//	    reload(outcome.URL)
//	}
package xassetretry
