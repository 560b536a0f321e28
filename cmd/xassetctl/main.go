// xassetctl 是资源域名重试的命令行工具。
//
// 用法:
//
//	xassetctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config     配置文件路径（.yaml/.yml/.json）
//	--domain         域名映射 from=to，可重复，覆盖配置文件
//	--ring           环形域名列表，可重复，按出现顺序成环
//	--max-retry      最大重试次数，覆盖配置文件
//	--log-level      日志级别 (debug/info/warn/error)
//	--log-format     日志格式 (text/json)
//	--log-file       日志文件路径，按大小轮转；为空时写 stderr
//
// 命令:
//
//	check <file>     加载 HTML 页面中的资源并按域名映射重试（"-" 表示 stdin）
//	resolve <url>... 显示 URL 的映射域名、源域名与候选地址
//	split <url>...   按映射域名拆分 URL
//
// 退出码:
//
//	0: 成功（check: 全部资源最终加载成功）
//	1: 执行失败（check: 存在最终加载失败的资源）
//	2: 参数错误
//
// 示例:
//
//	xassetctl -c assets.yaml check index.html
//	xassetctl --domain a.com=b.com check --down a.com --base https://a.com/ index.html
//	xassetctl --ring a.com --ring b.com resolve https://a.com/app.js
//	xassetctl -c assets.yaml check --watch --redis 127.0.0.1:6379 index.html
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xassetctl",
		Usage:   "静态资源加载失败的域名切换重试工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringSliceFlag{
				Name:  "domain",
				Usage: "域名映射 from=to，可重复",
			},
			&cli.StringSliceFlag{
				Name:  "ring",
				Usage: "环形域名列表，可重复",
			},
			&cli.IntFlag{
				Name:  "max-retry",
				Usage: "最大重试次数",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，按大小轮转",
			},
		},
		Commands: createCommands(),
		// 由 run() 统一处理退出码映射。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(args []string) int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return exitCode(app.Run(ctx, args))
}

// exitCode 把命令返回的错误映射为退出码。
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}
