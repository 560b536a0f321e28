package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xassets/pkg/assets/xassetconf"
	"github.com/omeyang/xassets/pkg/assets/xassetretry"
	"github.com/omeyang/xassets/pkg/assets/xassetsink"
	"github.com/omeyang/xassets/pkg/assets/xpage"
	"github.com/omeyang/xassets/pkg/assets/xprobe"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// isCLIUsageError 判断是否为 CLI 框架产生的参数错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"No help topic for",
		"Required flag",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createCheckCommand(),
		createResolveCommand(),
		createSplitCommand(),
	}
}

// createCheckCommand 创建 check 子命令。
func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "加载 HTML 页面中的资源并按域名映射重试",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "down",
				Usage: "视为不可用的主机，可重复",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "最大并发探测数，0 表示使用配置",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "单次探测超时，0 表示使用配置",
			},
			&cli.StringFlag{
				Name:  "base",
				Usage: "解析相对资源地址的基准 URL",
			},
			&cli.StringFlag{
				Name:  "redis",
				Usage: "结果写入的 Redis 地址，覆盖配置",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "重试改写后的 HTML 输出路径",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "以 JSON 输出报告",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "配置文件变更时重新检查（需要 --config）",
			},
		},
		Action: cmdCheck,
	}
}

// createResolveCommand 创建 resolve 子命令。
func createResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "显示 URL 的映射域名、源域名与候选地址",
		ArgsUsage: "<url>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return &usageError{msg: "resolve 需要至少一个 URL"}
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			domains, err := cfg.Domains()
			if err != nil {
				return err
			}
			return cmdResolve(cmd.Root().Writer, xassetretry.NewAnalyzer(domains, nil), cmd.Args().Slice())
		},
	}
}

// createSplitCommand 创建 split 子命令。
func createSplitCommand() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "按映射域名拆分 URL",
		ArgsUsage: "<url>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return &usageError{msg: "split 需要至少一个 URL"}
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			domains, err := cfg.Domains()
			if err != nil {
				return err
			}
			return cmdSplit(cmd.Root().Writer, xassetretry.NewAnalyzer(domains, nil), cmd.Args().Slice())
		},
	}
}

func cmdResolve(w io.Writer, a *xassetretry.Analyzer, urls []string) error {
	out := 0
	for _, raw := range urls {
		s, ok := a.Split(raw)
		if !ok {
			fmt.Fprintf(w, "%s\tout-of-scope\n", raw)
			out++
			continue
		}
		origin, _ := a.Domains().Origin(s.Domain)
		replacement, ok := a.Domains().Replacement(s.Domain)
		if !ok {
			fmt.Fprintf(w, "%s\tdomain=%s origin=%s replacement=-\n", raw, s.Domain, origin)
			continue
		}
		fmt.Fprintf(w, "%s\tdomain=%s origin=%s replacement=%s candidate=%s\n",
			raw, s.Domain, origin, replacement, s.Join(replacement))
	}
	if out == len(urls) {
		return &exitError{code: 1}
	}
	return nil
}

func cmdSplit(w io.Writer, a *xassetretry.Analyzer, urls []string) error {
	failed := false
	for _, raw := range urls {
		s, ok := a.Split(raw)
		if !ok {
			fmt.Fprintf(w, "%s\tout-of-scope\n", raw)
			failed = true
			continue
		}
		fmt.Fprintf(w, "%s\tprefix=%q host=%q port=%q domain=%q path=%q\n",
			raw, s.Prefix, s.Host, s.Port, s.Domain, s.Path)
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// checkOptions check 子命令的运行参数。
type checkOptions struct {
	input       string
	down        []string
	concurrency int
	timeout     time.Duration
	base        *url.URL
	redis       string
	out         string
	json        bool
}

func parseCheckOptions(cmd *cli.Command) (checkOptions, error) {
	if cmd.Args().Len() != 1 {
		return checkOptions{}, &usageError{msg: "check 需要一个 HTML 文件参数（- 表示 stdin）"}
	}
	o := checkOptions{
		input:       cmd.Args().First(),
		down:        cmd.StringSlice("down"),
		concurrency: cmd.Int("concurrency"),
		timeout:     cmd.Duration("timeout"),
		redis:       cmd.String("redis"),
		out:         cmd.String("out"),
		json:        cmd.Bool("json"),
	}
	if o.concurrency < 0 {
		return checkOptions{}, &usageError{msg: "--concurrency 不能为负数"}
	}
	if raw := cmd.String("base"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return checkOptions{}, &usageError{msg: fmt.Sprintf("--base 需要绝对 URL，得到 %q", raw)}
		}
		o.base = u
	}
	return o, nil
}

func cmdCheck(ctx context.Context, cmd *cli.Command) error {
	opts, err := parseCheckOptions(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer := newLogger(cfg, cmd.String("log-file"), cmd.Root().ErrWriter)
	defer func() { _ = closer.Close() }()

	data, err := readInput(opts.input, cmd.Root().Reader)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer

	if !cmd.Bool("watch") {
		return runCheck(ctx, w, data, cfg, opts, logger)
	}
	path := cmd.String("config")
	if path == "" {
		return &usageError{msg: "--watch 需要 --config"}
	}
	return watchCheck(ctx, cmd, w, data, cfg, opts, logger, path)
}

// watchCheck 先执行一次检查，之后每次配置文件变更重新检查，直到 ctx 结束。
func watchCheck(ctx context.Context, cmd *cli.Command, w io.Writer, data []byte, cfg *xassetconf.Config,
	opts checkOptions, logger *slog.Logger, path string) error {
	reloads := make(chan *xassetconf.Config, 1)
	watcher, err := xassetconf.Watch(path, func(c *xassetconf.Config, err error) {
		if err != nil {
			logger.Warn("xassetctl: config reload failed", slog.String("error", err.Error()))
			return
		}
		select {
		case reloads <- c:
		default:
			// 未处理的旧配置直接替换
			select {
			case <-reloads:
			default:
			}
			reloads <- c
		}
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watcher.Start()
		return nil
	})
	g.Go(func() error {
		defer func() { _ = watcher.Stop() }()
		if err := runCheck(gctx, w, data, cfg, opts, logger); err != nil && !isExit(err) {
			logger.Error("xassetctl: check failed", slog.String("error", err.Error()))
		}
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-reloads:
				if err := applyFlags(cmd, next); err != nil {
					logger.Warn("xassetctl: reloaded config rejected", slog.String("error", err.Error()))
					continue
				}
				logger.Info("xassetctl: config reloaded", slog.String("path", path))
				if err := runCheck(gctx, w, data, next, opts, logger); err != nil && !isExit(err) {
					logger.Error("xassetctl: check failed", slog.String("error", err.Error()))
				}
			}
		}
	})
	return g.Wait()
}

func isExit(err error) bool {
	var exitErr *exitError
	return errors.As(err, &exitErr)
}

// runCheck 执行一次页面检查并输出报告。存在最终失败的资源时返回退出码 1。
func runCheck(ctx context.Context, w io.Writer, data []byte, cfg *xassetconf.Config,
	opts checkOptions, logger *slog.Logger) error {
	engineOpts := append(cfg.EngineOptions(), xassetretry.WithLogger(logger))

	addr := opts.redis
	if addr == "" {
		addr = cfg.Sink.Addr
	}
	var sink *xassetsink.Sink
	if addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer func() { _ = client.Close() }()
		s, err := xassetsink.New(client, xassetsink.WithPrefix(cfg.Sink.Prefix), xassetsink.WithLogger(logger))
		if err != nil {
			return err
		}
		sink = s
		engineOpts = append(engineOpts,
			xassetretry.WithOnFail(sink.OnFail),
			xassetretry.WithOnSuccess(sink.OnSuccess),
		)
	}
	engine, err := xassetretry.New(engineOpts...)
	if err != nil {
		return err
	}

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Timeout
	}
	var prober xprobe.Prober = xprobe.NewHTTPProber(xprobe.WithTimeout(timeout))
	if len(opts.down) > 0 {
		prober = xprobe.DownHosts(prober, opts.down...)
	}

	concurrency := opts.concurrency
	if concurrency == 0 {
		concurrency = cfg.Concurrency
	}
	page, err := xpage.New(bytes.NewReader(data), engine, prober,
		xpage.WithLogger(logger),
		xpage.WithConcurrency(concurrency),
		xpage.WithBaseURL(opts.base),
	)
	if err != nil {
		return err
	}

	report, runErr := page.Run(ctx)
	if report == nil {
		return runErr
	}
	if err := printReport(w, report, opts.json); err != nil {
		return err
	}
	if opts.out != "" {
		html, err := page.HTML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
	}
	if sink != nil {
		if err := sink.Publish(ctx, report.Stats); err != nil {
			return fmt.Errorf("publish stats: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if report.Failed() > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// readInput 读取文件，"-" 表示从 r 读取。
func readInput(path string, r io.Reader) ([]byte, error) {
	if path == "-" {
		if r == nil {
			r = os.Stdin
		}
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// setupSignalHandler 设置信号处理。
// 第一次信号优雅取消，第二次信号强制退出（退出码 130）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
