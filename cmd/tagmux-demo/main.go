// Package main 提供 tagmux 演示程序
//
// 启动若干会话，每个会话以 uuid 作为 tag 发送一批消息；
// 每个新通道由一个回显处理协程服务，回复经汇聚通道统一收取。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/dep2p/go-tagmux"
	"github.com/dep2p/go-tagmux/config"
	"github.com/dep2p/go-tagmux/internal/app"
	"github.com/dep2p/go-tagmux/pkg/lib/log"
)

var logger = log.Logger("tagmux/cmd")

// options 命令行参数
type options struct {
	configFile string
	preset     string
	mode       string
	sessions   int
	messages   int
	rate       float64
	logLevel   string
	verbose    bool
	timeout    time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("tagmux-demo", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configFile, "config", "c", "", "配置文件路径（.json / .yaml）")
	flagSet.StringVar(&opts.preset, "preset", "", "预设配置 (default/throughput/lowmem)")
	flagSet.StringVarP(&opts.mode, "mode", "m", string(app.ModeMux), "运行模式 (mux/sink)")
	flagSet.IntVarP(&opts.sessions, "sessions", "s", 8, "并发会话数")
	flagSet.IntVarP(&opts.messages, "messages", "n", 100, "每个会话发送的消息数")
	flagSet.Float64Var(&opts.rate, "rate", 0, "每个会话每秒发送的消息数（0 = 不限速）")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "日志级别，覆盖配置文件 (debug/info/warn/error)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "输出 Fx 事件日志")
	flagSet.DurationVar(&opts.timeout, "timeout", time.Minute, "整体运行超时")
	showVersion := flagSet.Bool("version", false, "显示版本信息")
	flagSet.BoolP("help", "h", false, "显示帮助信息")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if *showVersion {
		fmt.Println(tagmux.VersionInfo())
		return nil
	}
	if opts.sessions <= 0 || opts.messages <= 0 {
		return fmt.Errorf("--sessions 与 --messages 必须大于 0")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if err := log.Setup(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	logger.Info("启动演示", "version", tagmux.Version, "mode", opts.mode,
		"sessions", opts.sessions, "messages", opts.messages)

	mode, err := app.ParseMode(opts.mode)
	if err != nil {
		return fmt.Errorf("%w: %q", err, opts.mode)
	}

	b := app.NewBootstrap[string, string](
		app.WithConfig(cfg),
		app.WithMode(mode),
		app.WithRegisterer(prometheus.NewRegistry()),
		app.WithVerbose(opts.verbose),
	)
	rt, err := b.Build(ctx)
	if err != nil {
		return err
	}

	w := &workload{
		sessions: opts.sessions,
		messages: opts.messages,
		rate:     opts.rate,
	}

	started := time.Now()
	var res result
	var runErr error
	switch mode {
	case app.ModeMux:
		res, runErr = w.runMux(ctx, rt.Mux, rt.Aggregator)
	case app.ModeSink:
		res, runErr = w.runSink(ctx, rt.Sink, rt.Out)
	}
	elapsed := time.Since(started)

	if err := rt.Stop(context.Background()); err != nil {
		logger.Warn("停止失败", "err", err)
	}

	printSummary(opts, res, rt.Stats(), elapsed)
	return runErr
}

// loadConfig 加载配置文件并应用预设与命令行覆盖
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.NewConfig()
	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyPreset(cfg, opts.preset); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func printSummary(opts options, res result, stats tagmux.Stats, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("════════════════════════════════════════")
	fmt.Printf("  模式:       %s\n", opts.mode)
	fmt.Printf("  会话:       %d\n", opts.sessions)
	fmt.Printf("  已发送:     %d\n", res.sent)
	fmt.Printf("  已回复:     %d\n", res.replies)
	fmt.Printf("  回复不符:   %d\n", res.mismatched)
	fmt.Printf("  耗时:       %s\n", elapsed.Round(time.Millisecond))
	fmt.Println("────────────────────────────────────────")
	fmt.Printf("  通道创建:   %d\n", stats.LanesCreated)
	fmt.Printf("  通道驱逐:   %d\n", stats.LanesEvicted)
	fmt.Printf("  投递重试:   %d\n", stats.Retries)
	fmt.Printf("  投递速率:   %.2f/s\n", stats.DeliverRate)
	fmt.Println("════════════════════════════════════════")
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tagmux 演示程序

启动若干会话，每个会话以 uuid 作为 tag 经多路复用器发送消息，
回显处理协程把大写后的回复写入汇聚通道。结束时打印投递统计。

用法:
  tagmux-demo [选项]

选项:
`)
	flagSet.PrintDefaults()
}
