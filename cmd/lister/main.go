// Package main 是交易行挂单助手的命令行入口。
// 查询物品的最优买卖价，并给出扣税后收益最高的挂单价格建议。
//
// 子命令:
//
//	search <名称|ID>    查询并打印结果面板
//	rebuild [--force]  重建名称缓存
//	serve              启动后台服务与 WebSocket 推送
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/config"
	"gw2-optimal-lister/internal/core/events"
	"gw2-optimal-lister/internal/core/lister"
	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/core/store"
	"gw2-optimal-lister/internal/stats/latency"
)

// latencyWindow 每个接口保留的耗时样本数
const latencyWindow = 1000

// version 构建时通过 -ldflags 注入
var version = "dev"

var flagConfig string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lister",
	Short:         "交易行挂单价格助手",
	Long:          "查询物品的最优买卖价，并给出扣除交易税后收益最高的挂单价格建议。",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本号",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "配置文件路径（不存在时使用默认配置）")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// app 一次命令执行所需的全部组件
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	bus     *events.Bus
	svc     *lister.Service
	store   *store.Store
	latency *latency.Tracker
}

// newApp 加载配置并组装服务
func newApp() (*app, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger := newLogger(cfg.App.LogLevel).With(zap.String("app", cfg.App.Name))
	bus := events.New(cfg.Events.BufferSize)
	tracker := latency.NewTracker(latencyWindow)
	client := catalog.NewClient(&cfg.API, logger)
	client.SetObserver(tracker)
	st := store.NewOS(cfg.Cache.Path)
	svc := lister.New(cfg, client, st, bus, logger)

	return &app{cfg: cfg, logger: logger, bus: bus, svc: svc, store: st, latency: tracker}, nil
}

// signalContext 收到 SIGINT/SIGTERM 时取消
func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("收到退出信号，开始优雅关闭")
			cancel()
		case <-ctx.Done():
		}
		ossignal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// consoleSink 把状态事件打印到终端
type consoleSink struct {
	w io.Writer
}

func (c consoleSink) OnStatus(ev model.StatusEvent) {
	fmt.Fprintf(c.w, "[%s] %s\n", ev.Severity, ev.Message)
}

func (c consoleSink) OnResult(ev model.ResultEvent) {
	if ev.Kind == model.ResultBuild && ev.Message != "" {
		fmt.Fprintf(c.w, "[%s] %s\n", ev.Outcome, ev.Message)
	}
}

// logLatency 以 debug 级别输出各接口耗时统计
func (a *app) logLatency() {
	for _, st := range a.latency.All() {
		a.logger.Debug("目录接口耗时",
			zap.String("endpoint", st.Endpoint),
			zap.Int64("count", st.Count),
			zap.Int64("failures", st.Failures),
			zap.Float64("p50_ms", st.P50Ms),
			zap.Float64("p99_ms", st.P99Ms))
	}
}
