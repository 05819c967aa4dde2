package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/core/events"
	"gw2-optimal-lister/internal/core/store"
	"gw2-optimal-lister/internal/output/jsonl"
	"gw2-optimal-lister/internal/transport/wsfeed"
)

const (
	// shutdownTimeout 优雅关闭等待上限
	shutdownTimeout = 10 * time.Second
	// snapshotDebounce 快照文件事件合并窗口
	snapshotDebounce = 500 * time.Millisecond
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动后台服务与 WebSocket 推送",
	Long:  "启动缓存加载 worker 与事件分发，并在 feed.addr 上提供 /events WebSocket 接口供展示层连接。",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	hub := wsfeed.NewHub(a.svc, &a.cfg.Feed, a.logger)
	sinks := []events.Sink{hub}

	var journal *jsonl.Journal
	if a.cfg.Output.EventsEnabled {
		journal, err = jsonl.OpenJournal(afero.NewOsFs(), a.cfg.Output.Dir, a.cfg.Output.BufferSize, a.logger)
		if err != nil {
			a.logger.Error("打开事件日志失败", zap.Error(err))
		} else {
			sinks = append(sinks, journal)
			a.logger.Info("事件日志已启用", zap.String("path", filepath.Join(a.cfg.Output.Dir, jsonl.EventsFile)))
		}
	}

	pump := events.NewPump(a.bus, a.cfg.Events.StatusPoll(), a.cfg.Events.ResultPoll(), a.logger, sinks...)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		_ = pump.Run(ctx)
	}()

	a.svc.StartInitialLoad(ctx)

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		w := store.NewWatcher(a.store, snapshotDebounce, a.logger)
		if err := w.Run(ctx, a.svc.ReloadSnapshot); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("缓存快照监听不可用", zap.Error(err))
		}
	}()

	server := wsfeed.NewServer(a.cfg.Feed.Addr, hub, a.latency, a.logger)
	serveErr := server.Run(ctx, shutdownTimeout)
	cancel()

	// 优雅关闭（10s 超时）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-watchDone
		a.svc.Wait()
		<-pumpDone
		if journal != nil {
			if err := journal.Close(); err != nil {
				a.logger.Warn("关闭事件日志失败", zap.Error(err))
			}
		}
	}()

	select {
	case <-shutdownCtx.Done():
		a.logger.Warn("关闭超时，强制退出")
	case <-done:
		a.logger.Info("关闭完成")
	}
	return serveErr
}
