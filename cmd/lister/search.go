package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/core/events"
	"gw2-optimal-lister/internal/core/lister"
	"gw2-optimal-lister/internal/format"
)

var flagJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <名称|ID>",
	Short: "查询物品报价与挂单建议",
	Long:  "加载名称缓存（不存在时先构建），解析物品名称或 ID，获取实时报价并打印挂单建议。",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&flagJSON, "json", false, "以 JSON 输出报价与建议")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	stop := a.startConsolePump(ctx, cmd)
	defer stop()

	if _, err := a.svc.LoadOrBuild(ctx); err != nil && !a.svc.Ready() {
		return fmt.Errorf("名称缓存不可用: %w", err)
	}

	query := strings.Join(args, " ")
	report, err := a.svc.Lookup(ctx, query)
	a.logLatency()
	if err != nil {
		_, msg := lister.SearchMessage(err, query)
		a.logger.Debug("查询失败", zap.String("query", query), zap.Error(err))
		return errors.New(msg)
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprint(cmd.OutOrStdout(), format.Describe(&report))
	return nil
}

// startConsolePump 在后台把状态事件打印到 stderr；返回的函数停止并刷完剩余事件
func (a *app) startConsolePump(ctx context.Context, cmd *cobra.Command) func() {
	pump := events.NewPump(a.bus, a.cfg.Events.StatusPoll(), a.cfg.Events.ResultPoll(), a.logger,
		consoleSink{w: cmd.ErrOrStderr()})
	pumpCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pump.Run(pumpCtx)
	}()
	return func() {
		cancel()
		<-done
	}
}
