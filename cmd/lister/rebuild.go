package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gw2-optimal-lister/internal/core/model"
)

var flagForce bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "重建物品名称缓存",
	Long:  "从远程目录重新拉取全部可交易物品名称，写入缓存快照。未指定 --force 且快照可用时直接返回。",
	Args:  cobra.NoArgs,
	RunE:  runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVar(&flagForce, "force", false, "即使缓存已加载也重新构建")
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	stop := a.startConsolePump(ctx, cmd)

	var report model.BuildReport
	if flagForce {
		// 先加载已有快照，重建失败时仍可回退到旧缓存
		_, _ = a.svc.LoadSnapshot()
		report, err = a.svc.Build(ctx, true)
	} else {
		// 非强制：快照可用时直接返回
		report, err = a.svc.LoadOrBuild(ctx)
	}
	stop()
	a.logLatency()

	if err != nil {
		if a.svc.Ready() {
			fmt.Fprintf(cmd.OutOrStdout(), "构建失败，继续使用已有缓存（%d 条）\n", a.svc.Items())
		}
		return fmt.Errorf("重建名称缓存失败: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "名称缓存: %d 条（%s）\n", a.svc.Items(), report.Outcome)
	if len(report.FailedBatches) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "跳过批次: %v\n", report.FailedBatches)
	}
	return nil
}
