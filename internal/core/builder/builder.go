// Package builder 负责一次性（或强制重复）重建名称索引。
//
// 流程：
//  1. 获取全部可交易物品 ID，列表为空则整体失败（ErrEmptyCatalog）
//  2. 按原顺序切分为固定大小的批次
//  3. 逐批获取物品详情，瞬时故障按固定间隔有界重试；重试耗尽则跳过该批并发出警告
//  4. 非空名称写入临时映射（小写名称 -> ID），不触碰在线索引
//  5. 临时映射非空：先保存快照，再整体替换在线索引；为空则 ErrNoItemsRetrieved
//
// 同名（小写后相同）的不同物品，后处理的批次覆盖先处理的批次。
package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/config"
	"gw2-optimal-lister/internal/core/index"
	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/util/backoff"
	"gw2-optimal-lister/internal/util/timeutil"
)

var (
	// ErrEmptyCatalog 远程可交易物品列表为空
	ErrEmptyCatalog = errors.New("可交易物品列表为空")
	// ErrNoItemsRetrieved 所有批次均失败，未取得任何物品名称
	ErrNoItemsRetrieved = errors.New("未获取到任何物品")
)

// Catalog 构建所需的远程目录接口
type Catalog interface {
	FetchTradeableIDs(ctx context.Context) ([]int64, error)
	FetchItems(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

// Snapshotter 快照写入接口
type Snapshotter interface {
	Save(entries map[string]int64) error
}

// StatusPublisher 进度事件发布接口
type StatusPublisher interface {
	PublishStatus(ev model.StatusEvent)
}

// Builder 名称索引构建器
// 多次并发调用 Build 是安全的：互斥由索引的 Building 状态保证
type Builder struct {
	catalog   Catalog
	index     *index.Index
	store     Snapshotter
	status    StatusPublisher
	batchSize int
	retry     backoff.Policy
	logger    *zap.Logger
}

// New 创建构建器
// 参数 cat: 远程目录
// 参数 idx: 在线索引
// 参数 st: 快照存储
// 参数 pub: 进度事件发布者
// 参数 cfg: 批大小与重试参数
func New(cat Catalog, idx *index.Index, st Snapshotter, pub StatusPublisher, cfg *config.APIConfig, logger *zap.Logger) *Builder {
	b := &Builder{
		catalog:   cat,
		index:     idx,
		store:     st,
		status:    pub,
		batchSize: cfg.BatchSize,
		logger:    logger.Named("builder"),
	}
	if b.batchSize <= 0 {
		b.batchSize = 200
	}
	b.retry = backoff.FixedPolicy(cfg.MaxRetries, cfg.RetryDelay(), catalog.IsRetryable)
	b.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		b.logger.Debug("请求失败，准备重试",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return b
}

// Build 执行一次构建
// 参数 force: 是否强制重建（索引已就绪时仍重建）
// 返回: 构建结果；已有构建进行中时非强制调用为空操作（BuildInProgress），强制调用返回 ErrBuildInProgress
func (b *Builder) Build(ctx context.Context, force bool) (model.BuildReport, error) {
	outcome, err := b.index.BeginBuild(force)
	if err != nil {
		b.info("Cache build already in progress.")
		return model.BuildReport{Outcome: model.BuildInProgress}, err
	}
	switch outcome {
	case index.BeginInProgress:
		b.info("Cache build already in progress.")
		return model.BuildReport{Outcome: model.BuildInProgress}, nil
	case index.BeginAlreadyLoaded:
		b.info("Cache already loaded.")
		return model.BuildReport{Outcome: model.BuildAlreadyLoaded, Items: b.index.Len()}, nil
	}

	start := timeutil.NowNano()
	entries, report, err := b.fetchAll(ctx)
	report.DurationMs = timeutil.SinceNano(start).Milliseconds()

	if err != nil {
		state := b.index.EndBuild(nil)
		b.logger.Error("构建名称缓存失败",
			zap.Stringer("state", state),
			zap.Ints("failed_batches", report.FailedBatches),
			zap.Error(err))
		if state == index.StateDegraded {
			b.info("Cache build incomplete. Using previous/partial cache.")
		} else {
			b.publish(model.SeverityError, "Cache build failed. Try again or use Item IDs.")
		}
		return report, err
	}

	if saveErr := b.store.Save(entries); saveErr != nil {
		b.logger.Error("保存缓存快照失败，仅更新内存索引", zap.Error(saveErr))
		b.publish(model.SeverityError, "Item cache built but could not be saved.")
	} else {
		report.SnapshotSaved = true
	}

	b.index.EndBuild(entries)
	report.Outcome = model.BuildCompleted
	report.Items = len(entries)

	b.logger.Info("名称缓存构建完成",
		zap.Int("items", report.Items),
		zap.Int("processed", report.Processed),
		zap.Int("batches", report.Batches),
		zap.Ints("failed_batches", report.FailedBatches),
		zap.Int64("duration_ms", report.DurationMs))
	if report.SnapshotSaved {
		b.publish(model.SeveritySuccess, "Item cache built and saved. Ready.")
	} else {
		b.publish(model.SeveritySuccess, "Item cache built. Ready.")
	}
	return report, nil
}

// fetchAll 拉取目录并合并为临时映射
func (b *Builder) fetchAll(ctx context.Context) (map[string]int64, model.BuildReport, error) {
	var report model.BuildReport

	b.info("Building item cache (this may take a few minutes)...")
	b.info("Fetching price list IDs...")

	var ids []int64
	err := b.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ids, err = b.catalog.FetchTradeableIDs(ctx)
		return err
	})
	if err != nil {
		return nil, report, fmt.Errorf("获取可交易物品列表失败: %w", err)
	}
	if len(ids) == 0 {
		return nil, report, ErrEmptyCatalog
	}

	batches := Partition(ids, b.batchSize)
	report.Batches = len(batches)
	b.info("Found %d items. Fetching details...", len(ids))

	temp := make(map[string]int64, len(ids))
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("构建被取消: %w", err)
		}

		n := i + 1
		b.info("Fetching details: Batch %d/%d (%d%%)...", n, len(batches), n*100/len(batches))

		items, err := b.fetchBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, report, fmt.Errorf("构建被取消: %w", ctx.Err())
			}
			report.FailedBatches = append(report.FailedBatches, n)
			b.logger.Warn("批次重试耗尽，跳过",
				zap.Int("batch", n),
				zap.Int("ids", len(batch)),
				zap.Error(err))
			b.info("Error fetching batch %d. Some items missing.", n)
			continue
		}

		for _, it := range items {
			if key := index.Key(it.Name); key != "" {
				temp[key] = it.ID
			}
		}
		report.Processed += len(items)
	}

	if len(temp) == 0 {
		return nil, report, ErrNoItemsRetrieved
	}
	return temp, report, nil
}

func (b *Builder) fetchBatch(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	var items []catalog.Item
	err := b.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		items, err = b.catalog.FetchItems(ctx, ids)
		return err
	})
	return items, err
}

// Partition 按原顺序切分为不超过 size 的批次
func Partition(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

func (b *Builder) info(format string, args ...any) {
	b.publish(model.SeverityInfo, fmt.Sprintf(format, args...))
}

func (b *Builder) publish(sev model.Severity, msg string) {
	if b.status == nil {
		return
	}
	b.status.PublishStatus(model.StatusEvent{Severity: sev, Message: msg})
}
