package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监听快照文件被其他进程替换（例如另一个终端执行 rebuild）
// 只作用于本地文件系统；Save 通过重命名替换文件，所以监听的是快照所在目录。
type Watcher struct {
	store    *Store
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher 创建快照监听器
// 参数 st: 快照存储（需基于本地文件系统）
// 参数 debounce: 事件合并窗口，同一窗口内的多次写入只触发一次检查
func NewWatcher(st *Store, debounce time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		store:    st,
		debounce: debounce,
		logger:   logger.Named("snapshot-watch"),
	}
}

// Run 阻塞监听直到 ctx 取消
// 快照内容与本进程最近一次读写不同时调用 onChange；本进程自己的 Save 不会触发
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer func() { _ = fw.Close() }()

	target := filepath.Clean(w.store.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("监听快照目录失败: %w", err)
	}
	w.logger.Info("开始监听缓存快照", zap.String("path", target))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed, err := w.store.Changed()
			if err != nil {
				w.logger.Warn("检查缓存快照失败", zap.Error(err))
				continue
			}
			if changed {
				w.logger.Info("缓存快照已被外部更新")
				onChange()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("文件监听错误", zap.Error(err))
		}
	}
}
