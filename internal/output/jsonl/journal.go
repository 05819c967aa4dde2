package jsonl

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/core/model"
)

// EventsFile 事件日志文件名
const EventsFile = "events.jsonl"

// Record 事件日志中的一行
type Record struct {
	// Type status 或 result
	Type string `json:"type"`
	// Status 状态事件（Type=status）
	Status *model.StatusEvent `json:"status,omitempty"`
	// Result 结果事件（Type=result）
	Result *model.ResultEvent `json:"result,omitempty"`
}

// Journal 把状态/结果事件逐条写入 events.jsonl
// 实现 events.Sink
type Journal struct {
	w      *Writer
	logger *zap.Logger
}

// OpenJournal 在 dir 下打开事件日志
func OpenJournal(fsys afero.Fs, dir string, bufferSize int, logger *zap.Logger) (*Journal, error) {
	w, err := NewWriter(fsys, filepath.Join(dir, EventsFile), bufferSize, logger)
	if err != nil {
		return nil, err
	}
	return &Journal{w: w, logger: logger.Named("journal")}, nil
}

// OnStatus 记录状态事件
func (j *Journal) OnStatus(ev model.StatusEvent) {
	j.write(Record{Type: "status", Status: &ev})
}

// OnResult 记录结果事件
func (j *Journal) OnResult(ev model.ResultEvent) {
	j.write(Record{Type: "result", Result: &ev})
}

// Close 刷盘并关闭
func (j *Journal) Close() error {
	return j.w.Close()
}

func (j *Journal) write(r Record) {
	if err := j.w.Write(r); err != nil {
		j.logger.Debug("事件日志已关闭，丢弃记录", zap.String("type", r.Type))
	}
}
