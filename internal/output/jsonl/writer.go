// Package jsonl 实现异步 JSONL 事件日志。
// 调用方只负责投递，JSON 编码与文件 I/O 在后台 goroutine 完成。
package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrClosed 写入器已关闭
var ErrClosed = errors.New("writer 已关闭")

type opType int

const (
	opWrite opType = iota
	opFlush
	opClose
)

type op struct {
	typ  opType
	val  any
	done chan error
}

// Writer 异步 JSONL 写入器
type Writer struct {
	// path 输出文件路径
	path string
	// ch 操作通道
	ch chan op

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool

	sendMu sync.Mutex
	wg     sync.WaitGroup

	// encodeErrors 编码或写入失败被跳过的记录数
	encodeErrors atomic.Int64
	logger       *zap.Logger
}

// NewWriter 创建 JSONL 写入器（追加模式）
// 参数 fsys: 文件系统
// 参数 path: 输出文件路径
// 参数 bufferSize: 写入缓冲区大小（channel capacity）
func NewWriter(fsys afero.Fs, path string, bufferSize int, logger *zap.Logger) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{
		path:   path,
		ch:     make(chan op, bufferSize),
		logger: logger.Named("jsonl"),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// Path 输出文件路径
func (w *Writer) Path() string {
	return w.path
}

// Write 异步写入一条记录
// 缓冲区满时阻塞到后台 goroutine 腾出空间
func (w *Writer) Write(v any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}
	if w.closed.Load() {
		return ErrClosed
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed.Load() {
		return ErrClosed
	}
	w.ch <- op{typ: opWrite, val: v}
	return nil
}

// Flush 强制 flush 文件缓冲区
func (w *Writer) Flush() error {
	if w == nil || w.closed.Load() {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed.Load() {
		return nil
	}
	done := make(chan error, 1)
	w.ch <- op{typ: opFlush, done: done}
	return <-done
}

// Close 关闭写入器（会先 flush）
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.sendMu.Lock()
		defer w.sendMu.Unlock()
		done := make(chan error, 1)
		w.ch <- op{typ: opClose, done: done}
		w.closeErr = <-done
		close(w.ch)
	})
	w.wg.Wait()
	return w.closeErr
}

// EncodeErrors 被跳过的记录数
func (w *Writer) EncodeErrors() int64 {
	return w.encodeErrors.Load()
}

func (w *Writer) loop(f afero.File) {
	defer w.wg.Done()

	bw := bufio.NewWriterSize(f, 64<<10)
	reply := func(err error, done chan error) {
		if done != nil {
			done <- err
		}
	}

	for req := range w.ch {
		switch req.typ {
		case opWrite:
			b, err := json.Marshal(req.val)
			if err == nil {
				b = append(b, '\n')
				_, err = bw.Write(b)
			}
			if err != nil {
				if w.encodeErrors.Add(1) == 1 {
					w.logger.Warn("写入 JSONL 记录失败", zap.String("path", w.path), zap.Error(err))
				}
			}
		case opFlush:
			reply(bw.Flush(), req.done)
		case opClose:
			err := bw.Flush()
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			reply(err, req.done)
			return
		}
	}
}
