// Package store 负责名称索引快照的读写。
// 快照是单个 JSON 对象：小写物品名称 -> 非负物品 ID。
// 同一时刻只有一个构建者会调用 Save；Store 记录本进程最近一次读写的内容摘要，
// 用来区分外部进程对快照的替换。
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

var (
	// ErrSnapshotNotFound 快照文件不存在
	ErrSnapshotNotFound = errors.New("缓存快照不存在")
	// ErrSnapshotCorrupt 快照内容不是合法的 名称->ID 映射
	ErrSnapshotCorrupt = errors.New("缓存快照已损坏")
)

// Fingerprint 快照内容摘要（BLAKE3-256）
type Fingerprint [32]byte

// Store 快照存储
type Store struct {
	// fs 文件系统（生产环境为 OsFs，测试使用 MemMapFs）
	fs afero.Fs
	// path 快照文件路径
	path string

	mu sync.Mutex
	// last 本进程最近一次成功 Load/Save 的内容摘要
	last Fingerprint
}

// New 创建快照存储
// 参数 fsys: 文件系统
// 参数 path: 快照文件路径
func New(fsys afero.Fs, path string) *Store {
	return &Store{fs: fsys, path: path}
}

// NewOS 创建基于本地文件系统的快照存储
func NewOS(path string) *Store {
	return New(afero.NewOsFs(), path)
}

// Path 快照文件路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取快照
// 返回: 映射；文件不存在返回 ErrSnapshotNotFound，内容非法返回 ErrSnapshotCorrupt，其余为 I/O 错误
func (s *Store) Load() (map[string]int64, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.path)
		}
		return nil, fmt.Errorf("读取缓存快照失败: %w", err)
	}

	var entries map[string]int64
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if err := check(entries); err != nil {
		return nil, err
	}
	s.remember(data)
	return entries, nil
}

// Save 整体覆盖快照
// 先写入同目录下的临时文件再重命名，写入中途崩溃不会破坏旧快照
func (s *Store) Save(entries map[string]int64) error {
	if err := check(entries); err != nil {
		return fmt.Errorf("拒绝写入非法快照: %w", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("序列化缓存快照失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时快照文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("写入临时快照文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("刷新临时快照文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("关闭临时快照文件失败: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("替换缓存快照失败: %w", err)
	}
	s.remember(data)
	return nil
}

// Changed 快照文件内容是否与本进程最近一次 Load/Save 的不同
// 文件不存在时返回 false
func (s *Store) Changed() (bool, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("读取缓存快照失败: %w", err)
	}
	sum := Fingerprint(blake3.Sum256(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.last, nil
}

// Last 最近一次成功 Load/Save 的内容摘要；从未读写时为零值
func (s *Store) Last() Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Store) remember(data []byte) {
	sum := blake3.Sum256(data)
	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()
}

// check 空映射、空名称与负数 ID 均视为损坏
func check(entries map[string]int64) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: 映射为空", ErrSnapshotCorrupt)
	}
	for name, id := range entries {
		if name == "" {
			return fmt.Errorf("%w: 存在空名称", ErrSnapshotCorrupt)
		}
		if id < 0 {
			return fmt.Errorf("%w: 名称 %q 的 ID 为负数 %d", ErrSnapshotCorrupt, name, id)
		}
	}
	return nil
}
