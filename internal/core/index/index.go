// Package index 维护进程内唯一的物品名称索引（小写名称 -> 物品 ID）。
//
// 索引由构建器整体替换、由查询解析器单条回填，其余组件只读。
// 名称映射与生命周期状态由同一把读写锁保护，读者看到的状态与数据始终一致：
// 要么是替换前的完整映射，要么是替换后的完整映射。
package index

import (
	"errors"
	"maps"
	"strings"
	"sync"
)

// ErrBuildInProgress 已有构建进行中，强制重建被拒绝（不排队、不取消正在运行的构建）
var ErrBuildInProgress = errors.New("缓存构建进行中")

// State 索引生命周期状态
type State int

const (
	// StateEmpty 无可用数据（启动时，或首次构建失败后）
	StateEmpty State = iota
	// StateBuilding 构建进行中，查询应立即失败
	StateBuilding
	// StateReady 数据完整可用
	StateReady
	// StateDegraded 最近一次构建失败，但保留了之前的数据，可查询但不完整
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Queryable 该状态下是否可以查询
func (s State) Queryable() bool {
	return s == StateReady || s == StateDegraded
}

// BeginOutcome BeginBuild 的判定结果
type BeginOutcome int

const (
	// BeginStarted 调用方获得构建权，必须随后调用 EndBuild
	BeginStarted BeginOutcome = iota
	// BeginInProgress 已有构建进行中（非强制调用，空操作）
	BeginInProgress
	// BeginAlreadyLoaded 索引已就绪且未强制（空操作）
	BeginAlreadyLoaded
)

// Index 名称索引
type Index struct {
	mu sync.RWMutex
	// names key: 小写名称
	names map[string]int64
	state State
}

// New 创建空索引（StateEmpty）
func New() *Index {
	return &Index{
		names: make(map[string]int64),
		state: StateEmpty,
	}
}

// Key 归一化名称：去除首尾空白并转小写
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get 按名称查找物品 ID（大小写不敏感）
// 不检查状态，状态判定由调用方通过 State 完成
func (x *Index) Get(name string) (int64, bool) {
	k := Key(name)
	x.mu.RLock()
	id, ok := x.names[k]
	x.mu.RUnlock()
	return id, ok
}

// Lookup 在一次加锁内读取状态并查找，保证状态与数据一致
func (x *Index) Lookup(name string) (id int64, found bool, state State) {
	k := Key(name)
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, found = x.names[k]
	return id, found, x.state
}

// Insert 回填单条映射，名称已存在时不覆盖
// 返回: 是否实际写入
func (x *Index) Insert(name string, id int64) bool {
	k := Key(name)
	if k == "" || id < 0 {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.names[k]; exists {
		return false
	}
	x.names[k] = id
	return true
}

// Load 用快照内容填充索引（启动时），成功后状态为 StateReady
// 构建进行中时不做任何事并返回 false
func (x *Index) Load(entries map[string]int64) bool {
	next := normalize(entries)
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.state == StateBuilding {
		return false
	}
	x.names = next
	x.state = StateReady
	return true
}

// BeginBuild 尝试获取构建权
// 参数 force: 是否强制重建
// 返回: 判定结果；强制重建且已有构建进行中时返回 ErrBuildInProgress
func (x *Index) BeginBuild(force bool) (BeginOutcome, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	switch {
	case x.state == StateBuilding && force:
		return BeginInProgress, ErrBuildInProgress
	case x.state == StateBuilding:
		return BeginInProgress, nil
	case x.state == StateReady && !force:
		return BeginAlreadyLoaded, nil
	}
	x.state = StateBuilding
	return BeginStarted, nil
}

// EndBuild 结束构建，即构建结果的整体替换（swap）
// 参数 entries: 成功时的新映射，调用后归索引所有，不得再修改；为 nil 或空表示构建失败
// 成功时在一次加锁内替换映射并置为 StateReady；
// 失败时保留已有数据并置为 StateDegraded，无数据则回到 StateEmpty
func (x *Index) EndBuild(entries map[string]int64) State {
	x.mu.Lock()
	defer x.mu.Unlock()
	switch {
	case len(entries) > 0:
		x.names = entries
		x.state = StateReady
	case len(x.names) > 0:
		x.state = StateDegraded
	default:
		x.state = StateEmpty
	}
	return x.state
}

// State 当前状态
func (x *Index) State() State {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.state
}

// Len 当前映射条数
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.names)
}

// Snapshot 返回当前映射的拷贝
func (x *Index) Snapshot() map[string]int64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return maps.Clone(x.names)
}

// normalize 把快照键归一化
// 多个键归一化后相同时（手工编辑的快照），已是归一化形式的键优先，
// 否则取字典序最小的原始键，结果与 map 遍历顺序无关
func normalize(entries map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(entries))
	source := make(map[string]string, len(entries))
	for name, id := range entries {
		k := Key(name)
		if k == "" {
			continue
		}
		if prev, seen := source[k]; seen && !preferKey(k, name, prev) {
			continue
		}
		out[k] = id
		source[k] = name
	}
	return out
}

// preferKey 归一化键 k 下，原始键 name 是否优先于 prev
func preferKey(k, name, prev string) bool {
	switch {
	case prev == k:
		return false
	case name == k:
		return true
	default:
		return name < prev
	}
}
