// Package latency 统计远程目录接口的请求耗时。
// 每个接口路径维护一个独立的滚动窗口，输出 P50/P90/P99。
package latency

import (
	"sort"
	"sync"
	"time"
)

// Stats 单个接口的耗时统计快照（滚动窗口）
// 单位：毫秒。
type Stats struct {
	// Endpoint 接口路径
	Endpoint string `json:"endpoint"`
	// Count 样本总数（累计，不受窗口大小限制）
	Count int64 `json:"count"`
	// Failures 失败请求数（累计）
	Failures int64 `json:"failures"`
	// P50Ms 中位耗时
	P50Ms float64 `json:"p50_ms"`
	// P90Ms 90 分位耗时
	P90Ms float64 `json:"p90_ms"`
	// P99Ms 99 分位耗时
	P99Ms float64 `json:"p99_ms"`
}

type rollingWindow struct {
	size     int
	buf      []int64
	pos      int
	count    int64
	failures int64
	full     bool
}

func newRollingWindow(size int) *rollingWindow {
	return &rollingWindow{size: size, buf: make([]int64, 0, size)}
}

func (w *rollingWindow) add(v int64) {
	w.count++
	if w.size <= 0 {
		return
	}

	if !w.full {
		w.buf = append(w.buf, v)
		if len(w.buf) == w.size {
			w.full = true
			w.pos = 0
		}
		return
	}

	w.buf[w.pos] = v
	w.pos++
	if w.pos >= w.size {
		w.pos = 0
	}
}

func (w *rollingWindow) quantiles(qs ...float64) []int64 {
	values := make([]int64, len(qs))
	if len(w.buf) == 0 {
		return values
	}

	tmp := make([]int64, len(w.buf))
	copy(tmp, w.buf)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	n := len(tmp)
	for i, q := range qs {
		switch {
		case q <= 0:
			values[i] = tmp[0]
		case q >= 1:
			values[i] = tmp[n-1]
		default:
			values[i] = tmp[int(float64(n-1)*q)]
		}
	}
	return values
}

// Tracker 请求耗时追踪器，可被多个 goroutine 并发使用
type Tracker struct {
	windowSize int

	mu        sync.Mutex
	endpoints map[string]*rollingWindow
}

// NewTracker 创建耗时追踪器
// 参数 windowSize: 每个接口的滚动窗口大小，<=0 时只计数不保留样本
func NewTracker(windowSize int) *Tracker {
	return &Tracker{
		windowSize: windowSize,
		endpoints:  make(map[string]*rollingWindow),
	}
}

// Observe 记录一次请求
// 参数 endpoint: 接口路径
// 参数 d: 请求耗时（含读取响应体）
// 参数 err: 请求错误，非 nil 时计入失败数
func (t *Tracker) Observe(endpoint string, d time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.endpoints[endpoint]
	if !ok {
		w = newRollingWindow(t.windowSize)
		t.endpoints[endpoint] = w
	}
	w.add(d.Nanoseconds())
	if err != nil {
		w.failures++
	}
}

// Stats 获取指定接口的统计快照；未记录过的接口返回零值
func (t *Tracker) Stats(endpoint string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statsLocked(endpoint)
}

// All 按接口路径排序返回全部统计
func (t *Tracker) All() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.endpoints))
	for name := range t.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Stats, 0, len(names))
	for _, name := range names {
		out = append(out, t.statsLocked(name))
	}
	return out
}

func (t *Tracker) statsLocked(endpoint string) Stats {
	w, ok := t.endpoints[endpoint]
	if !ok {
		return Stats{Endpoint: endpoint}
	}
	qs := w.quantiles(0.50, 0.90, 0.99)
	return Stats{
		Endpoint: endpoint,
		Count:    w.count,
		Failures: w.failures,
		P50Ms:    float64(qs[0]) / 1_000_000.0,
		P90Ms:    float64(qs[1]) / 1_000_000.0,
		P99Ms:    float64(qs[2]) / 1_000_000.0,
	}
}
