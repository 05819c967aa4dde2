package model

// Severity 状态事件级别
type Severity string

const (
	// SeverityInfo 一般进度
	SeverityInfo Severity = "info"
	// SeveritySuccess 完成
	SeveritySuccess Severity = "success"
	// SeverityError 失败
	SeverityError Severity = "error"
)

// StatusEvent 状态通道中的一条消息
type StatusEvent struct {
	// Severity 级别
	Severity Severity `json:"severity"`
	// Message 面向用户的短消息
	Message string `json:"message"`
	// TsUnixMs 产生时间（毫秒）
	TsUnixMs int64 `json:"ts_unix_ms"`
}

// Outcome 结果事件类型
type Outcome string

const (
	// OutcomeSuccess 成功
	OutcomeSuccess Outcome = "success"
	// OutcomeError 失败
	OutcomeError Outcome = "error"
	// OutcomeInfo 提示（如缓存构建中）
	OutcomeInfo Outcome = "info"
)

// ResultKind 结果来源
type ResultKind string

const (
	// ResultSearch 一次物品查询
	ResultSearch ResultKind = "search"
	// ResultBuild 一次缓存构建
	ResultBuild ResultKind = "build"
)

// ResultEvent 结果通道中的一条消息，按值传递
type ResultEvent struct {
	// Outcome 结果类型
	Outcome Outcome `json:"outcome"`
	// Kind 结果来源
	Kind ResultKind `json:"kind"`
	// Query 原始查询（仅 search）
	Query string `json:"query,omitempty"`
	// Message 面向用户的短消息
	Message string `json:"message,omitempty"`
	// Report 查询结果（仅 search 成功）
	Report *Report `json:"report,omitempty"`
	// Build 构建结果（仅 build）
	Build *BuildReport `json:"build,omitempty"`
	// TsUnixMs 产生时间（毫秒）
	TsUnixMs int64 `json:"ts_unix_ms"`
}

// BuildOutcome 构建调用的结论
type BuildOutcome string

const (
	// BuildCompleted 实际执行并成功替换索引
	BuildCompleted BuildOutcome = "completed"
	// BuildInProgress 已有构建进行中，本次为空操作
	BuildInProgress BuildOutcome = "in_progress"
	// BuildAlreadyLoaded 索引已就绪且未强制重建，本次为空操作
	BuildAlreadyLoaded BuildOutcome = "already_loaded"
)

// BuildReport 缓存构建结果
type BuildReport struct {
	// Outcome 结论
	Outcome BuildOutcome `json:"outcome"`
	// Items 写入索引的名称条数
	Items int `json:"items"`
	// Processed 远程返回的物品记录数
	Processed int `json:"processed"`
	// Batches 总批数
	Batches int `json:"batches"`
	// FailedBatches 重试耗尽后被跳过的批次（从 1 开始）
	FailedBatches []int `json:"failed_batches,omitempty"`
	// SnapshotSaved 快照是否写入成功
	SnapshotSaved bool `json:"snapshot_saved"`
	// DurationMs 耗时（毫秒）
	DurationMs int64 `json:"duration_ms"`
}
