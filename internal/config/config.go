// Package config 负责加载和验证 YAML 配置文件。
// 提供物品查询、缓存构建、挂单建议与事件输出所需的全部配置项。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置根结构
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// API 远程目录 API 配置
	API APIConfig `yaml:"api"`
	// Market 交易所税率等市场参数
	Market MarketConfig `yaml:"market"`
	// Cache 名称缓存快照配置
	Cache CacheConfig `yaml:"cache"`
	// Events 事件通道配置
	Events EventsConfig `yaml:"events"`
	// Output 事件日志输出配置
	Output OutputConfig `yaml:"output"`
	// Feed WebSocket 推送配置
	Feed FeedConfig `yaml:"feed"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// APIConfig 远程目录 API 配置
type APIConfig struct {
	// BaseURL API 根地址，如 https://api.guildwars2.com
	BaseURL string `yaml:"base_url"`
	// TimeoutMs 单次请求超时（毫秒），超时视为网络错误
	TimeoutMs int `yaml:"timeout_ms"`
	// BatchSize 每批查询的物品 ID 数量（API 上限 200）
	BatchSize int `yaml:"batch_size"`
	// MaxRetries 每批最大重试次数，0 表示不重试
	MaxRetries int `yaml:"max_retries"`
	// RetryDelayMs 两次尝试之间的固定间隔（毫秒），0 表示立即重试
	RetryDelayMs int `yaml:"retry_delay_ms"`
	// RateLimitPerSec 客户端限速（每秒请求数），0 表示不限速
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	// RateBurst 限速桶容量
	RateBurst int `yaml:"rate_burst"`
}

// MarketConfig 市场参数
type MarketConfig struct {
	// TaxRate 扣税后保留比例（0-1），如 0.85 表示 15% 手续费
	TaxRate float64 `yaml:"tax_rate"`
}

// CacheConfig 名称缓存快照配置
type CacheConfig struct {
	// Path 快照文件路径
	Path string `yaml:"path"`
}

// EventsConfig 事件通道配置
type EventsConfig struct {
	// BufferSize 每条队列的容量
	BufferSize int `yaml:"buffer_size"`
	// StatusPollMs 状态队列的消费间隔（毫秒）
	StatusPollMs int `yaml:"status_poll_ms"`
	// ResultPollMs 结果队列的消费间隔（毫秒）
	ResultPollMs int `yaml:"result_poll_ms"`
}

// OutputConfig 事件日志输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// EventsEnabled 是否写入 events.jsonl
	EventsEnabled bool `yaml:"events_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// FeedConfig WebSocket 推送配置
type FeedConfig struct {
	// Addr 监听地址
	Addr string `yaml:"addr"`
	// WriteTimeoutMs 单条消息写超时（毫秒）
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}

// maxBatchSize 远程 API 单次 ids 查询上限
const maxBatchSize = 200

// Default 返回全部使用默认值的配置
// 0 有独立含义的项（重试次数、重试间隔、限速）在这里给出默认值，
// Load 在此基础上解码，文件中显式写出的 0 得以保留
func Default() *Config {
	cfg := &Config{
		API: APIConfig{
			MaxRetries:      2,
			RetryDelayMs:    1000, // 1 秒
			RateLimitPerSec: 10,
		},
	}
	cfg.setDefaults()
	return cfg
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault 加载配置；文件不存在时使用默认配置
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "gw2-optimal-lister"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.guildwars2.com"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutMs == 0 {
		c.API.TimeoutMs = 20000 // 20 秒
	}
	if c.API.BatchSize == 0 {
		c.API.BatchSize = maxBatchSize
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = 10
	}

	if c.Market.TaxRate == 0 {
		c.Market.TaxRate = 0.85
	}

	if c.Cache.Path == "" {
		c.Cache.Path = "item_cache.json"
	}

	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = 256
	}
	if c.Events.StatusPollMs == 0 {
		c.Events.StatusPollMs = 200
	}
	if c.Events.ResultPollMs == 0 {
		c.Events.ResultPollMs = 100
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}

	if c.Feed.Addr == "" {
		c.Feed.Addr = "127.0.0.1:8787"
	}
	if c.Feed.WriteTimeoutMs == 0 {
		c.Feed.WriteTimeoutMs = 5000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围，所有问题汇总为一个错误返回
func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url: API 地址不能为空")
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("api.base_url: 必须以 http:// 或 https:// 开头，当前值: %s", c.API.BaseURL))
	}
	if c.API.TimeoutMs <= 0 {
		errs = append(errs, "api.timeout_ms: 超时时间必须为正数")
	}
	if c.API.BatchSize <= 0 || c.API.BatchSize > maxBatchSize {
		errs = append(errs, fmt.Sprintf("api.batch_size: 批大小必须在 1-%d 之间，当前值: %d", maxBatchSize, c.API.BatchSize))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, "api.max_retries: 重试次数不能为负数")
	}
	if c.API.RetryDelayMs < 0 {
		errs = append(errs, "api.retry_delay_ms: 重试间隔不能为负数")
	}
	if c.API.RateLimitPerSec < 0 {
		errs = append(errs, "api.rate_limit_per_sec: 限速不能为负数")
	}
	if c.API.RateLimitPerSec > 0 && c.API.RateBurst <= 0 {
		errs = append(errs, "api.rate_burst: 启用限速时桶容量必须为正数")
	}

	if c.Market.TaxRate <= 0 || c.Market.TaxRate > 1 {
		errs = append(errs, fmt.Sprintf("market.tax_rate: 税后比例必须在 (0, 1] 之间，当前值: %f", c.Market.TaxRate))
	}

	if strings.TrimSpace(c.Cache.Path) == "" {
		errs = append(errs, "cache.path: 快照路径不能为空")
	}

	if c.Events.BufferSize <= 0 {
		errs = append(errs, "events.buffer_size: 队列容量必须为正数")
	}
	if c.Events.StatusPollMs <= 0 || c.Events.ResultPollMs <= 0 {
		errs = append(errs, "events.*_poll_ms: 消费间隔必须为正数")
	}

	if c.Output.EventsEnabled && c.Output.Dir == "" {
		errs = append(errs, "output.dir: 启用事件日志时输出目录不能为空")
	}

	if c.Feed.WriteTimeoutMs <= 0 {
		errs = append(errs, "feed.write_timeout_ms: 写超时必须为正数")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Timeout 单次请求超时
func (a *APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// RetryDelay 批次重试间隔
func (a *APIConfig) RetryDelay() time.Duration {
	return time.Duration(a.RetryDelayMs) * time.Millisecond
}

// StatusPoll 状态队列消费间隔
func (e *EventsConfig) StatusPoll() time.Duration {
	return time.Duration(e.StatusPollMs) * time.Millisecond
}

// ResultPoll 结果队列消费间隔
func (e *EventsConfig) ResultPoll() time.Duration {
	return time.Duration(e.ResultPollMs) * time.Millisecond
}

// WriteTimeout WebSocket 写超时
func (f *FeedConfig) WriteTimeout() time.Duration {
	return time.Duration(f.WriteTimeoutMs) * time.Millisecond
}
