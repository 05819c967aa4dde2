// Package wsfeed 通过 WebSocket 把状态/结果事件推送给外部展示层，并接收查询与重建指令。
//
// 服务端推送: {"type":"hello"|"status"|"result"|"error", "ready":bool, "state":"ready", ...}
// 客户端发送: {"op":"search","query":"Iron Ore"} 或 {"op":"rebuild","force":true}
package wsfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gw2-optimal-lister/internal/core/model"
)

// 客户端指令
const (
	OpSearch  = "search"
	OpRebuild = "rebuild"
)

// 推送消息类型
const (
	TypeHello  = "hello"
	TypeStatus = "status"
	TypeResult = "result"
	TypeError  = "error"
)

// ErrUnknownOp 不支持的指令
var ErrUnknownOp = errors.New("不支持的指令")

// Command 客户端指令
type Command struct {
	// Op 指令: search, rebuild
	Op string `json:"op"`
	// Query 查询内容（物品名称或 ID）
	Query string `json:"query,omitempty"`
	// Force 是否强制重建
	Force bool `json:"force,omitempty"`
}

// Message 推送消息
type Message struct {
	// Type 消息类型
	Type string `json:"type"`
	// Ready 名称索引是否可查询，展示层据此启用/禁用输入
	Ready bool `json:"ready"`
	// State 名称索引状态
	State string `json:"state"`
	// Status 状态事件（Type=status）
	Status *model.StatusEvent `json:"status,omitempty"`
	// Result 结果事件（Type=result）
	Result *model.ResultEvent `json:"result,omitempty"`
	// Text 结果面板文本（查询成功时）
	Text string `json:"text,omitempty"`
	// Error 错误描述（Type=error）
	Error string `json:"error,omitempty"`
}

// ParseCommand 解析客户端指令
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("解析指令失败: %w", err)
	}
	cmd.Op = strings.ToLower(strings.TrimSpace(cmd.Op))
	switch cmd.Op {
	case OpSearch, OpRebuild:
		return cmd, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
}
