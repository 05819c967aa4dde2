// Package fastparse 提供物品 ID 的解析与拼接。
// 用户输入与 URL 查询参数都走 strconv，避免 fmt 的额外开销。
package fastparse

import (
	"strconv"
	"strings"
)

// ParseItemID 将完整的非负十进制字符串解析为物品 ID
// 不接受符号、空白或其他字符；超出 int64 范围同样视为失败
// 返回: 物品 ID 与是否解析成功
func ParseItemID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatInt 格式化整数为字符串
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// JoinIDs 将 ID 列表拼接为逗号分隔的字符串，如 "1,2,3"
func JoinIDs(ids []int64) string {
	var sb strings.Builder
	sb.Grow(len(ids) * 6)
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}
