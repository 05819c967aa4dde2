// Package model 定义名称索引、报价与挂单建议中使用的核心数据结构。
package model

import (
	"errors"
	"fmt"
	"strings"

	"gw2-optimal-lister/internal/util/fastparse"
)

// ErrEmptyIdentifier 用户输入为空
var ErrEmptyIdentifier = errors.New("请输入物品名称或 ID")

// IdentifierKind 标识符类型
type IdentifierKind int

const (
	// KindName 自由文本名称，需要经名称索引解析
	KindName IdentifierKind = iota
	// KindNumericID 字面物品 ID，无需查索引
	KindNumericID
)

// Identifier 用户输入的物品标识：数字 ID 或名称，二者取其一
// 在入口处解析一次，下游只看 Kind，不再重复判断字符串形态
type Identifier struct {
	// Kind 标识符类型
	Kind IdentifierKind
	// ID 字面物品 ID（仅 KindNumericID 有效）
	ID int64
	// Name 去除首尾空白后的名称（仅 KindName 有效）
	Name string
}

// ParseIdentifier 解析用户输入
// 整串均为十进制数字时视为物品 ID，否则视为名称
func ParseIdentifier(raw string) (Identifier, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Identifier{}, ErrEmptyIdentifier
	}
	if id, ok := fastparse.ParseItemID(s); ok {
		return Identifier{Kind: KindNumericID, ID: id}, nil
	}
	return Identifier{Kind: KindName, Name: s}, nil
}

// NumericID 构造字面 ID 标识符
func NumericID(id int64) Identifier {
	return Identifier{Kind: KindNumericID, ID: id}
}

// Named 构造名称标识符
func Named(name string) Identifier {
	return Identifier{Kind: KindName, Name: strings.TrimSpace(name)}
}

// IsNumeric 是否为字面 ID
func (i Identifier) IsNumeric() bool {
	return i.Kind == KindNumericID
}

func (i Identifier) String() string {
	if i.IsNumeric() {
		return fastparse.FormatInt(i.ID)
	}
	return i.Name
}

// FallbackName 名称未知时的展示标签
func FallbackName(id int64) string {
	return fmt.Sprintf("Item ID: %d", id)
}
