// Package lookup 把用户输入的物品标识解析为物品 ID。
// 只做精确匹配（大小写不敏感），不做模糊或前缀匹配；缓存未就绪时立即失败，不等待构建。
package lookup

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gw2-optimal-lister/internal/core/index"
	"gw2-optimal-lister/internal/core/model"
)

var (
	// ErrCacheNotReady 名称索引为空或正在构建
	ErrCacheNotReady = errors.New("名称缓存尚未就绪")
	// ErrCacheBuilding 名称索引正在构建（ErrCacheNotReady 的细分）
	ErrCacheBuilding = fmt.Errorf("%w: 正在构建", ErrCacheNotReady)
	// ErrItemNotFound 名称不在索引中，建议改用物品 ID
	ErrItemNotFound = errors.New("缓存中未找到该物品")
	// ErrEmptyIdentifier 输入为空
	ErrEmptyIdentifier = model.ErrEmptyIdentifier
)

// Resolution 解析结果
type Resolution struct {
	// ItemID 物品 ID
	ItemID int64
	// DisplayName 展示名称：名称输入时为用户原文，ID 输入时为 "Item ID: N"
	DisplayName string
	// Literal 是否为字面 ID（未经索引解析，名称需另行查询）
	Literal bool
}

// Resolver 标识解析器
type Resolver struct {
	index  *index.Index
	logger *zap.Logger
}

// New 创建解析器
func New(idx *index.Index, logger *zap.Logger) *Resolver {
	return &Resolver{index: idx, logger: logger.Named("lookup")}
}

// ResolveString 解析原始输入
func (r *Resolver) ResolveString(raw string) (Resolution, error) {
	ident, err := model.ParseIdentifier(raw)
	if err != nil {
		return Resolution{}, err
	}
	return r.Resolve(ident)
}

// Resolve 解析标识
// 索引为 Empty 或 Building 时返回 ErrCacheNotReady（任何输入都一样）
func (r *Resolver) Resolve(ident model.Identifier) (Resolution, error) {
	if ident.IsNumeric() {
		if st := r.index.State(); !st.Queryable() {
			return Resolution{}, notReady(st)
		}
		return Resolution{
			ItemID:      ident.ID,
			DisplayName: model.FallbackName(ident.ID),
			Literal:     true,
		}, nil
	}

	if index.Key(ident.Name) == "" {
		return Resolution{}, ErrEmptyIdentifier
	}

	id, found, st := r.index.Lookup(ident.Name)
	if !st.Queryable() {
		return Resolution{}, notReady(st)
	}
	if !found {
		r.logger.Debug("名称未命中", zap.String("name", ident.Name))
		return Resolution{}, fmt.Errorf("%w: %q", ErrItemNotFound, ident.Name)
	}
	return Resolution{ItemID: id, DisplayName: ident.Name}, nil
}

// Backfill 把远程查询得到的名称写入索引（已存在时不覆盖）
func (r *Resolver) Backfill(name string, id int64) bool {
	if !r.index.Insert(name, id) {
		return false
	}
	r.logger.Debug("回填名称缓存", zap.String("name", name), zap.Int64("item_id", id))
	return true
}

func notReady(st index.State) error {
	if st == index.StateBuilding {
		return ErrCacheBuilding
	}
	return ErrCacheNotReady
}
