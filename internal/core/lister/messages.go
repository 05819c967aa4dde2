package lister

import (
	"errors"
	"fmt"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/core/builder"
	"gw2-optimal-lister/internal/core/index"
	"gw2-optimal-lister/internal/core/lookup"
	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/core/quote"
)

const msgBuildInProgress = "Cache update is already in progress."

// FetchError 报价阶段的错误，携带已解析的物品 ID
type FetchError struct {
	ItemID int64
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("物品 %d 报价失败: %v", e.ItemID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SearchMessage 把查询错误转换为结果类型与面向用户的短消息
func SearchMessage(err error, query string) (model.Outcome, string) {
	var id int64
	var fe *FetchError
	if errors.As(err, &fe) {
		id = fe.ItemID
	}

	switch {
	case errors.Is(err, lookup.ErrEmptyIdentifier):
		return model.OutcomeError, "Please enter an item name or ID."
	case errors.Is(err, lookup.ErrCacheBuilding):
		return model.OutcomeInfo, "Cache is building. Please wait..."
	case errors.Is(err, lookup.ErrCacheNotReady):
		return model.OutcomeError, "Item cache not ready. Please wait or restart."
	case errors.Is(err, lookup.ErrItemNotFound):
		return model.OutcomeError, fmt.Sprintf("Item '%s' not found in cache. Try ID?", query)
	case errors.Is(err, quote.ErrNoPriceData):
		return model.OutcomeError, fmt.Sprintf("No price data for Item ID %d.", id)
	case errors.Is(err, catalog.ErrNotFound):
		return model.OutcomeError, fmt.Sprintf("API Error 404: Item ID %d not found.", id)
	case errors.Is(err, catalog.ErrRateLimited):
		return model.OutcomeError, "API Error 429: Rate limit hit. Wait a moment."
	case errors.Is(err, catalog.ErrNetwork):
		return model.OutcomeError, "API Network Error. Check your connection and try again."
	case errors.Is(err, catalog.ErrMalformedResponse):
		return model.OutcomeError, fmt.Sprintf("Error processing API data for ID %d.", id)
	case errors.Is(err, catalog.ErrUnexpectedStatus):
		var se *catalog.StatusError
		if errors.As(err, &se) {
			return model.OutcomeError, fmt.Sprintf("API HTTP Error: %d.", se.StatusCode)
		}
		return model.OutcomeError, "API HTTP Error."
	default:
		return model.OutcomeError, "Unexpected error during API fetch."
	}
}

// buildResult 把构建结果转换为结果事件
func buildResult(report model.BuildReport, err error) model.ResultEvent {
	ev := model.ResultEvent{Kind: model.ResultBuild, Build: &report}
	if err == nil {
		switch report.Outcome {
		case model.BuildInProgress:
			ev.Outcome, ev.Message = model.OutcomeInfo, "Cache build already in progress."
		case model.BuildAlreadyLoaded:
			ev.Outcome, ev.Message = model.OutcomeInfo, "Cache already loaded."
		default:
			ev.Outcome = model.OutcomeSuccess
			ev.Message = fmt.Sprintf("Item cache built with %d items.", report.Items)
			if n := len(report.FailedBatches); n > 0 {
				ev.Message += fmt.Sprintf(" %d batch(es) skipped, some items missing.", n)
			}
		}
		return ev
	}

	ev.Outcome = model.OutcomeError
	switch {
	case errors.Is(err, index.ErrBuildInProgress):
		ev.Outcome, ev.Message = model.OutcomeInfo, msgBuildInProgress
	case errors.Is(err, builder.ErrEmptyCatalog):
		ev.Message = "Failed to build item cache (empty catalog)."
	case errors.Is(err, builder.ErrNoItemsRetrieved):
		ev.Message = "Failed to build item cache (no items)."
	case errors.Is(err, catalog.ErrRateLimited):
		ev.Message = "API Error building cache: rate limit hit."
	case errors.Is(err, catalog.ErrNetwork):
		ev.Message = "API Error building cache: network failure."
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrMalformedResponse), errors.Is(err, catalog.ErrUnexpectedStatus):
		ev.Message = "API Error building cache."
	default:
		ev.Message = "Cache Build Error."
	}
	return ev
}
