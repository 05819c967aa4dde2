package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound 物品不存在或不可交易（HTTP 404）
	ErrNotFound = errors.New("物品不存在或不可交易")
	// ErrRateLimited 触发远程限流（HTTP 429），调用方应退避
	ErrRateLimited = errors.New("请求过于频繁")
	// ErrNetwork 网络故障、超时或服务端 5xx，可重试
	ErrNetwork = errors.New("网络错误")
	// ErrMalformedResponse 响应结构与预期不符
	ErrMalformedResponse = errors.New("响应格式异常")
	// ErrUnexpectedStatus 其他非成功状态码
	ErrUnexpectedStatus = errors.New("非预期的 HTTP 状态码")
)

// StatusError 携带状态码的 HTTP 错误
type StatusError struct {
	// StatusCode HTTP 状态码
	StatusCode int
	// URL 请求地址
	URL string
	// kind 归类后的哨兵错误
	kind error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d (%s)", e.kind, e.StatusCode, e.URL)
}

// Unwrap 使 errors.Is 能匹配到归类后的哨兵错误
func (e *StatusError) Unwrap() error {
	return e.kind
}

// newStatusError 按状态码归类
func newStatusError(code int, url string) *StatusError {
	var kind error
	switch {
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case code >= 500:
		kind = ErrNetwork
	default:
		kind = ErrUnexpectedStatus
	}
	return &StatusError{StatusCode: code, URL: url, kind: kind}
}

// IsRetryable 判断错误是否为瞬时故障（网络/超时/5xx/限流）
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}
