package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.APIConfig{
		BaseURL:   srv.URL,
		TimeoutMs: 2000,
	}, zap.NewNop())
}

func TestClient_FetchTradeableIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathTradeableIDs, r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`[24,68,19699]`))
	})

	ids, err := c.FetchTradeableIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{24, 68, 19699}, ids)
}

func TestClient_FetchItems_PartialContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathItems, r.URL.Path)
		assert.Equal(t, "19699,1", r.URL.Query().Get("ids"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[{"id":19699,"name":"Iron Ore","type":"CraftingMaterial"}]`))
	})

	items, err := c.FetchItems(context.Background(), []int64{19699, 1})
	require.NoError(t, err)
	require.Equal(t, []Item{{ID: 19699, Name: "Iron Ore"}}, items)
}

func TestClient_FetchItems_EmptyIDsSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("空 ID 列表不应发出请求")
	})
	items, err := c.FetchItems(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, items)
}

func TestClient_FetchPricesAndListings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "19699", r.URL.Query().Get("ids"))
		switch r.URL.Path {
		case PathPrices:
			_, _ = w.Write([]byte(`[{"id":19699,"whitelisted":true,"buys":{"quantity":120,"unit_price":100},"sells":{"quantity":40,"unit_price":150}}]`))
		case PathListings:
			_, _ = w.Write([]byte(`[{"id":19699,"buys":[{"listings":1,"unit_price":100,"quantity":120}],"sells":[{"listings":2,"unit_price":150,"quantity":5},{"listings":1,"unit_price":151,"quantity":9}]}]`))
		default:
			http.NotFound(w, r)
		}
	})

	prices, err := c.FetchPrices(context.Background(), 19699)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	require.Equal(t, int64(100), prices[0].Buys.UnitPrice)
	require.Equal(t, int64(120), prices[0].Buys.Quantity)
	require.Equal(t, int64(150), prices[0].Sells.UnitPrice)

	listings, err := c.FetchListings(context.Background(), 19699)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Len(t, listings[0].Sells, 2)
	require.Equal(t, int64(5), listings[0].Sells[0].Quantity)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      error
		retryable bool
	}{
		{"404", http.StatusNotFound, `{"text":"all ids provided are invalid"}`, ErrNotFound, false},
		{"429", http.StatusTooManyRequests, `{"text":"too many requests"}`, ErrRateLimited, true},
		{"503", http.StatusServiceUnavailable, ``, ErrNetwork, true},
		{"400", http.StatusBadRequest, ``, ErrUnexpectedStatus, false},
		{"坏 JSON", http.StatusOK, `{"not":"a list"`, ErrMalformedResponse, false},
		{"结构不符", http.StatusOK, `{"id":1}`, ErrMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.FetchPrices(context.Background(), 1)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "err=%v, want %v", err, tt.want)
			require.Equal(t, tt.retryable, IsRetryable(err))

			var se *StatusError
			if errors.As(err, &se) {
				require.Equal(t, tt.status, se.StatusCode)
			}
		})
	}
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(&config.APIConfig{BaseURL: srv.URL, TimeoutMs: 50}, zap.NewNop())
	start := time.Now()
	_, err := c.FetchTradeableIDs(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNetwork)
	require.True(t, IsRetryable(err))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_RateLimiterPacesRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(&config.APIConfig{BaseURL: srv.URL, TimeoutMs: 1000, RateLimitPerSec: 20, RateBurst: 1}, zap.NewNop())
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.FetchTradeableIDs(context.Background())
		require.NoError(t, err)
	}
	// 桶容量 1、20 次/秒：第 2、3 次各需等待约 50ms
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchListings(ctx, 1)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "context canceled"), err.Error())
}

type recordingObserver struct {
	endpoints []string
	failures  int
}

func (r *recordingObserver) Observe(endpoint string, d time.Duration, err error) {
	r.endpoints = append(r.endpoints, endpoint)
	if err != nil {
		r.failures++
	}
}

func TestClient_ObserverRecordsEachRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathListings {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	obs := &recordingObserver{}
	c.SetObserver(obs)

	_, err := c.FetchPrices(context.Background(), 1)
	require.NoError(t, err)
	_, err = c.FetchListings(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, []string{PathPrices, PathListings}, obs.endpoints)
	require.Equal(t, 1, obs.failures)
}

func TestNewClient_ZeroRateDisablesLimiter(t *testing.T) {
	cfg := config.Default()
	cfg.API.RateLimitPerSec = 0
	require.Nil(t, NewClient(&cfg.API, zap.NewNop()).limiter)

	require.NotNil(t, NewClient(&config.Default().API, zap.NewNop()).limiter)
}
