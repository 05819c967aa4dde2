package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gw2-optimal-lister/internal/stats/latency"
)

// 路径
const (
	// EventsPath WebSocket 路径
	EventsPath = "/events"
	// HealthPath 健康检查路径
	HealthPath = "/healthz"
)

// Health 健康检查响应
type Health struct {
	Ready   bool            `json:"ready"`
	State   string          `json:"state"`
	Latency []latency.Stats `json:"latency,omitempty"`
}

// Server WebSocket 推送服务
type Server struct {
	hub    *Hub
	srv    *http.Server
	logger *zap.Logger
}

// NewServer 创建推送服务
// 参数 addr: 监听地址
// 参数 tracker: 目录接口耗时统计，可为 nil
func NewServer(addr string, hub *Hub, tracker *latency.Tracker, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(EventsPath, hub)
	mux.Handle(HealthPath, HealthHandler(hub.ctrl, tracker))
	return &Server{
		hub: hub,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("wsfeed"),
	}
}

// Run 监听并服务，直到 ctx 取消；取消后优雅关闭（最多等待 shutdownTimeout）
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.srv.Addr, err)
	}
	s.logger.Info("WebSocket 推送服务已启动", zap.String("addr", ln.Addr().String()), zap.String("path", EventsPath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("推送服务异常退出: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭推送服务失败: %w", err)
	}
	s.logger.Info("WebSocket 推送服务已关闭")
	return nil
}

// HealthHandler 返回健康检查处理器；名称缓存不可查询时返回 503
func HealthHandler(ctrl Controller, tracker *latency.Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h := Health{Ready: ctrl.Ready(), State: ctrl.State().String()}
		if tracker != nil {
			h.Latency = tracker.All()
		}
		w.Header().Set("Content-Type", "application/json")
		if !h.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
}
