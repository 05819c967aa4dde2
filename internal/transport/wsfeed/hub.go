package wsfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/config"
	"gw2-optimal-lister/internal/core/index"
	"gw2-optimal-lister/internal/core/model"
	"gw2-optimal-lister/internal/format"
)

const (
	// sendBuffer 每个连接的待发送队列容量
	sendBuffer = 64
	// pingInterval 心跳间隔
	pingInterval = 25 * time.Second
	// pongTimeout 心跳超时
	pongTimeout = 60 * time.Second
	// maxCommandBytes 单条指令大小上限
	maxCommandBytes = 4 << 10
)

// Controller 查询服务（由 lister.Service 实现）
type Controller interface {
	Search(ctx context.Context, raw string)
	Rebuild(ctx context.Context, force bool) bool
	Ready() bool
	State() index.State
}

// Hub 连接管理与事件广播
// 实现 events.Sink
type Hub struct {
	ctrl         Controller
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *zap.Logger

	// ctx 连接发起的查询/重建使用的上下文，Close 时取消
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[*client]struct{}

	// dropped 因连接发送队列满被丢弃的消息数
	dropped atomic.Int64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// writeMu gorilla/websocket 不允许并发多写者
	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

// NewHub 创建推送中心
func NewHub(ctrl Controller, cfg *config.FeedConfig, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 仅监听本地地址，允许任意来源的展示层连接
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: cfg.WriteTimeout(),
		logger:       logger.Named("wsfeed"),
		ctx:          ctx,
		cancel:       cancel,
		clients:      make(map[*client]struct{}),
	}
}

// ServeHTTP 升级为 WebSocket 连接
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("展示层已连接", zap.String("remote", r.RemoteAddr), zap.Int("clients", n))

	h.enqueue(c, h.message(TypeHello))

	go h.writeLoop(c)
	h.readLoop(c)
}

// Clients 当前连接数
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped 被丢弃的推送消息数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// OnStatus 广播状态事件
func (h *Hub) OnStatus(ev model.StatusEvent) {
	msg := h.message(TypeStatus)
	msg.Status = &ev
	h.broadcast(msg)
}

// OnResult 广播结果事件
func (h *Hub) OnResult(ev model.ResultEvent) {
	msg := h.message(TypeResult)
	msg.Result = &ev
	if ev.Report != nil {
		msg.Text = format.Describe(ev.Report)
	}
	h.broadcast(msg)
}

// Close 断开所有连接并取消由连接发起的任务
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.drop(c)
	}
}

func (h *Hub) message(typ string) Message {
	return Message{Type: typ, Ready: h.ctrl.Ready(), State: h.ctrl.State().String()}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化推送消息失败", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueBytes(c, data)
	}
}

func (h *Hub) enqueue(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化推送消息失败", zap.Error(err))
		return
	}
	h.enqueueBytes(c, data)
}

// enqueueBytes 非阻塞投递，连接发送队列满时丢弃
func (h *Hub) enqueueBytes(c *client, data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		h.dropped.Add(1)
		h.logger.Warn("连接发送队列已满，丢弃消息")
	}
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxCommandBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("读取展示层消息失败", zap.Error(err))
			}
			return
		}

		cmd, err := ParseCommand(data)
		if err != nil {
			msg := h.message(TypeError)
			msg.Error = err.Error()
			h.enqueue(c, msg)
			continue
		}

		switch cmd.Op {
		case OpSearch:
			h.logger.Debug("收到查询指令", zap.String("query", cmd.Query))
			h.ctrl.Search(h.ctx, cmd.Query)
		case OpRebuild:
			h.logger.Info("收到重建指令", zap.Bool("force", cmd.Force))
			h.ctrl.Rebuild(h.ctx, cmd.Force)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data, h.writeTimeout); err != nil {
				h.logger.Warn("推送消息失败", zap.Error(err))
				h.drop(c)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil, h.writeTimeout); err != nil {
				h.logger.Warn("发送心跳失败", zap.Error(err))
				h.drop(c)
				return
			}
		}
	}
}

func (c *client) write(typ int, data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(typ, data)
}

// drop 移除并关闭连接（可重复调用）
func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		n := len(h.clients)
		h.mu.Unlock()

		close(c.done)
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Second)
		_ = c.conn.Close()
		h.logger.Info("展示层已断开", zap.Int("clients", n))
	})
}
