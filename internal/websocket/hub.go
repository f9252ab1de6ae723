package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/logger"
	"github.com/wfunc/fate-dice/internal/models"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrHubClosed = errors.New("hub已关闭")
)

// snapshotRetries 快照加载期间序号变化时的重试次数
const snapshotRetries = 3

// Options 连接参数
type Options struct {
	SendBuffer     int
	MaxMessageSize int64
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		SendBuffer:     256,
		MaxMessageSize: 4 * 1024,
		PingInterval:   54 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// OptionsFrom 从配置构建连接参数，未设置的项使用默认值
func OptionsFrom(cfg *config.WebSocketConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.SendBuffer > 0 {
		opts.SendBuffer = cfg.SendBuffer
	}
	if cfg.MaxMessageSize > 0 {
		opts.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.PongTimeout > 0 {
		opts.PongTimeout = cfg.PongTimeout
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < opts.PongTimeout {
		opts.PingInterval = cfg.PingInterval
	} else {
		opts.PingInterval = opts.PongTimeout * 9 / 10
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts
}

// room 单个战役的订阅者与事件序号
type room struct {
	// publishMu 串行化提交与分发，保证序号顺序即提交顺序
	publishMu sync.Mutex
	seq       atomic.Uint64

	mu      sync.RWMutex
	clients map[string]*Client
}

// Hub 战役事件中心
type Hub struct {
	rooms   map[uint]*room
	roomsMu sync.Mutex

	opts   Options
	closed atomic.Bool
	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(opts Options, logger *zap.Logger) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	return &Hub{
		rooms:  make(map[uint]*room),
		opts:   opts,
		logger: logger,
	}
}

// room 获取战役房间，不存在时创建；房间不会被删除，序号在进程内持续递增
func (h *Hub) room(campaignID uint) *room {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	r, ok := h.rooms[campaignID]
	if !ok {
		r = &room{clients: make(map[string]*Client)}
		h.rooms[campaignID] = r
	}
	return r
}

// Run 运行Hub，ctx 结束时断开所有连接
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-ticker.C:
			h.logger.Debug("WebSocket在线统计", zap.Int("clients", h.GetOnlineCount()))
		}
	}
}

func (h *Hub) shutdown() {
	h.closed.Store(true)

	h.roomsMu.Lock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.roomsMu.Unlock()

	for _, r := range rooms {
		r.mu.Lock()
		for id, c := range r.clients {
			delete(r.clients, id)
			c.closeSend()
		}
		r.mu.Unlock()
	}
	h.logger.Info("WebSocket Hub已关闭")
}

// Register 注册客户端，返回后即可收到之后提交的事件
func (h *Hub) Register(client *Client) error {
	if h.closed.Load() {
		return ErrHubClosed
	}

	r := h.room(client.CampaignID)
	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Uint("campaign_id", client.CampaignID))
	return nil
}

// Unregister 注销客户端，可重复调用
func (h *Hub) Unregister(client *Client) {
	r := h.room(client.CampaignID)
	r.mu.Lock()
	_, ok := r.clients[client.ID]
	if ok {
		delete(r.clients, client.ID)
	}
	r.mu.Unlock()

	client.closeSend()
	if ok {
		h.logger.Info("WebSocket客户端断开",
			zap.String("client_id", client.ID),
			zap.Uint("user_id", client.UserID),
			zap.Uint("campaign_id", client.CampaignID))
	}
}

// Publish 在发布锁内执行 commit，成功后按顺序分配序号并分发事件
//
// 分发不会阻塞：发送队列已满的客户端被断开，由客户端重连后重新拉取状态。
// commit 成功后的任何分发问题都不会返回错误。
func (h *Hub) Publish(campaignID uint, commit func() error, events ...models.Event) error {
	r := h.room(campaignID)
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if err := commit(); err != nil {
		return err
	}

	for _, ev := range events {
		seq := r.seq.Add(1)
		data, err := encodeEvent(campaignID, seq, ev)
		if err != nil {
			h.logger.Error("序列化事件失败",
				zap.String("type", ev.Type),
				zap.Uint("campaign_id", campaignID),
				zap.Error(err))
			continue
		}
		receivers := h.fanout(r, data)
		logger.LogCampaignEvent(ev.Type, campaignID, seq, receivers)
	}
	return nil
}

// fanout 非阻塞地投递到房间内所有客户端，返回成功投递数
func (h *Hub) fanout(r *room, data []byte) int {
	var slow []*Client
	delivered := 0

	r.mu.RLock()
	for _, c := range r.clients {
		switch err := c.enqueue(data); err {
		case nil:
			delivered++
		case errSendBufferFull:
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("客户端发送队列已满，断开连接",
			zap.String("client_id", c.ID),
			zap.Uint("campaign_id", c.CampaignID))
		h.Unregister(c)
	}
	return delivered
}

// Snapshot 加载状态并返回与之对应的事件序号
//
// 序号在提交之后分配，因此加载前读取的序号之后的事件要么未体现在快照中，
// 要么被重复应用；客户端的应用是幂等的，两种情况都安全。
// 加载期间没有新事件时返回精确序号，最多重试 snapshotRetries 次。
func (h *Hub) Snapshot(campaignID uint, load func() error) (uint64, error) {
	r := h.room(campaignID)

	var before uint64
	for i := 0; i < snapshotRetries; i++ {
		before = r.seq.Load()
		if err := load(); err != nil {
			return 0, err
		}
		if r.seq.Load() == before {
			return before, nil
		}
	}
	return before, nil
}

// Seq 当前战役事件序号
func (h *Hub) Seq(campaignID uint) uint64 {
	return h.room(campaignID).seq.Load()
}

// Serve 接管已升级的连接，阻塞到连接关闭
func (h *Hub) Serve(conn *websocket.Conn, userID, campaignID uint) {
	client := NewClient(h, conn, userID, campaignID)
	if err := h.Register(client); err != nil {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}

// GetOnlineCount 在线连接数
func (h *Hub) GetOnlineCount() int {
	h.roomsMu.Lock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.roomsMu.Unlock()

	n := 0
	for _, r := range rooms {
		r.mu.RLock()
		n += len(r.clients)
		r.mu.RUnlock()
	}
	return n
}

// CampaignOnlineCount 战役在线连接数
func (h *Hub) CampaignOnlineCount(campaignID uint) int {
	r := h.room(campaignID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
