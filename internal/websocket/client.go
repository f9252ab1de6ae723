package websocket

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/fate-dice/internal/logger"
	"go.uber.org/zap"
)

var (
	errSendBufferFull = errors.New("发送缓冲区已满")
	errClientClosed   = errors.New("客户端已关闭")
)

var newline = []byte{'\n'}

// Client 订阅某个战役的WebSocket连接
type Client struct {
	ID         string
	UserID     uint
	CampaignID uint

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient 创建客户端
func NewClient(hub *Hub, conn *websocket.Conn, userID, campaignID uint) *Client {
	return &Client{
		ID:         uuid.New().String(),
		UserID:     userID,
		CampaignID: campaignID,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.opts.SendBuffer),
	}
}

// enqueue 非阻塞入队
func (c *Client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// closeSend 关闭发送队列，WritePump 随后发送关闭帧并退出
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump 读取连接，客户端不发送业务消息，只用于维持心跳和感知断开
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongTimeout))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}
		// 订阅连接是只读的，收到的消息只记录不处理
		logger.LogWebSocketMessage("receive", strconv.Itoa(messageType), string(message))
	}
}

// WritePump 写入消息，队列中积压的事件合并为一帧，以换行分隔
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				w.Write(newline)
				w.Write(next)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
