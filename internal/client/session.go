package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionState 连接状态
type SessionState int

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosedPendingRetry
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedPendingRetry:
		return "closed_pending_retry"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// SessionConfig 会话配置
type SessionConfig struct {
	// BaseURL 服务地址，如 http://localhost:8080
	BaseURL    string
	Token      string
	CampaignID uint

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// EventHandler 事件应用后的回调，applied 为 false 表示事件已被忽略
type EventHandler func(ev Event, applied bool)

// Session 单个战役的订阅会话
//
// 每次连上后先拉取快照再处理推送；断开后按指数退避重连。
// 会话只持有一个连接和一个计时器。
type Session struct {
	cfg        SessionConfig
	fetcher    StateFetcher
	reconciler *Reconciler
	dialer     *websocket.Dialer
	handler    EventHandler
	logger     *zap.Logger

	mu      sync.Mutex
	state   SessionState
	conn    *websocket.Conn
	timer   *time.Timer
	attempt int
}

// NewSession 创建会话
func NewSession(cfg SessionConfig, fetcher StateFetcher, reconciler *Reconciler, logger *zap.Logger) *Session {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
		if cfg.MaxBackoff < cfg.MinBackoff {
			cfg.MaxBackoff = cfg.MinBackoff
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	return &Session{
		cfg:        cfg,
		fetcher:    fetcher,
		reconciler: reconciler,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:     logger,
		state:      StateConnecting,
		timer:      timer,
	}
}

// OnEvent 设置事件回调，需在 Run 之前调用
func (s *Session) OnEvent(handler EventHandler) {
	s.handler = handler
}

// State 当前状态
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()

	if prev != state {
		s.logger.Debug("会话状态变化",
			zap.Stringer("from", prev),
			zap.Stringer("to", state),
			zap.Uint("campaign_id", s.cfg.CampaignID))
	}
}

// Run 连接并处理事件，直到 ctx 取消
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(StateStopped)

	for {
		s.setState(StateConnecting)
		err := s.connectAndServe(ctx)
		if ctx.Err() != nil {
			return nil
		}

		delay := s.nextBackoff()
		s.logger.Warn("连接断开，等待重连",
			zap.Uint("campaign_id", s.cfg.CampaignID),
			zap.Duration("delay", delay),
			zap.Error(err))

		s.setState(StateClosedPendingRetry)
		if !s.wait(ctx, delay) {
			return nil
		}
	}
}

// connectAndServe 建立连接、拉取快照并读取事件直到连接断开
func (s *Session) connectAndServe(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	// 先订阅再拉取，快照之后的事件已在连接中排队
	snapshot, err := s.fetcher.FetchState(ctx, s.cfg.CampaignID)
	if err != nil {
		return err
	}
	s.reconciler.Reset(snapshot)

	s.mu.Lock()
	s.attempt = 0
	s.mu.Unlock()
	s.setState(StateOpen)
	s.logger.Info("战役订阅已建立",
		zap.Uint("campaign_id", s.cfg.CampaignID),
		zap.Uint64("seq", snapshot.Seq))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		events, err := DecodeFrame(data)
		if err != nil {
			s.logger.Warn("事件解析失败", zap.Error(err))
		}
		for _, ev := range events {
			applied := s.reconciler.Apply(ev)
			if s.handler != nil {
				s.handler(ev, applied)
			}
		}
	}
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := campaignSocketURL(s.cfg.BaseURL, s.cfg.CampaignID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.cfg.Token)

	conn, resp, err := s.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("连接 %s 失败 (HTTP %d): %w", wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("连接 %s 失败: %w", wsURL, err)
	}
	return conn, nil
}

// nextBackoff 指数退避，封顶 MaxBackoff
func (s *Session) nextBackoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.cfg.MinBackoff
	for i := 0; i < s.attempt && delay < s.cfg.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > s.cfg.MaxBackoff {
		delay = s.cfg.MaxBackoff
	}
	s.attempt++
	return delay
}

// wait 复用会话的计时器等待，ctx 取消时返回 false
func (s *Session) wait(ctx context.Context, delay time.Duration) bool {
	s.timer.Reset(delay)
	select {
	case <-ctx.Done():
		if !s.timer.Stop() {
			select {
			case <-s.timer.C:
			default:
			}
		}
		return false
	case <-s.timer.C:
		return true
	}
}

// campaignSocketURL http(s) 地址转换为战役订阅地址
func campaignSocketURL(baseURL string, campaignID uint) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("不支持的地址协议: " + u.Scheme)
	}
	u.Path = fmt.Sprintf("%s/ws/campaigns/%d", u.Path, campaignID)
	return u.String(), nil
}
