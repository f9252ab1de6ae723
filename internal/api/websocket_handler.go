package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/service"
	ws "github.com/wfunc/fate-dice/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler 战役事件推送
type WebSocketHandler struct {
	hub        *ws.Hub
	authorizer *service.Authorizer
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, authorizer *service.Authorizer, cfg *config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:        hub,
		authorizer: authorizer,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(nil),
	}
	if cfg != nil {
		if cfg.ReadBufferSize > 0 {
			h.upgrader.ReadBufferSize = cfg.ReadBufferSize
		}
		if cfg.WriteBufferSize > 0 {
			h.upgrader.WriteBufferSize = cfg.WriteBufferSize
		}
		h.upgrader.CheckOrigin = checkOrigin(cfg.AllowedOrigins)
	}
	return h
}

// checkOrigin 未配置白名单时放行所有来源，非浏览器请求不带Origin
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// CampaignWebSocket 订阅战役事件
// @Summary 订阅战役事件
// @Description 令牌可通过请求头或 ?token= 传递，连接成功后按序号推送事件
// @Tags WebSocket
// @Param campaignId path int true "战役ID"
// @Param token query string false "访问令牌"
// @Success 101
// @Failure 403 {object} ErrorResponse
// @Router /ws/campaigns/{campaignId} [get]
func (h *WebSocketHandler) CampaignWebSocket(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	campaignID, ok := uintParam(c, "campaignId")
	if !ok {
		return
	}

	capability, err := h.authorizer.CanActAs(c.Request.Context(), a, campaignID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !capability.CanRead() {
		respondError(c, forbiddenCampaign(campaignID))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket升级失败",
			zap.Uint("user_id", a.UserID),
			zap.Uint("campaign_id", campaignID),
			zap.Error(err))
		return
	}

	h.logger.Debug("WebSocket连接建立",
		zap.Uint("user_id", a.UserID),
		zap.Uint("campaign_id", campaignID),
		zap.String("ip", c.ClientIP()))

	h.hub.Serve(conn, a.UserID, campaignID)
}
