package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fate-dice/internal/config"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/middleware"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/service"
	ws "github.com/wfunc/fate-dice/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	hub            *ws.Hub
	authMiddleware *middleware.AuthMiddleware

	authHandler      *AuthHandler
	campaignHandler  *CampaignHandler
	characterHandler *CharacterHandler
	rollHandler      *RollHandler
	wsHandler        *WebSocketHandler
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, services *service.Services, hub *ws.Hub, wsCfg *config.WebSocketConfig, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	router := &Router{
		engine:           engine,
		db:               db,
		services:         services,
		hub:              hub,
		authMiddleware:   middleware.NewAuthMiddleware(services.Auth),
		authHandler:      NewAuthHandler(services.Auth),
		campaignHandler:  NewCampaignHandler(services),
		characterHandler: NewCharacterHandler(services),
		rollHandler:      NewRollHandler(services),
		wsHandler:        NewWebSocketHandler(hub, services.Authorizer, wsCfg, log.Named("ws")),
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		authed := v1.Group("")
		authed.Use(r.authMiddleware.RequireAuth())

		staff := r.authMiddleware.RequireRole(models.RoleAdmin, models.RoleGameMaster)

		authed.GET("/users", staff, r.authHandler.ListUsers)

		campaigns := authed.Group("/campaigns")
		{
			campaigns.POST("", staff, r.campaignHandler.Create)
			campaigns.GET("", r.campaignHandler.List)
			campaigns.GET("/:id", r.campaignHandler.Get)
			campaigns.GET("/:id/state", r.campaignHandler.State)
			campaigns.POST("/:id/increment-day", r.campaignHandler.IncrementDay)
			campaigns.GET("/:id/members", r.campaignHandler.Members)
			campaigns.POST("/:id/members", r.campaignHandler.AddMember)
			campaigns.DELETE("/:id/members/:userId", r.campaignHandler.RemoveMember)
			campaigns.GET("/:id/characters", r.campaignHandler.Characters)
			campaigns.GET("/:id/challenges", r.campaignHandler.Challenges)
			campaigns.GET("/:id/events", r.campaignHandler.Events)
		}

		characters := authed.Group("/characters")
		{
			characters.POST("", r.characterHandler.Create)
			characters.GET("/:id", r.characterHandler.Get)
			characters.PUT("/:id", r.characterHandler.Update)
			characters.POST("/:id/dice-pool", r.characterHandler.RollPool)
			characters.GET("/:id/dice-pool", r.characterHandler.CurrentPool)
			characters.POST("/:id/dice-pool/manual", r.characterHandler.ManualPool)
		}

		authed.PUT("/dice/:dieId", r.characterHandler.EditDie)

		authed.POST("/rolls", r.rollHandler.RecordRoll)
		authed.GET("/rolls", r.rollHandler.History)

		authed.POST("/challenges", r.rollHandler.CreateChallenge)
		authed.POST("/challenges/:id/complete", r.rollHandler.CompleteChallenge)
	}

	// 浏览器WebSocket无法设置请求头，令牌可放在查询参数中
	r.engine.GET("/ws/campaigns/:campaignId", r.authMiddleware.RequireAuth(), r.wsHandler.CampaignWebSocket)

	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    apperrors.ErrNotFound,
			Message: "接口不存在",
		})
	})
}

// healthCheck 健康检查
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
		"online":  r.hub.GetOnlineCount(),
	})
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
