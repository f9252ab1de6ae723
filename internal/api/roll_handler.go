package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fate-dice/internal/service"
)

// RollHandler 检定与挑战处理器
type RollHandler struct {
	rolls      service.RollService
	challenges service.ChallengeService
}

// NewRollHandler 创建检定处理器
func NewRollHandler(services *service.Services) *RollHandler {
	return &RollHandler{
		rolls:      services.Rolls,
		challenges: services.Challenges,
	}
}

// RecordRoll 记录检定
// @Summary 使用骰池中的骰子进行检定
// @Description d20_roll 为空时由服务端掷骰；每颗骰子只能使用一次
// @Tags Roll
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.RecordRollRequest true "检定信息"
// @Success 201 {object} models.RollHistory
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/rolls [post]
func (h *RollHandler) RecordRoll(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req service.RecordRollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	roll, err := h.rolls.RecordRoll(c.Request.Context(), a, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, roll)
}

// History 检定历史
// @Summary 检定历史
// @Description 按角色或战役查询，优先使用 character_id
// @Tags Roll
// @Security Bearer
// @Produce json
// @Param character_id query int false "角色ID"
// @Param campaign_id query int false "战役ID"
// @Success 200 {array} models.RollHistory
// @Router /api/v1/rolls [get]
func (h *RollHandler) History(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var query service.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	rolls, err := h.rolls.History(c.Request.Context(), a, &query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rolls)
}

// CreateChallenge 创建挑战
// @Summary 创建挑战
// @Tags Challenge
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateChallengeRequest true "挑战信息"
// @Success 201 {object} models.Challenge
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/challenges [post]
func (h *RollHandler) CreateChallenge(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	challenge, err := h.challenges.Create(c.Request.Context(), a, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

// CompleteChallenge 结束挑战
// @Summary 结束挑战
// @Tags Challenge
// @Security Bearer
// @Produce json
// @Param id path int true "挑战ID"
// @Success 200 {object} models.Challenge
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/challenges/{id}/complete [post]
func (h *RollHandler) CompleteChallenge(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	challenge, err := h.challenges.Complete(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}
