package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fate-dice/internal/service"
)

// CampaignHandler 战役处理器
type CampaignHandler struct {
	campaigns  service.CampaignService
	characters service.CharacterService
	challenges service.ChallengeService
}

// NewCampaignHandler 创建战役处理器
func NewCampaignHandler(services *service.Services) *CampaignHandler {
	return &CampaignHandler{
		campaigns:  services.Campaigns,
		characters: services.Characters,
		challenges: services.Challenges,
	}
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Create 创建战役
// @Summary 创建战役
// @Description 管理员或GM创建战役，创建者成为GM
// @Tags Campaign
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateCampaignRequest true "战役信息"
// @Success 201 {object} models.Campaign
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), a, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// List 我参与的战役
// @Summary 战役列表
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Success 200 {array} models.Campaign
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	campaigns, err := h.campaigns.List(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// Get 战役详情
// @Summary 战役详情
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaigns.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// State 战役状态快照
// @Summary 战役状态快照
// @Description 返回战役、角色、当日骰池、进行中的挑战及对应的事件序号
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {object} service.CampaignState
// @Router /api/v1/campaigns/{id}/state [get]
func (h *CampaignHandler) State(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	state, err := h.campaigns.State(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// IncrementDay 推进战役日期
// @Summary 推进到下一天
// @Description 仅GM可操作，旧骰池全部失效
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {object} models.Campaign
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/campaigns/{id}/increment-day [post]
func (h *CampaignHandler) IncrementDay(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaigns.IncrementDay(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Members 成员列表
// @Summary 成员列表
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {array} models.MemberInfo
// @Router /api/v1/campaigns/{id}/members [get]
func (h *CampaignHandler) Members(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	members, err := h.campaigns.Members(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// AddMember 添加成员
// @Summary 添加成员
// @Tags Campaign
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "战役ID"
// @Param request body AddMemberRequest true "用户"
// @Success 201 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/campaigns/{id}/members [post]
func (h *CampaignHandler) AddMember(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.campaigns.AddMember(c.Request.Context(), a, id, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "成员已添加"})
}

// RemoveMember 移除成员
// @Summary 移除成员
// @Tags Campaign
// @Security Bearer
// @Param id path int true "战役ID"
// @Param userId path int true "用户ID"
// @Success 204
// @Router /api/v1/campaigns/{id}/members/{userId} [delete]
func (h *CampaignHandler) RemoveMember(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}

	if err := h.campaigns.RemoveMember(c.Request.Context(), a, id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Characters 战役角色列表
// @Summary 战役角色列表
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {array} models.Character
// @Router /api/v1/campaigns/{id}/characters [get]
func (h *CampaignHandler) Characters(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	characters, err := h.characters.ListByCampaign(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// Challenges 进行中的挑战及统计
// @Summary 进行中的挑战
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Success 200 {array} models.ChallengeWithStats
// @Router /api/v1/campaigns/{id}/challenges [get]
func (h *CampaignHandler) Challenges(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	challenges, err := h.challenges.ListActiveWithStats(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

// Events 审计事件
// @Summary 战役审计事件
// @Tags Campaign
// @Security Bearer
// @Produce json
// @Param id path int true "战役ID"
// @Param limit query int false "条数，默认50，最大200"
// @Success 200 {array} models.CampaignEvent
// @Router /api/v1/campaigns/{id}/events [get]
func (h *CampaignHandler) Events(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.campaigns.Events(c.Request.Context(), a, id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
