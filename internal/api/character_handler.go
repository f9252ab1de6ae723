package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/service"
)

// CharacterHandler 角色与骰池处理器
type CharacterHandler struct {
	characters service.CharacterService
	pools      service.DicePoolService
}

// NewCharacterHandler 创建角色处理器
func NewCharacterHandler(services *service.Services) *CharacterHandler {
	return &CharacterHandler{
		characters: services.Characters,
		pools:      services.DicePools,
	}
}

// ManualPoolRequest 手动录入骰池
type ManualPoolRequest struct {
	Values []int `json:"values" binding:"required"`
}

// EditDieRequest 修改骰子点数
type EditDieRequest struct {
	Value int `json:"value" binding:"required"`
}

// Create 创建角色
// @Summary 创建角色
// @Tags Character
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.CreateCharacterRequest true "角色信息"
// @Success 201 {object} models.Character
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/characters [post]
func (h *CharacterHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	character, err := h.characters.Create(c.Request.Context(), a, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// Get 角色详情
// @Summary 角色详情
// @Tags Character
// @Security Bearer
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} models.Character
// @Router /api/v1/characters/{id} [get]
func (h *CharacterHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	character, err := h.characters.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// Update 更新角色
// @Summary 更新角色
// @Description 每日骰数上限仅GM可修改
// @Tags Character
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "角色ID"
// @Param request body service.UpdateCharacterRequest true "修改项"
// @Success 200 {object} models.Character
// @Router /api/v1/characters/{id} [put]
func (h *CharacterHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	character, err := h.characters.Update(c.Request.Context(), a, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// RollPool 生成当日骰池
// @Summary 生成当日骰池
// @Description 服务端掷出每日上限数量的d6；请求体可选，mode=manual 时使用 values
// @Tags DicePool
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "角色ID"
// @Param request body service.RollPoolRequest false "生成方式"
// @Success 201 {object} models.DicePool
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/characters/{id}/dice-pool [post]
func (h *CharacterHandler) RollPool(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req service.RollPoolRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	h.createPool(c, a, id, &req)
}

// ManualPool 手动录入当日骰池
// @Summary 手动录入骰池
// @Description 录入实体骰子的结果，数量须等于每日上限
// @Tags DicePool
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "角色ID"
// @Param request body ManualPoolRequest true "骰子点数"
// @Success 201 {object} models.DicePool
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/characters/{id}/dice-pool/manual [post]
func (h *CharacterHandler) ManualPool(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ManualPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	h.createPool(c, a, id, &service.RollPoolRequest{Mode: models.PoolModeManual, Values: req.Values})
}

func (h *CharacterHandler) createPool(c *gin.Context, a service.Actor, characterID uint, req *service.RollPoolRequest) {
	pool, err := h.pools.RollNewPool(c.Request.Context(), a, characterID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pool)
}

// CurrentPool 当日骰池
// @Summary 当日骰池
// @Description 尚未生成时返回 null
// @Tags DicePool
// @Security Bearer
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} models.DicePool
// @Router /api/v1/characters/{id}/dice-pool [get]
func (h *CharacterHandler) CurrentPool(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	pool, err := h.pools.GetCurrentPool(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// EditDie GM修改未使用骰子的点数
// @Summary 修改骰子点数
// @Tags DicePool
// @Security Bearer
// @Accept json
// @Produce json
// @Param dieId path int true "骰子ID"
// @Param request body EditDieRequest true "新点数"
// @Success 200 {object} models.DicePool
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/dice/{dieId} [put]
func (h *CharacterHandler) EditDie(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	dieID, ok := uintParam(c, "dieId")
	if !ok {
		return
	}

	var req EditDieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pool, err := h.pools.EditDie(c.Request.Context(), a, dieID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}
