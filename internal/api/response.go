package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/logger"
	"github.com/wfunc/fate-dice/internal/middleware"
	"github.com/wfunc/fate-dice/internal/service"
	"go.uber.org/zap"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError 按错误码输出错误，未知错误按500处理
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.GetModuleLogger("api").Error("请求处理失败",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// bindError 请求体解析失败
func bindError(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.ErrValidation, "请求参数错误"))
}

// uintParam 解析路径中的ID参数
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Validation("无效的%s: %q", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// forbiddenCampaign 非成员访问战役
func forbiddenCampaign(campaignID uint) error {
	return apperrors.Forbidden("不是战役 %d 的成员", campaignID)
}

// actor 当前请求发起者，路由均在认证之后
func actor(c *gin.Context) (service.Actor, bool) {
	a, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, apperrors.New(apperrors.ErrAuthentication, "未登录"))
	}
	return a, ok
}
