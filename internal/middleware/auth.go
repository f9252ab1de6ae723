package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/service"
	"github.com/wfunc/fate-dice/internal/utils"
)

// 上下文键
const (
	ctxUserID    = "userID"
	ctxUsername  = "username"
	ctxRole      = "role"
	ctxSessionID = "sessionID"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole 需要特定角色的中间件
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.Forbidden("需要角色: %s", strings.Join(roles, ",")))
	}
}

// authenticate 校验令牌并写入上下文，失败时终止请求
func (m *AuthMiddleware) authenticate(c *gin.Context) (*utils.JWTClaims, bool) {
	token := extractToken(c)
	if token == "" {
		abortWithError(c, apperrors.New(apperrors.ErrAuthentication, "缺少认证令牌"))
		return nil, false
	}

	claims, err := m.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}

	setClaims(c, claims)
	return claims, true
}

func setClaims(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxSessionID, claims.SessionID)
}

// abortWithError 以统一格式返回错误
func abortWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrAuthentication)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	// 1. Authorization: Bearer
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.SplitN(bearerToken, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 2. X-Access-Token
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	// 3. Cookie
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	// 4. Query参数，浏览器WebSocket无法设置请求头
	return c.Query("token")
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	if userID, exists := c.Get(ctxUserID); exists {
		if id, ok := userID.(uint); ok {
			return id, true
		}
	}
	return 0, false
}

// GetUserRole 从上下文获取用户角色
func GetUserRole(c *gin.Context) (string, bool) {
	if role, exists := c.Get(ctxRole); exists {
		if r, ok := role.(string); ok {
			return r, true
		}
	}
	return "", false
}

// GetActor 从上下文构造请求发起者
func GetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, _ := GetUserRole(c)
	return service.Actor{UserID: userID, Role: role}, true
}
