package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"github.com/wfunc/fate-dice/internal/utils"
	"go.uber.org/zap"
)

// authService 认证服务实现
type authService struct {
	repos      *repository.Manager
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(repos *repository.Manager, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	return &authService{
		repos:      repos,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 注册玩家账号
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		return nil, apperrors.Validation("用户名和邮箱不能为空")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("密码长度至少6位")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "密码加密失败")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         models.RolePlayer,
	}
	if err := s.repos.User().Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Login 用户名或邮箱登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repos.User().FindByLogin(ctx, strings.TrimSpace(req.Account))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			s.log.Warn("登录失败: 用户不存在", zap.String("account", req.Account))
			return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		s.log.Warn("登录失败: 密码错误", zap.Uint("user_id", user.ID))
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}

	if utils.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	if err := s.repos.User().UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("更新登录时间失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.log.Info("用户登录", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

// RefreshToken 使用刷新令牌换取新的访问令牌，角色以数据库为准
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if claims.TokenType != utils.TokenTypeRefresh {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "需要刷新令牌")
	}

	user, err := s.repos.User().FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.jwtManager.RefreshAccessToken(refreshToken, user.Username, user.Role)
	if err != nil {
		return nil, tokenError(err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenTypeAccess).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	return claims, nil
}

// Me 当前用户信息
func (s *authService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.repos.User().FindByID(ctx, userID)
}

// ListUsers 分页列出用户
func (s *authService) ListUsers(ctx context.Context, page, pageSize int) (*UserList, error) {
	p := repository.NewPagination(page, pageSize)
	users, err := s.repos.User().List(ctx, p)
	if err != nil {
		return nil, err
	}
	return &UserList{Users: users, Total: p.Total, Page: p.Page, PageSize: p.PageSize}, nil
}

// rehash 登录成功后按当前参数重新生成密码哈希，失败不影响登录
func (s *authService) rehash(ctx context.Context, user *models.User, password string) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		s.log.Warn("重新生成密码哈希失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hashed
	if err := s.repos.User().Update(ctx, user); err != nil {
		s.log.Warn("保存密码哈希失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// issue 签发访问令牌和刷新令牌
func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成会话ID失败")
	}

	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成刷新令牌失败")
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenTypeAccess).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// tokenError 将令牌错误转换为业务错误
func tokenError(err error) error {
	if errors.Is(err, utils.ErrExpiredToken) {
		return apperrors.New(apperrors.ErrTokenExpired)
	}
	return apperrors.Wrap(err, apperrors.ErrTokenInvalid)
}
