package service

import (
	"context"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/utils"
)

// 测试注册与登录
func (suite *ServiceTestSuite) TestRegisterAndLogin() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, &RegisterRequest{
		Username: "newbie",
		Email:    "newbie@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal(models.RolePlayer, resp.User.Role)

	_, err = suite.services.Auth.Register(ctx, &RegisterRequest{
		Username: "newbie",
		Email:    "other@example.com",
		Password: "password123",
	})
	suite.True(apperrors.Is(err, apperrors.ErrConflict))

	suite.Run("用户名登录", func() {
		resp, err := suite.services.Auth.Login(ctx, &LoginRequest{Account: "newbie", Password: "password123"})
		suite.Require().NoError(err)
		claims, err := suite.services.Auth.ValidateToken(ctx, resp.AccessToken)
		suite.Require().NoError(err)
		suite.Equal(resp.User.ID, claims.UserID)
		suite.Equal(models.RolePlayer, claims.Role)
	})

	suite.Run("邮箱登录", func() {
		_, err := suite.services.Auth.Login(ctx, &LoginRequest{Account: "newbie@example.com", Password: "password123"})
		suite.NoError(err)
	})

	suite.Run("密码错误", func() {
		_, err := suite.services.Auth.Login(ctx, &LoginRequest{Account: "newbie", Password: "wrong"})
		suite.True(apperrors.Is(err, apperrors.ErrAuthentication))
	})

	suite.Run("用户不存在", func() {
		_, err := suite.services.Auth.Login(ctx, &LoginRequest{Account: "ghost", Password: "password123"})
		suite.True(apperrors.Is(err, apperrors.ErrAuthentication))
	})
}

// 测试注册参数校验
func (suite *ServiceTestSuite) TestRegisterValidation() {
	_, err := suite.services.Auth.Register(context.Background(), &RegisterRequest{
		Username: "short",
		Email:    "short@example.com",
		Password: "123",
	})
	suite.True(apperrors.Is(err, apperrors.ErrValidation))
}

// 测试刷新令牌
func (suite *ServiceTestSuite) TestRefreshToken() {
	ctx := context.Background()
	resp, err := suite.services.Auth.Register(ctx, &RegisterRequest{
		Username: "refresher",
		Email:    "refresher@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	_, err = suite.services.Auth.ValidateToken(ctx, resp.RefreshToken)
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))

	_, err = suite.services.Auth.RefreshToken(ctx, resp.AccessToken)
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))

	refreshed, err := suite.services.Auth.RefreshToken(ctx, resp.RefreshToken)
	suite.Require().NoError(err)
	claims, err := suite.services.JWT.ValidateAccessToken(refreshed.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(utils.TokenTypeAccess, claims.TokenType)
	suite.Equal("refresher", claims.Username)

	me, err := suite.services.Auth.Me(ctx, claims.UserID)
	suite.Require().NoError(err)
	suite.Equal("refresher@example.com", me.Email)

	_, err = suite.services.Auth.ValidateToken(ctx, "not-a-token")
	suite.True(apperrors.Is(err, apperrors.ErrTokenInvalid))
}

// 测试旧参数哈希在登录后升级
func (suite *ServiceTestSuite) TestLoginRehashesWeakPassword() {
	weak, err := utils.HashPasswordWithConfig("password123", &utils.PasswordConfig{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("id = ?", suite.player.UserID).
		Update("password_hash", weak).Error)

	_, err = suite.services.Auth.Login(context.Background(), &LoginRequest{Account: "player", Password: "password123"})
	suite.Require().NoError(err)

	var user models.User
	suite.Require().NoError(suite.db.First(&user, suite.player.UserID).Error)
	suite.NotEqual(weak, user.PasswordHash)
	suite.False(utils.NeedsRehash(user.PasswordHash))

	ok, err := utils.VerifyPassword("password123", user.PasswordHash)
	suite.NoError(err)
	suite.True(ok)
}

// 测试用户分页
func (suite *ServiceTestSuite) TestListUsers() {
	list, err := suite.services.Auth.ListUsers(context.Background(), 1, 2)
	suite.Require().NoError(err)
	suite.Equal(int64(5), list.Total)
	suite.Len(list.Users, 2)
	suite.Equal("admin", list.Users[0].Username)

	// 非法分页参数使用默认值
	list, err = suite.services.Auth.ListUsers(context.Background(), 0, 0)
	suite.Require().NoError(err)
	suite.Equal(1, list.Page)
	suite.Equal(20, list.PageSize)
	suite.Len(list.Users, 5)
}
