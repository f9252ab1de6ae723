package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo UserRepository
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewUserRepository(suite.db)
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *UserRepositoryTestSuite) newUser(username string) *models.User {
	return &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RolePlayer,
	}
}

// 测试创建用户
func (suite *UserRepositoryTestSuite) TestCreate() {
	ctx := context.Background()
	user := suite.newUser("alice")
	suite.Require().NoError(suite.repo.Create(ctx, user))
	suite.NotZero(user.ID)

	found, err := suite.repo.FindByID(ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal("alice", found.Username)
	suite.Equal(models.RolePlayer, found.Role)
}

// 测试用户名重复
func (suite *UserRepositoryTestSuite) TestCreateDuplicate() {
	ctx := context.Background()
	suite.Require().NoError(suite.repo.Create(ctx, suite.newUser("alice")))

	err := suite.repo.Create(ctx, suite.newUser("alice"))
	suite.True(apperrors.Is(err, apperrors.ErrConflict))
}

// 测试用户名或邮箱登录查找
func (suite *UserRepositoryTestSuite) TestFindByLogin() {
	ctx := context.Background()
	user := suite.newUser("bob")
	suite.Require().NoError(suite.repo.Create(ctx, user))

	byName, err := suite.repo.FindByLogin(ctx, "bob")
	suite.Require().NoError(err)
	suite.Equal(user.ID, byName.ID)

	byEmail, err := suite.repo.FindByLogin(ctx, "bob@example.com")
	suite.Require().NoError(err)
	suite.Equal(user.ID, byEmail.ID)

	_, err = suite.repo.FindByLogin(ctx, "nobody")
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))

	_, err = suite.repo.FindByUsername(ctx, "nobody")
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))
}

// 测试分页与最后登录时间
func (suite *UserRepositoryTestSuite) TestListAndLastLogin() {
	ctx := context.Background()
	for _, name := range []string{"u1", "u2", "u3"} {
		suite.Require().NoError(suite.repo.Create(ctx, suite.newUser(name)))
	}

	p := NewPagination(1, 2)
	users, err := suite.repo.List(ctx, p)
	suite.Require().NoError(err)
	suite.Len(users, 2)
	suite.Equal(int64(3), p.Total)

	suite.Require().NoError(suite.repo.UpdateLastLogin(ctx, users[0].ID))
	found, err := suite.repo.FindByID(ctx, users[0].ID)
	suite.Require().NoError(err)
	suite.NotNil(found.LastLoginAt)
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
