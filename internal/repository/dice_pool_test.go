package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// DicePoolRepositoryTestSuite 骰池仓储测试套件
type DicePoolRepositoryTestSuite struct {
	suite.Suite
	db        *gorm.DB
	repo      DicePoolRepository
	character *models.Character
}

func (suite *DicePoolRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewDicePoolRepository(suite.db)

	gm := CreateTestUser(suite.T(), suite.db, "gm", models.RoleGameMaster)
	campaign := CreateTestCampaign(suite.T(), suite.db, gm.ID)
	suite.character = CreateTestCharacter(suite.T(), suite.db, campaign.ID, nil, "艾琳")
}

func (suite *DicePoolRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试创建骰池并按位置读取
func (suite *DicePoolRepositoryTestSuite) TestCreatePool() {
	ctx := context.Background()
	pool := &models.DicePool{
		CharacterID: suite.character.ID,
		CampaignDay: 1,
		Mode:        models.PoolModeAuto,
		RolledAt:    time.Now(),
		Dice: []models.PoolDie{
			{DieResult: 5, Position: 0},
			{DieResult: 2, Position: 1},
			{DieResult: 6, Position: 2},
		},
	}
	suite.Require().NoError(suite.repo.CreatePool(ctx, pool))
	suite.NotZero(pool.ID)

	found, err := suite.repo.FindCurrent(ctx, suite.character.ID, 1)
	suite.Require().NoError(err)
	suite.Require().NotNil(found)
	suite.Require().Len(found.Dice, 3)
	for i, want := range []int{5, 2, 6} {
		suite.Equal(i, found.Dice[i].Position)
		suite.Equal(want, found.Dice[i].DieResult)
		suite.False(found.Dice[i].IsUsed)
	}
}

// 测试同一天重复创建
func (suite *DicePoolRepositoryTestSuite) TestCreatePoolDuplicate() {
	ctx := context.Background()
	CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 3, 3, 3)

	err := suite.repo.CreatePool(ctx, &models.DicePool{
		CharacterID: suite.character.ID,
		CampaignDay: 1,
		Mode:        models.PoolModeAuto,
		RolledAt:    time.Now(),
	})
	suite.True(apperrors.Is(err, apperrors.ErrPoolAlreadyExists))
	suite.True(apperrors.Is(err, apperrors.ErrConflict))
}

// 测试旧骰池不算当天
func (suite *DicePoolRepositoryTestSuite) TestFindCurrentStale() {
	ctx := context.Background()
	CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 4, 4, 4)

	pool, err := suite.repo.FindCurrent(ctx, suite.character.ID, 2)
	suite.NoError(err)
	suite.Nil(pool)

	pool, err = suite.repo.FindCurrent(ctx, suite.character.ID, 1)
	suite.NoError(err)
	suite.NotNil(pool)
}

// 测试列出战役当天骰池
func (suite *DicePoolRepositoryTestSuite) TestListCurrent() {
	ctx := context.Background()
	other := CreateTestCharacter(suite.T(), suite.db, suite.character.CampaignID, nil, "托林")
	CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 1, 2, 3)
	CreateTestPool(suite.T(), suite.db, other.ID, 1, 4, 5, 6)
	CreateTestPool(suite.T(), suite.db, other.ID, 2, 6, 6, 6)

	pools, err := suite.repo.ListCurrent(ctx, suite.character.CampaignID, 1)
	suite.Require().NoError(err)
	suite.Len(pools, 2)

	pools, err = suite.repo.ListCurrent(ctx, suite.character.CampaignID, 2)
	suite.Require().NoError(err)
	suite.Require().Len(pools, 1)
	suite.Equal(other.ID, pools[0].CharacterID)
}

// 测试骰子只能被使用一次
func (suite *DicePoolRepositoryTestSuite) TestClaimDie() {
	ctx := context.Background()
	pool := CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 4, 4, 4)
	dieID := pool.Dice[0].ID

	suite.NoError(suite.repo.ClaimDie(ctx, dieID))

	err := suite.repo.ClaimDie(ctx, dieID)
	suite.True(apperrors.Is(err, apperrors.ErrDieAlreadyUsed))

	die, err := suite.repo.FindDie(ctx, dieID)
	suite.Require().NoError(err)
	suite.True(die.IsUsed)
}

// 测试并发争用同一颗骰子
func (suite *DicePoolRepositoryTestSuite) TestClaimDieConcurrent() {
	ctx := context.Background()
	pool := CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 4, 4, 4)
	dieID := pool.Dice[1].ID

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- suite.repo.ClaimDie(ctx, dieID)
		}()
	}
	wg.Wait()
	close(errs)

	success, conflict := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		case apperrors.Is(err, apperrors.ErrDieAlreadyUsed):
			conflict++
		default:
			suite.Failf("意外错误", "%v", err)
		}
	}
	suite.Equal(1, success)
	suite.Equal(n-1, conflict)
}

// 测试修改骰子点数
func (suite *DicePoolRepositoryTestSuite) TestUpdateDieValue() {
	ctx := context.Background()
	pool := CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 1, 2, 3)

	suite.NoError(suite.repo.UpdateDieValue(ctx, pool.Dice[0].ID, 6))
	die, err := suite.repo.FindDie(ctx, pool.Dice[0].ID)
	suite.Require().NoError(err)
	suite.Equal(6, die.DieResult)

	suite.Require().NoError(suite.repo.ClaimDie(ctx, pool.Dice[1].ID))
	err = suite.repo.UpdateDieValue(ctx, pool.Dice[1].ID, 6)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))
}

// 测试修改为相同点数不报错
func (suite *DicePoolRepositoryTestSuite) TestUpdateDieValueUnchanged() {
	ctx := context.Background()
	pool := CreateTestPool(suite.T(), suite.db, suite.character.ID, 1, 4, 5, 6)

	suite.NoError(suite.repo.UpdateDieValue(ctx, pool.Dice[2].ID, 6))
	die, err := suite.repo.FindDie(ctx, pool.Dice[2].ID)
	suite.Require().NoError(err)
	suite.Equal(6, die.DieResult)
	suite.False(die.IsUsed)

	err = suite.repo.UpdateDieValue(ctx, 9999, 3)
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))
}

// 测试骰子不存在
func (suite *DicePoolRepositoryTestSuite) TestFindDieNotFound() {
	_, err := suite.repo.FindDie(context.Background(), 9999)
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDicePoolRepositorySuite(t *testing.T) {
	suite.Run(t, new(DicePoolRepositoryTestSuite))
}
