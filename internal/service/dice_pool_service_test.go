package service

import (
	"context"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
)

// 测试自动生成骰池
func (suite *ServiceTestSuite) TestRollNewPoolAuto() {
	ctx := context.Background()

	pool, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{Mode: models.PoolModeAuto})
	suite.Require().NoError(err)
	suite.Equal(1, pool.CampaignDay)
	suite.Require().Len(pool.Dice, 3)
	for i, want := range []int{5, 2, 6} {
		suite.Equal(i, pool.Dice[i].Position)
		suite.Equal(want, pool.Dice[i].DieResult)
	}

	events := suite.pub.Events()
	suite.Require().Len(events, 1)
	suite.Equal(models.EventDicePoolUpdated, events[0].Event.Type)
	suite.Equal(suite.campaign.ID, events[0].CampaignID)
	suite.Equal(int64(1), suite.auditCount())

	current, err := suite.services.DicePools.GetCurrentPool(ctx, suite.player2, suite.hero.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(current)
	suite.Equal(pool.ID, current.ID)
}

// 测试同一天不能重复生成
func (suite *ServiceTestSuite) TestRollNewPoolTwice() {
	ctx := context.Background()

	_, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{})
	suite.Require().NoError(err)

	_, err = suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{})
	suite.True(apperrors.Is(err, apperrors.ErrPoolAlreadyExists))
	suite.True(apperrors.Is(err, apperrors.ErrConflict))
	suite.Len(suite.pub.Events(), 1)
	suite.Equal(int64(1), suite.auditCount())
}

// 测试手动录入骰池
func (suite *ServiceTestSuite) TestRollNewPoolManual() {
	ctx := context.Background()

	suite.Run("数量不符", func() {
		_, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{
			Mode:   models.PoolModeManual,
			Values: []int{3, 4},
		})
		suite.True(apperrors.Is(err, apperrors.ErrInvalidDiceCount))
		suite.True(apperrors.Is(err, apperrors.ErrValidation))
	})

	suite.Run("点数越界", func() {
		_, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{
			Mode:   models.PoolModeManual,
			Values: []int{3, 7, 1},
		})
		suite.True(apperrors.Is(err, apperrors.ErrInvalidDieValue))
	})

	suite.Run("未知模式", func() {
		_, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{Mode: "magic"})
		suite.True(apperrors.Is(err, apperrors.ErrValidation))
	})

	suite.Empty(suite.pub.Events())

	pool, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{
		Mode:   models.PoolModeManual,
		Values: []int{1, 6, 3},
	})
	suite.Require().NoError(err)
	suite.Equal(models.PoolModeManual, pool.Mode)
	suite.Equal(1, pool.Dice[0].DieResult)
	suite.Equal(6, pool.Dice[1].DieResult)
	suite.Equal(3, pool.Dice[2].DieResult)
}

// 测试骰池权限
func (suite *ServiceTestSuite) TestRollNewPoolPermissions() {
	ctx := context.Background()

	_, err := suite.services.DicePools.RollNewPool(ctx, suite.player2, suite.hero.ID, &RollPoolRequest{})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.DicePools.GetCurrentPool(ctx, suite.outsider, suite.hero.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.DicePools.RollNewPool(ctx, suite.gm, suite.hero.ID, &RollPoolRequest{})
	suite.NoError(err)
}

// 测试没有骰池时返回空
func (suite *ServiceTestSuite) TestGetCurrentPoolEmpty() {
	pool, err := suite.services.DicePools.GetCurrentPool(context.Background(), suite.player, suite.hero.ID)
	suite.NoError(err)
	suite.Nil(pool)
}

// 测试GM修改骰子
func (suite *ServiceTestSuite) TestEditDie() {
	ctx := context.Background()
	pool, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{})
	suite.Require().NoError(err)
	dieID := pool.Dice[1].ID

	_, err = suite.services.DicePools.EditDie(ctx, suite.player, dieID, 6)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.DicePools.EditDie(ctx, suite.gm, dieID, 7)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidDieValue))

	updated, err := suite.services.DicePools.EditDie(ctx, suite.gm, dieID, 6)
	suite.Require().NoError(err)
	suite.Equal(6, updated.Dice[1].DieResult)
	suite.Equal(2, suite.pub.Count(models.EventDicePoolUpdated))

	d20 := 10
	_, err = suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
		CharacterID: suite.hero.ID,
		PoolDiceID:  pool.Dice[0].ID,
		D20:         &d20,
	})
	suite.Require().NoError(err)

	_, err = suite.services.DicePools.EditDie(ctx, suite.gm, pool.Dice[0].ID, 1)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))
	suite.Equal(2, suite.pub.Count(models.EventDicePoolUpdated))
}
