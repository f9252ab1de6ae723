package service

import (
	"context"
	"sync"

	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
)

func (suite *ServiceTestSuite) manualPool(values ...int) *models.DicePool {
	pool, err := suite.services.DicePools.RollNewPool(context.Background(), suite.player, suite.hero.ID, &RollPoolRequest{
		Mode:   models.PoolModeManual,
		Values: values,
	})
	suite.Require().NoError(err)
	return pool
}

func (suite *ServiceTestSuite) challenge(difficulty int) *models.Challenge {
	c, err := suite.services.Challenges.Create(context.Background(), suite.gm, &CreateChallengeRequest{
		CampaignID:         suite.campaign.ID,
		Description:        "翻越城墙",
		DifficultyModifier: difficulty,
	})
	suite.Require().NoError(err)
	return c
}

// 测试技能与难度修正后的检定
func (suite *ServiceTestSuite) TestRecordRollWithModifiers() {
	ctx := context.Background()
	pool := suite.manualPool(4, 4, 4)
	challenge := suite.challenge(-1)

	tests := []struct {
		name string
		d20  int
		want dice.Outcome
	}{
		{"d20为16成功", 16, dice.OutcomeSuccess},
		{"d20为10中立", 10, dice.OutcomeNeutral},
		{"d20为3失败", 3, dice.OutcomeFailure},
	}

	for i, tt := range tests {
		suite.Run(tt.name, func() {
			d20 := tt.d20
			roll, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
				CharacterID:  suite.hero.ID,
				PoolDiceID:   pool.Dice[i].ID,
				D20:          &d20,
				ChallengeID:  &challenge.ID,
				SkillApplied: true,
			})
			suite.Require().NoError(err)
			suite.Equal(4, roll.ModifiedD6)
			suite.Equal(tt.want, roll.Outcome)
			suite.Equal("艾琳", roll.CharacterName)
		})
	}

	suite.Equal(3, suite.pub.Count(models.EventRollComplete))

	current, err := suite.services.DicePools.GetCurrentPool(ctx, suite.player, suite.hero.ID)
	suite.Require().NoError(err)
	suite.Zero(current.UnusedCount())
}

// 测试服务端掷d20并截断修正值
func (suite *ServiceTestSuite) TestRecordRollServerD20() {
	ctx := context.Background()
	pool := suite.manualPool(6, 1, 3)

	roll, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
		CharacterID:    suite.hero.ID,
		PoolDiceID:     pool.Dice[0].ID,
		OtherModifiers: 5,
	})
	suite.Require().NoError(err)
	suite.Equal(16, *roll.D20Roll)
	suite.Equal(6, roll.ModifiedD6)
	suite.Equal(dice.OutcomeSuccess, roll.Outcome)

	roll, err = suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
		CharacterID:    suite.hero.ID,
		PoolDiceID:     pool.Dice[1].ID,
		OtherModifiers: -4,
	})
	suite.Require().NoError(err)
	suite.Equal(1, roll.ModifiedD6)
	suite.Equal(dice.OutcomeNeutral, roll.Outcome)

	events := suite.pub.Events()
	last := events[len(events)-1]
	suite.Equal(models.EventRollComplete, last.Event.Type)
	payload, ok := last.Event.Payload.(models.RollCompletePayload)
	suite.Require().True(ok)
	suite.Equal("艾琳", payload.CharacterName)
	suite.Equal(roll.ID, payload.Roll.ID)
}

// 测试骰子只能使用一次
func (suite *ServiceTestSuite) TestRecordRollDieReuse() {
	ctx := context.Background()
	pool := suite.manualPool(3, 3, 3)
	req := &RecordRollRequest{CharacterID: suite.hero.ID, PoolDiceID: pool.Dice[0].ID}

	_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, req)
	suite.Require().NoError(err)

	before := len(suite.pub.Events())
	_, err = suite.services.Rolls.RecordRoll(ctx, suite.player, req)
	suite.True(apperrors.Is(err, apperrors.ErrDieAlreadyUsed))
	suite.True(apperrors.Is(err, apperrors.ErrConflict))
	suite.Len(suite.pub.Events(), before)
}

// 测试并发使用同一颗骰子只有一个成功
func (suite *ServiceTestSuite) TestRecordRollConcurrent() {
	ctx := context.Background()
	pool := suite.manualPool(5, 5, 5)
	dieID := pool.Dice[2].ID

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
				CharacterID: suite.hero.ID,
				PoolDiceID:  dieID,
			})
			errs <- err
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
	suite.Equal(1, suite.pub.Count(models.EventRollComplete))

	var rolls int64
	suite.Require().NoError(suite.db.Model(&models.RollHistory{}).Where("pool_dice_id = ?", dieID).Count(&rolls).Error)
	suite.Equal(int64(1), rolls)
}

// 测试检定的校验与权限
func (suite *ServiceTestSuite) TestRecordRollRejected() {
	ctx := context.Background()
	pool := suite.manualPool(2, 2, 2)
	before := suite.auditCount()

	suite.Run("d20越界", func() {
		bad := 21
		_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
			CharacterID: suite.hero.ID,
			PoolDiceID:  pool.Dice[0].ID,
			D20:         &bad,
		})
		suite.True(apperrors.Is(err, apperrors.ErrInvalidD20Value))
	})

	suite.Run("其他玩家不能代为检定", func() {
		_, err := suite.services.Rolls.RecordRoll(ctx, suite.player2, &RecordRollRequest{
			CharacterID: suite.hero.ID,
			PoolDiceID:  pool.Dice[0].ID,
		})
		suite.True(apperrors.Is(err, apperrors.ErrForbidden))
	})

	suite.Run("骰子不属于角色", func() {
		other, err := suite.services.Characters.Create(ctx, suite.gm, &CreateCharacterRequest{
			CampaignID: suite.campaign.ID,
			Name:       "托林",
		})
		suite.Require().NoError(err)
		_, err = suite.services.Rolls.RecordRoll(ctx, suite.gm, &RecordRollRequest{
			CharacterID: other.ID,
			PoolDiceID:  pool.Dice[0].ID,
		})
		suite.True(apperrors.Is(err, apperrors.ErrValidation))
	})

	suite.Run("骰子不存在", func() {
		_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
			CharacterID: suite.hero.ID,
			PoolDiceID:  9999,
		})
		suite.True(apperrors.Is(err, apperrors.ErrNotFound))
	})

	suite.Equal(before, suite.auditCount())
}

// 测试检定历史
func (suite *ServiceTestSuite) TestHistory() {
	ctx := context.Background()
	pool := suite.manualPool(1, 2, 3)
	for _, d := range pool.Dice {
		_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
			CharacterID: suite.hero.ID,
			PoolDiceID:  d.ID,
		})
		suite.Require().NoError(err)
	}

	byCharacter, err := suite.services.Rolls.History(ctx, suite.player2, &HistoryQuery{CharacterID: suite.hero.ID})
	suite.Require().NoError(err)
	suite.Len(byCharacter, 3)
	suite.Equal(3, byCharacter[0].DieResult)

	byCampaign, err := suite.services.Rolls.History(ctx, suite.gm, &HistoryQuery{CampaignID: suite.campaign.ID})
	suite.Require().NoError(err)
	suite.Len(byCampaign, 3)

	_, err = suite.services.Rolls.History(ctx, suite.outsider, &HistoryQuery{CampaignID: suite.campaign.ID})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Rolls.History(ctx, suite.gm, &HistoryQuery{})
	suite.True(apperrors.Is(err, apperrors.ErrValidation))
}
