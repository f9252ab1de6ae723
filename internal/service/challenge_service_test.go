package service

import (
	"context"

	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
)

// 测试挑战的创建与结束
func (suite *ServiceTestSuite) TestChallengeLifecycle() {
	ctx := context.Background()

	_, err := suite.services.Challenges.Create(ctx, suite.player, &CreateChallengeRequest{
		CampaignID:  suite.campaign.ID,
		Description: "玩家不能发布",
	})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Challenges.Create(ctx, suite.gm, &CreateChallengeRequest{
		CampaignID:         suite.campaign.ID,
		Description:        "难度越界",
		DifficultyModifier: 3,
	})
	suite.True(apperrors.Is(err, apperrors.ErrValidation))
	suite.Empty(suite.pub.Events())

	challenge := suite.challenge(2)
	suite.True(challenge.IsActive)

	events := suite.pub.Events()
	suite.Require().Len(events, 1)
	payload := events[0].Event.Payload.(models.ChallengeUpdatePayload)
	suite.Equal(models.ChallengeActionCreated, payload.Action)
	suite.Equal(challenge.ID, payload.Challenge.ID)

	_, err = suite.services.Challenges.Complete(ctx, suite.player, challenge.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	completed, err := suite.services.Challenges.Complete(ctx, suite.gm, challenge.ID)
	suite.Require().NoError(err)
	suite.False(completed.IsActive)
	suite.Equal(2, suite.pub.Count(models.EventChallengeUpdate))

	_, err = suite.services.Challenges.Complete(ctx, suite.gm, challenge.ID)
	suite.True(apperrors.Is(err, apperrors.ErrChallengeInactive))
	suite.Equal(2, suite.pub.Count(models.EventChallengeUpdate))
}

// 测试结束的挑战不能再检定
func (suite *ServiceTestSuite) TestRollAgainstInactiveChallenge() {
	ctx := context.Background()
	pool := suite.manualPool(4, 4, 4)
	challenge := suite.challenge(0)
	_, err := suite.services.Challenges.Complete(ctx, suite.gm, challenge.ID)
	suite.Require().NoError(err)

	_, err = suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
		CharacterID: suite.hero.ID,
		PoolDiceID:  pool.Dice[0].ID,
		ChallengeID: &challenge.ID,
	})
	suite.True(apperrors.Is(err, apperrors.ErrChallengeInactive))

	// 骰子未被消耗
	current, err := suite.services.DicePools.GetCurrentPool(ctx, suite.player, suite.hero.ID)
	suite.Require().NoError(err)
	suite.Equal(3, current.UnusedCount())
}

// 测试进行中挑战统计，个人挑战可多次尝试
func (suite *ServiceTestSuite) TestChallengeStats() {
	ctx := context.Background()
	pool := suite.manualPool(6, 1, 4)
	challenge := suite.challenge(0)

	for i, d20 := range []int{1, 2, 10} {
		d20 := d20
		_, err := suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
			CharacterID: suite.hero.ID,
			PoolDiceID:  pool.Dice[i].ID,
			D20:         &d20,
			ChallengeID: &challenge.ID,
		})
		suite.Require().NoError(err)
	}

	stats, err := suite.services.Challenges.ListActiveWithStats(ctx, suite.player2, suite.campaign.ID)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 1)
	suite.Equal(int64(3), stats[0].TotalAttempts)
	suite.Equal(int64(1), stats[0].Successes)
	suite.Equal(int64(1), stats[0].Failures)
	suite.Equal(int64(1), stats[0].Neutrals)

	suite.Equal(dice.OutcomeNeutral, dice.Calculate(4, 10))
}
