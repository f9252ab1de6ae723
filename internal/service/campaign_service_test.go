package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
)

// 测试创建战役
func (suite *ServiceTestSuite) TestCreateCampaign() {
	ctx := context.Background()

	_, err := suite.services.Campaigns.Create(ctx, suite.player, &CreateCampaignRequest{Name: "新战役"})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Campaigns.Create(ctx, suite.gm, &CreateCampaignRequest{Name: "  "})
	suite.True(apperrors.Is(err, apperrors.ErrValidation))

	campaign, err := suite.services.Campaigns.Create(ctx, suite.gm, &CreateCampaignRequest{Name: "龙之谷", Description: "第二章"})
	suite.Require().NoError(err)
	suite.Equal(1, campaign.CurrentDay)
	suite.Equal(suite.gm.UserID, campaign.GMUserID)

	members, err := suite.services.Campaigns.Members(ctx, suite.gm, campaign.ID)
	suite.Require().NoError(err)
	suite.Require().Len(members, 1)
	suite.True(members[0].IsGM)

	list, err := suite.services.Campaigns.List(ctx, suite.gm)
	suite.Require().NoError(err)
	suite.Len(list, 2)

	list, err = suite.services.Campaigns.List(ctx, suite.outsider)
	suite.Require().NoError(err)
	suite.Empty(list)

	list, err = suite.services.Campaigns.List(ctx, suite.admin)
	suite.Require().NoError(err)
	suite.Len(list, 2)
}

// 测试成员管理
func (suite *ServiceTestSuite) TestMembers() {
	ctx := context.Background()

	_, err := suite.services.Campaigns.Get(ctx, suite.outsider, suite.campaign.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	err = suite.services.Campaigns.AddMember(ctx, suite.player, suite.campaign.ID, suite.outsider.UserID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	suite.Require().NoError(suite.services.Campaigns.AddMember(ctx, suite.gm, suite.campaign.ID, suite.outsider.UserID))
	_, err = suite.services.Campaigns.Get(ctx, suite.outsider, suite.campaign.ID)
	suite.NoError(err)

	err = suite.services.Campaigns.AddMember(ctx, suite.gm, suite.campaign.ID, suite.outsider.UserID)
	suite.True(apperrors.Is(err, apperrors.ErrConflict))

	err = suite.services.Campaigns.AddMember(ctx, suite.gm, suite.campaign.ID, 9999)
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))

	err = suite.services.Campaigns.RemoveMember(ctx, suite.admin, suite.campaign.ID, suite.gm.UserID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	suite.Require().NoError(suite.services.Campaigns.RemoveMember(ctx, suite.admin, suite.campaign.ID, suite.outsider.UserID))
	_, err = suite.services.Campaigns.Get(ctx, suite.outsider, suite.campaign.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Campaigns.Get(ctx, suite.gm, 404)
	suite.True(apperrors.Is(err, apperrors.ErrNotFound))
}

// 测试推进日期后旧骰池过期
func (suite *ServiceTestSuite) TestIncrementDay() {
	ctx := context.Background()
	pool := suite.manualPool(6, 6, 6)

	_, err := suite.services.Campaigns.IncrementDay(ctx, suite.player, suite.campaign.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	campaign, err := suite.services.Campaigns.IncrementDay(ctx, suite.gm, suite.campaign.ID)
	suite.Require().NoError(err)
	suite.Equal(2, campaign.CurrentDay)

	events := suite.pub.Events()
	last := events[len(events)-1]
	suite.Equal(models.EventDayIncremented, last.Event.Type)
	suite.Equal(models.DayIncrementedPayload{CampaignID: suite.campaign.ID, CurrentDay: 2}, last.Event.Payload)

	_, err = suite.services.Rolls.RecordRoll(ctx, suite.player, &RecordRollRequest{
		CharacterID: suite.hero.ID,
		PoolDiceID:  pool.Dice[0].ID,
	})
	suite.True(apperrors.Is(err, apperrors.ErrPoolStale))

	current, err := suite.services.DicePools.GetCurrentPool(ctx, suite.player, suite.hero.ID)
	suite.NoError(err)
	suite.Nil(current)

	fresh, err := suite.services.DicePools.RollNewPool(ctx, suite.player, suite.hero.ID, &RollPoolRequest{})
	suite.Require().NoError(err)
	suite.Equal(2, fresh.CampaignDay)

	// 旧骰池保留
	var pools int64
	suite.Require().NoError(suite.db.Model(&models.DicePool{}).Where("character_id = ?", suite.hero.ID).Count(&pools).Error)
	suite.Equal(int64(2), pools)
}

// 测试日期推进等待进行中的检定
func (suite *ServiceTestSuite) TestIncrementDayWaitsForReaders() {
	unlock := suite.services.Locks.RLock(suite.campaign.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := suite.services.Campaigns.IncrementDay(context.Background(), suite.gm, suite.campaign.ID)
		suite.NoError(err)
	}()

	select {
	case <-done:
		suite.Fail("持有读锁时日期推进不应完成")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		suite.Fail("释放读锁后日期推进未完成")
	}
	suite.Equal(1, suite.pub.Count(models.EventDayIncremented))
}

// 测试快照与事件序号
func (suite *ServiceTestSuite) TestState() {
	ctx := context.Background()
	suite.manualPool(2, 4, 6)
	suite.challenge(0)

	state, err := suite.services.Campaigns.State(ctx, suite.player2, suite.campaign.ID)
	suite.Require().NoError(err)
	suite.Equal(uint64(2), state.Seq)
	suite.Equal(1, state.Campaign.CurrentDay)
	suite.Len(state.Characters, 1)
	suite.Require().Len(state.Pools, 1)
	suite.Len(state.Pools[0].Dice, 3)
	suite.Len(state.Challenges, 1)

	_, err = suite.services.Campaigns.State(ctx, suite.outsider, suite.campaign.ID)
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	events, err := suite.services.Campaigns.Events(ctx, suite.gm, suite.campaign.ID, 0)
	suite.Require().NoError(err)
	suite.Len(events, 2)
	suite.Equal(models.EventChallengeUpdate, events[0].Type)
}

// 测试事件数量上限
func (suite *ServiceTestSuite) TestEventsLimit() {
	ctx := context.Background()
	rows := make([]*models.CampaignEvent, 0, 250)
	for i := 0; i < 250; i++ {
		rows = append(rows, &models.CampaignEvent{
			EventID:    fmt.Sprintf("evt-%03d", i),
			CampaignID: suite.campaign.ID,
			ActorID:    suite.gm.UserID,
			Type:       models.EventDayIncremented,
		})
	}
	suite.Require().NoError(suite.db.CreateInBatches(rows, 50).Error)

	events, err := suite.services.Campaigns.Events(ctx, suite.gm, suite.campaign.ID, 0)
	suite.Require().NoError(err)
	suite.Len(events, 50)

	events, err = suite.services.Campaigns.Events(ctx, suite.gm, suite.campaign.ID, 500)
	suite.Require().NoError(err)
	suite.Len(events, 200)

	events, err = suite.services.Campaigns.Events(ctx, suite.gm, suite.campaign.ID, 120)
	suite.Require().NoError(err)
	suite.Len(events, 120)
}

// 测试不同战役的锁互不影响
func (suite *ServiceTestSuite) TestCampaignLocks() {
	locks := NewCampaignLocks()
	unlock := locks.Lock(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release := locks.RLock(2)
		release()
	}()
	wg.Wait()

	acquired := make(chan struct{})
	go func() {
		release := locks.RLock(1)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		suite.Fail("写锁持有期间不应获得读锁")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
}
