package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/fate-dice/internal/dice"
	"github.com/wfunc/fate-dice/internal/models"
)

func testPool(id, characterID uint, day int, dieIDs ...uint) *models.DicePool {
	pool := &models.DicePool{CharacterID: characterID, CampaignDay: day}
	pool.ID = id
	for i, dieID := range dieIDs {
		pool.Dice = append(pool.Dice, models.PoolDie{ID: dieID, PoolID: id, DieResult: 3, Position: i})
	}
	return pool
}

func testChallenge(id uint) models.Challenge {
	c := models.Challenge{CampaignID: 1, Description: "攀爬", IsActive: true}
	c.ID = id
	return c
}

func rollEvent(seq uint64, rollID, characterID, dieID uint, challengeID *uint, outcome dice.Outcome) *RollComplete {
	roll := models.RollHistory{CampaignID: 1, CharacterID: characterID, PoolDiceID: &dieID, ChallengeID: challengeID, Outcome: outcome}
	roll.ID = rollID
	return &RollComplete{
		meta:    Meta{CampaignID: 1, Seq: seq},
		Payload: models.RollCompletePayload{CharacterID: characterID, Roll: roll},
	}
}

func newTestReconciler() *Reconciler {
	r := NewReconciler(1)
	r.Reset(&Snapshot{
		Campaign: &models.Campaign{CurrentDay: 1},
		Pools:    []*models.DicePool{testPool(10, 3, 1, 100, 101, 102)},
		Challenges: []*models.ChallengeWithStats{
			{Challenge: testChallenge(7)},
		},
		Seq: 5,
	})
	return r
}

func TestReconcilerReset(t *testing.T) {
	r := NewReconciler(1)
	r.Reset(&Snapshot{
		Campaign: &models.Campaign{CurrentDay: 2},
		Pools: []*models.DicePool{
			testPool(10, 3, 1, 100),
			testPool(11, 4, 2, 110),
		},
		Seq: 9,
	})

	view := r.View()
	assert.Equal(t, 2, view.CurrentDay)
	assert.Equal(t, uint64(9), view.Seq)
	assert.Len(t, view.Pools, 1)
	assert.Contains(t, view.Pools, uint(4))
}

func TestReconcilerApply(t *testing.T) {
	t.Run("快照之前的事件被忽略", func(t *testing.T) {
		r := newTestReconciler()
		assert.False(t, r.Apply(rollEvent(5, 1, 3, 100, nil, dice.OutcomeSuccess)))
		assert.False(t, r.View().Pools[3].Dice[0].IsUsed)
	})

	t.Run("其他战役的事件被忽略", func(t *testing.T) {
		r := newTestReconciler()
		ev := &DayIncremented{meta: Meta{CampaignID: 2, Seq: 6}, Payload: models.DayIncrementedPayload{CurrentDay: 9}}
		assert.False(t, r.Apply(ev))
		assert.Equal(t, 1, r.View().CurrentDay)
	})

	t.Run("检定标记骰子并计入挑战", func(t *testing.T) {
		r := newTestReconciler()
		challengeID := uint(7)
		require.True(t, r.Apply(rollEvent(6, 1, 3, 101, &challengeID, dice.OutcomeNeutral)))

		view := r.View()
		assert.True(t, view.Pools[3].Dice[1].IsUsed)
		assert.Equal(t, int64(1), view.Challenges[7].TotalAttempts)
		assert.Equal(t, int64(1), view.Challenges[7].Neutrals)
		require.Len(t, view.Rolls, 1)
		assert.Equal(t, uint64(6), view.Seq)
	})

	t.Run("重复的检定不重复计数", func(t *testing.T) {
		r := newTestReconciler()
		challengeID := uint(7)
		require.True(t, r.Apply(rollEvent(6, 1, 3, 101, &challengeID, dice.OutcomeSuccess)))
		require.True(t, r.Apply(rollEvent(7, 1, 3, 101, &challengeID, dice.OutcomeSuccess)))

		view := r.View()
		assert.Equal(t, int64(1), view.Challenges[7].Successes)
		assert.Len(t, view.Rolls, 1)
		assert.Equal(t, uint64(7), view.Seq)
	})

	t.Run("过期骰池被忽略", func(t *testing.T) {
		r := newTestReconciler()
		require.True(t, r.Apply(&DayIncremented{meta: Meta{CampaignID: 1, Seq: 6}, Payload: models.DayIncrementedPayload{CurrentDay: 2}}))
		assert.Empty(t, r.View().Pools)

		stale := &PoolUpdated{meta: Meta{CampaignID: 1, Seq: 7}, Payload: models.PoolUpdatedPayload{CharacterID: 3, Pool: testPool(10, 3, 1, 100)}}
		r.Apply(stale)
		assert.Empty(t, r.View().Pools)

		fresh := &PoolUpdated{meta: Meta{CampaignID: 1, Seq: 8}, Payload: models.PoolUpdatedPayload{CharacterID: 3, Pool: testPool(12, 3, 2, 120)}}
		require.True(t, r.Apply(fresh))
		assert.Equal(t, uint(12), r.View().Pools[3].ID)
	})

	t.Run("日期不会倒退", func(t *testing.T) {
		r := newTestReconciler()
		r.Apply(&DayIncremented{meta: Meta{CampaignID: 1, Seq: 6}, Payload: models.DayIncrementedPayload{CurrentDay: 3}})
		r.Apply(&DayIncremented{meta: Meta{CampaignID: 1, Seq: 7}, Payload: models.DayIncrementedPayload{CurrentDay: 2}})
		assert.Equal(t, 3, r.View().CurrentDay)
	})

	t.Run("挑战创建与结束", func(t *testing.T) {
		r := newTestReconciler()
		created := &ChallengeUpdate{meta: Meta{CampaignID: 1, Seq: 6}, Payload: models.ChallengeUpdatePayload{
			Action: models.ChallengeActionCreated, Challenge: testChallenge(8),
		}}
		require.True(t, r.Apply(created))
		assert.Equal(t, []uint{7, 8}, r.View().ActiveChallengeIDs())

		done := testChallenge(7)
		done.IsActive = false
		completed := &ChallengeUpdate{meta: Meta{CampaignID: 1, Seq: 7}, Payload: models.ChallengeUpdatePayload{
			Action: models.ChallengeActionCompleted, Challenge: done,
		}}
		require.True(t, r.Apply(completed))
		assert.Equal(t, []uint{8}, r.View().ActiveChallengeIDs())
	})

	t.Run("视图副本互不影响", func(t *testing.T) {
		r := newTestReconciler()
		view := r.View()
		view.Pools[3].Dice[0].IsUsed = true
		assert.False(t, r.View().Pools[3].Dice[0].IsUsed)
	})
}
