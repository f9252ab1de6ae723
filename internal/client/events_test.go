package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/fate-dice/internal/dice"
	"github.com/wfunc/fate-dice/internal/models"
)

func TestDecodeFrame(t *testing.T) {
	t.Run("批量帧", func(t *testing.T) {
		frame := []byte(`{"type":"dice_pool_updated","campaign_id":1,"seq":1,"payload":{"character_id":3,"pool":{"id":9,"character_id":3,"campaign_day":1,"dice":[{"id":20,"die_result":4}]}}}
{"type":"roll_complete","campaign_id":1,"seq":2,"payload":{"character_id":3,"character_name":"影","roll":{"id":5,"character_id":3,"pool_dice_id":20,"outcome":"success"}}}
{"type":"challenge_update","campaign_id":1,"seq":3,"payload":{"action":"completed","challenge":{"id":7}}}
{"type":"day_incremented","campaign_id":1,"seq":4,"payload":{"campaign_id":1,"current_day":2}}
`)
		events, err := DecodeFrame(frame)
		require.NoError(t, err)
		require.Len(t, events, 4)

		pool, ok := events[0].(*PoolUpdated)
		require.True(t, ok)
		assert.Equal(t, uint(3), pool.Payload.CharacterID)
		require.Len(t, pool.Payload.Pool.Dice, 1)
		assert.Equal(t, 4, pool.Payload.Pool.Dice[0].DieResult)

		roll, ok := events[1].(*RollComplete)
		require.True(t, ok)
		assert.Equal(t, "影", roll.Payload.CharacterName)
		assert.Equal(t, dice.OutcomeSuccess, roll.Payload.Roll.Outcome)
		require.NotNil(t, roll.Payload.Roll.PoolDiceID)
		assert.Equal(t, uint(20), *roll.Payload.Roll.PoolDiceID)

		challenge, ok := events[2].(*ChallengeUpdate)
		require.True(t, ok)
		assert.Equal(t, models.ChallengeActionCompleted, challenge.Payload.Action)

		day, ok := events[3].(*DayIncremented)
		require.True(t, ok)
		assert.Equal(t, 2, day.Payload.CurrentDay)

		for i, ev := range events {
			assert.Equal(t, Meta{CampaignID: 1, Seq: uint64(i + 1)}, ev.Meta())
		}
		assert.Equal(t, models.EventDayIncremented, events[3].Type())
	})

	t.Run("未知类型不影响其他事件", func(t *testing.T) {
		frame := []byte(`{"type":"chat","campaign_id":1,"seq":1,"payload":{}}
{"type":"day_incremented","campaign_id":1,"seq":2,"payload":{"current_day":3}}`)
		events, err := DecodeFrame(frame)
		assert.ErrorIs(t, err, ErrUnknownEvent)
		require.Len(t, events, 1)
		assert.Equal(t, uint64(2), events[0].Meta().Seq)
	})

	t.Run("格式错误", func(t *testing.T) {
		events, err := DecodeFrame([]byte("not json\n"))
		assert.Error(t, err)
		assert.Empty(t, events)
	})

	t.Run("空帧", func(t *testing.T) {
		events, err := DecodeFrame([]byte("\n\n"))
		assert.NoError(t, err)
		assert.Empty(t, events)
	})
}
