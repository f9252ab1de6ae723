package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDicePoolIsCurrent(t *testing.T) {
	pool := &DicePool{CampaignDay: 3}
	assert.True(t, pool.IsCurrent(3))
	assert.False(t, pool.IsCurrent(4))
}

func TestDicePoolUnusedCount(t *testing.T) {
	pool := &DicePool{Dice: []PoolDie{
		{DieResult: 1, IsUsed: true},
		{DieResult: 4},
		{DieResult: 6},
	}}
	assert.Equal(t, 2, pool.UnusedCount())
}

func TestCharacterOwnedBy(t *testing.T) {
	uid := uint(7)
	assert.True(t, (&Character{UserID: &uid}).OwnedBy(7))
	assert.False(t, (&Character{UserID: &uid}).OwnedBy(8))
	assert.False(t, (&Character{}).OwnedBy(7))
}

func TestUserRoles(t *testing.T) {
	assert.True(t, (&User{Role: RoleGameMaster}).CanCreateCampaign())
	assert.True(t, (&User{Role: RoleAdmin}).CanCreateCampaign())
	assert.False(t, (&User{Role: RolePlayer}).CanCreateCampaign())
	assert.False(t, ValidRole("guest"))
}

func TestNewCampaignEvent(t *testing.T) {
	ev, err := NewCampaignEvent(2, 9, Event{
		Type:    EventDayIncremented,
		Payload: DayIncrementedPayload{CampaignID: 2, CurrentDay: 5},
	})
	require.NoError(t, err)
	assert.Len(t, ev.EventID, 36)
	assert.Equal(t, EventDayIncremented, ev.Type)

	var payload DayIncrementedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, 5, payload.CurrentDay)
}
