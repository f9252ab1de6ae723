package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// 战役事件类型
const (
	EventRollComplete    = "roll_complete"
	EventDicePoolUpdated = "dice_pool_updated"
	EventChallengeUpdate = "challenge_update"
	EventDayIncremented  = "day_incremented"
)

// 挑战事件动作
const (
	ChallengeActionCreated   = "created"
	ChallengeActionCompleted = "completed"
)

// Event 待广播的领域事件
type Event struct {
	Type    string
	Payload interface{}
}

// RollCompletePayload roll_complete 事件内容
type RollCompletePayload struct {
	CharacterID   uint        `json:"character_id"`
	CharacterName string      `json:"character_name"`
	Roll          RollHistory `json:"roll"`
}

// PoolUpdatedPayload dice_pool_updated 事件内容
type PoolUpdatedPayload struct {
	CharacterID uint      `json:"character_id"`
	Pool        *DicePool `json:"pool"`
}

// ChallengeUpdatePayload challenge_update 事件内容
type ChallengeUpdatePayload struct {
	Action    string    `json:"action"`
	Challenge Challenge `json:"challenge"`
}

// DayIncrementedPayload day_incremented 事件内容
type DayIncrementedPayload struct {
	CampaignID uint `json:"campaign_id"`
	CurrentDay int  `json:"current_day"`
}

// CampaignEvent 战役事件审计表，与业务写入同一事务提交
type CampaignEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EventID    string         `gorm:"uniqueIndex;size:36;not null" json:"event_id"`
	CampaignID uint           `gorm:"not null;index" json:"campaign_id"`
	ActorID    uint           `gorm:"not null" json:"actor_id"`
	Type       string         `gorm:"size:32;not null" json:"type"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// NewCampaignEvent 由领域事件生成审计记录
func NewCampaignEvent(campaignID, actorID uint, ev Event) (*CampaignEvent, error) {
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return &CampaignEvent{
		EventID:    uuid.NewString(),
		CampaignID: campaignID,
		ActorID:    actorID,
		Type:       ev.Type,
		Payload:    datatypes.JSON(raw),
	}, nil
}
