package models

import (
	"time"

	"github.com/wfunc/fate-dice/internal/dice"
)

// RollHistory 检定记录表，写入后不再修改
type RollHistory struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	CampaignID     uint         `gorm:"not null;index" json:"campaign_id"`
	CharacterID    uint         `gorm:"not null;index" json:"character_id"`
	PoolDiceID     *uint        `gorm:"uniqueIndex" json:"pool_dice_id"`
	DieResult      int          `gorm:"not null" json:"die_result"`
	D20Roll        *int         `json:"d20_roll"`
	ActionType     *string      `gorm:"size:100" json:"action_type"`
	ChallengeID    *uint        `gorm:"index" json:"challenge_id"`
	SkillApplied   bool         `gorm:"not null" json:"skill_applied"`
	OtherModifiers int          `gorm:"not null" json:"other_modifiers"`
	ModifiedD6     int          `gorm:"not null" json:"modified_d6"`
	Outcome        dice.Outcome `gorm:"size:10;not null" json:"outcome"`
	Notes          *string      `gorm:"size:1000" json:"notes"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`

	// 列表查询时联表带出
	CharacterName string `gorm:"->;-:migration" json:"character_name,omitempty"`
}
