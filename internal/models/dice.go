package models

import (
	"time"
)

// 骰池生成方式
const (
	PoolModeAuto   = "auto"
	PoolModeManual = "manual"
)

// DicePool 每日骰池表，同一角色同一天只有一个
type DicePool struct {
	BaseModel
	CharacterID uint      `gorm:"not null;uniqueIndex:idx_pool_character_day" json:"character_id"`
	CampaignDay int       `gorm:"not null;uniqueIndex:idx_pool_character_day" json:"campaign_day"`
	Mode        string    `gorm:"size:10;not null" json:"mode"` // auto, manual
	RolledAt    time.Time `gorm:"not null" json:"rolled_at"`

	Dice []PoolDie `gorm:"foreignKey:PoolID" json:"dice"`
}

// IsCurrent 骰池是否属于战役当天
func (p *DicePool) IsCurrent(currentDay int) bool {
	return p.CampaignDay >= currentDay
}

// UnusedCount 未使用的骰子数
func (p *DicePool) UnusedCount() int {
	n := 0
	for _, d := range p.Dice {
		if !d.IsUsed {
			n++
		}
	}
	return n
}

// PoolDie 骰池中的单颗骰子，IsUsed 只会从 false 变为 true
type PoolDie struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PoolID    uint `gorm:"not null;index" json:"pool_id"`
	DieResult int  `gorm:"not null" json:"die_result"`
	IsUsed    bool `gorm:"not null" json:"is_used"`
	Position  int  `gorm:"not null" json:"position"`
}

// TableName 指定表名
func (PoolDie) TableName() string {
	return "pool_dice"
}
