package models

// Character 角色表
type Character struct {
	BaseModel
	CampaignID       uint    `gorm:"not null;index" json:"campaign_id"`
	UserID           *uint   `gorm:"index" json:"user_id"`
	Name             string  `gorm:"size:100;not null" json:"name"`
	SkillName        *string `gorm:"size:100" json:"skill_name"`
	SkillModifier    int     `gorm:"not null;default:0" json:"skill_modifier"`
	WeaknessName     *string `gorm:"size:100" json:"weakness_name"`
	WeaknessModifier int     `gorm:"not null;default:0" json:"weakness_modifier"`
	MaxDailyDice     int     `gorm:"not null;default:3" json:"max_daily_dice"`
}

// OwnedBy 判断角色是否属于指定用户
func (c *Character) OwnedBy(userID uint) bool {
	return c.UserID != nil && *c.UserID == userID
}
