package models

import (
	"time"
)

// Campaign 战役表
type Campaign struct {
	BaseModel
	Name         string    `gorm:"size:100;not null" json:"name"`
	Description  string    `gorm:"size:500" json:"description"`
	GMUserID     uint      `gorm:"not null;index" json:"gm_user_id"`
	CurrentDay   int       `gorm:"not null;default:1" json:"current_day"`
	DayStartedAt time.Time `json:"day_started_at"`
}

// IsGM 判断用户是否为本战役GM
func (c *Campaign) IsGM(userID uint) bool {
	return c.GMUserID == userID
}

// CampaignMember 战役成员表
type CampaignMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:idx_campaign_member" json:"campaign_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_campaign_member;index" json:"user_id"`
	CreatedAt  time.Time `json:"joined_at"`
}

// MemberInfo 成员列表项，IsGM 由战役GM推导
type MemberInfo struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	IsGM     bool      `json:"is_gm"`
	JoinedAt time.Time `json:"joined_at"`
}
