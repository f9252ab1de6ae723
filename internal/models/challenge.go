package models

// Challenge 挑战表
type Challenge struct {
	BaseModel
	CampaignID         uint   `gorm:"not null;index" json:"campaign_id"`
	CreatedByUserID    uint   `gorm:"not null" json:"created_by_user_id"`
	Description        string `gorm:"size:500;not null" json:"description"`
	DifficultyModifier int    `gorm:"not null" json:"difficulty_modifier"`
	IsGroupChallenge   bool   `gorm:"not null" json:"is_group_challenge"`
	IsActive           bool   `gorm:"not null;index" json:"is_active"`
}

// ChallengeWithStats 挑战及其检定统计，中立结果单独计数
type ChallengeWithStats struct {
	Challenge
	TotalAttempts int64 `json:"total_attempts"`
	Successes     int64 `json:"successes"`
	Failures      int64 `json:"failures"`
	Neutrals      int64 `json:"neutrals"`
}
