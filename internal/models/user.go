package models

import (
	"time"
)

// 用户角色
const (
	RoleAdmin      = "admin"
	RoleGameMaster = "game_master"
	RolePlayer     = "player"
)

// User 用户表
type User struct {
	BaseModel
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:20;not null;default:'player'" json:"role"` // admin, game_master, player
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCreateCampaign 管理员和GM可以创建战役
func (u *User) CanCreateCampaign() bool {
	return u.Role == RoleAdmin || u.Role == RoleGameMaster
}

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleGameMaster, RolePlayer:
		return true
	}
	return false
}
