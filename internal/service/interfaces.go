package service

import (
	"context"

	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/utils"
)

// Publisher 战役事件发布者
//
// Publish 在发布锁内执行 commit，提交成功后按提交顺序分配序号并广播；
// commit 失败时不发送任何事件。Snapshot 返回 load 期间未被并发提交打断的序号。
type Publisher interface {
	Publish(campaignID uint, commit func() error, events ...models.Event) error
	Snapshot(campaignID uint, load func() error) (uint64, error)
}

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	Me(ctx context.Context, userID uint) (*models.User, error)
	ListUsers(ctx context.Context, page, pageSize int) (*UserList, error)
}

// CampaignService 战役服务接口
type CampaignService interface {
	Create(ctx context.Context, actor Actor, req *CreateCampaignRequest) (*models.Campaign, error)
	Get(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, error)
	List(ctx context.Context, actor Actor) ([]*models.Campaign, error)
	State(ctx context.Context, actor Actor, campaignID uint) (*CampaignState, error)

	// 成员
	Members(ctx context.Context, actor Actor, campaignID uint) ([]*models.MemberInfo, error)
	AddMember(ctx context.Context, actor Actor, campaignID, userID uint) error
	RemoveMember(ctx context.Context, actor Actor, campaignID, userID uint) error

	// 日期推进
	IncrementDay(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, error)

	// 审计
	Events(ctx context.Context, actor Actor, campaignID uint, limit int) ([]*models.CampaignEvent, error)
}

// CharacterService 角色服务接口
type CharacterService interface {
	Create(ctx context.Context, actor Actor, req *CreateCharacterRequest) (*models.Character, error)
	Get(ctx context.Context, actor Actor, characterID uint) (*models.Character, error)
	ListByCampaign(ctx context.Context, actor Actor, campaignID uint) ([]*models.Character, error)
	Update(ctx context.Context, actor Actor, characterID uint, req *UpdateCharacterRequest) (*models.Character, error)
}

// DicePoolService 骰池服务接口
type DicePoolService interface {
	RollNewPool(ctx context.Context, actor Actor, characterID uint, req *RollPoolRequest) (*models.DicePool, error)
	GetCurrentPool(ctx context.Context, actor Actor, characterID uint) (*models.DicePool, error)
	EditDie(ctx context.Context, actor Actor, dieID uint, value int) (*models.DicePool, error)
}

// RollService 检定服务接口
type RollService interface {
	RecordRoll(ctx context.Context, actor Actor, req *RecordRollRequest) (*models.RollHistory, error)
	History(ctx context.Context, actor Actor, query *HistoryQuery) ([]*models.RollHistory, error)
}

// ChallengeService 挑战服务接口
type ChallengeService interface {
	Create(ctx context.Context, actor Actor, req *CreateChallengeRequest) (*models.Challenge, error)
	ListActiveWithStats(ctx context.Context, actor Actor, campaignID uint) ([]*models.ChallengeWithStats, error)
	Complete(ctx context.Context, actor Actor, challengeID uint) (*models.Challenge, error)
}

// 请求和响应结构

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest 登录请求，Account 为用户名或邮箱
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// UserList 用户分页列表，GM添加成员时按此查找用户ID
type UserList struct {
	Users    []*models.User `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// CreateCampaignRequest 创建战役请求
type CreateCampaignRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CampaignState 战役当前状态快照
type CampaignState struct {
	Campaign   *models.Campaign             `json:"campaign"`
	Characters []*models.Character          `json:"characters"`
	Pools      []*models.DicePool           `json:"pools"`
	Challenges []*models.ChallengeWithStats `json:"challenges"`
	Seq        uint64                       `json:"seq"`
}

// CreateCharacterRequest 创建角色请求，UserID 仅GM可指定
type CreateCharacterRequest struct {
	CampaignID       uint    `json:"campaign_id" binding:"required"`
	UserID           *uint   `json:"user_id"`
	Name             string  `json:"name" binding:"required,max=100"`
	SkillName        *string `json:"skill_name"`
	SkillModifier    int     `json:"skill_modifier"`
	WeaknessName     *string `json:"weakness_name"`
	WeaknessModifier int     `json:"weakness_modifier"`
	MaxDailyDice     int     `json:"max_daily_dice"`
}

// UpdateCharacterRequest 更新角色请求，空字段不修改
type UpdateCharacterRequest struct {
	Name             *string `json:"name"`
	SkillName        *string `json:"skill_name"`
	SkillModifier    *int    `json:"skill_modifier"`
	WeaknessName     *string `json:"weakness_name"`
	WeaknessModifier *int    `json:"weakness_modifier"`
	MaxDailyDice     *int    `json:"max_daily_dice"`
}

// RollPoolRequest 生成骰池请求
type RollPoolRequest struct {
	Mode   string `json:"mode"` // auto, manual
	Values []int  `json:"values"`
}

// RecordRollRequest 检定请求，D20 为空时由服务端掷骰
type RecordRollRequest struct {
	CharacterID    uint    `json:"character_id" binding:"required"`
	PoolDiceID     uint    `json:"pool_dice_id" binding:"required"`
	D20            *int    `json:"d20_roll"`
	ChallengeID    *uint   `json:"challenge_id"`
	SkillApplied   bool    `json:"skill_applied"`
	OtherModifiers int     `json:"other_modifiers"`
	ActionType     *string `json:"action_type"`
	Notes          *string `json:"notes"`
}

// HistoryQuery 检定历史查询，CharacterID 优先
type HistoryQuery struct {
	CharacterID uint `form:"character_id"`
	CampaignID  uint `form:"campaign_id"`
}

// CreateChallengeRequest 创建挑战请求
type CreateChallengeRequest struct {
	CampaignID         uint   `json:"campaign_id" binding:"required"`
	Description        string `json:"description" binding:"required"`
	DifficultyModifier int    `json:"difficulty_modifier"`
	IsGroupChallenge   bool   `json:"is_group_challenge"`
}
