package service

import (
	"time"

	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/dice"
	"github.com/wfunc/fate-dice/internal/repository"
	"github.com/wfunc/fate-dice/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	DefaultMaxDailyDice  int
	RollHistoryLimit     int
	CampaignHistoryLimit int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:            "your-secret-key-change-in-production",
		AccessTokenExpiry:    24 * time.Hour,
		RefreshTokenExpiry:   7 * 24 * time.Hour,
		DefaultMaxDailyDice:  3,
		RollHistoryLimit:     50,
		CampaignHistoryLimit: 100,
	}
}

// ConfigFrom 从全局配置构建服务配置，未设置的项使用默认值
func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Security.JWT.Secret != "" {
		c.JWTSecret = cfg.Security.JWT.Secret
	}
	if cfg.Security.JWT.ExpireHours > 0 {
		c.AccessTokenExpiry = time.Duration(cfg.Security.JWT.ExpireHours) * time.Hour
	}
	if cfg.Security.JWT.RefreshHours > 0 {
		c.RefreshTokenExpiry = time.Duration(cfg.Security.JWT.RefreshHours) * time.Hour
	}
	if cfg.Game.DefaultMaxDailyDice > 0 {
		c.DefaultMaxDailyDice = cfg.Game.DefaultMaxDailyDice
	}
	if cfg.Game.RollHistoryLimit > 0 {
		c.RollHistoryLimit = cfg.Game.RollHistoryLimit
	}
	if cfg.Game.CampaignHistoryLimit > 0 {
		c.CampaignHistoryLimit = cfg.Game.CampaignHistoryLimit
	}
	return c
}

// Services 服务集合
type Services struct {
	Auth       AuthService
	Campaigns  CampaignService
	Characters CharacterService
	DicePools  DicePoolService
	Rolls      RollService
	Challenges ChallengeService

	Authorizer *Authorizer
	Locks      *CampaignLocks
	JWT        *utils.JWTManager
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *Config, publisher Publisher, roller dice.Roller, log *zap.Logger) *Services {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if roller == nil {
		roller = dice.NewSeededRoller()
	}
	if log == nil {
		log = zap.NewNop()
	}

	repos := repository.NewManager(db)
	locks := NewCampaignLocks()
	authz := NewAuthorizer(repos)

	jwtManager := utils.NewJWTManager(
		cfg.JWTSecret,
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenExpiry,
	)

	return &Services{
		Auth:       NewAuthService(repos, jwtManager, log.Named("auth")),
		Campaigns:  NewCampaignService(repos, authz, locks, publisher, log.Named("campaign")),
		Characters: NewCharacterService(repos, authz, cfg, log.Named("character")),
		DicePools:  NewDicePoolService(repos, authz, locks, publisher, roller, log.Named("dice_pool")),
		Rolls:      NewRollService(repos, authz, locks, publisher, roller, cfg, log.Named("roll")),
		Challenges: NewChallengeService(repos, authz, publisher, log.Named("challenge")),
		Authorizer: authz,
		Locks:      locks,
		JWT:        jwtManager,
	}
}
