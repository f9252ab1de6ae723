package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/fate-dice/internal/config"
	"github.com/wfunc/fate-dice/internal/logger"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 需要迁移的模型，顺序即建表顺序
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.Character{},
		&models.DicePool{},
		&models.PoolDie{},
		&models.Challenge{},
		&models.RollHistory{},
		&models.CampaignEvent{},
	}
}

// AutoMigrate 自动迁移全局数据库
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移同一个sqlite文件
	if dbPath := getDBPath(DB); dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")
	if err := Migrate(DB); err != nil {
		return err
	}
	logger.Info("数据库迁移完成")
	return nil
}

// Migrate 在指定连接上建表和索引
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		db.Exec("PRAGMA foreign_keys = OFF")
		defer db.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range Models() {
		start := time.Now()
		err := db.AutoMigrate(model)
		logger.LogDatabaseOperation("migrate", fmt.Sprintf("%T", model), time.Since(start), err)
		if err != nil {
			return err
		}
	}

	return createIndexes(db)
}

// createIndexes 创建查询用的组合索引
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_characters_campaign_user ON characters(campaign_id, user_id)",
		"CREATE INDEX IF NOT EXISTS idx_challenges_campaign_active ON challenges(campaign_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_roll_histories_character_created ON roll_histories(character_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_roll_histories_campaign_created ON roll_histories(campaign_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_campaign_events_campaign_created ON campaign_events(campaign_id, created_at)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
		}
	}
	return nil
}

// SeedAdmin 确保管理员账号存在，已存在时不做修改
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) (*models.User, error) {
	if cfg.Password == "" {
		logger.Warn("未配置管理员密码，跳过初始化管理员")
		return nil, nil
	}

	var existing models.User
	err := db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("管理员密码哈希失败: %w", err)
	}

	admin := &models.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("创建管理员失败: %w", err)
	}

	logger.Info("已创建管理员账号", zap.String("username", admin.Username))
	return admin, nil
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables(db *gorm.DB) error {
	all := Models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return err
		}
	}
	return nil
}
