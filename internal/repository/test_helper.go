package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/fate-dice/internal/database"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试创建内存数据库
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic(err)
	}

	// 内存库每个连接是独立的数据库，只保留一个连接
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.Models()...); err != nil {
		panic(err)
	}
	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestUser 创建测试用户
func CreateTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "-",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestCampaign 创建测试战役，GM同时作为成员
func CreateTestCampaign(t *testing.T, db *gorm.DB, gmID uint) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		Name:         "迷雾之城",
		GMUserID:     gmID,
		CurrentDay:   1,
		DayStartedAt: time.Now(),
	}
	require.NoError(t, db.Create(campaign).Error)
	require.NoError(t, db.Create(&models.CampaignMember{CampaignID: campaign.ID, UserID: gmID}).Error)
	return campaign
}

// AddTestMember 添加测试成员
func AddTestMember(t *testing.T, db *gorm.DB, campaignID, userID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.CampaignMember{CampaignID: campaignID, UserID: userID}).Error)
}

// CreateTestCharacter 创建测试角色，技能修正+1
func CreateTestCharacter(t *testing.T, db *gorm.DB, campaignID uint, userID *uint, name string) *models.Character {
	t.Helper()
	skill := "剑术"
	character := &models.Character{
		CampaignID:    campaignID,
		UserID:        userID,
		Name:          name,
		SkillName:     &skill,
		SkillModifier: 1,
		MaxDailyDice:  3,
	}
	require.NoError(t, db.Create(character).Error)
	return character
}

// CreateTestPool 为角色创建指定点数的骰池
func CreateTestPool(t *testing.T, db *gorm.DB, characterID uint, day int, values ...int) *models.DicePool {
	t.Helper()
	pool := &models.DicePool{
		CharacterID: characterID,
		CampaignDay: day,
		Mode:        models.PoolModeManual,
		RolledAt:    time.Now(),
	}
	for i, v := range values {
		pool.Dice = append(pool.Dice, models.PoolDie{DieResult: v, Position: i})
	}
	require.NoError(t, db.Create(pool).Error)
	return pool
}
