package repository

import (
	"context"

	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// RollRepository 检定记录仓储接口
type RollRepository interface {
	BaseRepository
	Create(ctx context.Context, roll *models.RollHistory) error
	FindByID(ctx context.Context, id uint) (*models.RollHistory, error)
	ListByCharacter(ctx context.Context, characterID uint, limit int) ([]*models.RollHistory, error)
	ListByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.RollHistory, error)
}

type rollRepo struct {
	*BaseRepo
}

// NewRollRepository 创建检定记录仓储
func NewRollRepository(db *gorm.DB) RollRepository {
	return &rollRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入检定记录
func (r *rollRepo) Create(ctx context.Context, roll *models.RollHistory) error {
	return r.db.WithContext(ctx).Create(roll).Error
}

// withCharacterName 联表带出角色名，按时间倒序
func (r *rollRepo) withCharacterName(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.RollHistory{}).
		Select("roll_histories.*, characters.name AS character_name").
		Joins("JOIN characters ON characters.id = roll_histories.character_id").
		Order("roll_histories.created_at DESC, roll_histories.id DESC")
}

// FindByID 根据ID查找检定记录
func (r *rollRepo) FindByID(ctx context.Context, id uint) (*models.RollHistory, error) {
	var roll models.RollHistory
	err := r.withCharacterName(ctx).Where("roll_histories.id = ?", id).First(&roll).Error
	if err != nil {
		return nil, notFoundOr(err, "检定记录 %d 不存在", id)
	}
	return &roll, nil
}

// ListByCharacter 获取角色最近的检定记录
func (r *rollRepo) ListByCharacter(ctx context.Context, characterID uint, limit int) ([]*models.RollHistory, error) {
	var rolls []*models.RollHistory
	err := r.withCharacterName(ctx).
		Where("roll_histories.character_id = ?", characterID).
		Limit(limit).
		Find(&rolls).Error
	return rolls, err
}

// ListByCampaign 获取战役最近的检定记录
func (r *rollRepo) ListByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.RollHistory, error) {
	var rolls []*models.RollHistory
	err := r.withCharacterName(ctx).
		Where("roll_histories.campaign_id = ?", campaignID).
		Limit(limit).
		Find(&rolls).Error
	return rolls, err
}

// WithTx 使用事务
func (r *rollRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &rollRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
