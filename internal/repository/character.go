package repository

import (
	"context"

	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// CharacterRepository 角色仓储接口
type CharacterRepository interface {
	BaseRepository
	Create(ctx context.Context, character *models.Character) error
	Update(ctx context.Context, character *models.Character) error
	FindByID(ctx context.Context, id uint) (*models.Character, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Character, error)
	CountOwned(ctx context.Context, campaignID, userID uint) (int64, error)
}

type characterRepo struct {
	*BaseRepo
}

// NewCharacterRepository 创建角色仓储
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建角色
func (r *characterRepo) Create(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

// Update 更新角色
func (r *characterRepo) Update(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Save(character).Error
}

// FindByID 根据ID查找角色
func (r *characterRepo) FindByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	if err := r.db.WithContext(ctx).First(&character, id).Error; err != nil {
		return nil, notFoundOr(err, "角色 %d 不存在", id)
	}
	return &character, nil
}

// ListByCampaign 获取战役下的所有角色
func (r *characterRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Character, error) {
	var characters []*models.Character
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("id ASC").
		Find(&characters).Error
	return characters, err
}

// CountOwned 统计用户在战役中拥有的角色数
func (r *characterRepo) CountOwned(ctx context.Context, campaignID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Character{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *characterRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
