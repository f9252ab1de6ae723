package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// CampaignRepository 战役仓储接口
type CampaignRepository interface {
	BaseRepository
	Create(ctx context.Context, campaign *models.Campaign) error
	Update(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id uint) (*models.Campaign, error)
	ListForUser(ctx context.Context, userID uint) ([]*models.Campaign, error)
	ListAll(ctx context.Context, pagination *Pagination) ([]*models.Campaign, error)
	IncrementDay(ctx context.Context, id uint) (int, error)
}

type campaignRepo struct {
	*BaseRepo
}

// NewCampaignRepository 创建战役仓储
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建战役
func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

// Update 更新战役名称和描述
func (r *campaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Model(campaign).
		Select("name", "description").
		Updates(campaign).Error
}

// FindByID 根据ID查找战役
func (r *campaignRepo) FindByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, notFoundOr(err, "战役 %d 不存在", id)
	}
	return &campaign, nil
}

// ListForUser 获取用户担任GM或参与的战役
func (r *campaignRepo) ListForUser(ctx context.Context, userID uint) ([]*models.Campaign, error) {
	db := r.db.WithContext(ctx)
	memberOf := db.Model(&models.CampaignMember{}).Select("campaign_id").Where("user_id = ?", userID)

	var campaigns []*models.Campaign
	err := db.Where("gm_user_id = ? OR id IN (?)", userID, memberOf).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// ListAll 分页获取全部战役
func (r *campaignRepo) ListAll(ctx context.Context, pagination *Pagination) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	query := r.db.WithContext(ctx).Model(&models.Campaign{})

	if pagination != nil {
		if err := query.Count(&pagination.Total).Error; err != nil {
			return nil, err
		}
		query = query.Scopes(Paginate(pagination))
	}

	err := query.Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// IncrementDay 战役天数原子加一，返回新的天数
func (r *campaignRepo) IncrementDay(ctx context.Context, id uint) (int, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_day":    gorm.Expr("current_day + ?", 1),
			"day_started_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, apperrors.NotFound("战役 %d 不存在", id)
	}

	var day int
	err := db.Model(&models.Campaign{}).Select("current_day").Where("id = ?", id).Scan(&day).Error
	return day, err
}

// WithTx 使用事务
func (r *campaignRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &campaignRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
