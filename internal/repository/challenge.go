package repository

import (
	"context"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// ChallengeRepository 挑战仓储接口
type ChallengeRepository interface {
	BaseRepository
	Create(ctx context.Context, challenge *models.Challenge) error
	FindByID(ctx context.Context, id uint) (*models.Challenge, error)
	Deactivate(ctx context.Context, id uint) error
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Challenge, error)
	ListActiveWithStats(ctx context.Context, campaignID uint) ([]*models.ChallengeWithStats, error)
}

type challengeRepo struct {
	*BaseRepo
}

// NewChallengeRepository 创建挑战仓储
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建挑战
func (r *challengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

// FindByID 根据ID查找挑战
func (r *challengeRepo) FindByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, id).Error; err != nil {
		return nil, notFoundOr(err, "挑战 %d 不存在", id)
	}
	return &challenge, nil
}

// Deactivate 结束进行中的挑战，已结束时返回冲突
func (r *challengeRepo) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.ErrChallengeInactive, "挑战 %d", id)
	}
	return nil
}

// ListByCampaign 获取战役下的全部挑战
func (r *challengeRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Find(&challenges).Error
	return challenges, err
}

// ListActiveWithStats 获取进行中的挑战及检定统计
func (r *challengeRepo) ListActiveWithStats(ctx context.Context, campaignID uint) ([]*models.ChallengeWithStats, error) {
	var stats []*models.ChallengeWithStats
	err := r.db.WithContext(ctx).
		Table("challenges").
		Select(`challenges.*,
			COUNT(roll_histories.id) AS total_attempts,
			COALESCE(SUM(CASE WHEN roll_histories.outcome = 'success' THEN 1 ELSE 0 END), 0) AS successes,
			COALESCE(SUM(CASE WHEN roll_histories.outcome = 'failure' THEN 1 ELSE 0 END), 0) AS failures,
			COALESCE(SUM(CASE WHEN roll_histories.outcome = 'neutral' THEN 1 ELSE 0 END), 0) AS neutrals`).
		Joins("LEFT JOIN roll_histories ON roll_histories.challenge_id = challenges.id").
		Where("challenges.campaign_id = ? AND challenges.is_active = ?", campaignID, true).
		Group("challenges.id").
		Order("challenges.created_at DESC, challenges.id DESC").
		Scan(&stats).Error
	return stats, err
}

// WithTx 使用事务
func (r *challengeRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &challengeRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
