package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// MemberRepository 战役成员仓储接口
type MemberRepository interface {
	BaseRepository
	Add(ctx context.Context, campaignID, userID uint) error
	Remove(ctx context.Context, campaignID, userID uint) error
	IsMember(ctx context.Context, campaignID, userID uint) (bool, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.MemberInfo, error)
}

type memberRepo struct {
	*BaseRepo
}

// NewMemberRepository 创建成员仓储
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Add 添加成员，重复添加返回冲突
func (r *memberRepo) Add(ctx context.Context, campaignID, userID uint) error {
	err := r.db.WithContext(ctx).Create(&models.CampaignMember{
		CampaignID: campaignID,
		UserID:     userID,
	}).Error
	if IsDuplicateKey(err) {
		return apperrors.Conflict("用户 %d 已是战役成员", userID)
	}
	return err
}

// Remove 移除成员
func (r *memberRepo) Remove(ctx context.Context, campaignID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Delete(&models.CampaignMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("用户 %d 不是战役成员", userID)
	}
	return nil
}

// IsMember 判断是否为成员
func (r *memberRepo) IsMember(ctx context.Context, campaignID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CampaignMember{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&count).Error
	return count > 0, err
}

// memberRow 成员联表查询结果
type memberRow struct {
	UserID   uint
	Username string
	Role     string
	GMUserID uint
	JoinedAt time.Time
}

// ListByCampaign 获取战役成员列表
func (r *memberRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.MemberInfo, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Table("campaign_members").
		Select("campaign_members.user_id, users.username, users.role, campaigns.gm_user_id, campaign_members.created_at AS joined_at").
		Joins("JOIN users ON users.id = campaign_members.user_id").
		Joins("JOIN campaigns ON campaigns.id = campaign_members.campaign_id").
		Where("campaign_members.campaign_id = ?", campaignID).
		Order("campaign_members.created_at ASC, campaign_members.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]*models.MemberInfo, 0, len(rows))
	for _, row := range rows {
		members = append(members, &models.MemberInfo{
			UserID:   row.UserID,
			Username: row.Username,
			Role:     row.Role,
			IsGM:     row.UserID == row.GMUserID,
			JoinedAt: row.JoinedAt,
		})
	}
	return members, nil
}

// WithTx 使用事务
func (r *memberRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &memberRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
