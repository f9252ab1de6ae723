package repository

import (
	"context"

	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// EventRepository 战役事件审计仓储接口
type EventRepository interface {
	BaseRepository
	Create(ctx context.Context, event *models.CampaignEvent) error
	ListByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.CampaignEvent, error)
}

type eventRepo struct {
	*BaseRepo
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入事件
func (r *eventRepo) Create(ctx context.Context, event *models.CampaignEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByCampaign 按时间倒序获取战役事件
func (r *eventRepo) ListByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.CampaignEvent, error) {
	var events []*models.CampaignEvent
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// WithTx 使用事务
func (r *eventRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &eventRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
