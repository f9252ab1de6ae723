package service

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"go.uber.org/zap"
)

// campaignService 战役服务实现
type campaignService struct {
	repos     *repository.Manager
	authz     *Authorizer
	locks     *CampaignLocks
	publisher Publisher
	log       *zap.Logger
}

// NewCampaignService 创建战役服务
func NewCampaignService(repos *repository.Manager, authz *Authorizer, locks *CampaignLocks, publisher Publisher, log *zap.Logger) CampaignService {
	return &campaignService{
		repos:     repos,
		authz:     authz,
		locks:     locks,
		publisher: publisher,
		log:       log,
	}
}

// Create 创建战役，创建者成为GM并加入成员表
func (s *campaignService) Create(ctx context.Context, actor Actor, req *CreateCampaignRequest) (*models.Campaign, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleGameMaster {
		return nil, apperrors.Forbidden("仅管理员或GM可创建战役")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("战役名称不能为空")
	}

	campaign := &models.Campaign{
		Name:         name,
		Description:  req.Description,
		GMUserID:     actor.UserID,
		CurrentDay:   1,
		DayStartedAt: time.Now(),
	}

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		if err := tx.Campaign().Create(ctx, campaign); err != nil {
			return err
		}
		return tx.Member().Add(ctx, campaign.ID, actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("创建战役", zap.Uint("campaign_id", campaign.ID), zap.Uint("gm_user_id", actor.UserID))
	return campaign, nil
}

// Get 获取战役
func (s *campaignService) Get(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, error) {
	campaign, _, err := s.authz.requireRead(ctx, actor, campaignID)
	return campaign, err
}

// List 管理员看到全部战役，其他用户看到自己主持或参加的战役
func (s *campaignService) List(ctx context.Context, actor Actor) ([]*models.Campaign, error) {
	if actor.IsAdmin() {
		return s.repos.Campaign().ListAll(ctx, nil)
	}
	return s.repos.Campaign().ListForUser(ctx, actor.UserID)
}

// State 战役当前状态，Seq 之后的事件才需要应用
func (s *campaignService) State(ctx context.Context, actor Actor, campaignID uint) (*CampaignState, error) {
	if _, _, err := s.authz.requireRead(ctx, actor, campaignID); err != nil {
		return nil, err
	}

	var state *CampaignState
	seq, err := s.publisher.Snapshot(campaignID, func() error {
		st, err := s.loadState(ctx, campaignID)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	state.Seq = seq
	return state, nil
}

func (s *campaignService) loadState(ctx context.Context, campaignID uint) (*CampaignState, error) {
	campaign, err := s.repos.Campaign().FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	characters, err := s.repos.Character().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	pools, err := s.repos.DicePool().ListCurrent(ctx, campaignID, campaign.CurrentDay)
	if err != nil {
		return nil, err
	}
	challenges, err := s.repos.Challenge().ListActiveWithStats(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignState{
		Campaign:   campaign,
		Characters: characters,
		Pools:      pools,
		Challenges: challenges,
	}, nil
}

// Members 成员列表
func (s *campaignService) Members(ctx context.Context, actor Actor, campaignID uint) ([]*models.MemberInfo, error) {
	if _, _, err := s.authz.requireRead(ctx, actor, campaignID); err != nil {
		return nil, err
	}
	return s.repos.Member().ListByCampaign(ctx, campaignID)
}

// AddMember 添加成员
func (s *campaignService) AddMember(ctx context.Context, actor Actor, campaignID, userID uint) error {
	capability, err := s.authz.CanActAs(ctx, actor, campaignID)
	if err != nil {
		return err
	}
	if !capability.CanManage() {
		return apperrors.Forbidden("仅GM或管理员可管理成员")
	}
	if _, err := s.repos.User().FindByID(ctx, userID); err != nil {
		return err
	}

	if err := s.repos.Member().Add(ctx, campaignID, userID); err != nil {
		return err
	}
	s.log.Info("添加战役成员", zap.Uint("campaign_id", campaignID), zap.Uint("user_id", userID))
	return nil
}

// RemoveMember 移除成员，GM不可移除
func (s *campaignService) RemoveMember(ctx context.Context, actor Actor, campaignID, userID uint) error {
	campaign, capability, err := s.authz.resolve(ctx, actor, campaignID)
	if err != nil {
		return err
	}
	if !capability.CanManage() {
		return apperrors.Forbidden("仅GM或管理员可管理成员")
	}
	if campaign.IsGM(userID) {
		return apperrors.Forbidden("不能移除战役GM")
	}

	if err := s.repos.Member().Remove(ctx, campaignID, userID); err != nil {
		return err
	}
	s.log.Info("移除战役成员", zap.Uint("campaign_id", campaignID), zap.Uint("user_id", userID))
	return nil
}

// IncrementDay 推进战役日期
//
// 持有战役写锁，等待进行中的骰池生成和检定完成；提交后旧骰池全部过期。
func (s *campaignService) IncrementDay(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, error) {
	if _, err := s.authz.requireGM(ctx, actor, campaignID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(campaignID)
	defer unlock()

	var campaign *models.Campaign
	err := mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		txCtx := tx.Context()
		day, err := tx.Campaign().IncrementDay(txCtx, campaignID)
		if err != nil {
			return err
		}
		campaign, err = tx.Campaign().FindByID(txCtx, campaignID)
		if err != nil {
			return err
		}

		return commitAndPublish(tx, s.publisher, campaignID, actor.UserID, models.Event{
			Type:    models.EventDayIncremented,
			Payload: models.DayIncrementedPayload{CampaignID: campaignID, CurrentDay: day},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("战役日期推进", zap.Uint("campaign_id", campaignID), zap.Int("current_day", campaign.CurrentDay))
	return campaign, nil
}

// Events 最近的战役事件
func (s *campaignService) Events(ctx context.Context, actor Actor, campaignID uint, limit int) ([]*models.CampaignEvent, error) {
	if _, _, err := s.authz.requireRead(ctx, actor, campaignID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.repos.Event().ListByCampaign(ctx, campaignID, limit)
}
