package service

import (
	"context"
	"strings"

	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"go.uber.org/zap"
)

// challengeService 挑战服务实现
type challengeService struct {
	repos     *repository.Manager
	authz     *Authorizer
	publisher Publisher
	log       *zap.Logger
}

// NewChallengeService 创建挑战服务
func NewChallengeService(repos *repository.Manager, authz *Authorizer, publisher Publisher, log *zap.Logger) ChallengeService {
	return &challengeService{
		repos:     repos,
		authz:     authz,
		publisher: publisher,
		log:       log,
	}
}

// Create GM发布挑战
func (s *challengeService) Create(ctx context.Context, actor Actor, req *CreateChallengeRequest) (*models.Challenge, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperrors.Validation("挑战描述不能为空")
	}
	if !dice.ValidDifficulty(req.DifficultyModifier) {
		return nil, apperrors.Validation("难度修正必须在%d到%d之间", dice.MinDifficulty, dice.MaxDifficulty)
	}
	if _, err := s.authz.requireGM(ctx, actor, req.CampaignID); err != nil {
		return nil, err
	}

	challenge := &models.Challenge{
		CampaignID:         req.CampaignID,
		CreatedByUserID:    actor.UserID,
		Description:        description,
		DifficultyModifier: req.DifficultyModifier,
		IsGroupChallenge:   req.IsGroupChallenge,
		IsActive:           true,
	}

	err := mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		if err := tx.Challenge().Create(tx.Context(), challenge); err != nil {
			return err
		}
		return commitAndPublish(tx, s.publisher, req.CampaignID, actor.UserID, models.Event{
			Type:    models.EventChallengeUpdate,
			Payload: models.ChallengeUpdatePayload{Action: models.ChallengeActionCreated, Challenge: *challenge},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("发布挑战", zap.Uint("campaign_id", req.CampaignID), zap.Uint("challenge_id", challenge.ID))
	return challenge, nil
}

// ListActiveWithStats 进行中的挑战及成功、失败、中立次数
func (s *challengeService) ListActiveWithStats(ctx context.Context, actor Actor, campaignID uint) ([]*models.ChallengeWithStats, error) {
	if _, _, err := s.authz.requireRead(ctx, actor, campaignID); err != nil {
		return nil, err
	}
	return s.repos.Challenge().ListActiveWithStats(ctx, campaignID)
}

// Complete GM结束挑战，已结束时返回冲突，检定记录保留
func (s *challengeService) Complete(ctx context.Context, actor Actor, challengeID uint) (*models.Challenge, error) {
	challenge, err := s.repos.Challenge().FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.requireGM(ctx, actor, challenge.CampaignID); err != nil {
		return nil, err
	}

	err = mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		txCtx := tx.Context()
		if err := tx.Challenge().Deactivate(txCtx, challengeID); err != nil {
			return err
		}
		updated, err := tx.Challenge().FindByID(txCtx, challengeID)
		if err != nil {
			return err
		}
		challenge = updated
		return commitAndPublish(tx, s.publisher, challenge.CampaignID, actor.UserID, models.Event{
			Type:    models.EventChallengeUpdate,
			Payload: models.ChallengeUpdatePayload{Action: models.ChallengeActionCompleted, Challenge: *challenge},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("结束挑战", zap.Uint("challenge_id", challengeID))
	return challenge, nil
}
