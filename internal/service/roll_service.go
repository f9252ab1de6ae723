package service

import (
	"context"

	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"go.uber.org/zap"
)

// rollService 检定服务实现
type rollService struct {
	repos     *repository.Manager
	authz     *Authorizer
	locks     *CampaignLocks
	publisher Publisher
	roller    dice.Roller
	cfg       *Config
	log       *zap.Logger
}

// NewRollService 创建检定服务
func NewRollService(repos *repository.Manager, authz *Authorizer, locks *CampaignLocks, publisher Publisher, roller dice.Roller, cfg *Config, log *zap.Logger) RollService {
	return &rollService{
		repos:     repos,
		authz:     authz,
		locks:     locks,
		publisher: publisher,
		roller:    roller,
		cfg:       cfg,
		log:       log,
	}
}

// RecordRoll 消耗一颗骰子完成检定
//
// 骰子的占用与检定记录在同一事务中写入，并发使用同一颗骰子时只有一个请求成功，
// 其余返回 ErrDieAlreadyUsed。持有战役读锁，与日期推进互斥，事务内复核骰池仍属于当天。
func (s *rollService) RecordRoll(ctx context.Context, actor Actor, req *RecordRollRequest) (*models.RollHistory, error) {
	if req.D20 != nil && !dice.ValidD20(*req.D20) {
		return nil, apperrors.Newf(apperrors.ErrInvalidD20Value, "点数 %d", *req.D20)
	}

	character, _, err := s.authz.requireCharacter(ctx, actor, req.CharacterID)
	if err != nil {
		return nil, err
	}
	campaignID := character.CampaignID

	unlock := s.locks.RLock(campaignID)
	defer unlock()

	var roll *models.RollHistory
	err = mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		txCtx := tx.Context()

		die, err := tx.DicePool().FindDie(txCtx, req.PoolDiceID)
		if err != nil {
			return err
		}
		if die.IsUsed {
			return apperrors.Newf(apperrors.ErrDieAlreadyUsed, "骰子 %d", die.ID)
		}
		pool, err := tx.DicePool().FindByID(txCtx, die.PoolID)
		if err != nil {
			return err
		}
		if pool.CharacterID != character.ID {
			return apperrors.Validation("骰子 %d 不属于角色 %d", die.ID, character.ID)
		}

		campaign, err := tx.Campaign().FindByID(txCtx, campaignID)
		if err != nil {
			return err
		}
		if !pool.IsCurrent(campaign.CurrentDay) {
			return apperrors.Newf(apperrors.ErrPoolStale, "骰池属于第 %d 天，当前第 %d 天", pool.CampaignDay, campaign.CurrentDay)
		}

		difficulty := 0
		if req.ChallengeID != nil {
			challenge, err := tx.Challenge().FindByID(txCtx, *req.ChallengeID)
			if err != nil {
				return err
			}
			if challenge.CampaignID != campaignID {
				return apperrors.Validation("挑战 %d 不属于战役 %d", challenge.ID, campaignID)
			}
			if !challenge.IsActive {
				return apperrors.Newf(apperrors.ErrChallengeInactive, "挑战 %d", challenge.ID)
			}
			difficulty = challenge.DifficultyModifier
		}

		skill := 0
		if req.SkillApplied {
			skill = character.SkillModifier
		}

		var d20 int
		if req.D20 != nil {
			d20 = *req.D20
		} else {
			d20 = s.roller.D20()
		}

		modified := dice.ModifiedD6(die.DieResult, skill, req.OtherModifiers, difficulty)
		dieID := die.ID
		roll = &models.RollHistory{
			CampaignID:     campaignID,
			CharacterID:    character.ID,
			PoolDiceID:     &dieID,
			DieResult:      die.DieResult,
			D20Roll:        &d20,
			ActionType:     req.ActionType,
			ChallengeID:    req.ChallengeID,
			SkillApplied:   req.SkillApplied,
			OtherModifiers: req.OtherModifiers,
			ModifiedD6:     modified,
			Outcome:        dice.Calculate(modified, d20),
			Notes:          req.Notes,
		}

		if err := tx.DicePool().ClaimDie(txCtx, die.ID); err != nil {
			return err
		}
		if err := tx.Roll().Create(txCtx, roll); err != nil {
			if repository.IsDuplicateKey(err) {
				return apperrors.Newf(apperrors.ErrDieAlreadyUsed, "骰子 %d", die.ID)
			}
			return err
		}
		roll.CharacterName = character.Name

		return commitAndPublish(tx, s.publisher, campaignID, actor.UserID, models.Event{
			Type: models.EventRollComplete,
			Payload: models.RollCompletePayload{
				CharacterID:   character.ID,
				CharacterName: character.Name,
				Roll:          *roll,
			},
		})
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDieAlreadyUsed) {
			s.log.Debug("骰子已被使用", zap.Uint("die_id", req.PoolDiceID), zap.Uint("user_id", actor.UserID))
		}
		return nil, err
	}

	s.log.Info("检定完成",
		zap.Uint("campaign_id", campaignID),
		zap.Uint("character_id", character.ID),
		zap.Int("die", roll.DieResult),
		zap.Int("modified_d6", roll.ModifiedD6),
		zap.Int("d20", *roll.D20Roll),
		zap.String("outcome", string(roll.Outcome)),
	)
	return roll, nil
}

// History 检定历史，按角色或战役查询
func (s *rollService) History(ctx context.Context, actor Actor, query *HistoryQuery) ([]*models.RollHistory, error) {
	switch {
	case query.CharacterID != 0:
		character, err := s.repos.Character().FindByID(ctx, query.CharacterID)
		if err != nil {
			return nil, err
		}
		if _, _, err := s.authz.requireRead(ctx, actor, character.CampaignID); err != nil {
			return nil, err
		}
		return s.repos.Roll().ListByCharacter(ctx, query.CharacterID, s.cfg.RollHistoryLimit)
	case query.CampaignID != 0:
		if _, _, err := s.authz.requireRead(ctx, actor, query.CampaignID); err != nil {
			return nil, err
		}
		return s.repos.Roll().ListByCampaign(ctx, query.CampaignID, s.cfg.CampaignHistoryLimit)
	default:
		return nil, apperrors.Validation("需要 character_id 或 campaign_id")
	}
}
