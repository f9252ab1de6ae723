package service

import (
	"context"
	"time"

	"github.com/wfunc/fate-dice/internal/dice"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"go.uber.org/zap"
)

// dicePoolService 骰池服务实现
type dicePoolService struct {
	repos     *repository.Manager
	authz     *Authorizer
	locks     *CampaignLocks
	publisher Publisher
	roller    dice.Roller
	log       *zap.Logger
}

// NewDicePoolService 创建骰池服务
func NewDicePoolService(repos *repository.Manager, authz *Authorizer, locks *CampaignLocks, publisher Publisher, roller dice.Roller, log *zap.Logger) DicePoolService {
	return &dicePoolService{
		repos:     repos,
		authz:     authz,
		locks:     locks,
		publisher: publisher,
		roller:    roller,
		log:       log,
	}
}

// RollNewPool 生成角色当天的骰池
//
// 自动模式掷 MaxDailyDice 颗d6，手动模式使用玩家实际掷出的点数。
// 当天已有骰池时返回冲突。
func (s *dicePoolService) RollNewPool(ctx context.Context, actor Actor, characterID uint, req *RollPoolRequest) (*models.DicePool, error) {
	character, _, err := s.authz.requireCharacter(ctx, actor, characterID)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = models.PoolModeAuto
	}
	if character.MaxDailyDice < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidDiceCount, "角色 %d 每日骰子数为 %d", characterID, character.MaxDailyDice)
	}

	var values []int
	switch mode {
	case models.PoolModeAuto:
		// 点数在持锁后生成
	case models.PoolModeManual:
		if len(req.Values) != character.MaxDailyDice {
			return nil, apperrors.Newf(apperrors.ErrInvalidDiceCount, "需要 %d 颗，实际 %d 颗", character.MaxDailyDice, len(req.Values))
		}
		for _, v := range req.Values {
			if !dice.ValidD6(v) {
				return nil, apperrors.Newf(apperrors.ErrInvalidDieValue, "点数 %d", v)
			}
		}
		values = req.Values
	default:
		return nil, apperrors.Validation("未知的骰池模式: %s", mode)
	}

	unlock := s.locks.RLock(character.CampaignID)
	defer unlock()

	var pool *models.DicePool
	err = mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		txCtx := tx.Context()
		campaign, err := tx.Campaign().FindByID(txCtx, character.CampaignID)
		if err != nil {
			return err
		}

		existing, err := tx.DicePool().FindCurrent(txCtx, characterID, campaign.CurrentDay)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Newf(apperrors.ErrPoolAlreadyExists, "角色 %d 第 %d 天", characterID, campaign.CurrentDay)
		}

		if values == nil {
			values = make([]int, character.MaxDailyDice)
			for i := range values {
				values[i] = s.roller.D6()
			}
		}

		pool = &models.DicePool{
			CharacterID: characterID,
			CampaignDay: campaign.CurrentDay,
			Mode:        mode,
			RolledAt:    time.Now(),
		}
		for i, v := range values {
			pool.Dice = append(pool.Dice, models.PoolDie{DieResult: v, Position: i})
		}
		if err := tx.DicePool().CreatePool(txCtx, pool); err != nil {
			return err
		}

		return commitAndPublish(tx, s.publisher, character.CampaignID, actor.UserID, models.Event{
			Type:    models.EventDicePoolUpdated,
			Payload: models.PoolUpdatedPayload{CharacterID: characterID, Pool: pool},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("生成骰池",
		zap.Uint("character_id", characterID),
		zap.Int("campaign_day", pool.CampaignDay),
		zap.String("mode", mode),
		zap.Ints("dice", values),
	)
	return pool, nil
}

// GetCurrentPool 获取角色当天的骰池，没有时返回 nil
func (s *dicePoolService) GetCurrentPool(ctx context.Context, actor Actor, characterID uint) (*models.DicePool, error) {
	character, err := s.repos.Character().FindByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	campaign, _, err := s.authz.requireRead(ctx, actor, character.CampaignID)
	if err != nil {
		return nil, err
	}
	return s.repos.DicePool().FindCurrent(ctx, characterID, campaign.CurrentDay)
}

// EditDie GM修改未使用骰子的点数
func (s *dicePoolService) EditDie(ctx context.Context, actor Actor, dieID uint, value int) (*models.DicePool, error) {
	if !dice.ValidD6(value) {
		return nil, apperrors.Newf(apperrors.ErrInvalidDieValue, "点数 %d", value)
	}

	die, err := s.repos.DicePool().FindDie(ctx, dieID)
	if err != nil {
		return nil, err
	}
	pool, err := s.repos.DicePool().FindByID(ctx, die.PoolID)
	if err != nil {
		return nil, err
	}
	character, err := s.repos.Character().FindByID(ctx, pool.CharacterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.requireGM(ctx, actor, character.CampaignID); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(character.CampaignID)
	defer unlock()

	err = mutate(ctx, s.repos, func(tx *repository.Transaction) error {
		txCtx := tx.Context()
		if err := tx.DicePool().UpdateDieValue(txCtx, dieID, value); err != nil {
			return err
		}
		updated, err := tx.DicePool().FindByID(txCtx, die.PoolID)
		if err != nil {
			return err
		}
		pool = updated

		return commitAndPublish(tx, s.publisher, character.CampaignID, actor.UserID, models.Event{
			Type:    models.EventDicePoolUpdated,
			Payload: models.PoolUpdatedPayload{CharacterID: character.ID, Pool: pool},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("修改骰子点数", zap.Uint("die_id", dieID), zap.Int("value", value), zap.Uint("gm_user_id", actor.UserID))
	return pool, nil
}
