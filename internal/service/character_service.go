package service

import (
	"context"
	"strings"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
	"go.uber.org/zap"
)

// maxDailyDiceLimit 每日骰子数上限
const maxDailyDiceLimit = 20

// characterService 角色服务实现
type characterService struct {
	repos *repository.Manager
	authz *Authorizer
	cfg   *Config
	log   *zap.Logger
}

// NewCharacterService 创建角色服务
func NewCharacterService(repos *repository.Manager, authz *Authorizer, cfg *Config, log *zap.Logger) CharacterService {
	return &characterService{
		repos: repos,
		authz: authz,
		cfg:   cfg,
		log:   log,
	}
}

// Create 创建角色
//
// 玩家在每个战役中只能拥有一个角色，且只能为自己创建；GM可以为任意用户创建。
func (s *characterService) Create(ctx context.Context, actor Actor, req *CreateCharacterRequest) (*models.Character, error) {
	capability, err := s.authz.CanActAs(ctx, actor, req.CampaignID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("角色名称不能为空")
	}
	maxDice := req.MaxDailyDice
	if maxDice == 0 {
		maxDice = s.cfg.DefaultMaxDailyDice
	}
	if maxDice < 1 || maxDice > maxDailyDiceLimit {
		return nil, apperrors.Validation("每日骰子数必须在1到%d之间", maxDailyDiceLimit)
	}

	ownerID := req.UserID
	switch {
	case capability.IsGM || capability.IsAdmin:
		if ownerID != nil {
			if _, err := s.repos.User().FindByID(ctx, *ownerID); err != nil {
				return nil, err
			}
		}
	case capability.IsMember:
		if ownerID != nil && *ownerID != actor.UserID {
			return nil, apperrors.Forbidden("玩家只能为自己创建角色")
		}
		count, err := s.repos.Character().CountOwned(ctx, req.CampaignID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperrors.New(apperrors.ErrCharacterExists)
		}
		uid := actor.UserID
		ownerID = &uid
	default:
		return nil, apperrors.Forbidden("不是战役 %d 的成员", req.CampaignID)
	}

	character := &models.Character{
		CampaignID:       req.CampaignID,
		UserID:           ownerID,
		Name:             name,
		SkillName:        req.SkillName,
		SkillModifier:    req.SkillModifier,
		WeaknessName:     req.WeaknessName,
		WeaknessModifier: req.WeaknessModifier,
		MaxDailyDice:     maxDice,
	}
	if err := s.repos.Character().Create(ctx, character); err != nil {
		return nil, err
	}

	s.log.Info("创建角色",
		zap.Uint("campaign_id", character.CampaignID),
		zap.Uint("character_id", character.ID),
		zap.String("name", character.Name),
	)
	return character, nil
}

// Get 获取角色
func (s *characterService) Get(ctx context.Context, actor Actor, characterID uint) (*models.Character, error) {
	character, err := s.repos.Character().FindByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.authz.requireRead(ctx, actor, character.CampaignID); err != nil {
		return nil, err
	}
	return character, nil
}

// ListByCampaign 战役角色列表
func (s *characterService) ListByCampaign(ctx context.Context, actor Actor, campaignID uint) ([]*models.Character, error) {
	if _, _, err := s.authz.requireRead(ctx, actor, campaignID); err != nil {
		return nil, err
	}
	return s.repos.Character().ListByCampaign(ctx, campaignID)
}

// Update 更新角色，每日骰子数只有GM可以修改
func (s *characterService) Update(ctx context.Context, actor Actor, characterID uint, req *UpdateCharacterRequest) (*models.Character, error) {
	character, capability, err := s.authz.requireCharacter(ctx, actor, characterID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("角色名称不能为空")
		}
		character.Name = name
	}
	if req.SkillName != nil {
		character.SkillName = req.SkillName
	}
	if req.SkillModifier != nil {
		character.SkillModifier = *req.SkillModifier
	}
	if req.WeaknessName != nil {
		character.WeaknessName = req.WeaknessName
	}
	if req.WeaknessModifier != nil {
		character.WeaknessModifier = *req.WeaknessModifier
	}
	if req.MaxDailyDice != nil {
		if !capability.IsGM && !capability.IsAdmin {
			return nil, apperrors.Forbidden("仅GM可修改每日骰子数")
		}
		if *req.MaxDailyDice < 1 || *req.MaxDailyDice > maxDailyDiceLimit {
			return nil, apperrors.Validation("每日骰子数必须在1到%d之间", maxDailyDiceLimit)
		}
		character.MaxDailyDice = *req.MaxDailyDice
	}

	if err := s.repos.Character().Update(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}
