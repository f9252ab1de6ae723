package service

import (
	"context"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"github.com/wfunc/fate-dice/internal/repository"
)

// Actor 发起请求的用户，来自访问令牌
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Capability 用户在某个战役中的身份
type Capability struct {
	IsGM     bool
	IsAdmin  bool
	IsMember bool
}

// CanRead 成员、GM和管理员可查看战役
func (c Capability) CanRead() bool {
	return c.IsGM || c.IsAdmin || c.IsMember
}

// CanManage GM和管理员可管理成员
func (c Capability) CanManage() bool {
	return c.IsGM || c.IsAdmin
}

// CanActFor 角色拥有者、GM和管理员可代表角色行动
func (c Capability) CanActFor(actor Actor, character *models.Character) bool {
	return c.IsGM || c.IsAdmin || character.OwnedBy(actor.UserID)
}

// Authorizer 战役权限判定
type Authorizer struct {
	repos *repository.Manager
}

// NewAuthorizer 创建权限判定器
func NewAuthorizer(repos *repository.Manager) *Authorizer {
	return &Authorizer{repos: repos}
}

// CanActAs 解析用户在战役中的身份，战役不存在时返回 NotFound
func (a *Authorizer) CanActAs(ctx context.Context, actor Actor, campaignID uint) (Capability, error) {
	_, capability, err := a.resolve(ctx, actor, campaignID)
	return capability, err
}

func (a *Authorizer) resolve(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, Capability, error) {
	campaign, err := a.repos.Campaign().FindByID(ctx, campaignID)
	if err != nil {
		return nil, Capability{}, err
	}

	capability := Capability{
		IsGM:    campaign.IsGM(actor.UserID),
		IsAdmin: actor.IsAdmin(),
	}
	if capability.IsGM {
		capability.IsMember = true
		return campaign, capability, nil
	}

	capability.IsMember, err = a.repos.Member().IsMember(ctx, campaignID, actor.UserID)
	if err != nil {
		return nil, Capability{}, err
	}
	return campaign, capability, nil
}

// requireRead 要求可查看战役
func (a *Authorizer) requireRead(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, Capability, error) {
	campaign, capability, err := a.resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, capability, err
	}
	if !capability.CanRead() {
		return nil, capability, apperrors.Forbidden("不是战役 %d 的成员", campaignID)
	}
	return campaign, capability, nil
}

// requireGM 要求为战役GM
func (a *Authorizer) requireGM(ctx context.Context, actor Actor, campaignID uint) (*models.Campaign, error) {
	campaign, capability, err := a.resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	if !capability.IsGM {
		return nil, apperrors.Forbidden("仅GM可执行此操作")
	}
	return campaign, nil
}

// requireCharacter 加载角色并要求可代表其行动
func (a *Authorizer) requireCharacter(ctx context.Context, actor Actor, characterID uint) (*models.Character, Capability, error) {
	character, err := a.repos.Character().FindByID(ctx, characterID)
	if err != nil {
		return nil, Capability{}, err
	}
	_, capability, err := a.resolve(ctx, actor, character.CampaignID)
	if err != nil {
		return nil, capability, err
	}
	if !capability.CanActFor(actor, character) {
		return nil, capability, apperrors.Forbidden("无权操作角色 %d", characterID)
	}
	return character, capability, nil
}
