package service

import (
	"context"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
)

// 测试玩家创建角色
func (suite *ServiceTestSuite) TestCreateCharacterPlayer() {
	ctx := context.Background()
	skill := "潜行"

	character, err := suite.services.Characters.Create(ctx, suite.player2, &CreateCharacterRequest{
		CampaignID:    suite.campaign.ID,
		Name:          "维拉",
		SkillName:     &skill,
		SkillModifier: 2,
	})
	suite.Require().NoError(err)
	suite.True(character.OwnedBy(suite.player2.UserID))
	suite.Equal(3, character.MaxDailyDice)

	_, err = suite.services.Characters.Create(ctx, suite.player2, &CreateCharacterRequest{
		CampaignID: suite.campaign.ID,
		Name:       "第二个角色",
	})
	suite.True(apperrors.Is(err, apperrors.ErrCharacterExists))
	suite.True(apperrors.Is(err, apperrors.ErrConflict))

	other := suite.player.UserID
	_, err = suite.services.Characters.Create(ctx, suite.player2, &CreateCharacterRequest{
		CampaignID: suite.campaign.ID,
		UserID:     &other,
		Name:       "代建角色",
	})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Characters.Create(ctx, suite.outsider, &CreateCharacterRequest{
		CampaignID: suite.campaign.ID,
		Name:       "路人",
	})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))
}

// 测试GM为玩家分配角色
func (suite *ServiceTestSuite) TestCreateCharacterGM() {
	ctx := context.Background()
	owner := suite.player.UserID

	character, err := suite.services.Characters.Create(ctx, suite.gm, &CreateCharacterRequest{
		CampaignID:   suite.campaign.ID,
		UserID:       &owner,
		Name:         "备用角色",
		MaxDailyDice: 5,
	})
	suite.Require().NoError(err)
	suite.True(character.OwnedBy(suite.player.UserID))
	suite.Equal(5, character.MaxDailyDice)

	_, err = suite.services.Characters.Create(ctx, suite.gm, &CreateCharacterRequest{
		CampaignID:   suite.campaign.ID,
		Name:         "骰子太多",
		MaxDailyDice: 99,
	})
	suite.True(apperrors.Is(err, apperrors.ErrValidation))

	list, err := suite.services.Characters.ListByCampaign(ctx, suite.player, suite.campaign.ID)
	suite.Require().NoError(err)
	suite.Len(list, 2)
}

// 测试更新角色
func (suite *ServiceTestSuite) TestUpdateCharacter() {
	ctx := context.Background()
	name := "艾琳·银叶"
	mod := 2
	dice := 4

	updated, err := suite.services.Characters.Update(ctx, suite.player, suite.hero.ID, &UpdateCharacterRequest{
		Name:          &name,
		SkillModifier: &mod,
	})
	suite.Require().NoError(err)
	suite.Equal(name, updated.Name)
	suite.Equal(2, updated.SkillModifier)

	_, err = suite.services.Characters.Update(ctx, suite.player, suite.hero.ID, &UpdateCharacterRequest{MaxDailyDice: &dice})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	_, err = suite.services.Characters.Update(ctx, suite.player2, suite.hero.ID, &UpdateCharacterRequest{Name: &name})
	suite.True(apperrors.Is(err, apperrors.ErrForbidden))

	updated, err = suite.services.Characters.Update(ctx, suite.gm, suite.hero.ID, &UpdateCharacterRequest{MaxDailyDice: &dice})
	suite.Require().NoError(err)
	suite.Equal(4, updated.MaxDailyDice)

	found, err := suite.services.Characters.Get(ctx, suite.player2, suite.hero.ID)
	suite.Require().NoError(err)
	suite.Equal(4, found.MaxDailyDice)
}
