package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// DicePoolRepository 骰池仓储接口
type DicePoolRepository interface {
	BaseRepository
	CreatePool(ctx context.Context, pool *models.DicePool) error
	FindByID(ctx context.Context, id uint) (*models.DicePool, error)
	FindCurrent(ctx context.Context, characterID uint, day int) (*models.DicePool, error)
	ListCurrent(ctx context.Context, campaignID uint, day int) ([]*models.DicePool, error)
	FindDie(ctx context.Context, dieID uint) (*models.PoolDie, error)
	ClaimDie(ctx context.Context, dieID uint) error
	UpdateDieValue(ctx context.Context, dieID uint, value int) error
}

type dicePoolRepo struct {
	*BaseRepo
}

// NewDicePoolRepository 创建骰池仓储
func NewDicePoolRepository(db *gorm.DB) DicePoolRepository {
	return &dicePoolRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func orderedDice(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreatePool 创建骰池及其骰子，同一角色同一天重复创建返回冲突
func (r *dicePoolRepo) CreatePool(ctx context.Context, pool *models.DicePool) error {
	err := r.db.WithContext(ctx).Create(pool).Error
	if IsDuplicateKey(err) {
		return apperrors.New(apperrors.ErrPoolAlreadyExists)
	}
	return err
}

// FindByID 根据ID查找骰池
func (r *dicePoolRepo) FindByID(ctx context.Context, id uint) (*models.DicePool, error) {
	var pool models.DicePool
	err := r.db.WithContext(ctx).Preload("Dice", orderedDice).First(&pool, id).Error
	if err != nil {
		return nil, notFoundOr(err, "骰池 %d 不存在", id)
	}
	return &pool, nil
}

// FindCurrent 获取角色当天的骰池，没有时返回 nil
func (r *dicePoolRepo) FindCurrent(ctx context.Context, characterID uint, day int) (*models.DicePool, error) {
	var pool models.DicePool
	err := r.db.WithContext(ctx).
		Preload("Dice", orderedDice).
		Where("character_id = ? AND campaign_day = ?", characterID, day).
		First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// ListCurrent 获取战役所有角色当天的骰池
func (r *dicePoolRepo) ListCurrent(ctx context.Context, campaignID uint, day int) ([]*models.DicePool, error) {
	db := r.db.WithContext(ctx)
	characters := db.Model(&models.Character{}).Select("id").Where("campaign_id = ?", campaignID)

	var pools []*models.DicePool
	err := db.Preload("Dice", orderedDice).
		Where("campaign_day = ? AND character_id IN (?)", day, characters).
		Order("character_id ASC").
		Find(&pools).Error
	return pools, err
}

// FindDie 根据ID查找骰子
func (r *dicePoolRepo) FindDie(ctx context.Context, dieID uint) (*models.PoolDie, error) {
	var die models.PoolDie
	if err := r.db.WithContext(ctx).First(&die, dieID).Error; err != nil {
		return nil, notFoundOr(err, "骰子 %d 不存在", dieID)
	}
	return &die, nil
}

// ClaimDie 将未使用的骰子标记为已使用，只有一个调用者能成功
func (r *dicePoolRepo) ClaimDie(ctx context.Context, dieID uint) error {
	result := r.db.WithContext(ctx).Model(&models.PoolDie{}).
		Where("id = ? AND is_used = ?", dieID, false).
		Update("is_used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.ErrDieAlreadyUsed, "骰子 %d", dieID)
	}
	return nil
}

// UpdateDieValue 修改未使用骰子的点数
func (r *dicePoolRepo) UpdateDieValue(ctx context.Context, dieID uint, value int) error {
	result := r.db.WithContext(ctx).Model(&models.PoolDie{}).
		Where("id = ? AND is_used = ?", dieID, false).
		Update("die_result", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 0 {
		return nil
	}
	// MySQL 对未改变的行返回 0，需要回查区分
	die, err := r.FindDie(ctx, dieID)
	if err != nil {
		return err
	}
	if die.IsUsed {
		return apperrors.Forbidden("骰子 %d 已使用，不能修改", dieID)
	}
	return nil
}

// WithTx 使用事务
func (r *dicePoolRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &dicePoolRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
