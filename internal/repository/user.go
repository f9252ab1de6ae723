package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/models"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	BaseRepository
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByLogin(ctx context.Context, identity string) (*models.User, error)
	List(ctx context.Context, pagination *Pagination) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// userRepo 用户仓储实现
type userRepo struct {
	*BaseRepo
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建用户，用户名或邮箱重复时返回冲突
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if IsDuplicateKey(err) {
		return apperrors.Conflict("用户名或邮箱已被使用")
	}
	return err
}

// Update 更新用户
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID 根据ID查找用户
func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "用户 %d 不存在", id)
	}
	return &user, nil
}

// FindByUsername 根据用户名查找
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "用户 %s 不存在", username)
	}
	return &user, nil
}

// FindByLogin 根据用户名或邮箱查找
func (r *userRepo) FindByLogin(ctx context.Context, identity string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identity, identity).
		First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "用户 %s 不存在", identity)
	}
	return &user, nil
}

// List 分页获取用户
func (r *userRepo) List(ctx context.Context, pagination *Pagination) ([]*models.User, error) {
	var users []*models.User
	query := r.db.WithContext(ctx).Model(&models.User{})

	if pagination != nil {
		if err := query.Count(&pagination.Total).Error; err != nil {
			return nil, err
		}
		query = query.Scopes(Paginate(pagination))
	}

	err := query.Order("id ASC").Find(&users).Error
	return users, err
}

// UpdateLastLogin 更新最后登录时间
func (r *userRepo) UpdateLastLogin(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}

// WithTx 使用事务
func (r *userRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &userRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
