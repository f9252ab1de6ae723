package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// BeginWithOptions 使用选项开始事务
	BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error)
	// WithTransaction 在事务中执行函数
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// TxOptions 事务选项
type TxOptions struct {
	// Isolation 隔离级别，sqlite 忽略
	Isolation sql.IsolationLevel
	// ReadOnly 是否只读事务
	ReadOnly bool
}

// Transaction 事务包装器，仓储懒加载并绑定到同一个事务
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	user      UserRepository
	campaign  CampaignRepository
	member    MemberRepository
	character CharacterRepository
	dicePool  DicePoolRepository
	roll      RollRepository
	challenge ChallengeRepository
	event     EventRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	return m.BeginWithOptions(ctx, nil)
}

// BeginWithOptions 使用选项开始事务
func (m *txManager) BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error) {
	var sqlOpts []*sql.TxOptions
	if opts != nil && m.db.Dialector.Name() != "sqlite" {
		sqlOpts = append(sqlOpts, &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
	}

	tx := m.db.WithContext(ctx).Begin(sqlOpts...)
	if tx.Error != nil {
		return nil, tx.Error
	}

	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数，出错或panic时回滚
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if !tx.Done() {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return nil
	}

	t.rolledback = true
	return t.tx.Rollback().Error
}

// Done 事务是否已结束
func (t *Transaction) Done() bool {
	return t.committed || t.rolledback
}

// Context 返回开启事务时的上下文
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// User 获取事务中的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = NewUserRepository(t.tx)
	}
	return t.user
}

// Campaign 获取事务中的战役仓储
func (t *Transaction) Campaign() CampaignRepository {
	if t.campaign == nil {
		t.campaign = NewCampaignRepository(t.tx)
	}
	return t.campaign
}

// Member 获取事务中的成员仓储
func (t *Transaction) Member() MemberRepository {
	if t.member == nil {
		t.member = NewMemberRepository(t.tx)
	}
	return t.member
}

// Character 获取事务中的角色仓储
func (t *Transaction) Character() CharacterRepository {
	if t.character == nil {
		t.character = NewCharacterRepository(t.tx)
	}
	return t.character
}

// DicePool 获取事务中的骰池仓储
func (t *Transaction) DicePool() DicePoolRepository {
	if t.dicePool == nil {
		t.dicePool = NewDicePoolRepository(t.tx)
	}
	return t.dicePool
}

// Roll 获取事务中的检定记录仓储
func (t *Transaction) Roll() RollRepository {
	if t.roll == nil {
		t.roll = NewRollRepository(t.tx)
	}
	return t.roll
}

// Challenge 获取事务中的挑战仓储
func (t *Transaction) Challenge() ChallengeRepository {
	if t.challenge == nil {
		t.challenge = NewChallengeRepository(t.tx)
	}
	return t.challenge
}

// Event 获取事务中的事件仓储
func (t *Transaction) Event() EventRepository {
	if t.event == nil {
		t.event = NewEventRepository(t.tx)
	}
	return t.event
}
