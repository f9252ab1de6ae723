package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	txManager TransactionManager

	// 仓储实例（懒加载）
	userOnce sync.Once
	user     UserRepository

	campaignOnce sync.Once
	campaign     CampaignRepository

	memberOnce sync.Once
	member     MemberRepository

	characterOnce sync.Once
	character     CharacterRepository

	dicePoolOnce sync.Once
	dicePool     DicePoolRepository

	rollOnce sync.Once
	roll     RollRepository

	challengeOnce sync.Once
	challenge     ChallengeRepository

	eventOnce sync.Once
	event     EventRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Transaction 获取事务管理器
func (m *Manager) Transaction() TransactionManager {
	return m.txManager
}

// Begin 开始事务，调用方负责提交或回滚
func (m *Manager) Begin(ctx context.Context) (*Transaction, error) {
	return m.txManager.Begin(ctx)
}

// WithTransaction 在事务中执行函数
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// Campaign 获取战役仓储
func (m *Manager) Campaign() CampaignRepository {
	m.campaignOnce.Do(func() {
		m.campaign = NewCampaignRepository(m.db)
	})
	return m.campaign
}

// Member 获取成员仓储
func (m *Manager) Member() MemberRepository {
	m.memberOnce.Do(func() {
		m.member = NewMemberRepository(m.db)
	})
	return m.member
}

// Character 获取角色仓储
func (m *Manager) Character() CharacterRepository {
	m.characterOnce.Do(func() {
		m.character = NewCharacterRepository(m.db)
	})
	return m.character
}

// DicePool 获取骰池仓储
func (m *Manager) DicePool() DicePoolRepository {
	m.dicePoolOnce.Do(func() {
		m.dicePool = NewDicePoolRepository(m.db)
	})
	return m.dicePool
}

// Roll 获取检定记录仓储
func (m *Manager) Roll() RollRepository {
	m.rollOnce.Do(func() {
		m.roll = NewRollRepository(m.db)
	})
	return m.roll
}

// Challenge 获取挑战仓储
func (m *Manager) Challenge() ChallengeRepository {
	m.challengeOnce.Do(func() {
		m.challenge = NewChallengeRepository(m.db)
	})
	return m.challenge
}

// Event 获取事件仓储
func (m *Manager) Event() EventRepository {
	m.eventOnce.Do(func() {
		m.event = NewEventRepository(m.db)
	})
	return m.event
}
