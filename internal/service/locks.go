package service

import "sync"

// CampaignLocks 按战役划分的读写锁
//
// 骰池与检定持有读锁，日期推进持有写锁，二者互斥而检定之间互不阻塞。
// 仅在单进程内生效，多实例部署依赖事务内对骰池日期的复核。
type CampaignLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.RWMutex
}

// NewCampaignLocks 创建锁表
func NewCampaignLocks() *CampaignLocks {
	return &CampaignLocks{locks: make(map[uint]*sync.RWMutex)}
}

func (l *CampaignLocks) get(campaignID uint) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[campaignID]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[campaignID] = lock
	}
	return lock
}

// RLock 获取共享锁，返回解锁函数
func (l *CampaignLocks) RLock(campaignID uint) func() {
	lock := l.get(campaignID)
	lock.RLock()
	return lock.RUnlock
}

// Lock 获取独占锁，返回解锁函数
func (l *CampaignLocks) Lock(campaignID uint) func() {
	lock := l.get(campaignID)
	lock.Lock()
	return lock.Unlock
}
