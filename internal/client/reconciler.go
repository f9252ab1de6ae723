package client

import (
	"sort"
	"sync"

	"github.com/wfunc/fate-dice/internal/dice"
	"github.com/wfunc/fate-dice/internal/models"
)

// recentRollLimit 视图中保留的最近检定条数
const recentRollLimit = 50

// Snapshot GET /campaigns/:id/state 的响应
type Snapshot struct {
	Campaign   *models.Campaign             `json:"campaign"`
	Characters []*models.Character          `json:"characters"`
	Pools      []*models.DicePool           `json:"pools"`
	Challenges []*models.ChallengeWithStats `json:"challenges"`
	Seq        uint64                       `json:"seq"`
}

// View 客户端看到的战役状态
type View struct {
	CampaignID uint
	CurrentDay int
	Seq        uint64

	// Pools 按角色ID索引，只保留当天的骰池
	Pools map[uint]*models.DicePool
	// Challenges 进行中的挑战
	Challenges map[uint]*models.ChallengeWithStats
	// Rolls 最近的检定，新的在前
	Rolls []models.RollHistory
}

// Reconciler 把快照与增量事件合并为本地视图
//
// 快照可能已包含序号大于 Seq 的事件的效果，因此每种事件的应用都必须可重复。
type Reconciler struct {
	mu   sync.RWMutex
	view View
}

// NewReconciler 创建空视图
func NewReconciler(campaignID uint) *Reconciler {
	r := &Reconciler{}
	r.view = emptyView(campaignID)
	return r
}

func emptyView(campaignID uint) View {
	return View{
		CampaignID: campaignID,
		Pools:      make(map[uint]*models.DicePool),
		Challenges: make(map[uint]*models.ChallengeWithStats),
	}
}

// Reset 用快照替换视图，重连后必须先调用
func (r *Reconciler) Reset(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := emptyView(r.view.CampaignID)
	view.Seq = s.Seq
	if s.Campaign != nil {
		view.CurrentDay = s.Campaign.CurrentDay
	}
	for _, p := range s.Pools {
		if p.IsCurrent(view.CurrentDay) {
			view.Pools[p.CharacterID] = p
		}
	}
	for _, c := range s.Challenges {
		if c.IsActive {
			view.Challenges[c.ID] = c
		}
	}
	// 检定历史不在快照中，沿用已有记录
	view.Rolls = r.view.Rolls
	r.view = view
}

// Apply 应用一条事件，序号不大于当前视图的事件被忽略
func (r *Reconciler) Apply(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := ev.Meta()
	if meta.CampaignID != r.view.CampaignID || meta.Seq <= r.view.Seq {
		return false
	}

	switch e := ev.(type) {
	case *RollComplete:
		r.applyRoll(&e.Payload.Roll)
	case *PoolUpdated:
		r.applyPool(e.Payload.Pool)
	case *ChallengeUpdate:
		r.applyChallenge(e.Payload.Action, &e.Payload.Challenge)
	case *DayIncremented:
		r.applyDay(e.Payload.CurrentDay)
	default:
		return false
	}

	r.view.Seq = meta.Seq
	return true
}

// applyRoll 标记骰子已使用；只有骰子由未使用变为已使用时才计入挑战统计
func (r *Reconciler) applyRoll(roll *models.RollHistory) {
	claimed := false
	if roll.PoolDiceID != nil {
		if pool, ok := r.view.Pools[roll.CharacterID]; ok {
			for i := range pool.Dice {
				if pool.Dice[i].ID == *roll.PoolDiceID && !pool.Dice[i].IsUsed {
					pool.Dice[i].IsUsed = true
					claimed = true
				}
			}
		}
	}

	if claimed && roll.ChallengeID != nil {
		if c, ok := r.view.Challenges[*roll.ChallengeID]; ok {
			c.TotalAttempts++
			switch roll.Outcome {
			case dice.OutcomeSuccess:
				c.Successes++
			case dice.OutcomeFailure:
				c.Failures++
			case dice.OutcomeNeutral:
				c.Neutrals++
			}
		}
	}

	for _, existing := range r.view.Rolls {
		if existing.ID == roll.ID {
			return
		}
	}
	r.view.Rolls = append([]models.RollHistory{*roll}, r.view.Rolls...)
	if len(r.view.Rolls) > recentRollLimit {
		r.view.Rolls = r.view.Rolls[:recentRollLimit]
	}
}

// applyPool 替换角色当天的骰池，过期骰池忽略
func (r *Reconciler) applyPool(pool *models.DicePool) {
	if pool == nil || !pool.IsCurrent(r.view.CurrentDay) {
		return
	}
	if pool.CampaignDay > r.view.CurrentDay {
		r.applyDay(pool.CampaignDay)
	}
	r.view.Pools[pool.CharacterID] = pool
}

func (r *Reconciler) applyChallenge(action string, challenge *models.Challenge) {
	switch action {
	case models.ChallengeActionCreated:
		if _, ok := r.view.Challenges[challenge.ID]; !ok && challenge.IsActive {
			r.view.Challenges[challenge.ID] = &models.ChallengeWithStats{Challenge: *challenge}
		}
	case models.ChallengeActionCompleted:
		delete(r.view.Challenges, challenge.ID)
	}
}

// applyDay 日期只会前进，旧骰池随之失效
func (r *Reconciler) applyDay(day int) {
	if day <= r.view.CurrentDay {
		return
	}
	r.view.CurrentDay = day
	for characterID, pool := range r.view.Pools {
		if !pool.IsCurrent(day) {
			delete(r.view.Pools, characterID)
		}
	}
}

// View 返回视图副本
func (r *Reconciler) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view := r.view
	view.Pools = make(map[uint]*models.DicePool, len(r.view.Pools))
	for id, p := range r.view.Pools {
		cp := *p
		cp.Dice = append([]models.PoolDie(nil), p.Dice...)
		view.Pools[id] = &cp
	}
	view.Challenges = make(map[uint]*models.ChallengeWithStats, len(r.view.Challenges))
	for id, c := range r.view.Challenges {
		cp := *c
		view.Challenges[id] = &cp
	}
	view.Rolls = append([]models.RollHistory(nil), r.view.Rolls...)
	return view
}

// Seq 当前视图的事件序号
func (r *Reconciler) Seq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view.Seq
}

// ActiveChallengeIDs 进行中的挑战ID，升序
func (v View) ActiveChallengeIDs() []uint {
	ids := make([]uint, 0, len(v.Challenges))
	for id := range v.Challenges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
