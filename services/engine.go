package services

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/qianlnk/houseguest/models"
)

// StateListener 状态变更监听器，每次成功变更后收到一份快照
type StateListener func(state models.GameState)

// Engine 游戏引擎，每局游戏一个实例，独占全部游戏状态。
// 每次变更都在副本上执行，成功后整体替换，读者只会看到完整的前后状态。
type Engine struct {
	state           models.GameState
	rejectionPolicy RejectionPolicy
	tieBreaker      TieBreaker
	newID           func() string
	listeners       []StateListener
	mutex           sync.RWMutex
	notifyMu        sync.Mutex // 按提交顺序通知监听器
}

// EngineOption 引擎配置项
type EngineOption func(*Engine)

// WithRejectionPolicy 设置联盟邀请拒绝策略
func WithRejectionPolicy(policy RejectionPolicy) EngineOption {
	return func(e *Engine) {
		if policy != nil {
			e.rejectionPolicy = policy
		}
	}
}

// WithTieBreaker 设置驱逐平票规则
func WithTieBreaker(tieBreaker TieBreaker) EngineOption {
	return func(e *Engine) {
		if tieBreaker != nil {
			e.tieBreaker = tieBreaker
		}
	}
}

// WithIDGenerator 设置联盟与邀请的ID生成器
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine 创建游戏引擎实例
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state:           models.NewGameState(),
		rejectionPolicy: CancelOnReject,
		tieBreaker:      FirstNomineeWins,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe 注册状态变更监听器
func (e *Engine) Subscribe(listener StateListener) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Snapshot 返回当前状态的只读快照
func (e *Engine) Snapshot() models.GameState {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.state.Clone()
}

// Phase 当前阶段
func (e *Engine) Phase() models.Phase {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.state.Progress.CurrentPhase
}

// mutate 在状态副本上执行变更，失败时原状态保持不变。
// 监听器在状态锁之外按提交顺序依次收到快照，监听器内不能再修改同一引擎。
func (e *Engine) mutate(action string, fn func(gs *models.GameState) error) error {
	e.mutex.Lock()
	next := e.state.Clone()
	if err := fn(&next); err != nil {
		e.mutex.Unlock()
		log.Printf("[引擎] %s 失败: %v", action, err)
		return err
	}
	e.state = next
	listeners := make([]StateListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.notifyMu.Lock()
	e.mutex.Unlock()
	defer e.notifyMu.Unlock()

	for _, listener := range listeners {
		listener(next.Clone())
	}
	return nil
}

// SetPlayers 整体替换名册
func (e *Engine) SetPlayers(players []models.Player) {
	_ = e.mutate("设置名册", func(gs *models.GameState) error {
		setPlayers(gs, players)
		return nil
	})
}

// SetHohWinner 设置户主
func (e *Engine) SetHohWinner(playerID string) error {
	return e.mutate("设置户主", func(gs *models.GameState) error {
		return setHohWinner(gs, playerID)
	})
}

// SetNominees 设置被提名者，数量不在此校验
func (e *Engine) SetNominees(ids []string) error {
	return e.mutate("设置被提名者", func(gs *models.GameState) error {
		return setNominees(gs, ids)
	})
}

// SetVetoHolder 设置否决权持有者
func (e *Engine) SetVetoHolder(playerID string) error {
	return e.mutate("设置否决权持有者", func(gs *models.GameState) error {
		return setVetoHolder(gs, playerID)
	})
}

// SetPhase 设置当前阶段，不校验转换顺序
func (e *Engine) SetPhase(phase models.Phase) error {
	return e.mutate("设置阶段", func(gs *models.GameState) error {
		return setPhase(gs, phase)
	})
}

// AdvanceWeek 推进一周，不修改当前阶段
func (e *Engine) AdvanceWeek() {
	_ = e.mutate("推进一周", func(gs *models.GameState) error {
		advanceWeek(gs)
		return nil
	})
}

// StartNewWeek 推进一周并进入户主竞赛
func (e *Engine) StartNewWeek() {
	_ = e.mutate("开始新一周", func(gs *models.GameState) error {
		startNewWeek(gs)
		return nil
	})
}

// ShouldEndGame 在屋人数是否已降到决赛人数
func (e *Engine) ShouldEndGame() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return shouldEndGame(&e.state)
}

// ResetGame 清空全部状态，回到初始状态
func (e *Engine) ResetGame() {
	_ = e.mutate("重置游戏", func(gs *models.GameState) error {
		*gs = models.NewGameState()
		return nil
	})
}

// Restore 用完整状态替换当前状态，浮层总是被清空
func (e *Engine) Restore(state models.GameState) {
	_ = e.mutate("恢复状态", func(gs *models.GameState) error {
		*gs = state.Clone()
		gs.Overlay = nil
		return nil
	})
}

// CreateAlliance 直接创建联盟
func (e *Engine) CreateAlliance(name string, members []string, secret bool) (models.Alliance, error) {
	var alliance models.Alliance
	err := e.mutate("创建联盟", func(gs *models.GameState) error {
		var err error
		alliance, err = createAlliance(gs, e.newID(), name, members, secret)
		return err
	})
	return alliance, err
}

// ProposeAlliance 发起联盟邀请
func (e *Engine) ProposeAlliance(name, proposerID string, invitees []string) (models.AllianceProposal, error) {
	var proposal models.AllianceProposal
	err := e.mutate("发起联盟邀请", func(gs *models.GameState) error {
		var err error
		proposal, err = proposeAlliance(gs, e.newID(), name, proposerID, invitees)
		return err
	})
	return proposal, err
}

// AcceptAlliance 接受联盟邀请，邀请完成时返回新建的联盟
func (e *Engine) AcceptAlliance(proposalID, playerID string) (*models.Alliance, error) {
	var alliance *models.Alliance
	err := e.mutate("接受联盟邀请", func(gs *models.GameState) error {
		var err error
		alliance, err = acceptAlliance(gs, proposalID, playerID, e.newID())
		return err
	})
	return alliance, err
}

// RejectAlliance 拒绝联盟邀请，处理方式由拒绝策略决定
func (e *Engine) RejectAlliance(proposalID, playerID string) (*models.Alliance, error) {
	var alliance *models.Alliance
	err := e.mutate("拒绝联盟邀请", func(gs *models.GameState) error {
		var err error
		alliance, err = rejectAlliance(gs, proposalID, playerID, e.newID(), e.rejectionPolicy)
		return err
	})
	return alliance, err
}

// Interact 单向互动，只修改 owner 对 other 的关系
func (e *Engine) Interact(ownerID, otherID string, delta int) error {
	return e.mutate("互动", func(gs *models.GameState) error {
		players, err := models.ApplyInteraction(gs.Players, ownerID, otherID, delta)
		if err != nil {
			return err
		}
		gs.Players = players
		return nil
	})
}

// InteractMutual 双向互动
func (e *Engine) InteractMutual(a, b string, delta int) error {
	return e.mutate("双向互动", func(gs *models.GameState) error {
		players, err := models.ApplyInteraction(gs.Players, a, b, delta)
		if err != nil {
			return err
		}
		players, err = models.ApplyInteraction(players, b, a, delta)
		if err != nil {
			return err
		}
		gs.Players = players
		return nil
	})
}

// RecordVote 记录投票，只校验玩家存在
func (e *Engine) RecordVote(voterID, nomineeID string) error {
	return e.mutate("记录投票", func(gs *models.GameState) error {
		if gs.PlayerIndex(voterID) < 0 {
			return fmtInvalid(voterID)
		}
		if gs.PlayerIndex(nomineeID) < 0 {
			return fmtInvalid(nomineeID)
		}
		gs.Votes[voterID] = nomineeID
		return nil
	})
}

// ResolveEviction 计票并驱逐
func (e *Engine) ResolveEviction() (VoteResult, error) {
	var result VoteResult
	err := e.mutate("驱逐计票", func(gs *models.GameState) error {
		var err error
		result, err = resolveEviction(gs, e.tieBreaker)
		return err
	})
	return result, err
}

// RecordJuryVote 记录评审投票
func (e *Engine) RecordJuryVote(jurorID, finalistID string) error {
	return e.mutate("记录评审投票", func(gs *models.GameState) error {
		if gs.PlayerIndex(jurorID) < 0 {
			return fmtInvalid(jurorID)
		}
		if gs.PlayerIndex(finalistID) < 0 {
			return fmtInvalid(finalistID)
		}
		gs.JuryVotes[jurorID] = finalistID
		return nil
	})
}

// CrownWinner 统计评审票并产生冠军
func (e *Engine) CrownWinner() (VoteResult, error) {
	var result VoteResult
	err := e.mutate("产生冠军", func(gs *models.GameState) error {
		var err error
		result, err = crownWinner(gs)
		return err
	})
	return result, err
}

// SetOverlay 设置界面浮层
func (e *Engine) SetOverlay(kind, message string) {
	_ = e.mutate("设置浮层", func(gs *models.GameState) error {
		gs.Overlay = &models.Overlay{Kind: kind, Message: message}
		return nil
	})
}

// ClearOverlay 清除界面浮层
func (e *Engine) ClearOverlay() {
	_ = e.mutate("清除浮层", func(gs *models.GameState) error {
		gs.Overlay = nil
		return nil
	})
}

// FindPlayer 按名称模糊查找房客
func (e *Engine) FindPlayer(name string) []models.Player {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return findPlayersByName(e.state.Players, name)
}
