package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"slices"

	"github.com/qianlnk/houseguest/models"
)

// DefaultMinPlayers 开局最少人数：户主、两名被提名者和至少一名投票者
const DefaultMinPlayers = 4

// GameController 游戏流程控制器。
// Engine 的基础操作是宽松的，这里按阶段严格校验每一步，
// 每个流程步骤在一次引擎变更内原子完成。
type GameController struct {
	engine      *Engine
	rng         *rand.Rand
	minPlayers  int
	pendingVeto *pendingVeto // 只在引擎变更内读写
}

// pendingVeto AI持有者已决定使用否决权、等待真人户主指定替补的决定
type pendingVeto struct {
	decision VetoDecision
	week     int
	holder   string
}

func (p *pendingVeto) validFor(gs *models.GameState) bool {
	return p != nil &&
		p.week == gs.Progress.WeekCount &&
		p.holder == gs.Progress.VetoHolder &&
		gs.IsNominee(p.decision.SaveID)
}

// NewGameController 创建游戏控制器实例
func NewGameController(engine *Engine, rng *rand.Rand, minPlayers int) *GameController {
	if minPlayers < DefaultMinPlayers {
		minPlayers = DefaultMinPlayers
	}
	return &GameController{
		engine:     engine,
		rng:        rng,
		minPlayers: minPlayers,
	}
}

// Engine 返回底层引擎
func (gc *GameController) Engine() *Engine {
	return gc.engine
}

func requirePhase(gs *models.GameState, phase models.Phase) error {
	if gs.Progress.CurrentPhase != phase {
		return fmt.Errorf("%w: 当前为 %s，需要 %s", ErrInvalidPhase, gs.Progress.CurrentPhase, phase)
	}
	return nil
}

func inHouse(gs *models.GameState, id string) (*models.Player, error) {
	player, ok := gs.Player(id)
	if !ok {
		return nil, fmtInvalid(id)
	}
	if !player.InHouse() {
		return nil, fmt.Errorf("%w: %s 已被驱逐", ErrIneligibleWinner, id)
	}
	return player, nil
}

// StartGame 开始游戏，进入第一周户主竞赛
func (gc *GameController) StartGame() error {
	return gc.engine.mutate("开始游戏", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseIdle); err != nil {
			return err
		}
		if len(gs.InHousePlayers()) < gc.minPlayers {
			return fmt.Errorf("%w: 至少需要 %d 人", ErrNotEnoughPlayers, gc.minPlayers)
		}
		log.Printf("[游戏流程] 游戏开始，房客人数: %d", len(gs.Players))
		return setPhase(gs, models.PhaseHohCompetition)
	})
}

// CompleteHoh 结束户主竞赛。winnerID 为空时模拟竞赛结果。
func (gc *GameController) CompleteHoh(winnerID string) (string, error) {
	err := gc.engine.mutate("户主竞赛", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseHohCompetition); err != nil {
			return err
		}
		if winnerID == "" {
			winnerID = RunCompetition(gs.InHousePlayers(), gc.rng)
		}
		if _, err := inHouse(gs, winnerID); err != nil {
			return err
		}
		if err := setHohWinner(gs, winnerID); err != nil {
			return err
		}
		log.Printf("[游戏流程] 第 %d 周户主: %s", gs.Progress.WeekCount, winnerID)
		return setPhase(gs, models.PhaseNominationCeremony)
	})
	return winnerID, err
}

// Nominate 提名仪式。ids 为空且户主为AI时由AI决定。
func (gc *GameController) Nominate(ids []string) ([]string, error) {
	var nominees []string
	err := gc.engine.mutate("提名仪式", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseNominationCeremony); err != nil {
			return err
		}
		nominees = slices.Clone(ids)
		if len(nominees) == 0 {
			hoh, ok := gs.Player(gs.Progress.Hoh)
			if !ok || !hoh.IsAI {
				return ErrDecisionRequired
			}
			nominees = NewAIPlayer(*hoh, gc.rng).ChooseNominees(gs)
		}
		if len(nominees) != 2 || nominees[0] == nominees[1] {
			return ErrNomineeCount
		}
		for _, id := range nominees {
			if id == gs.Progress.Hoh {
				return fmt.Errorf("%w: 户主不能提名自己", ErrIneligibleNominee)
			}
		}
		if err := setNominees(gs, nominees); err != nil {
			return err
		}
		log.Printf("[游戏流程] 被提名者: %v", nominees)
		return setPhase(gs, models.PhaseVetoCompetition)
	})
	return nominees, err
}

// CompleteVeto 结束否决权竞赛。winnerID 为空时模拟竞赛结果。
func (gc *GameController) CompleteVeto(winnerID string) (string, error) {
	err := gc.engine.mutate("否决权竞赛", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseVetoCompetition); err != nil {
			return err
		}
		if winnerID == "" {
			winnerID = RunCompetition(gs.InHousePlayers(), gc.rng)
		}
		if _, err := inHouse(gs, winnerID); err != nil {
			return err
		}
		if err := setVetoHolder(gs, winnerID); err != nil {
			return err
		}
		log.Printf("[游戏流程] 否决权持有者: %s", winnerID)
		return setPhase(gs, models.PhaseVetoCeremony)
	})
	return winnerID, err
}

// VetoCeremony 否决权仪式。decision 为 nil 时由AI持有者决定，
// 使用否决权但未指定替补时由AI户主选择。被救者在原位置被替换。
// AI持有者使用否决权而户主是真人时返回 ErrReplacementRequired 和AI的决定，
// 之后只需提交 ReplacementID。
func (gc *GameController) VetoCeremony(decision *VetoDecision) (VetoDecision, error) {
	var result VetoDecision
	err := gc.engine.mutate("否决权仪式", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseVetoCeremony); err != nil {
			return err
		}
		pending := gc.pendingVeto
		if !pending.validFor(gs) {
			pending = nil
		}
		switch {
		case pending != nil && (decision == nil || decision.SaveID == ""):
			result = pending.decision
			if decision != nil {
				result.ReplacementID = decision.ReplacementID
			}
		case decision != nil:
			result = *decision
		default:
			holder, ok := gs.Player(gs.Progress.VetoHolder)
			if !ok || !holder.IsAI {
				return ErrDecisionRequired
			}
			result = NewAIPlayer(*holder, gc.rng).DecideVeto(gs)
			if result.Use && len(replacementCandidates(gs)) == 0 {
				result = VetoDecision{}
			}
		}

		if result.Use {
			if err := gc.applyVeto(gs, &result); err != nil {
				if errors.Is(err, ErrReplacementRequired) && decision == nil {
					gc.pendingVeto = &pendingVeto{
						decision: result,
						week:     gs.Progress.WeekCount,
						holder:   gs.Progress.VetoHolder,
					}
				}
				return err
			}
		} else {
			result = VetoDecision{}
		}
		gc.pendingVeto = nil
		log.Printf("[游戏流程] 否决权仪式: %+v", result)
		return setPhase(gs, models.PhaseEvictionVoting)
	})
	return result, err
}

func (gc *GameController) applyVeto(gs *models.GameState, decision *VetoDecision) error {
	idx := slices.Index(gs.Progress.Nominees, decision.SaveID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotNominee, decision.SaveID)
	}

	candidates := replacementCandidates(gs)
	if decision.ReplacementID == "" {
		hoh, ok := gs.Player(gs.Progress.Hoh)
		if !ok || !hoh.IsAI {
			return ErrReplacementRequired
		}
		decision.ReplacementID = NewAIPlayer(*hoh, gc.rng).ChooseReplacement(gs)
		if decision.ReplacementID == "" {
			return fmt.Errorf("%w: 没有可替补的房客", ErrIneligibleNominee)
		}
	}
	if !slices.ContainsFunc(candidates, func(p models.Player) bool { return p.ID == decision.ReplacementID }) {
		if gs.PlayerIndex(decision.ReplacementID) < 0 {
			return fmtInvalid(decision.ReplacementID)
		}
		return fmt.Errorf("%w: %s", ErrIneligibleNominee, decision.ReplacementID)
	}

	nominees := slices.Clone(gs.Progress.Nominees)
	nominees[idx] = decision.ReplacementID
	return setNominees(gs, nominees)
}

// CastVote 记录驱逐投票
func (gc *GameController) CastVote(voterID, nomineeID string) error {
	return gc.engine.mutate("驱逐投票", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseEvictionVoting); err != nil {
			return err
		}
		if !slices.ContainsFunc(gs.EligibleVoters(), func(p models.Player) bool { return p.ID == voterID }) {
			if gs.PlayerIndex(voterID) < 0 {
				return fmtInvalid(voterID)
			}
			return fmt.Errorf("%w: %s", ErrIneligibleVoter, voterID)
		}
		if !gs.IsNominee(nomineeID) {
			return fmt.Errorf("%w: %s", ErrNotNominee, nomineeID)
		}
		gs.Votes[voterID] = nomineeID
		return nil
	})
}

// CastTieBreak 户主投出平票决定票
func (gc *GameController) CastTieBreak(nomineeID string) error {
	return gc.engine.mutate("户主决定票", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseEvictionVoting); err != nil {
			return err
		}
		if !gs.IsNominee(nomineeID) {
			return fmt.Errorf("%w: %s", ErrNotNominee, nomineeID)
		}
		gs.Votes[gs.Progress.Hoh] = nomineeID
		return nil
	})
}

// ResolveEviction 补齐AI投票后计票并驱逐，进入周总结。
// 平票且需要真人户主决定时返回 ErrTieBreakRequired，已投的票保留。
func (gc *GameController) ResolveEviction() (VoteResult, error) {
	err := gc.engine.mutate("AI投票", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseEvictionVoting); err != nil {
			return err
		}
		for _, voter := range gs.EligibleVoters() {
			if _, voted := gs.Votes[voter.ID]; voted || !voter.IsAI {
				continue
			}
			gs.Votes[voter.ID] = NewAIPlayer(voter, gc.rng).ChooseVote(gs)
		}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	var result VoteResult
	err = gc.engine.mutate("驱逐计票", func(gs *models.GameState) error {
		for _, voter := range gs.EligibleVoters() {
			if _, voted := gs.Votes[voter.ID]; !voted {
				return fmt.Errorf("%w: %s", ErrVotesPending, voter.ID)
			}
		}

		tieBreaker := gc.engine.tieBreaker
		if hoh, ok := gs.Player(gs.Progress.Hoh); ok && hoh.IsAI {
			ai := NewAIPlayer(*hoh, gc.rng)
			tieBreaker = func(tied []string, gs *models.GameState) (string, error) {
				choice, err := gc.engine.tieBreaker(tied, gs)
				if errors.Is(err, ErrTieBreakRequired) {
					gs.Votes[hoh.ID] = ai.pickLeastLiked(gs, tied)
					return gc.engine.tieBreaker(tied, gs)
				}
				return choice, err
			}
		}

		var err error
		result, err = resolveEviction(gs, tieBreaker)
		if err != nil {
			return err
		}
		log.Printf("[游戏流程] 驱逐结果: %s, 票数: %v", result.Selected, result.Counts)
		return setPhase(gs, models.PhaseWeeklySummary)
	})
	return result, err
}

// CompleteWeek 结束周总结：剩余决赛人数时进入 endGame，否则开始新一周
func (gc *GameController) CompleteWeek() (bool, error) {
	ended := false
	err := gc.engine.mutate("周总结", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseWeeklySummary); err != nil {
			return err
		}
		if shouldEndGame(gs) {
			ended = true
			log.Printf("[游戏流程] 游戏进入决赛，第 %d 天", gs.Progress.DayCount)
			return setPhase(gs, models.PhaseEndGame)
		}
		startNewWeek(gs)
		log.Printf("[游戏流程] 第 %d 周开始", gs.Progress.WeekCount)
		return nil
	})
	return ended, err
}

// CastJuryVote 评审投票
func (gc *GameController) CastJuryVote(jurorID, finalistID string) error {
	return gc.engine.mutate("评审投票", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseEndGame); err != nil {
			return err
		}
		juror, ok := gs.Player(jurorID)
		if !ok {
			return fmtInvalid(jurorID)
		}
		if juror.InHouse() {
			return fmt.Errorf("%w: %s 不是评审", ErrIneligibleVoter, jurorID)
		}
		finalist, ok := gs.Player(finalistID)
		if !ok {
			return fmtInvalid(finalistID)
		}
		if !finalist.InHouse() {
			return fmt.Errorf("%w: %s", ErrNotNominee, finalistID)
		}
		gs.JuryVotes[jurorID] = finalistID
		return nil
	})
}

// CrownWinner 补齐AI评审票后产生冠军
func (gc *GameController) CrownWinner() (VoteResult, error) {
	var result VoteResult
	err := gc.engine.mutate("产生冠军", func(gs *models.GameState) error {
		if err := requirePhase(gs, models.PhaseEndGame); err != nil {
			return err
		}
		finalists := make([]string, 0, FinalistCount)
		for _, p := range gs.InHousePlayers() {
			finalists = append(finalists, p.ID)
		}
		for _, juror := range gs.Players {
			if juror.InHouse() {
				continue
			}
			if _, voted := gs.JuryVotes[juror.ID]; voted {
				continue
			}
			if !juror.IsAI {
				return fmt.Errorf("%w: %s", ErrVotesPending, juror.ID)
			}
			gs.JuryVotes[juror.ID] = NewAIPlayer(juror, gc.rng).ChooseJuryVote(gs, finalists)
		}

		var err error
		result, err = crownWinner(gs)
		if err == nil {
			log.Printf("[游戏流程] 冠军: %s", result.Selected)
		}
		return err
	})
	return result, err
}
