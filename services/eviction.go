package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qianlnk/houseguest/models"
)

// TieBreaker 在平票时从并列者中选出结果
type TieBreaker func(tied []string, gs *models.GameState) (string, error)

// FirstNomineeWins 平票时按提名顺序取第一个并列者
func FirstNomineeWins(tied []string, gs *models.GameState) (string, error) {
	if len(tied) == 0 {
		return "", ErrNomineeCount
	}
	return tied[0], nil
}

// HohDecides 平票时由户主投出决定票，户主的决定票记录在 Votes[hoh]
func HohDecides(tied []string, gs *models.GameState) (string, error) {
	choice, ok := gs.Votes[gs.Progress.Hoh]
	if !ok || !slices.Contains(tied, choice) {
		return "", ErrTieBreakRequired
	}
	return choice, nil
}

// TieBreakerByName 根据配置名称选择平票规则
func TieBreakerByName(name string) (TieBreaker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first_nominee":
		return FirstNomineeWins, nil
	case "hoh":
		return HohDecides, nil
	default:
		return nil, fmt.Errorf("未知的平票规则: %q", name)
	}
}

// VoteResult 计票结果
type VoteResult struct {
	Selected  string         `json:"selected"`
	Counts    map[string]int `json:"counts"`
	Tied      bool           `json:"tied"`
	TiedWith  []string       `json:"tiedWith,omitempty"`
	VoteCount int            `json:"voteCount"`
}

// TallyVotes 统计有效票：只计算 voters 中的投票者且目标为候选人的票。
// 得票严格最多者为 Selected；并列时按 candidates 顺序第一个到达最高票的人暂列第一，
// 并在 TiedWith 中列出全部并列者，由 TieBreaker 决定最终结果。
func TallyVotes(candidates []string, votes map[string]string, voters []string) VoteResult {
	result := VoteResult{Counts: make(map[string]int, len(candidates))}
	for _, c := range candidates {
		result.Counts[c] = 0
	}
	for _, voter := range voters {
		target, ok := votes[voter]
		if !ok || !slices.Contains(candidates, target) {
			continue
		}
		result.Counts[target]++
		result.VoteCount++
	}

	maxVotes := -1
	for _, c := range candidates {
		if result.Counts[c] > maxVotes {
			maxVotes = result.Counts[c]
			result.Selected = c
		}
	}
	for _, c := range candidates {
		if result.Counts[c] == maxVotes {
			result.TiedWith = append(result.TiedWith, c)
		}
	}
	result.Tied = len(result.TiedWith) > 1
	if !result.Tied {
		result.TiedWith = nil
	}
	return result
}

// resolveEviction 统计驱逐票并驱逐得票最多的被提名者
func resolveEviction(gs *models.GameState, tieBreaker TieBreaker) (VoteResult, error) {
	nominees := gs.Progress.Nominees
	if len(nominees) != 2 {
		return VoteResult{}, ErrNomineeCount
	}

	voters := make([]string, 0)
	for _, p := range gs.EligibleVoters() {
		voters = append(voters, p.ID)
	}
	result := TallyVotes(nominees, gs.Votes, voters)
	if result.Tied {
		if tieBreaker == nil {
			tieBreaker = FirstNomineeWins
		}
		evicted, err := tieBreaker(result.TiedWith, gs)
		if err != nil {
			return result, err
		}
		result.Selected = evicted
	}

	if err := evictPlayer(gs, result.Selected); err != nil {
		return result, err
	}
	return result, nil
}

// crownWinner 评审（被驱逐的房客）在决赛选手中投票选出冠军，平票时取名册中靠前者
func crownWinner(gs *models.GameState) (VoteResult, error) {
	finalists := make([]string, 0, FinalistCount)
	jurors := make([]string, 0)
	for _, p := range gs.Players {
		if p.InHouse() {
			finalists = append(finalists, p.ID)
		} else {
			jurors = append(jurors, p.ID)
		}
	}
	if len(finalists) == 0 {
		return VoteResult{}, ErrNotEnoughPlayers
	}

	result := TallyVotes(finalists, gs.JuryVotes, jurors)
	gs.Winner = result.Selected
	return result, nil
}
