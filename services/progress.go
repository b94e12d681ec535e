package services

import (
	"fmt"

	"github.com/qianlnk/houseguest/models"
)

const (
	// DaysPerWeek 每周推进的天数
	DaysPerWeek = 7
	// FinalistCount 剩余该人数时进入决赛
	FinalistCount = 2
)

// setPhase 设置当前阶段，不校验转换是否合法。
// 进入户主竞赛时天数加一。
func setPhase(gs *models.GameState, phase models.Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPhase, phase)
	}
	gs.Progress.CurrentPhase = phase
	if phase == models.PhaseHohCompetition {
		gs.Progress.DayCount++
	}
	return nil
}

// advanceWeek 周数加一、天数加七，清空户主、被提名者、否决权持有者和投票，
// 所有在屋房客恢复 active 并增加七天在屋天数。不修改当前阶段。
func advanceWeek(gs *models.GameState) {
	gs.Progress.WeekCount++
	gs.Progress.DayCount += DaysPerWeek
	gs.Progress.Hoh = ""
	gs.Progress.Nominees = []string{}
	gs.Progress.VetoHolder = ""
	gs.Votes = make(map[string]string)

	for i := range gs.Players {
		player := &gs.Players[i]
		if !player.InHouse() {
			continue
		}
		player.Status = models.StatusActive
		player.Stats.DaysInHouse += DaysPerWeek
	}
}

// startNewWeek 推进一周并进入新一周的户主竞赛
func startNewWeek(gs *models.GameState) {
	advanceWeek(gs)
	// setPhase 对合法阶段不会失败
	_ = setPhase(gs, models.PhaseHohCompetition)
}

// shouldEndGame 在屋人数降到决赛人数时游戏结束
func shouldEndGame(gs *models.GameState) bool {
	return len(gs.InHousePlayers()) <= FinalistCount
}
