package models

import (
	"fmt"
)

// Phase 游戏阶段，封闭枚举
type Phase int

const (
	PhaseIdle               Phase = iota // 未开始
	PhaseHohCompetition                  // 户主竞赛
	PhaseNominationCeremony              // 提名仪式
	PhaseVetoCompetition                 // 否决权竞赛
	PhaseVetoCeremony                    // 否决权仪式
	PhaseEvictionVoting                  // 驱逐投票
	PhaseWeeklySummary                   // 周总结
	PhaseEndGame                         // 游戏结束
)

var phaseNames = [...]string{
	PhaseIdle:               "idle",
	PhaseHohCompetition:     "hohCompetition",
	PhaseNominationCeremony: "nominationCeremony",
	PhaseVetoCompetition:    "vetoCompetition",
	PhaseVetoCeremony:       "vetoCeremony",
	PhaseEvictionVoting:     "evictionVoting",
	PhaseWeeklySummary:      "weeklySummary",
	PhaseEndGame:            "endGame",
}

// Phases 按规范顺序返回全部阶段
func Phases() []Phase {
	phases := make([]Phase, len(phaseNames))
	for i := range phaseNames {
		phases[i] = Phase(i)
	}
	return phases
}

// Valid 是否为已定义的阶段
func (p Phase) Valid() bool {
	return p >= PhaseIdle && p <= PhaseEndGame
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase 将阶段名称解析为 Phase，未知名称返回错误
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return PhaseIdle, fmt.Errorf("未知的游戏阶段: %q", name)
}

// Next 返回常规流程中的下一个阶段。
// 周总结之后回到户主竞赛；是否进入 endGame 由调用方根据存活人数决定。
func (p Phase) Next() Phase {
	switch p {
	case PhaseIdle:
		return PhaseHohCompetition
	case PhaseHohCompetition:
		return PhaseNominationCeremony
	case PhaseNominationCeremony:
		return PhaseVetoCompetition
	case PhaseVetoCompetition:
		return PhaseVetoCeremony
	case PhaseVetoCeremony:
		return PhaseEvictionVoting
	case PhaseEvictionVoting:
		return PhaseWeeklySummary
	case PhaseWeeklySummary:
		return PhaseHohCompetition
	case PhaseEndGame:
		return PhaseEndGame
	}
	panic(fmt.Sprintf("unhandled phase %d", int(p)))
}

// MarshalText 以阶段名称序列化
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("无效的游戏阶段: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText 仅接受已定义的阶段名称
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
