package models

import (
	"errors"
	"slices"
)

// ErrInvalidPlayerID 引用了不存在的玩家
var ErrInvalidPlayerID = errors.New("玩家不存在")

// PlayerStatus 玩家状态
type PlayerStatus string

const (
	StatusActive    PlayerStatus = "active"    // 在屋内
	StatusNominated PlayerStatus = "nominated" // 被提名
	StatusEvicted   PlayerStatus = "evicted"   // 已被驱逐
)

// AIPersonality AI性格特征
type AIPersonality string

const (
	Aggressive AIPersonality = "aggressive" // 激进型
	Analytical AIPersonality = "analytical" // 分析型
	Deceptive  AIPersonality = "deceptive"  // 伪装型
)

// Personalities 全部AI性格
var Personalities = []AIPersonality{Aggressive, Analytical, Deceptive}

// PlayerStats 玩家统计
type PlayerStats struct {
	HohWins     int `json:"hohWins"`
	PovWins     int `json:"povWins"`
	Nominations int `json:"nominations"`
	DaysInHouse int `json:"daysInHouse"`
}

// Player 房客信息
type Player struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Status        PlayerStatus            `json:"status"`
	IsHuman       bool                    `json:"isHuman"`
	IsAI          bool                    `json:"isAI"`
	Personality   AIPersonality           `json:"personality,omitempty"`
	Alliances     []string                `json:"alliances"`
	Relationships map[string]Relationship `json:"relationships"`
	Stats         PlayerStats             `json:"stats"`
}

// NewHumanPlayer 创建真人房客
func NewHumanPlayer(id, name string) Player {
	return Player{
		ID:            id,
		Name:          name,
		Status:        StatusActive,
		IsHuman:       true,
		Alliances:     []string{},
		Relationships: make(map[string]Relationship),
	}
}

// NewAIPlayer 创建AI房客
func NewAIPlayer(id, name string, personality AIPersonality) Player {
	return Player{
		ID:            id,
		Name:          name,
		Status:        StatusActive,
		IsAI:          true,
		Personality:   personality,
		Alliances:     []string{},
		Relationships: make(map[string]Relationship),
	}
}

// InHouse 是否仍在屋内（未被驱逐）
func (p Player) InHouse() bool {
	return p.Status != StatusEvicted
}

// Clone 深拷贝
func (p Player) Clone() Player {
	c := p
	c.Alliances = slices.Clone(p.Alliances)
	if c.Alliances == nil {
		c.Alliances = []string{}
	}
	c.Relationships = make(map[string]Relationship, len(p.Relationships))
	for id, rel := range p.Relationships {
		c.Relationships[id] = rel
	}
	return c
}

// ClonePlayers 深拷贝玩家列表
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

// Alliance 联盟
type Alliance struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Members  []string `json:"members"`
	IsSecret bool     `json:"isSecret,omitempty"`
}

// HasMember 是否包含成员
func (a Alliance) HasMember(playerID string) bool {
	return slices.Contains(a.Members, playerID)
}

// AllianceProposal 待处理的联盟邀请
type AllianceProposal struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ProposerID string   `json:"proposerId"`
	Invitees   []string `json:"invitees"`
	Accepted   []string `json:"accepted"`
	Rejected   []string `json:"rejected"`
}

// Complete 所有受邀者是否都已接受
func (p AllianceProposal) Complete() bool {
	for _, id := range p.Invitees {
		if !slices.Contains(p.Accepted, id) {
			return false
		}
	}
	return true
}

// Clone 深拷贝
func (p AllianceProposal) Clone() AllianceProposal {
	c := p
	c.Invitees = slices.Clone(p.Invitees)
	c.Accepted = slices.Clone(p.Accepted)
	c.Rejected = slices.Clone(p.Rejected)
	return c
}

// GameProgress 全局回合状态
type GameProgress struct {
	CurrentPhase Phase    `json:"currentPhase"`
	DayCount     int      `json:"dayCount"`
	WeekCount    int      `json:"weekCount"`
	Hoh          string   `json:"hoh"`
	Nominees     []string `json:"nominees"`
	VetoHolder   string   `json:"vetoHolder"`
}

// Overlay 界面浮层状态，不参与存档
type Overlay struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GameState 完整游戏状态文档
type GameState struct {
	Players           []Player           `json:"players"`
	Alliances         []Alliance         `json:"alliances"`
	AllianceProposals []AllianceProposal `json:"allianceProposals"`
	Progress          GameProgress       `json:"progress"`
	Votes             map[string]string  `json:"votes"`     // 投票者 -> 被提名者
	JuryVotes         map[string]string  `json:"juryVotes"` // 评审 -> 决赛选手
	Overlay           *Overlay           `json:"overlay"`
	Winner            string             `json:"winner,omitempty"`
}

// NewGameState 初始空状态
func NewGameState() GameState {
	return GameState{
		Players:           []Player{},
		Alliances:         []Alliance{},
		AllianceProposals: []AllianceProposal{},
		Progress: GameProgress{
			CurrentPhase: PhaseIdle,
			WeekCount:    1,
			Nominees:     []string{},
		},
		Votes:     make(map[string]string),
		JuryVotes: make(map[string]string),
	}
}

// Clone 深拷贝，快照与内部状态互不影响
func (gs GameState) Clone() GameState {
	c := gs
	c.Players = ClonePlayers(gs.Players)
	c.Alliances = make([]Alliance, len(gs.Alliances))
	for i, a := range gs.Alliances {
		a.Members = slices.Clone(a.Members)
		c.Alliances[i] = a
	}
	c.AllianceProposals = make([]AllianceProposal, len(gs.AllianceProposals))
	for i, p := range gs.AllianceProposals {
		c.AllianceProposals[i] = p.Clone()
	}
	c.Progress.Nominees = slices.Clone(gs.Progress.Nominees)
	if c.Progress.Nominees == nil {
		c.Progress.Nominees = []string{}
	}
	c.Votes = make(map[string]string, len(gs.Votes))
	for k, v := range gs.Votes {
		c.Votes[k] = v
	}
	c.JuryVotes = make(map[string]string, len(gs.JuryVotes))
	for k, v := range gs.JuryVotes {
		c.JuryVotes[k] = v
	}
	if gs.Overlay != nil {
		overlay := *gs.Overlay
		c.Overlay = &overlay
	}
	return c
}

// PlayerIndex 返回玩家下标，不存在时返回 -1
func (gs *GameState) PlayerIndex(id string) int {
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Player 按ID查找玩家
func (gs *GameState) Player(id string) (*Player, bool) {
	idx := gs.PlayerIndex(id)
	if idx < 0 {
		return nil, false
	}
	return &gs.Players[idx], true
}

// InHousePlayers 未被驱逐的玩家
func (gs *GameState) InHousePlayers() []Player {
	players := make([]Player, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p.InHouse() {
			players = append(players, p)
		}
	}
	return players
}

// IsNominee 是否为本周被提名者
func (gs *GameState) IsNominee(id string) bool {
	return slices.Contains(gs.Progress.Nominees, id)
}

// EligibleVoters 有投票资格的玩家：在屋内、非户主、非被提名者
func (gs *GameState) EligibleVoters() []Player {
	voters := make([]Player, 0)
	for _, p := range gs.Players {
		if !p.InHouse() || p.ID == gs.Progress.Hoh || gs.IsNominee(p.ID) {
			continue
		}
		voters = append(voters, p)
	}
	return voters
}
