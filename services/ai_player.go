package services

import (
	"math/rand"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/qianlnk/houseguest/models"
)

// aiNames AI房客名称池
var aiNames = []string{
	"Avery", "Blake", "Casey", "Dakota", "Emerson", "Finley", "Gray", "Harper",
	"Indy", "Jordan", "Kai", "Logan", "Morgan", "Noel", "Oakley", "Parker",
	"Quinn", "Reese", "Sage", "Taylor",
}

// GenerateRoster 生成开局名册：一名真人房客加 aiCount 名AI房客
func GenerateRoster(humanName string, aiCount int, rng *rand.Rand) []models.Player {
	players := make([]models.Player, 0, aiCount+1)
	if humanName != "" {
		players = append(players, models.NewHumanPlayer(uuid.NewString(), humanName))
	}

	names := slices.Clone(aiNames)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	for i := 0; i < aiCount; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = name + " " + string(rune('A'+i/len(names)))
		}
		personality := models.Personalities[rng.Intn(len(models.Personalities))]
		players = append(players, models.NewAIPlayer(uuid.NewString(), name, personality))
	}
	return players
}

// AIPlayer AI房客决策器，所有决策基于状态快照同步完成
type AIPlayer struct {
	ID          string
	Personality models.AIPersonality
	rng         *rand.Rand
}

// NewAIPlayer 创建AI决策器实例
func NewAIPlayer(player models.Player, rng *rand.Rand) *AIPlayer {
	return &AIPlayer{
		ID:          player.ID,
		Personality: player.Personality,
		rng:         rng,
	}
}

// RunCompetition 模拟一场竞赛，返回得分最高的参赛者
func RunCompetition(contestants []models.Player, rng *rand.Rand) string {
	winner := ""
	best := -1.0
	for _, p := range contestants {
		score := rng.Float64() * 100
		switch p.Personality {
		case models.Aggressive:
			// 激进型更拼
			score += 10
		case models.Analytical:
			score += 5
		}
		if score > best {
			best = score
			winner = p.ID
		}
	}
	return winner
}

// relationTo 当前AI对 other 的关系
func (ai *AIPlayer) relationTo(gs *models.GameState, otherID string) models.Relationship {
	self, ok := gs.Player(ai.ID)
	if !ok {
		return models.Relationship{Type: models.Neutral}
	}
	return models.RelationshipBetween(*self, models.Player{ID: otherID})
}

// scoreOf 当前AI对 other 的关系分数
func (ai *AIPlayer) scoreOf(gs *models.GameState, otherID string) int {
	return models.RelationshipScore(ai.relationTo(gs, otherID))
}

// sharesAlliance 是否与 other 同属某个联盟
func (ai *AIPlayer) sharesAlliance(gs *models.GameState, otherID string) bool {
	for _, a := range gs.Alliances {
		if a.HasMember(ai.ID) && a.HasMember(otherID) {
			return true
		}
	}
	return false
}

// threat 威胁度：竞赛胜场越多越危险
func threat(p models.Player) int {
	return p.Stats.HohWins + p.Stats.PovWins
}

// ChooseNominees 户主选择两名被提名者
func (ai *AIPlayer) ChooseNominees(gs *models.GameState) []string {
	candidates := make([]models.Player, 0)
	allies := make([]models.Player, 0)
	for _, p := range gs.Players {
		if !p.InHouse() || p.ID == ai.ID {
			continue
		}
		if ai.sharesAlliance(gs, p.ID) {
			allies = append(allies, p)
		} else {
			candidates = append(candidates, p)
		}
	}
	ai.rank(gs, candidates)
	if len(candidates) < 2 {
		// 不得不提名盟友
		ai.rank(gs, allies)
		candidates = append(candidates, allies...)
	}
	if len(candidates) < 2 {
		return nil
	}
	return []string{candidates[0].ID, candidates[1].ID}
}

// rank 按最想送走的顺序排序
func (ai *AIPlayer) rank(gs *models.GameState, players []models.Player) {
	ai.rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
	sort.SliceStable(players, func(i, j int) bool {
		if ai.Personality == models.Aggressive && threat(players[i]) != threat(players[j]) {
			return threat(players[i]) > threat(players[j])
		}
		return ai.scoreOf(gs, players[i].ID) < ai.scoreOf(gs, players[j].ID)
	})
}

// VetoDecision 否决权仪式决定
type VetoDecision struct {
	Use           bool   `json:"use"`
	SaveID        string `json:"save_id"`
	ReplacementID string `json:"replacement_id"`
}

// DecideVeto 否决权持有者决定是否使用否决权
func (ai *AIPlayer) DecideVeto(gs *models.GameState) VetoDecision {
	nominees := gs.Progress.Nominees
	if slices.Contains(nominees, ai.ID) {
		return VetoDecision{Use: true, SaveID: ai.ID}
	}

	best := ""
	bestScore := 0
	for _, id := range nominees {
		score := ai.scoreOf(gs, id)
		if ai.sharesAlliance(gs, id) {
			score += 100
		}
		if score > bestScore {
			best = id
			bestScore = score
		}
	}

	if best != "" && (ai.sharesAlliance(gs, best) || ai.relationTo(gs, best).Type == models.Friendly) {
		return VetoDecision{Use: true, SaveID: best}
	}
	return VetoDecision{}
}

// ChooseReplacement 户主在否决权使用后选择替补提名
func (ai *AIPlayer) ChooseReplacement(gs *models.GameState) string {
	candidates := make([]models.Player, 0)
	for _, p := range replacementCandidates(gs) {
		if p.ID != ai.ID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	ai.rank(gs, candidates)
	// 尽量不送盟友上台
	for _, p := range candidates {
		if !ai.sharesAlliance(gs, p.ID) {
			return p.ID
		}
	}
	return candidates[0].ID
}

// ChooseVote 投票驱逐：投给关系更差的被提名者
func (ai *AIPlayer) ChooseVote(gs *models.GameState) string {
	return ai.pickLeastLiked(gs, gs.Progress.Nominees)
}

// ChooseJuryVote 评审投票：投给关系更好的决赛选手
func (ai *AIPlayer) ChooseJuryVote(gs *models.GameState, finalists []string) string {
	if len(finalists) == 0 {
		return ""
	}
	best := finalists[ai.rng.Intn(len(finalists))]
	for _, id := range finalists {
		if ai.scoreOf(gs, id) > ai.scoreOf(gs, best) {
			best = id
		}
	}
	return best
}

func (ai *AIPlayer) pickLeastLiked(gs *models.GameState, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	// 伪装型在分数接近时随机投票，避免暴露立场
	worst := ids[ai.rng.Intn(len(ids))]
	for _, id := range ids {
		diff := ai.scoreOf(gs, worst) - ai.scoreOf(gs, id)
		if ai.Personality == models.Deceptive && diff < 10 {
			continue
		}
		if diff > 0 {
			worst = id
		}
	}
	return worst
}

// replacementCandidates 可作为替补提名的房客：在屋、非户主、非否决权持有者、非被提名者
func replacementCandidates(gs *models.GameState) []models.Player {
	candidates := make([]models.Player, 0)
	for _, p := range gs.Players {
		if !p.InHouse() || p.ID == gs.Progress.Hoh || p.ID == gs.Progress.VetoHolder || gs.IsNominee(p.ID) {
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates
}
