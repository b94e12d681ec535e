package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/qianlnk/houseguest/models"
)

// 房客名册操作。这些函数直接修改传入的状态，由 Engine 在副本上调用。

// setPlayers 整体替换名册，不做校验
func setPlayers(gs *models.GameState, players []models.Player) {
	gs.Players = models.ClonePlayers(players)
	if gs.Players == nil {
		gs.Players = []models.Player{}
	}
}

// setHohWinner 设置户主并增加其户主胜场
func setHohWinner(gs *models.GameState, playerID string) error {
	player, ok := gs.Player(playerID)
	if !ok {
		return fmtInvalid(playerID)
	}
	player.Stats.HohWins++
	gs.Progress.Hoh = playerID
	return nil
}

// setNominees 设置被提名者。
// 只有本次从非提名状态进入提名状态的房客才会增加提名次数，
// 不在新名单中的原被提名者恢复为 active。数量不在此处校验。
func setNominees(gs *models.GameState, ids []string) error {
	nominees := make([]string, 0, len(ids))
	for _, id := range ids {
		player, ok := gs.Player(id)
		if !ok {
			return fmtInvalid(id)
		}
		if !player.InHouse() {
			return fmt.Errorf("%w: %s 已被驱逐", ErrIneligibleNominee, id)
		}
		if !slices.Contains(nominees, id) {
			nominees = append(nominees, id)
		}
	}

	for i := range gs.Players {
		player := &gs.Players[i]
		selected := slices.Contains(nominees, player.ID)
		switch {
		case selected && player.Status != models.StatusNominated:
			player.Status = models.StatusNominated
			player.Stats.Nominations++
		case !selected && player.Status == models.StatusNominated:
			player.Status = models.StatusActive
		}
	}
	gs.Progress.Nominees = nominees
	return nil
}

// setVetoHolder 设置否决权持有者并增加其否决权胜场
func setVetoHolder(gs *models.GameState, playerID string) error {
	player, ok := gs.Player(playerID)
	if !ok {
		return fmtInvalid(playerID)
	}
	player.Stats.PovWins++
	gs.Progress.VetoHolder = playerID
	return nil
}

// evictPlayer 驱逐房客
func evictPlayer(gs *models.GameState, playerID string) error {
	player, ok := gs.Player(playerID)
	if !ok {
		return fmtInvalid(playerID)
	}
	player.Status = models.StatusEvicted
	return nil
}

// findPlayersByName 按名称模糊查找房客，结果按匹配距离排序
func findPlayersByName(players []models.Player, name string) []models.Player {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = strings.ToLower(p.Name)
	}

	ranks := fuzzy.RankFind(query, names)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})

	matches := make([]models.Player, 0, len(ranks))
	for _, rank := range ranks {
		matches = append(matches, players[rank.OriginalIndex].Clone())
	}
	return matches
}

func fmtInvalid(id string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPlayerID, id)
}
