package services

import (
	"fmt"

	"github.com/qianlnk/houseguest/models"
)

// testState 创建只含真人房客的初始状态
func testState(ids ...string) models.GameState {
	gs := models.NewGameState()
	for _, id := range ids {
		gs.Players = append(gs.Players, models.NewHumanPlayer(id, "player "+id))
	}
	return gs
}

// sequentialIDs 生成可预测的ID
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEngine(ids ...string) *Engine {
	e := NewEngine(WithIDGenerator(sequentialIDs("id")))
	players := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, models.NewHumanPlayer(id, "player "+id))
	}
	e.SetPlayers(players)
	return e
}
