package services

import (
	"math/rand"
	"testing"

	"github.com/qianlnk/houseguest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestController p1 为真人，p2-p5 为AI
func newTestController(t *testing.T, opts ...EngineOption) *GameController {
	t.Helper()
	e := NewEngine(opts...)
	e.SetPlayers([]models.Player{
		models.NewHumanPlayer("p1", "Human"),
		models.NewAIPlayer("p2", "Avery", models.Aggressive),
		models.NewAIPlayer("p3", "Blake", models.Analytical),
		models.NewAIPlayer("p4", "Casey", models.Deceptive),
		models.NewAIPlayer("p5", "Dakota", models.Analytical),
	})
	return NewGameController(e, rand.New(rand.NewSource(7)), DefaultMinPlayers)
}

func TestStartGameRequiresPlayers(t *testing.T) {
	e := newTestEngine("a", "b", "c")
	gc := NewGameController(e, rand.New(rand.NewSource(1)), DefaultMinPlayers)

	assert.ErrorIs(t, gc.StartGame(), ErrNotEnoughPlayers)
	assert.Equal(t, models.PhaseIdle, e.Phase())
}

func TestHumanControlledWeek(t *testing.T) {
	gc := newTestController(t)
	e := gc.Engine()

	require.NoError(t, gc.StartGame())
	assert.ErrorIs(t, gc.StartGame(), ErrInvalidPhase)
	state := e.Snapshot()
	assert.Equal(t, models.PhaseHohCompetition, state.Progress.CurrentPhase)
	assert.Equal(t, 1, state.Progress.DayCount)
	assert.Equal(t, 1, state.Progress.WeekCount)

	// 阶段不对时拒绝
	_, err := gc.Nominate([]string{"p2", "p3"})
	assert.ErrorIs(t, err, ErrInvalidPhase)

	hoh, err := gc.CompleteHoh("p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", hoh)

	_, err = gc.Nominate(nil)
	assert.ErrorIs(t, err, ErrDecisionRequired)
	_, err = gc.Nominate([]string{"p1", "p2"})
	assert.ErrorIs(t, err, ErrIneligibleNominee)
	_, err = gc.Nominate([]string{"p2", "p2"})
	assert.ErrorIs(t, err, ErrNomineeCount)
	assert.Equal(t, models.PhaseNominationCeremony, e.Phase())

	nominees, err := gc.Nominate([]string{"p2", "p3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, nominees)

	_, err = gc.CompleteVeto("p2")
	require.NoError(t, err)

	_, err = gc.VetoCeremony(&VetoDecision{Use: true, SaveID: "p2"})
	assert.ErrorIs(t, err, ErrReplacementRequired)
	_, err = gc.VetoCeremony(&VetoDecision{Use: true, SaveID: "p2", ReplacementID: "p1"})
	assert.ErrorIs(t, err, ErrIneligibleNominee)
	_, err = gc.VetoCeremony(&VetoDecision{Use: true, SaveID: "p5", ReplacementID: "p4"})
	assert.ErrorIs(t, err, ErrNotNominee)

	decision, err := gc.VetoCeremony(&VetoDecision{Use: true, SaveID: "p2", ReplacementID: "p4"})
	require.NoError(t, err)
	assert.Equal(t, "p4", decision.ReplacementID)

	state = e.Snapshot()
	assert.Equal(t, models.PhaseEvictionVoting, state.Progress.CurrentPhase)
	assert.Equal(t, []string{"p4", "p3"}, state.Progress.Nominees)
	p2, _ := state.Player("p2")
	p4, _ := state.Player("p4")
	assert.Equal(t, models.StatusActive, p2.Status)
	assert.Equal(t, models.StatusNominated, p4.Status)
	assert.Equal(t, 1, p4.Stats.Nominations)

	assert.ErrorIs(t, gc.CastVote("p1", "p3"), ErrIneligibleVoter)
	assert.ErrorIs(t, gc.CastVote("p2", "p2"), ErrNotNominee)
	require.NoError(t, gc.CastVote("p2", "p3"))
	require.NoError(t, gc.CastVote("p5", "p3"))

	result, err := gc.ResolveEviction()
	require.NoError(t, err)
	assert.Equal(t, "p3", result.Selected)
	assert.Equal(t, models.PhaseWeeklySummary, e.Phase())

	ended, err := gc.CompleteWeek()
	require.NoError(t, err)
	assert.False(t, ended)

	state = e.Snapshot()
	assert.Equal(t, models.PhaseHohCompetition, state.Progress.CurrentPhase)
	assert.Equal(t, 2, state.Progress.WeekCount)
	assert.Equal(t, 9, state.Progress.DayCount)
	assert.Empty(t, state.Progress.Hoh)
	assert.Empty(t, state.Progress.Nominees)
	assert.Empty(t, state.Votes)
	p3, _ := state.Player("p3")
	assert.Equal(t, models.StatusEvicted, p3.Status)
	p4, _ = state.Player("p4")
	assert.Equal(t, models.StatusActive, p4.Status)
	assert.Equal(t, 7, p4.Stats.DaysInHouse)
}

func TestResolveEvictionWaitsForHumanVoter(t *testing.T) {
	gc := newTestController(t)

	require.NoError(t, gc.StartGame())
	_, err := gc.CompleteHoh("p2")
	require.NoError(t, err)
	_, err = gc.Nominate([]string{"p3", "p4"})
	require.NoError(t, err)
	_, err = gc.CompleteVeto("p5")
	require.NoError(t, err)
	_, err = gc.VetoCeremony(&VetoDecision{})
	require.NoError(t, err)

	_, err = gc.ResolveEviction()
	assert.ErrorIs(t, err, ErrVotesPending)

	// AI投票已保留
	state := gc.Engine().Snapshot()
	assert.Contains(t, state.Votes, "p5")
	assert.Equal(t, models.PhaseEvictionVoting, state.Progress.CurrentPhase)

	require.NoError(t, gc.CastVote("p1", "p4"))
	result, err := gc.ResolveEviction()
	require.NoError(t, err)
	assert.Contains(t, []string{"p3", "p4"}, result.Selected)
}

func TestHumanHohBreaksTie(t *testing.T) {
	gc := newTestController(t, WithTieBreaker(HohDecides))

	require.NoError(t, gc.StartGame())
	_, err := gc.CompleteHoh("p1")
	require.NoError(t, err)
	_, err = gc.Nominate([]string{"p2", "p3"})
	require.NoError(t, err)
	_, err = gc.CompleteVeto("p4")
	require.NoError(t, err)
	_, err = gc.VetoCeremony(&VetoDecision{})
	require.NoError(t, err)
	require.NoError(t, gc.CastVote("p4", "p2"))
	require.NoError(t, gc.CastVote("p5", "p3"))

	_, err = gc.ResolveEviction()
	assert.ErrorIs(t, err, ErrTieBreakRequired)

	assert.ErrorIs(t, gc.CastTieBreak("p4"), ErrNotNominee)
	require.NoError(t, gc.CastTieBreak("p3"))
	result, err := gc.ResolveEviction()
	require.NoError(t, err)
	assert.Equal(t, "p3", result.Selected)
}

func TestAIGamePlaysToWinner(t *testing.T) {
	e := NewEngine(WithTieBreaker(HohDecides))
	rng := rand.New(rand.NewSource(42))
	e.SetPlayers(GenerateRoster("", 6, rng))
	gc := NewGameController(e, rng, DefaultMinPlayers)

	require.NoError(t, gc.StartGame())
	weeks := 0
	for {
		weeks++
		require.Less(t, weeks, 10, "game did not end")

		_, err := gc.CompleteHoh("")
		require.NoError(t, err)
		_, err = gc.Nominate(nil)
		require.NoError(t, err)
		_, err = gc.CompleteVeto("")
		require.NoError(t, err)
		_, err = gc.VetoCeremony(nil)
		require.NoError(t, err)
		_, err = gc.ResolveEviction()
		require.NoError(t, err)
		ended, err := gc.CompleteWeek()
		require.NoError(t, err)
		if ended {
			break
		}
	}

	state := e.Snapshot()
	assert.Equal(t, models.PhaseEndGame, state.Progress.CurrentPhase)
	assert.Len(t, state.InHousePlayers(), FinalistCount)
	assert.Equal(t, 4, weeks)

	result, err := gc.CrownWinner()
	require.NoError(t, err)
	assert.Equal(t, 4, result.VoteCount)

	final := e.Snapshot()
	winner, ok := final.Player(result.Selected)
	require.True(t, ok)
	assert.True(t, winner.InHouse())
	assert.Equal(t, result.Selected, final.Winner)
}

func TestCrownWinnerWaitsForHumanJuror(t *testing.T) {
	e := NewEngine()
	e.SetPlayers([]models.Player{
		models.NewAIPlayer("f1", "F1", models.Aggressive),
		models.NewAIPlayer("f2", "F2", models.Analytical),
		models.NewHumanPlayer("j1", "Juror"),
		models.NewAIPlayer("j2", "J2", models.Deceptive),
	})
	require.NoError(t, e.mutate("setup", func(gs *models.GameState) error {
		gs.Players[2].Status = models.StatusEvicted
		gs.Players[3].Status = models.StatusEvicted
		return setPhase(gs, models.PhaseEndGame)
	}))
	gc := NewGameController(e, rand.New(rand.NewSource(3)), DefaultMinPlayers)

	_, err := gc.CrownWinner()
	assert.ErrorIs(t, err, ErrVotesPending)

	assert.ErrorIs(t, gc.CastJuryVote("f1", "f2"), ErrIneligibleVoter)
	assert.ErrorIs(t, gc.CastJuryVote("j1", "j2"), ErrNotNominee)
	require.NoError(t, gc.CastJuryVote("j1", "f1"))

	result, err := gc.CrownWinner()
	require.NoError(t, err)
	assert.Equal(t, 2, result.VoteCount)
	assert.Contains(t, []string{"f1", "f2"}, result.Selected)
}

func TestAIVetoHolderWithHumanHoh(t *testing.T) {
	gc := newTestController(t)
	e := gc.Engine()

	require.NoError(t, gc.StartGame())
	_, err := gc.CompleteHoh("p1")
	require.NoError(t, err)
	_, err = gc.Nominate([]string{"p2", "p3"})
	require.NoError(t, err)
	_, err = gc.CompleteVeto("p2")
	require.NoError(t, err)

	// 被提名的AI持有者总会救自己
	decision, err := gc.VetoCeremony(nil)
	assert.ErrorIs(t, err, ErrReplacementRequired)
	assert.Equal(t, VetoDecision{Use: true, SaveID: "p2"}, decision)
	assert.Equal(t, models.PhaseVetoCeremony, e.Phase())

	decision, err = gc.VetoCeremony(nil)
	assert.ErrorIs(t, err, ErrReplacementRequired)
	assert.Equal(t, "p2", decision.SaveID)

	_, err = gc.VetoCeremony(&VetoDecision{ReplacementID: "p1"})
	assert.ErrorIs(t, err, ErrIneligibleNominee)

	decision, err = gc.VetoCeremony(&VetoDecision{ReplacementID: "p4"})
	require.NoError(t, err)
	assert.Equal(t, VetoDecision{Use: true, SaveID: "p2", ReplacementID: "p4"}, decision)

	state := e.Snapshot()
	assert.Equal(t, models.PhaseEvictionVoting, state.Progress.CurrentPhase)
	assert.Equal(t, []string{"p4", "p3"}, state.Progress.Nominees)
	assert.Nil(t, gc.pendingVeto)
}
