package services

import (
	"testing"

	"github.com/qianlnk/houseguest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGameGeneratesRoster(t *testing.T) {
	sm := NewSessionManager(SessionSettings{RosterSize: 6, Seed: 11}, nil)

	session := sm.CreateGame("Robin", nil)
	state := session.Engine.Snapshot()

	require.Len(t, state.Players, 6)
	assert.Equal(t, "Robin", state.Players[0].Name)
	assert.True(t, state.Players[0].IsHuman)
	for _, p := range state.Players[1:] {
		assert.True(t, p.IsAI, p.Name)
		assert.Contains(t, models.Personalities, p.Personality)
	}
	assert.Equal(t, models.PhaseIdle, state.Progress.CurrentPhase)
	require.NoError(t, session.Controller.StartGame())
}

func TestCreateGameWithPlayers(t *testing.T) {
	sm := NewSessionManager(SessionSettings{}, nil)

	players := testState("a", "b", "c", "d").Players
	session := sm.CreateGame("ignored", players)
	assert.Len(t, session.Engine.Snapshot().Players, 4)
}

func TestSessionSettingsApplyPolicies(t *testing.T) {
	sm := NewSessionManager(SessionSettings{RejectionPolicy: DropRejectingInvitee}, nil)
	session := sm.CreateGame("", testState("a", "b", "c", "d").Players)

	proposal, err := session.Engine.ProposeAlliance("Trio", "a", []string{"b", "c"})
	require.NoError(t, err)
	_, err = session.Engine.RejectAlliance(proposal.ID, "c")
	require.NoError(t, err)
	assert.Len(t, session.Engine.Snapshot().AllianceProposals, 1)
}

func TestSessionLookup(t *testing.T) {
	sm := NewSessionManager(SessionSettings{Seed: 5}, NewWebSocketManager())

	first := sm.CreateGame("One", nil)
	second := sm.CreateGame("Two", nil)

	got, err := sm.GetGame(first.ID)
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Len(t, sm.ListGames(), 2)

	require.NoError(t, sm.DeleteGame(second.ID))
	_, err = sm.GetGame(second.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, sm.DeleteGame(second.ID), ErrGameNotFound)
	assert.Len(t, sm.ListGames(), 1)
}

func TestSessionManagerEnforcesMinimumRoster(t *testing.T) {
	sm := NewSessionManager(SessionSettings{MinPlayers: 2, RosterSize: 1}, nil)

	session := sm.CreateGame("", nil)
	assert.Len(t, session.Engine.Snapshot().Players, DefaultMinPlayers)
}
