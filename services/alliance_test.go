package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalBecomesAllianceWhenAllAccept(t *testing.T) {
	e := newTestEngine("a", "b", "c")

	proposal, err := e.ProposeAlliance("Trio", "a", []string{"b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, proposal.Accepted)

	alliance, err := e.AcceptAlliance(proposal.ID, "b")
	require.NoError(t, err)
	assert.Nil(t, alliance)
	assert.Empty(t, e.Snapshot().Alliances)
	assert.Len(t, e.Snapshot().AllianceProposals, 1)

	alliance, err = e.AcceptAlliance(proposal.ID, "c")
	require.NoError(t, err)
	require.NotNil(t, alliance)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, alliance.Members)

	state := e.Snapshot()
	assert.Empty(t, state.AllianceProposals)
	require.Len(t, state.Alliances, 1)
	for _, p := range state.Players {
		assert.Equal(t, []string{alliance.ID}, p.Alliances)
	}
}

func TestRejectCancelsProposal(t *testing.T) {
	e := newTestEngine("a", "b", "c")

	proposal, err := e.ProposeAlliance("Trio", "a", []string{"b", "c"})
	require.NoError(t, err)
	_, err = e.AcceptAlliance(proposal.ID, "b")
	require.NoError(t, err)

	alliance, err := e.RejectAlliance(proposal.ID, "c")
	require.NoError(t, err)
	assert.Nil(t, alliance)

	state := e.Snapshot()
	assert.Empty(t, state.AllianceProposals)
	assert.Empty(t, state.Alliances)

	_, err = e.AcceptAlliance(proposal.ID, "c")
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestDropRejectingInviteePolicy(t *testing.T) {
	e := NewEngine(WithIDGenerator(sequentialIDs("id")), WithRejectionPolicy(DropRejectingInvitee))
	e.SetPlayers(testState("a", "b", "c").Players)

	proposal, err := e.ProposeAlliance("Trio", "a", []string{"b", "c"})
	require.NoError(t, err)
	_, err = e.AcceptAlliance(proposal.ID, "b")
	require.NoError(t, err)

	alliance, err := e.RejectAlliance(proposal.ID, "c")
	require.NoError(t, err)
	require.NotNil(t, alliance)
	assert.Equal(t, []string{"a", "b"}, alliance.Members)
	assert.Empty(t, e.Snapshot().AllianceProposals)
}

func TestDropRejectingInviteeKeepsPendingProposal(t *testing.T) {
	e := NewEngine(WithIDGenerator(sequentialIDs("id")), WithRejectionPolicy(DropRejectingInvitee))
	e.SetPlayers(testState("a", "b", "c").Players)

	proposal, err := e.ProposeAlliance("Trio", "a", []string{"b", "c"})
	require.NoError(t, err)

	alliance, err := e.RejectAlliance(proposal.ID, "c")
	require.NoError(t, err)
	assert.Nil(t, alliance)

	state := e.Snapshot()
	require.Len(t, state.AllianceProposals, 1)
	assert.Equal(t, []string{"b"}, state.AllianceProposals[0].Invitees)
	assert.Equal(t, []string{"c"}, state.AllianceProposals[0].Rejected)
}

func TestWithdrawProposalUnderEveryPolicy(t *testing.T) {
	scenarios := []struct {
		name   string
		policy RejectionPolicy
	}{
		{"cancel", CancelOnReject},
		{"drop invitee", DropRejectingInvitee},
	}
	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			e := NewEngine(WithIDGenerator(sequentialIDs("id")), WithRejectionPolicy(scenario.policy))
			e.SetPlayers(testState("a", "b", "c").Players)

			proposal, err := e.ProposeAlliance("Trio", "a", []string{"b", "c"})
			require.NoError(t, err)
			_, err = e.AcceptAlliance(proposal.ID, "b")
			require.NoError(t, err)

			alliance, err := e.RejectAlliance(proposal.ID, "")
			require.NoError(t, err)
			assert.Nil(t, alliance)
			state := e.Snapshot()
			assert.Empty(t, state.AllianceProposals)
			assert.Empty(t, state.Alliances)
		})
	}
}

func TestAllianceErrors(t *testing.T) {
	e := newTestEngine("a", "b", "c")

	_, err := e.CreateAlliance("Ghosts", []string{"a", "ghost"}, false)
	assert.ErrorIs(t, err, ErrInvalidPlayerID)

	_, err = e.CreateAlliance("Nobody", nil, true)
	assert.ErrorIs(t, err, ErrEmptyAlliance)

	_, err = e.ProposeAlliance("Solo", "a", []string{"a"})
	assert.ErrorIs(t, err, ErrEmptyAlliance)

	proposal, err := e.ProposeAlliance("Duo", "a", []string{"b"})
	require.NoError(t, err)
	_, err = e.AcceptAlliance(proposal.ID, "c")
	assert.ErrorIs(t, err, ErrNotInvitee)

	_, err = e.AcceptAlliance("missing", "b")
	assert.ErrorIs(t, err, ErrProposalNotFound)

	assert.Empty(t, e.Snapshot().Alliances)
}

func TestCreateAllianceIsImmediate(t *testing.T) {
	e := newTestEngine("a", "b")

	alliance, err := e.CreateAlliance("Secret", []string{"a", "b", "a"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, alliance.Members)
	assert.True(t, alliance.IsSecret)
	assert.Equal(t, "id-1", alliance.ID)
}

func TestRejectionPolicyByName(t *testing.T) {
	for _, name := range []string{"", "cancel", "drop_invitee", " Drop_Invitee "} {
		policy, err := RejectionPolicyByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, policy)
	}

	_, err := RejectionPolicyByName("ignore")
	assert.Error(t, err)
}
