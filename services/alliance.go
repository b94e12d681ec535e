package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qianlnk/houseguest/models"
)

// RejectionPolicy 决定受邀者拒绝后如何处理联盟邀请。
// 返回 true 表示整个邀请作废。
type RejectionPolicy func(proposal *models.AllianceProposal, playerID string) bool

// CancelOnReject 任意一人拒绝即作废整个邀请（默认行为）
func CancelOnReject(proposal *models.AllianceProposal, playerID string) bool {
	return true
}

// DropRejectingInvitee 仅将拒绝者移出受邀名单，名单为空时作废
func DropRejectingInvitee(proposal *models.AllianceProposal, playerID string) bool {
	proposal.Invitees = slices.DeleteFunc(proposal.Invitees, func(id string) bool { return id == playerID })
	proposal.Accepted = slices.DeleteFunc(proposal.Accepted, func(id string) bool { return id == playerID })
	if playerID != "" && !slices.Contains(proposal.Rejected, playerID) {
		proposal.Rejected = append(proposal.Rejected, playerID)
	}
	return len(proposal.Invitees) == 0
}

// RejectionPolicyByName 根据配置名称选择拒绝策略
func RejectionPolicyByName(name string) (RejectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cancel":
		return CancelOnReject, nil
	case "drop_invitee":
		return DropRejectingInvitee, nil
	default:
		return nil, fmt.Errorf("未知的联盟拒绝策略: %q", name)
	}
}

// uniqueExisting 去重并校验所有玩家存在
func uniqueExisting(gs *models.GameState, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if gs.PlayerIndex(id) < 0 {
			return nil, fmtInvalid(id)
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// createAlliance 直接创建联盟并加入每个成员的联盟列表
func createAlliance(gs *models.GameState, allianceID, name string, members []string, secret bool) (models.Alliance, error) {
	members, err := uniqueExisting(gs, members)
	if err != nil {
		return models.Alliance{}, err
	}
	if len(members) == 0 {
		return models.Alliance{}, ErrEmptyAlliance
	}

	alliance := models.Alliance{
		ID:       allianceID,
		Name:     name,
		Members:  members,
		IsSecret: secret,
	}
	gs.Alliances = append(gs.Alliances, alliance)
	for _, id := range members {
		player, _ := gs.Player(id)
		if !slices.Contains(player.Alliances, allianceID) {
			player.Alliances = append(player.Alliances, allianceID)
		}
	}
	return alliance, nil
}

// proposeAlliance 创建联盟邀请，发起人自动接受
func proposeAlliance(gs *models.GameState, proposalID, name, proposerID string, invitees []string) (models.AllianceProposal, error) {
	if gs.PlayerIndex(proposerID) < 0 {
		return models.AllianceProposal{}, fmtInvalid(proposerID)
	}
	invitees, err := uniqueExisting(gs, invitees)
	if err != nil {
		return models.AllianceProposal{}, err
	}
	invitees = slices.DeleteFunc(invitees, func(id string) bool { return id == proposerID })
	if len(invitees) == 0 {
		return models.AllianceProposal{}, ErrEmptyAlliance
	}

	proposal := models.AllianceProposal{
		ID:         proposalID,
		Name:       name,
		ProposerID: proposerID,
		Invitees:   invitees,
		Accepted:   []string{proposerID},
		Rejected:   []string{},
	}
	gs.AllianceProposals = append(gs.AllianceProposals, proposal)
	return proposal, nil
}

func proposalIndex(gs *models.GameState, proposalID string) int {
	return slices.IndexFunc(gs.AllianceProposals, func(p models.AllianceProposal) bool {
		return p.ID == proposalID
	})
}

// acceptAlliance 受邀者接受邀请。全部受邀者接受后邀请转为联盟，返回新联盟。
func acceptAlliance(gs *models.GameState, proposalID, playerID, allianceID string) (*models.Alliance, error) {
	idx := proposalIndex(gs, proposalID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, proposalID)
	}
	proposal := &gs.AllianceProposals[idx]
	if !slices.Contains(proposal.Invitees, playerID) {
		return nil, fmt.Errorf("%w: %s", ErrNotInvitee, playerID)
	}
	if !slices.Contains(proposal.Accepted, playerID) {
		proposal.Accepted = append(proposal.Accepted, playerID)
	}
	return materializeIfComplete(gs, idx, allianceID)
}

// rejectAlliance 受邀者拒绝邀请，按策略决定是否作废。
// 在 DropRejectingInvitee 策略下，剩余受邀者若已全部接受，邀请同样转为联盟。
// playerID 为空表示撤销整个邀请。
func rejectAlliance(gs *models.GameState, proposalID, playerID, allianceID string, policy RejectionPolicy) (*models.Alliance, error) {
	idx := proposalIndex(gs, proposalID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, proposalID)
	}
	proposal := &gs.AllianceProposals[idx]
	if playerID != "" && !slices.Contains(proposal.Invitees, playerID) {
		return nil, fmt.Errorf("%w: %s", ErrNotInvitee, playerID)
	}
	if policy == nil {
		policy = CancelOnReject
	}
	// 未指明玩家时按撤销处理，与策略无关
	if playerID == "" || policy(proposal, playerID) {
		gs.AllianceProposals = slices.Delete(gs.AllianceProposals, idx, idx+1)
		return nil, nil
	}
	return materializeIfComplete(gs, idx, allianceID)
}

func materializeIfComplete(gs *models.GameState, idx int, allianceID string) (*models.Alliance, error) {
	proposal := gs.AllianceProposals[idx]
	if !proposal.Complete() {
		return nil, nil
	}
	gs.AllianceProposals = slices.Delete(gs.AllianceProposals, idx, idx+1)
	alliance, err := createAlliance(gs, allianceID, proposal.Name, proposal.Accepted, false)
	if err != nil {
		return nil, err
	}
	return &alliance, nil
}
