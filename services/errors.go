package services

import (
	"errors"

	"github.com/qianlnk/houseguest/models"
)

var (
	ErrInvalidPlayerID     = models.ErrInvalidPlayerID
	ErrSelfInteraction     = models.ErrSelfInteraction
	ErrProposalNotFound    = errors.New("联盟邀请不存在")
	ErrNotInvitee          = errors.New("玩家不在受邀名单中")
	ErrEmptyAlliance       = errors.New("联盟至少需要一名成员")
	ErrGameNotStarted      = errors.New("游戏尚未开始")
	ErrGameNotFound        = errors.New("游戏不存在")
	ErrNotEnoughPlayers    = errors.New("玩家人数不足")
	ErrInvalidPhase        = errors.New("当前阶段无法执行该动作")
	ErrNomineeCount        = errors.New("必须提名两名不同的房客")
	ErrIneligibleNominee   = errors.New("该房客不能被提名")
	ErrIneligibleWinner    = errors.New("该房客不能参加本次竞赛")
	ErrIneligibleVoter     = errors.New("该房客没有投票资格")
	ErrNotNominee          = errors.New("该房客不是被提名者")
	ErrVotesPending        = errors.New("仍有房客尚未投票")
	ErrTieBreakRequired    = errors.New("平票，需要户主投出决定票")
	ErrReplacementRequired = errors.New("使用否决权后必须指定替补提名")
	ErrDecisionRequired    = errors.New("需要真人玩家做出决定")
	ErrSaveNotFound        = errors.New("存档不存在")
	ErrVersionMismatch     = errors.New("存档版本不兼容")
	ErrCorruptSave         = errors.New("存档数据损坏")
)
