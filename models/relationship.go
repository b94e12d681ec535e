package models

import (
	"errors"
	"fmt"
)

// ErrSelfInteraction 玩家不能与自己互动
var ErrSelfInteraction = errors.New("玩家不能与自己互动")

// RelationshipType 关系类型，由 ExtraPoints 推导
type RelationshipType string

const (
	Friendly RelationshipType = "friendly" // 友好
	Neutral  RelationshipType = "neutral"  // 中立
	Hostile  RelationshipType = "hostile"  // 敌对
)

const (
	// FriendlyThreshold ExtraPoints 大于该值为友好
	FriendlyThreshold = 20
	// HostileThreshold ExtraPoints 小于该值为敌对
	HostileThreshold = -20
)

var baseScores = map[RelationshipType]int{
	Friendly: 50,
	Neutral:  25,
	Hostile:  0,
}

// Relationship 单向关系记录，由持有者保存
type Relationship struct {
	Type        RelationshipType `json:"type"`
	ExtraPoints int              `json:"extraPoints"`
}

// TypeForPoints 根据 ExtraPoints 计算关系类型
func TypeForPoints(extraPoints int) RelationshipType {
	switch {
	case extraPoints > FriendlyThreshold:
		return Friendly
	case extraPoints < HostileThreshold:
		return Hostile
	default:
		return Neutral
	}
}

// RelationshipBetween 返回 owner 对 other 的关系，不存在时返回默认中立关系。
// 只读取 owner 的记录。
func RelationshipBetween(owner, other Player) Relationship {
	if rel, ok := owner.Relationships[other.ID]; ok {
		return rel
	}
	return Relationship{Type: Neutral}
}

// RelationshipScore 关系分数 = 类型基础分 + ExtraPoints，不做截断，可能超出 0-100
func RelationshipScore(rel Relationship) int {
	return baseScores[rel.Type] + rel.ExtraPoints
}

// ApplyInteraction 返回新的玩家列表，其中 ownerID 对 otherID 的 ExtraPoints 增加 delta，
// 并重新推导关系类型。反向关系不受影响。
func ApplyInteraction(players []Player, ownerID, otherID string, delta int) ([]Player, error) {
	if ownerID == otherID {
		return nil, fmt.Errorf("%w: %s", ErrSelfInteraction, ownerID)
	}
	ownerIdx, otherIdx := -1, -1
	for i := range players {
		switch players[i].ID {
		case ownerID:
			ownerIdx = i
		case otherID:
			otherIdx = i
		}
	}
	if ownerIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlayerID, ownerID)
	}
	if otherIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlayerID, otherID)
	}

	updated := ClonePlayers(players)
	owner := &updated[ownerIdx]
	if owner.Relationships == nil {
		owner.Relationships = make(map[string]Relationship)
	}
	rel := owner.Relationships[otherID]
	rel.ExtraPoints += delta
	rel.Type = TypeForPoints(rel.ExtraPoints)
	owner.Relationships[otherID] = rel
	return updated, nil
}
