package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/qianlnk/houseguest/models"
	"github.com/qianlnk/houseguest/storage"
)

// SaveVersion 当前存档格式版本，加载时版本必须一致
const SaveVersion = "1.0"

// SaveData 存档文档
type SaveData struct {
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	GameState SavedGameState `json:"gameState"`
}

// SavedGameState 存档中的游戏状态。联盟邀请、投票和浮层不写入存档。
type SavedGameState struct {
	Players      []models.Player   `json:"players"`
	Alliances    []models.Alliance `json:"alliances"`
	CurrentPhase models.Phase      `json:"currentPhase"`
	Nominees     []string          `json:"nominees"`
	Hoh          *string           `json:"hoh"`
	VetoHolder   *string           `json:"vetoHolder"`
	DayCount     int               `json:"dayCount"`
	WeekCount    int               `json:"weekCount"`
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// EncodeSave 将游戏状态编码为存档
func EncodeSave(gs models.GameState, now time.Time) ([]byte, error) {
	data := SaveData{
		Version:   SaveVersion,
		Timestamp: now.UTC().Format(time.RFC3339),
		GameState: SavedGameState{
			Players:      gs.Players,
			Alliances:    gs.Alliances,
			CurrentPhase: gs.Progress.CurrentPhase,
			Nominees:     gs.Progress.Nominees,
			Hoh:          optional(gs.Progress.Hoh),
			VetoHolder:   optional(gs.Progress.VetoHolder),
			DayCount:     gs.Progress.DayCount,
			WeekCount:    gs.Progress.WeekCount,
		},
	}
	if data.GameState.Nominees == nil {
		data.GameState.Nominees = []string{}
	}
	return json.Marshal(data)
}

// DecodeSave 解析存档并构建完整状态。
// 角色按原值恢复，不会再次累加统计；天数和周数原样恢复。
func DecodeSave(raw []byte) (models.GameState, error) {
	var header struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return models.GameState{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if header.Version != SaveVersion {
		return models.GameState{}, fmt.Errorf("%w: %q", ErrVersionMismatch, header.Version)
	}

	var data SaveData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.GameState{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	saved := data.GameState

	gs := models.NewGameState()
	setPlayers(&gs, saved.Players)
	for i := range gs.Players {
		if gs.Players[i].Relationships == nil {
			gs.Players[i].Relationships = make(map[string]models.Relationship)
		}
		if gs.Players[i].Alliances == nil {
			gs.Players[i].Alliances = []string{}
		}
	}
	if saved.Alliances != nil {
		gs.Alliances = saved.Alliances
	}

	refs := append([]string{}, saved.Nominees...)
	if saved.Hoh != nil {
		refs = append(refs, *saved.Hoh)
		gs.Progress.Hoh = *saved.Hoh
	}
	if saved.VetoHolder != nil {
		refs = append(refs, *saved.VetoHolder)
		gs.Progress.VetoHolder = *saved.VetoHolder
	}
	for _, id := range refs {
		if gs.PlayerIndex(id) < 0 {
			return models.GameState{}, fmt.Errorf("%w: 引用了不存在的玩家 %s", ErrCorruptSave, id)
		}
	}
	allianceIDs := make(map[string]bool, len(gs.Alliances))
	for _, alliance := range gs.Alliances {
		for _, id := range alliance.Members {
			if gs.PlayerIndex(id) < 0 {
				return models.GameState{}, fmt.Errorf("%w: 联盟 %s 引用了不存在的玩家 %s", ErrCorruptSave, alliance.ID, id)
			}
		}
		allianceIDs[alliance.ID] = true
	}
	for _, player := range gs.Players {
		for _, id := range player.Alliances {
			if !allianceIDs[id] {
				return models.GameState{}, fmt.Errorf("%w: 玩家 %s 引用了不存在的联盟 %s", ErrCorruptSave, player.ID, id)
			}
		}
	}
	if saved.Nominees != nil {
		gs.Progress.Nominees = saved.Nominees
	}
	gs.Progress.CurrentPhase = saved.CurrentPhase
	gs.Progress.DayCount = saved.DayCount
	gs.Progress.WeekCount = saved.WeekCount
	return gs, nil
}

// SaveManager 存档管理器
type SaveManager struct {
	store storage.SlotStore
	now   func() time.Time
}

// NewSaveManager 创建存档管理器实例
func NewSaveManager(store storage.SlotStore) *SaveManager {
	return &SaveManager{store: store, now: time.Now}
}

// Save 将引擎当前状态写入存档槽
func (sm *SaveManager) Save(ctx context.Context, engine *Engine, slot string) error {
	raw, err := EncodeSave(engine.Snapshot(), sm.now())
	if err != nil {
		return fmt.Errorf("编码存档失败: %w", err)
	}
	if err := sm.store.Put(ctx, slot, raw); err != nil {
		return fmt.Errorf("写入存档失败: %w", err)
	}
	log.Printf("[存档] 已保存到槽位 %s", slot)
	return nil
}

// Load 从存档槽加载状态。任何失败都不会修改引擎状态。
func (sm *SaveManager) Load(ctx context.Context, engine *Engine, slot string) error {
	raw, err := sm.store.Get(ctx, slot)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, slot)
	}
	if err != nil {
		return fmt.Errorf("读取存档失败: %w", err)
	}
	state, err := DecodeSave(raw)
	if err != nil {
		return err
	}
	engine.Restore(state)
	log.Printf("[存档] 已从槽位 %s 加载", slot)
	return nil
}

// Slots 列出全部存档槽
func (sm *SaveManager) Slots(ctx context.Context) ([]string, error) {
	return sm.store.Keys(ctx)
}

// Delete 删除存档槽
func (sm *SaveManager) Delete(ctx context.Context, slot string) error {
	err := sm.store.Delete(ctx, slot)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, slot)
	}
	return err
}
