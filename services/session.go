package services

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qianlnk/houseguest/models"
)

// SessionSettings 新游戏的默认设置
type SessionSettings struct {
	MinPlayers      int
	RosterSize      int
	Seed            int64 // 0 表示按时间取种子
	TieBreaker      TieBreaker
	RejectionPolicy RejectionPolicy
}

// Session 一局游戏
type Session struct {
	ID         string          `json:"id"`
	Engine     *Engine         `json:"-"`
	Controller *GameController `json:"-"`
	CreatedAt  int64           `json:"created_at"`
}

// SessionManager 游戏会话管理器，每局游戏拥有独立的引擎
type SessionManager struct {
	sessions     map[string]*Session
	settings     SessionSettings
	webSocketMgr *WebSocketManager
	mutex        sync.RWMutex
}

// NewSessionManager 创建会话管理器实例
func NewSessionManager(settings SessionSettings, webSocketMgr *WebSocketManager) *SessionManager {
	if settings.MinPlayers < DefaultMinPlayers {
		settings.MinPlayers = DefaultMinPlayers
	}
	if settings.RosterSize < settings.MinPlayers {
		settings.RosterSize = settings.MinPlayers
	}
	return &SessionManager{
		sessions:     make(map[string]*Session),
		settings:     settings,
		webSocketMgr: webSocketMgr,
	}
}

// CreateGame 创建新游戏。players 为空时生成一名真人房客和若干AI房客补满名册。
func (sm *SessionManager) CreateGame(humanName string, players []models.Player) *Session {
	seed := sm.settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if len(players) == 0 {
		aiCount := sm.settings.RosterSize
		if humanName != "" {
			aiCount--
		}
		players = GenerateRoster(humanName, aiCount, rng)
	}

	engine := NewEngine(
		WithTieBreaker(sm.settings.TieBreaker),
		WithRejectionPolicy(sm.settings.RejectionPolicy),
	)
	engine.SetPlayers(players)

	session := &Session{
		ID:         uuid.NewString(),
		Engine:     engine,
		Controller: NewGameController(engine, rng, sm.settings.MinPlayers),
		CreatedAt:  time.Now().Unix(),
	}

	if sm.webSocketMgr != nil {
		gameID := session.ID
		engine.Subscribe(func(state models.GameState) {
			sm.webSocketMgr.BroadcastToGame(gameID, Message{
				Type:    "game_state",
				GameID:  gameID,
				Content: state,
			})
		})
	}

	sm.mutex.Lock()
	sm.sessions[session.ID] = session
	sm.mutex.Unlock()

	log.Printf("[会话] 创建游戏 %s, 房客人数: %d", session.ID, len(players))
	return session
}

// GetGame 获取游戏
func (sm *SessionManager) GetGame(id string) (*Session, error) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	session, exists := sm.sessions[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return session, nil
}

// ListGames 按创建时间列出全部游戏
func (sm *SessionManager) ListGames() []*Session {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt < sessions[j].CreatedAt
	})
	return sessions
}

// DeleteGame 删除游戏并关闭其连接
func (sm *SessionManager) DeleteGame(id string) error {
	sm.mutex.Lock()
	_, exists := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mutex.Unlock()

	if !exists {
		return ErrGameNotFound
	}
	if sm.webSocketMgr != nil {
		sm.webSocketMgr.RemoveGame(id)
	}
	log.Printf("[会话] 删除游戏 %s", id)
	return nil
}
