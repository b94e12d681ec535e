package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Message WebSocket消息结构
type Message struct {
	Type    string      `json:"type"`
	GameID  string      `json:"game_id"`
	Content interface{} `json:"content,omitempty"`
}

// wsClient 单个连接，gorilla 连接不支持并发写，每个连接单独加写锁
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// WebSocketManager WebSocket连接管理器，按游戏分组推送状态快照
type WebSocketManager struct {
	games          map[string]map[*websocket.Conn]*wsClient // gameID -> connections
	sessionManager *SessionManager
	mutex          sync.RWMutex
}

// NewWebSocketManager 创建WebSocket管理器实例
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		games: make(map[string]map[*websocket.Conn]*wsClient),
	}
}

// SetSessionManager 设置会话管理器实例
func (wm *WebSocketManager) SetSessionManager(sm *SessionManager) {
	wm.sessionManager = sm
}

// RegisterConnection 注册观察某局游戏的连接，并立即发送当前状态
func (wm *WebSocketManager) RegisterConnection(gameID string, conn *websocket.Conn) {
	client := &wsClient{conn: conn}
	wm.mutex.Lock()
	if _, exists := wm.games[gameID]; !exists {
		wm.games[gameID] = make(map[*websocket.Conn]*wsClient)
	}
	wm.games[gameID][conn] = client
	wm.mutex.Unlock()

	wm.sendSnapshot(gameID, client)

	// 启动消息处理协程
	go wm.handleMessages(gameID, client)
}

// ConnectionCount 某局游戏的连接数
func (wm *WebSocketManager) ConnectionCount(gameID string) int {
	wm.mutex.RLock()
	defer wm.mutex.RUnlock()
	return len(wm.games[gameID])
}

// BroadcastToGame 向观察某局游戏的所有连接广播消息
func (wm *WebSocketManager) BroadcastToGame(gameID string, message Message) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WebSocket广播] 消息序列化失败: %v", err)
		return
	}

	wm.mutex.RLock()
	clients := make([]*wsClient, 0, len(wm.games[gameID]))
	for _, client := range wm.games[gameID] {
		clients = append(clients, client)
	}
	wm.mutex.RUnlock()

	if len(clients) == 0 {
		return
	}
	log.Printf("[WebSocket广播] 游戏 %s 中有 %d 个活跃连接, 消息类型: %s", gameID, len(clients), message.Type)

	for _, client := range clients {
		if err := client.write(msgBytes); err != nil {
			log.Printf("[WebSocket广播] 向连接发送消息失败: %v", err)
			wm.RemoveConnection(gameID, client.conn)
		}
	}
}

func (c *wsClient) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	err := c.conn.WriteMessage(websocket.TextMessage, payload)
	c.conn.SetWriteDeadline(time.Time{})
	return err
}

// sendSnapshot 向单个连接发送当前状态
func (wm *WebSocketManager) sendSnapshot(gameID string, client *wsClient) {
	if wm.sessionManager == nil {
		return
	}
	session, err := wm.sessionManager.GetGame(gameID)
	if err != nil {
		wm.sendError(client, gameID, err.Error())
		return
	}
	payload, err := json.Marshal(Message{Type: "game_state", GameID: gameID, Content: session.Engine.Snapshot()})
	if err != nil {
		log.Printf("[WebSocket] 快照序列化失败: %v", err)
		return
	}
	if err := client.write(payload); err != nil {
		log.Printf("[WebSocket] 发送快照失败: %v", err)
	}
}

func (wm *WebSocketManager) sendError(client *wsClient, gameID, text string) {
	payload, _ := json.Marshal(Message{Type: "error", GameID: gameID, Content: text})
	if err := client.write(payload); err != nil {
		log.Printf("[WebSocket] 发送错误消息失败: %v", err)
	}
}

// RemoveConnection 移除WebSocket连接
func (wm *WebSocketManager) RemoveConnection(gameID string, conn *websocket.Conn) {
	wm.mutex.Lock()
	defer wm.mutex.Unlock()

	conns, exists := wm.games[gameID]
	if !exists || conns[conn] == nil {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(wm.games, gameID)
	}
	conn.Close()
	log.Printf("[WebSocket] 已清理游戏 %s 的一个连接", gameID)
}

// RemoveGame 关闭某局游戏的所有连接
func (wm *WebSocketManager) RemoveGame(gameID string) {
	wm.mutex.Lock()
	defer wm.mutex.Unlock()
	for conn := range wm.games[gameID] {
		conn.Close()
	}
	delete(wm.games, gameID)
}

// handleMessages 处理接收到的WebSocket消息。状态变更只能通过HTTP接口完成，
// 这里仅响应快照请求并检测连接关闭。
func (wm *WebSocketManager) handleMessages(gameID string, client *wsClient) {
	conn := client.conn
	conn.SetReadLimit(64 * 1024)

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] 读取消息失败: %v", err)
			}
			wm.RemoveConnection(gameID, conn)
			return
		}

		var msg Message
		if err := json.Unmarshal(p, &msg); err != nil {
			log.Printf("[WebSocket] 解析消息失败: %v", err)
			continue
		}

		switch msg.Type {
		case "snapshot":
			wm.sendSnapshot(gameID, client)
		default:
			wm.sendError(client, gameID, "未知的消息类型: "+msg.Type)
		}
	}
}
