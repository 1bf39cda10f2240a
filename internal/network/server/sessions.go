package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 会话保留时长：离线超过这个时间后会话被清理，无法再重连
const sessionTTL = 2 * time.Hour

// PlayerSession 玩家会话，断线后保留一段时间用于重连
type PlayerSession struct {
	PlayerID       string
	PlayerName     string
	ReconnectToken string
	RoomID         string
	IsOnline       bool
	DisconnectedAt time.Time

	mu sync.RWMutex
}

// SessionManager 会话管理器
type SessionManager struct {
	sessions map[string]*PlayerSession // playerID -> session
	byToken  map[string]string         // token -> playerID
	mu       sync.RWMutex
}

// NewSessionManager 创建会话管理器
func NewSessionManager() *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*PlayerSession),
		byToken:  make(map[string]string),
	}

	// 启动会话清理协程
	go sm.cleanupLoop()

	return sm
}

// CreateSession 创建会话并生成重连令牌
func (sm *SessionManager) CreateSession(playerID, playerName string) *PlayerSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := &PlayerSession{
		PlayerID:       playerID,
		PlayerName:     playerName,
		ReconnectToken: uuid.New().String(),
		IsOnline:       true,
	}
	sm.sessions[playerID] = session
	sm.byToken[session.ReconnectToken] = playerID

	return session
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// GetSessionByToken 通过令牌获取会话
func (sm *SessionManager) GetSessionByToken(token string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	playerID, ok := sm.byToken[token]
	if !ok {
		return nil
	}
	return sm.sessions[playerID]
}

// CanReconnect 验证重连令牌是否匹配
func (sm *SessionManager) CanReconnect(token, playerID string) bool {
	session := sm.GetSessionByToken(token)
	return session != nil && session.PlayerID == playerID
}

// SetOnline 标记会话上线
func (sm *SessionManager) SetOnline(playerID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.IsOnline = true
		session.DisconnectedAt = time.Time{}
		session.mu.Unlock()
	}
}

// SetOffline 标记会话离线
func (sm *SessionManager) SetOffline(playerID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.IsOnline = false
		session.DisconnectedAt = time.Now()
		session.mu.Unlock()
	}
}

// SetRoom 记录会话所在房间
func (sm *SessionManager) SetRoom(playerID, roomID string) {
	if session := sm.GetSession(playerID); session != nil {
		session.mu.Lock()
		session.RoomID = roomID
		session.mu.Unlock()
	}
}

// GetRoom 获取会话所在房间
func (sm *SessionManager) GetRoom(playerID string) string {
	session := sm.GetSession(playerID)
	if session == nil {
		return ""
	}
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.RoomID
}

// Abandoned 玩家是否已离线超过给定时长。没有会话的玩家视为已放弃。
func (sm *SessionManager) Abandoned(playerID string, cutoff time.Duration) bool {
	session := sm.GetSession(playerID)
	if session == nil {
		return true
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return !session.IsOnline && !session.DisconnectedAt.IsZero() &&
		time.Since(session.DisconnectedAt) > cutoff
}

// DeleteSession 删除会话
func (sm *SessionManager) DeleteSession(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		delete(sm.byToken, session.ReconnectToken)
		delete(sm.sessions, playerID)
	}
}

// cleanupLoop 定期清理长时间离线的会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		now := time.Now()
		for id, session := range sm.sessions {
			session.mu.RLock()
			expired := !session.IsOnline && !session.DisconnectedAt.IsZero() &&
				now.Sub(session.DisconnectedAt) > sessionTTL
			session.mu.RUnlock()

			if expired {
				delete(sm.byToken, session.ReconnectToken)
				delete(sm.sessions, id)
			}
		}
		sm.mu.Unlock()
	}
}
