package server

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/protocol"
)

const (
	// 房间号长度
	roomCodeLength = 4
	// 房间号字符集
	roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"

	// 结束的房间保留时长，供玩家查看结算
	endedRoomRetention = 5 * time.Minute
)

// RoomState 房间状态
type RoomState int

const (
	RoomStateWaiting RoomState = iota // 等待玩家
	RoomStatePlaying                  // 游戏中
	RoomStateEnded                    // 游戏结束
)

// RoomPlayer 房间中的玩家
type RoomPlayer struct {
	Client *Client
	Name   string // 加入时提供的名字
	Seat   int    // 座位号，加入顺序即回合顺序
}

// Room 游戏房间
type Room struct {
	Code        string                 // 房间号
	State       RoomState              // 房间状态
	Players     map[string]*RoomPlayer // 玩家列表
	PlayerOrder []string               // 玩家顺序（按座位）
	CreatedAt   time.Time              // 创建时间
	EndedAt     time.Time              // 结束时间

	game   *GameSession // 游戏会话
	server *Server
	mu     sync.RWMutex
}

// RoomManager 房间管理器
type RoomManager struct {
	server *Server
	rooms  map[string]*Room
	mu     sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager(s *Server) *RoomManager {
	rm := &RoomManager{
		server: s,
		rooms:  make(map[string]*Room),
	}

	// 启动房间清理协程
	go rm.cleanupLoop()

	return rm
}

// CreateRoom 创建房间，创建者坐 0 号位
func (rm *RoomManager) CreateRoom(client *Client, playerName string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if playerName != "" {
		client.Name = playerName
	}

	// 生成唯一房间号
	code := rm.generateRoomCode()

	room := &Room{
		Code:        code,
		State:       RoomStateWaiting,
		Players:     make(map[string]*RoomPlayer),
		PlayerOrder: make([]string, 0, rm.server.config.Game.MaxPlayers),
		CreatedAt:   time.Now(),
		server:      rm.server,
	}

	room.Players[client.ID] = &RoomPlayer{
		Client: client,
		Name:   client.Name,
		Seat:   0,
	}
	room.PlayerOrder = append(room.PlayerOrder, client.ID)
	client.SetRoom(code)
	rm.server.sessionManager.SetRoom(client.ID, code)

	rm.rooms[code] = room

	log.Printf("🏠 房间 %s 已创建，玩家 %s", code, client.Name)

	return room, nil
}

// JoinRoom 加入房间，按加入顺序分配座位
func (rm *RoomManager) JoinRoom(client *Client, code, playerName string) (*Room, error) {
	rm.mu.RLock()
	room, exists := rm.rooms[code]
	rm.mu.RUnlock()
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	if room.State != RoomStateWaiting {
		room.mu.Unlock()
		return nil, apperrors.ErrRoomStarted
	}

	if len(room.Players) >= rm.server.config.Game.MaxPlayers {
		room.mu.Unlock()
		return nil, apperrors.ErrRoomFull
	}

	if playerName != "" {
		client.Name = playerName
	}

	seat := len(room.Players)
	room.Players[client.ID] = &RoomPlayer{
		Client: client,
		Name:   client.Name,
		Seat:   seat,
	}
	room.PlayerOrder = append(room.PlayerOrder, client.ID)
	room.mu.Unlock()

	client.SetRoom(code)
	rm.server.sessionManager.SetRoom(client.ID, code)

	log.Printf("👤 玩家 %s 加入房间 %s (座位 %d)", client.Name, code, seat)

	// 通知房间内其他玩家。等待中的房间还没有对局，基础信息即完整信息
	room.broadcastExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: protocol.PlayerInfo{
			ID:     client.ID,
			Name:   client.Name,
			Seat:   seat,
			Phase:  1,
			Online: true,
		},
	}))

	return room, nil
}

// StartGame 开始游戏：发牌并进入第一个回合
func (rm *RoomManager) StartGame(client *Client, code string) error {
	room := rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	if _, seated := room.Players[client.ID]; !seated {
		room.mu.Unlock()
		return apperrors.ErrNotInRoom
	}

	if room.State != RoomStateWaiting {
		room.mu.Unlock()
		return apperrors.ErrRoomStarted
	}

	if len(room.Players) < rm.server.config.Game.MinPlayers {
		room.mu.Unlock()
		return apperrors.ErrNotEnough
	}

	room.State = RoomStatePlaying
	game := NewGameSession(room)
	room.game = game
	numPlayers := len(room.Players)
	room.mu.Unlock()

	// Start 会广播开局快照，必须在释放房间锁之后调用
	if err := game.Start(); err != nil {
		// 发牌失败属于致命的牌数账目错误，房间直接作废
		room.mu.Lock()
		room.State = RoomStateEnded
		room.EndedAt = time.Now()
		room.mu.Unlock()
		log.Printf("💥 房间 %s 开局失败: %v", room.Code, err)
		return err
	}

	log.Printf("🎮 房间 %s 开始游戏，%d 名玩家", room.Code, numPlayers)

	return nil
}

// LeaveRoom 离开房间。
// 等待中的房间直接让出座位；进行中的房间保留座位按掉线处理。
func (rm *RoomManager) LeaveRoom(client *Client) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return
	}

	rm.mu.Lock()
	room, exists := rm.rooms[roomCode]
	rm.mu.Unlock()
	if !exists {
		return
	}

	room.mu.Lock()

	player, exists := room.Players[client.ID]
	if !exists {
		room.mu.Unlock()
		return
	}

	if room.State == RoomStatePlaying {
		room.mu.Unlock()
		// 游戏中离开等同于掉线，座位保留，宽限期后自动代打
		rm.NotifyPlayerOffline(client)
		return
	}

	// 移除玩家并压缩座位
	delete(room.Players, client.ID)
	for i, id := range room.PlayerOrder {
		if id == client.ID {
			room.PlayerOrder = append(room.PlayerOrder[:i], room.PlayerOrder[i+1:]...)
			break
		}
	}
	for i, id := range room.PlayerOrder {
		room.Players[id].Seat = i
	}
	client.SetRoom("")
	rm.server.sessionManager.SetRoom(client.ID, "")

	log.Printf("👋 玩家 %s 离开房间 %s", player.Name, roomCode)

	empty := len(room.Players) == 0
	room.mu.Unlock()

	// 通知剩下的玩家
	room.Broadcast(protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:   client.ID,
		PlayerName: player.Name,
	}))

	// 如果房间空了，删除房间
	if empty {
		rm.removeRoom(roomCode)
	}
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// NotifyPlayerOffline 玩家掉线：通知其他人并交给游戏会话处理宽限
func (rm *RoomManager) NotifyPlayerOffline(client *Client) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return
	}

	room := rm.GetRoom(roomCode)
	if room == nil {
		return
	}

	room.mu.RLock()
	player, exists := room.Players[client.ID]
	game := room.game
	room.mu.RUnlock()
	if !exists {
		return
	}

	grace := int(rm.server.config.Game.ReconnectGraceDuration().Seconds())
	room.broadcastExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{
		PlayerID:   client.ID,
		PlayerName: player.Name,
		Grace:      grace,
	}))

	if game != nil {
		game.PlayerOffline(client.ID)
	}

	log.Printf("📴 玩家 %s 在房间 %s 中掉线", player.Name, roomCode)
}

// ReconnectPlayer 玩家重连回房间，替换客户端引用
func (rm *RoomManager) ReconnectPlayer(client *Client, code string) error {
	room := rm.GetRoom(code)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	player, exists := room.Players[client.ID]
	if !exists {
		room.mu.Unlock()
		return apperrors.ErrNotInRoom
	}

	player.Client = client
	playerName := player.Name
	game := room.game
	room.mu.Unlock()

	client.SetRoom(code)

	room.broadcastExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{
		PlayerID:   client.ID,
		PlayerName: playerName,
	}))

	if game != nil {
		game.PlayerOnline(client.ID)
	}

	log.Printf("📶 玩家 %s 重连到房间 %s", playerName, code)

	return nil
}

// GetActiveGamesCount 获取进行中的游戏数量
func (rm *RoomManager) GetActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.RLock()
		if room.State == RoomStatePlaying {
			count++
		}
		room.mu.RUnlock()
	}
	return count
}

// removeRoom 删除房间
func (rm *RoomManager) removeRoom(code string) {
	rm.mu.Lock()
	delete(rm.rooms, code)
	rm.mu.Unlock()
	log.Printf("🏠 房间 %s 已解散", code)
}

// generateRoomCode 生成唯一房间号
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}

// cleanupLoop 定期清理超时房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

// cleanup 清理过期房间：等待超时、结算展示期已过，
// 以及所有玩家掉线超过宽限期的进行中对局（没人会回来，托管打完也无人领取）。
func (rm *RoomManager) cleanup() {
	timeout := rm.server.config.Game.RoomTimeoutDuration()
	grace := rm.server.config.Game.ReconnectGraceDuration()
	now := time.Now()

	rm.mu.Lock()
	var stale []*Room
	for code, room := range rm.rooms {
		room.mu.RLock()
		var gone bool
		switch room.State {
		case RoomStateWaiting:
			gone = now.Sub(room.CreatedAt) > timeout
		case RoomStateEnded:
			gone = now.Sub(room.EndedAt) > endedRoomRetention
		case RoomStatePlaying:
			gone = len(room.Players) > 0
			for id := range room.Players {
				if !rm.server.sessionManager.Abandoned(id, grace) {
					gone = false
					break
				}
			}
		}
		room.mu.RUnlock()

		if gone {
			stale = append(stale, room)
			delete(rm.rooms, code)
		}
	}
	rm.mu.Unlock()

	for _, room := range stale {
		if game := room.GetGameSession(); game != nil {
			game.Abort()
		}

		room.Broadcast(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "房间超时已关闭"))

		room.mu.Lock()
		for id, p := range room.Players {
			if p.Client != nil {
				p.Client.SetRoom("")
			}
			rm.server.sessionManager.SetRoom(id, "")
		}
		code := room.Code
		room.mu.Unlock()

		log.Printf("🏠 房间 %s 超时已清理", code)
	}
}

// --- Room 方法 ---

// clientSnapshot 在读锁下复制一份客户端列表，发送动作不占用房间锁。
// excludeID 为空时返回所有人。
func (r *Room) clientSnapshot(excludeID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.Players))
	for id, player := range r.Players {
		if id != excludeID && player.Client != nil {
			clients = append(clients, player.Client)
		}
	}
	return clients
}

// Broadcast 广播消息给房间内所有玩家。
// 内部会获取房间读锁，持有 r.mu 时不要调用。
func (r *Room) Broadcast(msg *protocol.Message) {
	for _, client := range r.clientSnapshot("") {
		client.SendMessage(msg)
	}
}

// broadcastExcept 广播消息给除指定玩家外的所有玩家
func (r *Room) broadcastExcept(excludeID string, msg *protocol.Message) {
	for _, client := range r.clientSnapshot(excludeID) {
		client.SendMessage(msg)
	}
}

// sendTo 发送消息给房间内指定玩家
func (r *Room) sendTo(playerID string, msg *protocol.Message) {
	r.mu.RLock()
	var client *Client
	if player, ok := r.Players[playerID]; ok {
		client = player.Client
	}
	r.mu.RUnlock()

	if client != nil {
		client.SendMessage(msg)
	}
}

// getPlayerInfo 获取玩家信息。
// 内部自行加锁，持有 r.mu 时不要调用。
func (r *Room) getPlayerInfo(playerID string) protocol.PlayerInfo {
	r.mu.RLock()
	game := r.game
	var base protocol.PlayerInfo
	if player, ok := r.Players[playerID]; ok {
		base = protocol.PlayerInfo{
			ID:     playerID,
			Name:   player.Name,
			Seat:   player.Seat,
			Phase:  1,
			Online: true,
		}
	}
	r.mu.RUnlock()

	if game != nil {
		if info, ok := game.playerInfo(playerID); ok {
			return info
		}
	}

	return base
}

// getAllPlayersInfo 获取所有玩家信息（按座位顺序）
func (r *Room) getAllPlayersInfo() []protocol.PlayerInfo {
	r.mu.RLock()
	order := append([]string(nil), r.PlayerOrder...)
	r.mu.RUnlock()

	infos := make([]protocol.PlayerInfo, 0, len(order))
	for _, id := range order {
		infos = append(infos, r.getPlayerInfo(id))
	}
	return infos
}

// GetGameSession 获取游戏会话
func (r *Room) GetGameSession() *GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game
}
