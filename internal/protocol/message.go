package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgStartGame  MessageType = "start_game"  // 开始游戏

	// 游戏操作
	MsgDrawCard     MessageType = "draw_card"      // 摸牌（牌堆或弃牌堆）
	MsgDiscardCard  MessageType = "discard_card"   // 弃牌结束回合
	MsgLayPhase     MessageType = "lay_phase"      // 铺阶段牌组
	MsgPlaySkipCard MessageType = "play_skip_card" // 打出跳过牌并指定目标

	// 其他
	MsgChat           MessageType = "chat"            // 聊天消息
	MsgGetStats       MessageType = "get_stats"       // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgReconnected   MessageType = "reconnected"    // 重连成功
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家上线通知

	// 房间相关
	MsgRoomCreated  MessageType = "room_created"  // 房间创建成功
	MsgRoomJoined   MessageType = "room_joined"   // 加入房间成功
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开

	// 游戏流程
	MsgGameStarted MessageType = "game_started" // 游戏开始（已发牌）
	MsgStateUpdate MessageType = "state_update" // 房间快照广播
	MsgHandUpdate  MessageType = "hand_update"  // 私发手牌
	MsgTurnSkipped MessageType = "turn_skipped" // 有人被跳过
	MsgRoundOver   MessageType = "round_over"   // 本轮结束结算
	MsgGameOver    MessageType = "game_over"    // 游戏结束

	// 排行榜
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
