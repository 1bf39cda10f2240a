package protocol

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token    string `json:"token"`     // 重连令牌
	PlayerID string `json:"player_id"` // 玩家 ID
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	PlayerName string `json:"player_name"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// StartGamePayload 开始游戏请求
type StartGamePayload struct {
	RoomID string `json:"room_id"`
}

// DrawCardPayload 摸牌请求
type DrawCardPayload struct {
	RoomID string `json:"room_id"`
	From   string `json:"from"` // "deck" 或 "discard"
}

// DiscardCardPayload 弃牌请求
type DiscardCardPayload struct {
	RoomID string   `json:"room_id"`
	Card   CardInfo `json:"card"`
}

// LayPhasePayload 铺阶段请求
type LayPhasePayload struct {
	RoomID string     `json:"room_id"`
	Cards  []CardInfo `json:"cards"`
}

// PlaySkipCardPayload 打出跳过牌请求
type PlaySkipCardPayload struct {
	RoomID string   `json:"room_id"`
	Card   CardInfo `json:"card"`
	Target string   `json:"target"` // 被跳过玩家 ID
}

// ChatPayload 聊天消息（服务端原样转发，不做内容校验）
type ChatPayload struct {
	RoomID     string `json:"room_id,omitempty"`
	Message    string `json:"message"`
	PlayerID   string `json:"player_id,omitempty"`   // 服务端填充
	PlayerName string `json:"player_name,omitempty"` // 服务端填充
	Time       int64  `json:"time,omitempty"`        // 服务端填充
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ReconnectToken string `json:"reconnect_token"` // 重连令牌
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	PlayerID   string        `json:"player_id"`
	PlayerName string        `json:"player_name"`
	RoomID     string        `json:"room_id,omitempty"`  // 如果在房间中
	Snapshot   *GameSnapshot `json:"snapshot,omitempty"` // 如果在游戏中
	Hand       []CardInfo    `json:"hand,omitempty"`     // 自己的手牌
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// PlayerOfflinePayload 玩家掉线通知
type PlayerOfflinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Grace      int    `json:"grace"` // 等待重连时间（秒）
}

// PlayerOnlinePayload 玩家上线通知
type PlayerOnlinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	RoomID string     `json:"room_id"`
	Player PlayerInfo `json:"player"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomID  string       `json:"room_id"`
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"` // 房间内所有玩家
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// GameStartedPayload 游戏开始通知
type GameStartedPayload struct {
	Snapshot GameSnapshot `json:"snapshot"`
}

// HandUpdatePayload 私发手牌（只发给牌的主人）
type HandUpdatePayload struct {
	Cards []CardInfo `json:"cards"`
	Phase int        `json:"phase"` // 当前要完成的阶段
}

// TurnSkippedPayload 跳过通知
type TurnSkippedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// PlayerResult 单个玩家的轮末结算
type PlayerResult struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Penalty    int    `json:"penalty"`  // 本轮计入的罚分
	Score      int    `json:"score"`    // 累计总分
	Phase      int    `json:"phase"`    // 下一轮的阶段
	Advanced   bool   `json:"advanced"` // 本轮是否完成了阶段
}

// RoundOverPayload 本轮结束结算
type RoundOverPayload struct {
	WinnerID    string         `json:"winner_id"` // 打空手牌的玩家
	WinnerName  string         `json:"winner_name"`
	RoundNumber int            `json:"round_number"`
	Results     []PlayerResult `json:"results"`
}

// GameOverPayload 游戏结束通知
type GameOverPayload struct {
	WinnerID   string         `json:"winner_id"`
	WinnerName string         `json:"winner_name"`
	Results    []PlayerResult `json:"results"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	TotalGames int     `json:"total_games"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
	TotalScore int     `json:"total_score"` // 累计罚分（越低越好）
	Rank       int     `json:"rank"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// --- 通用数据结构 ---

// GameSnapshot 广播给房间内所有人的一致性快照。
// 其他玩家的手牌只暴露数量，具体内容通过 hand_update 私发。
type GameSnapshot struct {
	RoomID       string       `json:"room_id"`
	Players      []PlayerInfo `json:"players"` // 按座位顺序排列
	CurrentTurn  int          `json:"current_turn"`
	Started      bool         `json:"started"`
	DiscardTop   *CardInfo    `json:"discard_top,omitempty"`
	DrawPileSize int          `json:"draw_pile_size"`
	RoundNumber  int          `json:"round_number"`
}

// PlayerInfo 玩家信息。Laid 是本轮铺出的阶段牌组，对所有人可见。
type PlayerInfo struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Seat          int          `json:"seat"`
	HandCount     int          `json:"hand_count"`
	Phase         int          `json:"phase"`
	PhaseComplete bool         `json:"phase_complete"`
	Score         int          `json:"score"`
	Online        bool         `json:"online"`
	Laid          [][]CardInfo `json:"laid,omitempty"`
}

// CardInfo 牌信息。数字牌 value 为 "1".."12"，特殊牌为 "Wild"/"Skip"
type CardInfo struct {
	Color string `json:"color"` // Red/Blue/Green/Yellow/Wild/Skip
	Value string `json:"value"`
}
