package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	ErrCodeRoomNotFound = 2001
	ErrCodeRoomFull     = 2002
	ErrCodeNotInRoom    = 2003
	ErrCodeRoomStarted  = 2004 // 游戏已开始，无法加入
	ErrCodeNotEnough    = 2005 // 人数不足，无法开局

	ErrCodeGameNotStart  = 3001
	ErrCodeNotYourTurn   = 3002
	ErrCodeInvalidAction = 3003 // 当前子状态下不允许的操作
	ErrCodeInvalidPhase  = 3004 // 牌组不满足当前阶段要求
	ErrCodeInvalidTarget = 3005 // 跳过目标非法
	ErrCodeAlreadySkip   = 3006 // 目标已有待生效的跳过
	ErrCodeEmptyPile     = 3007 // 牌堆为空
	ErrCodeCardNotInHand = 3008 // 牌不在手中

	ErrCodeDeckExhausted     = 5001 // 致命：牌数账目错误
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeRoomStarted:       "游戏已开始",
	ErrCodeNotEnough:         "人数不足，无法开始",
	ErrCodeGameNotStart:      "游戏尚未开始",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeInvalidAction:     "当前不能执行该操作",
	ErrCodeInvalidPhase:      "牌组不满足当前阶段",
	ErrCodeInvalidTarget:     "无效的跳过目标",
	ErrCodeAlreadySkip:       "该玩家已被跳过",
	ErrCodeEmptyPile:         "牌堆已空",
	ErrCodeCardNotInHand:     "这张牌不在您手中",
	ErrCodeDeckExhausted:     "牌堆异常耗尽",
	ErrCodeServerMaintenance: "服务器维护中",
}
