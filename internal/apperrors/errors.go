package apperrors

import (
	"github.com/palemoky/phase-ten/internal/protocol"
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound  = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull      = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom     = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrRoomStarted   = &GameError{Code: protocol.ErrCodeRoomStarted, Message: "游戏已开始"}
	ErrNotEnough     = &GameError{Code: protocol.ErrCodeNotEnough, Message: "人数不足，无法开始"}
	ErrGameNotStart  = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotYourTurn   = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrInvalidAction = &GameError{Code: protocol.ErrCodeInvalidAction, Message: "当前不能执行该操作"}
	ErrInvalidPhase  = &GameError{Code: protocol.ErrCodeInvalidPhase, Message: "牌组不满足当前阶段"}
	ErrInvalidTarget = &GameError{Code: protocol.ErrCodeInvalidTarget, Message: "无效的跳过目标"}
	ErrAlreadySkip   = &GameError{Code: protocol.ErrCodeAlreadySkip, Message: "该玩家已被跳过"}
	ErrEmptyPile     = &GameError{Code: protocol.ErrCodeEmptyPile, Message: "牌堆已空"}
	ErrCardNotInHand = &GameError{Code: protocol.ErrCodeCardNotInHand, Message: "这张牌不在您手中"}
	ErrDeckExhausted = &GameError{Code: protocol.ErrCodeDeckExhausted, Message: "牌堆异常耗尽"}
)
