package server

import (
	"time"

	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/protocol"
)

// handleChat 聊天消息：内容不做校验，原样转发给房间内所有玩家
func (h *MessageHandler) handleChat(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ChatPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.chatLimiter.AllowChat(client.ID) {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "发言过于频繁，请稍后再试"))
		return
	}

	roomID := payload.RoomID
	if roomID == "" {
		roomID = client.GetRoom()
	}

	room := h.server.roomManager.GetRoom(roomID)
	if room == nil {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	room.mu.RLock()
	_, seated := room.Players[client.ID]
	room.mu.RUnlock()
	if !seated {
		h.sendError(client, apperrors.ErrNotInRoom)
		return
	}

	// 服务端补全发送者信息后转发
	payload.RoomID = roomID
	payload.PlayerID = client.ID
	payload.PlayerName = client.Name
	payload.Time = time.Now().UnixMilli()

	room.Broadcast(protocol.MustNewMessage(protocol.MsgChat, payload))
}
