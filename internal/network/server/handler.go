package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/game/card"
	"github.com/palemoky/phase-ten/internal/protocol"
)

// MessageHandler 消息处理器，把入站消息分发给房间和对局
type MessageHandler struct {
	server *Server
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(s *Server) *MessageHandler {
	return &MessageHandler{server: s}
}

// Handle 处理客户端消息。
// 操作失败只回给发起方，成功的状态变更由对局负责广播。
func (h *MessageHandler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgReconnect:
		h.handleReconnect(client, msg)
	case protocol.MsgPing:
		h.handlePing(client, msg)
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client, msg)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgLeaveRoom:
		h.server.roomManager.LeaveRoom(client)
	case protocol.MsgStartGame:
		h.handleStartGame(client, msg)
	case protocol.MsgDrawCard:
		h.handleDrawCard(client, msg)
	case protocol.MsgDiscardCard:
		h.handleDiscardCard(client, msg)
	case protocol.MsgLayPhase:
		h.handleLayPhase(client, msg)
	case protocol.MsgPlaySkipCard:
		h.handlePlaySkipCard(client, msg)
	case protocol.MsgChat:
		h.handleChat(client, msg)
	case protocol.MsgGetStats:
		h.handleGetStats(client)
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client)
	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// sendError 把错误回给发起方
func (h *MessageHandler) sendError(client *Client, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}

// gameFor 根据房间号定位进行中的对局
func (h *MessageHandler) gameFor(roomID string) (*GameSession, error) {
	room := h.server.roomManager.GetRoom(roomID)
	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}

	game := room.GetGameSession()
	if game == nil {
		return nil, apperrors.ErrGameNotStart
	}

	return game, nil
}

// --- 连接 ---

func (h *MessageHandler) handleReconnect(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.sessionManager.CanReconnect(payload.Token, payload.PlayerID) {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "重连令牌无效或已过期"))
		return
	}

	session := h.server.sessionManager.GetSessionByToken(payload.Token)
	h.server.rebindClient(client, session.PlayerID)
	client.Name = session.PlayerName
	h.server.sessionManager.SetOnline(client.ID)

	resp := protocol.ReconnectedPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}

	if roomID := h.server.sessionManager.GetRoom(client.ID); roomID != "" {
		if err := h.server.roomManager.ReconnectPlayer(client, roomID); err == nil {
			resp.RoomID = roomID
			room := h.server.roomManager.GetRoom(roomID)
			if game := room.GetGameSession(); game != nil && !game.Ended() {
				snap := game.Snapshot()
				resp.Snapshot = &snap
				if hand, ok := game.HandOf(client.ID); ok {
					resp.Hand = hand
				}
			}
		}
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, resp))
}

func (h *MessageHandler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// --- 房间 ---

func (h *MessageHandler) handleCreateRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room, err := h.server.roomManager.CreateRoom(client, payload.PlayerName)
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomID: room.Code,
		Player: room.getPlayerInfo(client.ID),
	}))
}

func (h *MessageHandler) handleJoinRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room, err := h.server.roomManager.JoinRoom(client, payload.RoomID, payload.PlayerName)
	if err != nil {
		h.sendError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID:  room.Code,
		Player:  room.getPlayerInfo(client.ID),
		Players: room.getAllPlayersInfo(),
	}))
}

func (h *MessageHandler) handleStartGame(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.StartGamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.StartGame(client, payload.RoomID); err != nil {
		h.sendError(client, err)
	}
}

// --- 游戏操作 ---

func (h *MessageHandler) handleDrawCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.DrawCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	game, err := h.gameFor(payload.RoomID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	if err := game.HandleDraw(client.ID, card.DrawSource(payload.From)); err != nil {
		h.sendError(client, err)
	}
}

func (h *MessageHandler) handleDiscardCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.DiscardCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	game, err := h.gameFor(payload.RoomID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	c, err := infoToCard(payload.Card)
	if err != nil {
		h.sendError(client, err)
		return
	}

	if err := game.HandleDiscard(client.ID, c); err != nil {
		h.sendError(client, err)
	}
}

func (h *MessageHandler) handleLayPhase(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.LayPhasePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	game, err := h.gameFor(payload.RoomID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	cards, err := infosToCards(payload.Cards)
	if err != nil {
		h.sendError(client, err)
		return
	}

	if err := game.HandleLayPhase(client.ID, cards); err != nil {
		h.sendError(client, err)
	}
}

func (h *MessageHandler) handlePlaySkipCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlaySkipCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	game, err := h.gameFor(payload.RoomID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	c, err := infoToCard(payload.Card)
	if err != nil {
		h.sendError(client, err)
		return
	}

	if err := game.HandlePlaySkip(client.ID, c, payload.Target); err != nil {
		h.sendError(client, err)
	}
}

// --- 排行榜 ---

func (h *MessageHandler) handleGetStats(client *Client) {
	if h.server.leaderboard == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜服务不可用"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats, err := h.server.leaderboard.GetPlayerStats(ctx, client.ID)
	if err != nil {
		log.Printf("⚠️ 查询玩家统计失败: %v", err)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	rank, _ := h.server.leaderboard.GetPlayerRank(ctx, client.ID)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
		TotalGames: stats.TotalGames,
		Wins:       stats.Wins,
		WinRate:    stats.WinRate(),
		TotalScore: stats.TotalScore,
		Rank:       rank,
	}))
}

func (h *MessageHandler) handleGetLeaderboard(client *Client) {
	if h.server.leaderboard == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "排行榜服务不可用"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.server.leaderboard.GetLeaderboard(ctx, 10)
	if err != nil {
		log.Printf("⚠️ 查询排行榜失败: %v", err)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	result := make([]protocol.LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		result = append(result, protocol.LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   e.PlayerID,
			PlayerName: e.PlayerName,
			Wins:       e.Wins,
			WinRate:    e.WinRate(),
		})
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: result,
	}))
}
