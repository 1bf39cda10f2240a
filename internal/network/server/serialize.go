package server

import (
	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/game/card"
	"github.com/palemoky/phase-ten/internal/protocol"
)

// snapshot 构建广播快照：他人手牌只暴露数量。调用方持有 gs.mu。
func (gs *GameSession) snapshot() protocol.GameSnapshot {
	players := make([]protocol.PlayerInfo, 0, len(gs.players))
	for _, p := range gs.players {
		players = append(players, gs.infoOf(p))
	}

	snap := protocol.GameSnapshot{
		RoomID:      gs.room.Code,
		Players:     players,
		CurrentTurn: gs.currentTurn,
		Started:     !gs.ended,
		RoundNumber: gs.roundNumber,
	}

	// 发牌失败的对局没有牌堆
	if gs.piles != nil {
		snap.DrawPileSize = len(gs.piles.Draw)
		if top, ok := gs.piles.DiscardTop(); ok {
			info := cardToInfo(top)
			snap.DiscardTop = &info
		}
	}

	return snap
}

// broadcastState 成功变更后广播新快照。调用方持有 gs.mu。
func (gs *GameSession) broadcastState() {
	gs.room.Broadcast(protocol.MustNewMessage(protocol.MsgStateUpdate, gs.snapshot()))
}

// sendHand 私发手牌给牌的主人。调用方持有 gs.mu。
func (gs *GameSession) sendHand(p *GamePlayer) {
	gs.room.sendTo(p.ID, protocol.MustNewMessage(protocol.MsgHandUpdate, protocol.HandUpdatePayload{
		Cards: cardsToInfos(p.Hand),
		Phase: p.Phase,
	}))
}

// sendAllHands 给每个玩家私发各自的手牌。调用方持有 gs.mu。
func (gs *GameSession) sendAllHands() {
	for _, p := range gs.players {
		gs.sendHand(p)
	}
}

// --- 牌与线格式的转换 ---

// cardToInfo 牌转线格式
func cardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{
		Color: c.Color.String(),
		Value: c.Value.String(),
	}
}

// infoToCard 线格式转牌，非法输入按无效操作处理
func infoToCard(info protocol.CardInfo) (card.Card, error) {
	color, err := card.ColorFromString(info.Color)
	if err != nil {
		return card.Card{}, apperrors.ErrInvalidAction
	}
	value, err := card.ValueFromString(info.Value)
	if err != nil {
		return card.Card{}, apperrors.ErrInvalidAction
	}

	c := card.Card{Color: color, Value: value}

	// 特殊牌的颜色和面值必须配套
	if (c.Value == card.ValueWild) != (c.Color == card.WildColor) ||
		(c.Value == card.ValueSkip) != (c.Color == card.SkipColor) {
		return card.Card{}, apperrors.ErrInvalidAction
	}

	return c, nil
}

// laidToInfos 铺出的阶段牌组转线格式
func laidToInfos(groups [][]card.Card) [][]protocol.CardInfo {
	if len(groups) == 0 {
		return nil
	}
	infos := make([][]protocol.CardInfo, 0, len(groups))
	for _, g := range groups {
		infos = append(infos, cardsToInfos(g))
	}
	return infos
}

// cardsToInfos 批量转线格式
func cardsToInfos(cards []card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, 0, len(cards))
	for _, c := range cards {
		infos = append(infos, cardToInfo(c))
	}
	return infos
}

// infosToCards 批量转牌
func infosToCards(infos []protocol.CardInfo) ([]card.Card, error) {
	cards := make([]card.Card, 0, len(infos))
	for _, info := range infos {
		c, err := infoToCard(info)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
