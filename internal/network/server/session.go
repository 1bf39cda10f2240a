package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/game/card"
	"github.com/palemoky/phase-ten/internal/game/rule"
	"github.com/palemoky/phase-ten/internal/protocol"
)

// GamePlayer 对局中的玩家状态
type GamePlayer struct {
	ID        string
	Name      string
	Seat      int
	Hand      []card.Card
	Laid      [][]card.Card // 本轮已铺出的阶段牌组，对所有人公开
	Phase     int           // 当前要完成的阶段 1..10
	PhaseDone bool          // 本轮是否已铺出阶段
	Score     int           // 累计罚分，越低越好
	Offline   bool
}

// GameSession 一局游戏的权威状态。
// 所有操作先完整校验再提交，任何校验失败都不改变状态；
// 同一房间的操作由 mu 串行化，不同房间互不影响。
type GameSession struct {
	room    *Room
	players []*GamePlayer // 按座位顺序
	byID    map[string]*GamePlayer

	piles       *card.Piles
	currentTurn int // 座位下标
	dealerIdx   int
	roundNumber int
	hasDrawn    bool            // 当前玩家本回合是否已摸牌
	skipped     map[string]bool // 待生效的跳过，key 为玩家 ID
	ended       bool

	graceTimer    *time.Timer
	gracePlayerID string

	mu sync.Mutex
}

// NewGameSession 根据房间座位创建对局
func NewGameSession(room *Room) *GameSession {
	gs := &GameSession{
		room:    room,
		players: make([]*GamePlayer, 0, len(room.Players)),
		byID:    make(map[string]*GamePlayer),
		skipped: make(map[string]bool),
	}

	for seat, id := range room.PlayerOrder {
		rp := room.Players[id]
		p := &GamePlayer{
			ID:    id,
			Name:  rp.Name,
			Seat:  seat,
			Phase: 1,
		}
		gs.players = append(gs.players, p)
		gs.byID[id] = p
	}

	return gs
}

// Start 发牌并进入庄家的摸牌阶段
func (gs *GameSession) Start() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.roundNumber = 1
	gs.dealerIdx = 0

	if err := gs.deal(); err != nil {
		// 发不出牌的对局不可进入，直接标记结束防止后续操作摸到空牌堆
		gs.ended = true
		return err
	}

	gs.room.Broadcast(protocol.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{
		Snapshot: gs.snapshot(),
	}))
	gs.sendAllHands()

	return nil
}

// deal 重新发牌。手牌、牌堆全部重置，庄家先手。
func (gs *GameSession) deal() error {
	hands, piles, err := card.Deal(len(gs.players))
	if err != nil {
		return err
	}

	for i, p := range gs.players {
		p.Hand = hands[i]
		p.Laid = nil
		p.PhaseDone = false
	}
	gs.piles = piles
	gs.currentTurn = gs.dealerIdx
	gs.hasDrawn = false
	gs.skipped = make(map[string]bool)

	return nil
}

// HandleDraw 摸牌：每回合恰好一次，可从牌堆或弃牌堆
func (gs *GameSession) HandleDraw(playerID string, from card.DrawSource) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, err := gs.checkTurn(playerID)
	if err != nil {
		return err
	}

	if gs.hasDrawn {
		return apperrors.ErrInvalidAction
	}

	c, err := gs.piles.DrawFrom(from)
	if err != nil {
		return err
	}

	p.Hand = append(p.Hand, c)
	gs.hasDrawn = true

	gs.sendHand(p)
	gs.broadcastState()

	return nil
}

// HandleLayPhase 铺阶段：摸牌之后、弃牌之前，每轮最多成功一次。
// 牌必须全部在手中且恰好满足当前阶段的全部子要求。
func (gs *GameSession) HandleLayPhase(playerID string, cards []card.Card) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, err := gs.checkTurn(playerID)
	if err != nil {
		return err
	}

	if !gs.hasDrawn || p.PhaseDone {
		return apperrors.ErrInvalidAction
	}

	remaining, ok := card.TakeCards(p.Hand, cards)
	if !ok {
		return apperrors.ErrCardNotInHand
	}

	groups, ok := rule.Partition(cards, p.Phase)
	if !ok {
		return apperrors.ErrInvalidPhase
	}

	// 校验全部通过，提交：铺出的牌组留在玩家桌面直到本轮结束
	p.Hand = remaining
	p.Laid = append(p.Laid, groups...)
	p.PhaseDone = true

	log.Printf("📑 玩家 %s 铺出阶段 %d（%d 组）", p.Name, p.Phase, len(groups))

	gs.sendHand(p)
	gs.broadcastState()

	return nil
}

// HandleDiscard 弃一张牌结束回合。跳过牌必须走 play_skip_card。
func (gs *GameSession) HandleDiscard(playerID string, c card.Card) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, err := gs.checkTurn(playerID)
	if err != nil {
		return err
	}

	if !gs.hasDrawn {
		return apperrors.ErrInvalidAction
	}

	if c.IsSkip() {
		// 跳过牌需要指定目标
		return apperrors.ErrInvalidAction
	}

	if !card.Contains(p.Hand, c) {
		return apperrors.ErrCardNotInHand
	}

	gs.commitDiscard(p, c)

	return nil
}

// HandlePlaySkip 打出跳过牌结束回合，目标玩家的下一个回合作废
func (gs *GameSession) HandlePlaySkip(playerID string, c card.Card, targetID string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, err := gs.checkTurn(playerID)
	if err != nil {
		return err
	}

	if !gs.hasDrawn {
		return apperrors.ErrInvalidAction
	}

	if !c.IsSkip() {
		return apperrors.ErrInvalidAction
	}

	if !card.Contains(p.Hand, c) {
		return apperrors.ErrCardNotInHand
	}

	target, ok := gs.byID[targetID]
	if !ok || target.ID == p.ID {
		return apperrors.ErrInvalidTarget
	}

	if gs.skipped[target.ID] {
		return apperrors.ErrAlreadySkip
	}

	gs.skipped[target.ID] = true
	gs.commitDiscard(p, c)

	return nil
}

// checkTurn 公共校验：在局中、轮到自己
func (gs *GameSession) checkTurn(playerID string) (*GamePlayer, error) {
	p, ok := gs.byID[playerID]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}

	if gs.ended || gs.piles == nil {
		return nil, apperrors.ErrGameNotStart
	}

	if gs.players[gs.currentTurn] != p {
		return nil, apperrors.ErrNotYourTurn
	}

	return p, nil
}

// commitDiscard 提交弃牌：牌入弃牌堆，手牌打空则结算本轮，否则轮转。
// 调用方已完成全部校验并持有 gs.mu。
func (gs *GameSession) commitDiscard(p *GamePlayer, c card.Card) {
	p.Hand, _ = card.TakeCards(p.Hand, []card.Card{c})
	gs.piles.PushDiscard(c)

	if len(p.Hand) == 0 {
		gs.endRound(p)
		return
	}

	gs.sendHand(p)
	gs.advanceTurn()
	gs.broadcastState()
}

// advanceTurn 轮转到下一个玩家，消耗途中的待生效跳过。
// 新的当前玩家若处于离线状态，启动宽限计时。
func (gs *GameSession) advanceTurn() {
	gs.hasDrawn = false

	for {
		gs.currentTurn = (gs.currentTurn + 1) % len(gs.players)
		next := gs.players[gs.currentTurn]

		if !gs.skipped[next.ID] {
			break
		}

		delete(gs.skipped, next.ID)
		gs.room.Broadcast(protocol.MustNewMessage(protocol.MsgTurnSkipped, protocol.TurnSkippedPayload{
			PlayerID:   next.ID,
			PlayerName: next.Name,
		}))
		log.Printf("⏭️ 玩家 %s 的回合被跳过", next.Name)
	}

	if gs.players[gs.currentTurn].Offline {
		gs.armGraceTimer(gs.players[gs.currentTurn].ID)
	}
}

// endRound 本轮结算：罚分、阶段推进、判定终局或重新发牌
func (gs *GameSession) endRound(winner *GamePlayer) {
	gs.stopGraceTimer()

	// 终局判定必须在阶段推进之前：赢家本轮打空手牌且完成了第 10 阶段
	gameOver := winner.Phase == rule.MaxPhase && winner.PhaseDone

	results := make([]protocol.PlayerResult, 0, len(gs.players))
	for _, p := range gs.players {
		penalty := 0
		if p != winner {
			for _, c := range p.Hand {
				penalty += c.Penalty()
			}
			p.Score += penalty
		}

		advanced := p.PhaseDone
		if p.PhaseDone && p.Phase < rule.MaxPhase {
			p.Phase++
		}

		results = append(results, protocol.PlayerResult{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Penalty:    penalty,
			Score:      p.Score,
			Phase:      p.Phase,
			Advanced:   advanced,
		})
	}

	if gameOver {
		gs.ended = true
		gs.room.Broadcast(protocol.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{
			WinnerID:   winner.ID,
			WinnerName: winner.Name,
			Results:    results,
		}))
		log.Printf("🏆 房间 %s 游戏结束，赢家 %s", gs.room.Code, winner.Name)

		go gs.finishGame(winner.ID, results)
		return
	}

	gs.room.Broadcast(protocol.MustNewMessage(protocol.MsgRoundOver, protocol.RoundOverPayload{
		WinnerID:    winner.ID,
		WinnerName:  winner.Name,
		RoundNumber: gs.roundNumber,
		Results:     results,
	}))
	log.Printf("🔄 房间 %s 第 %d 轮结束，%s 打空手牌", gs.room.Code, gs.roundNumber, winner.Name)

	// 庄家轮换，进入下一轮
	gs.roundNumber++
	gs.dealerIdx = (gs.dealerIdx + 1) % len(gs.players)

	if err := gs.deal(); err != nil {
		// 牌数账目被破坏，房间作废
		gs.ended = true
		gs.room.Broadcast(protocol.NewErrorMessage(protocol.ErrCodeDeckExhausted))
		log.Printf("💥 房间 %s 重新发牌失败: %v", gs.room.Code, err)
		return
	}

	gs.broadcastState()
	gs.sendAllHands()

	if gs.players[gs.currentTurn].Offline {
		gs.armGraceTimer(gs.players[gs.currentTurn].ID)
	}
}

// finishGame 终局收尾：标记房间结束并写入排行榜
func (gs *GameSession) finishGame(winnerID string, results []protocol.PlayerResult) {
	gs.room.mu.Lock()
	gs.room.State = RoomStateEnded
	gs.room.EndedAt = time.Now()
	gs.room.mu.Unlock()

	lb := gs.room.server.leaderboard
	if lb == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, r := range results {
		if err := lb.RecordGameResult(ctx, r.PlayerID, r.PlayerName, r.PlayerID == winnerID, r.Score); err != nil {
			log.Printf("⚠️ 排行榜写入失败: %v", err)
		}
	}
}

// --- 掉线与托管 ---

// PlayerOffline 标记玩家离线；轮到该玩家时启动宽限计时
func (gs *GameSession) PlayerOffline(playerID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.byID[playerID]
	if !ok || gs.ended {
		return
	}

	p.Offline = true

	if gs.players[gs.currentTurn] == p {
		gs.armGraceTimer(p.ID)
	}
}

// PlayerOnline 玩家重连回来，取消对其的托管计时
func (gs *GameSession) PlayerOnline(playerID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.byID[playerID]
	if !ok {
		return
	}

	p.Offline = false

	if gs.gracePlayerID == playerID {
		gs.stopGraceTimer()
	}
}

// armGraceTimer 启动宽限计时，到期后托管打出当前回合。
// 调用方持有 gs.mu。
func (gs *GameSession) armGraceTimer(playerID string) {
	gs.stopGraceTimer()

	grace := gs.room.server.config.Game.ReconnectGraceDuration()
	gs.gracePlayerID = playerID
	gs.graceTimer = time.AfterFunc(grace, func() {
		gs.autoPlay(playerID)
	})
}

// stopGraceTimer 停止宽限计时。调用方持有 gs.mu。
func (gs *GameSession) stopGraceTimer() {
	if gs.graceTimer != nil {
		gs.graceTimer.Stop()
		gs.graceTimer = nil
		gs.gracePlayerID = ""
	}
}

// autoPlay 托管：宽限期满后替离线玩家完成最小合法回合。
// 策略：从牌堆摸一张，弃掉手中罚分最高的非跳过牌；
// 手里只剩跳过牌时打给下一个未被跳过的对手。
func (gs *GameSession) autoPlay(playerID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.byID[playerID]
	if !ok || gs.ended || !p.Offline || gs.players[gs.currentTurn] != p {
		return
	}

	gs.graceTimer = nil
	gs.gracePlayerID = ""

	if !gs.hasDrawn {
		if c, err := gs.piles.DrawFrom(card.FromDeck); err == nil {
			p.Hand = append(p.Hand, c)
			gs.hasDrawn = true
		}
	}

	if len(p.Hand) == 0 {
		return
	}

	// 弃掉罚分最高的非跳过牌
	discardIdx := -1
	for i, c := range p.Hand {
		if c.IsSkip() {
			continue
		}
		if discardIdx == -1 || c.Penalty() > p.Hand[discardIdx].Penalty() {
			discardIdx = i
		}
	}

	if discardIdx >= 0 {
		log.Printf("🤖 玩家 %s 宽限期满，托管弃牌", p.Name)
		gs.commitDiscard(p, p.Hand[discardIdx])
		return
	}

	// 满手跳过牌：打给下一个还没被跳过的对手
	for i := 1; i < len(gs.players); i++ {
		target := gs.players[(gs.currentTurn+i)%len(gs.players)]
		if target == p || gs.skipped[target.ID] {
			continue
		}
		gs.skipped[target.ID] = true
		log.Printf("🤖 玩家 %s 宽限期满，托管打出跳过牌", p.Name)
		gs.commitDiscard(p, p.Hand[0])
		return
	}

	// 没有可跳过的目标，直接弃掉跳过牌但不产生跳过效果
	gs.commitDiscard(p, p.Hand[0])
}

// --- 查询 ---

// playerInfo 返回单个玩家的公开信息
func (gs *GameSession) playerInfo(playerID string) (protocol.PlayerInfo, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.byID[playerID]
	if !ok {
		return protocol.PlayerInfo{}, false
	}
	return gs.infoOf(p), true
}

// infoOf 构建公开的玩家信息。调用方持有 gs.mu。
func (gs *GameSession) infoOf(p *GamePlayer) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:            p.ID,
		Name:          p.Name,
		Seat:          p.Seat,
		HandCount:     len(p.Hand),
		Phase:         p.Phase,
		PhaseComplete: p.PhaseDone,
		Score:         p.Score,
		Online:        !p.Offline,
		Laid:          laidToInfos(p.Laid),
	}
}

// Snapshot 返回当前局面的一致性快照
func (gs *GameSession) Snapshot() protocol.GameSnapshot {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshot()
}

// HandOf 返回指定玩家的手牌
func (gs *GameSession) HandOf(playerID string) ([]protocol.CardInfo, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.byID[playerID]
	if !ok {
		return nil, false
	}
	return cardsToInfos(p.Hand), true
}

// Ended 对局是否已结束
func (gs *GameSession) Ended() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.ended
}

// Abort 强制终止对局，房间被清理时调用。
// 停掉托管计时并拒绝之后的所有操作。
func (gs *GameSession) Abort() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.stopGraceTimer()
	gs.ended = true
}
