package server

import (
	"fmt"

	"github.com/palemoky/phase-ten/internal/config"
	"github.com/palemoky/phase-ten/internal/game/card"
)

// newTestClient 构造不带真实连接的客户端，消息进缓冲即视为送达
func newTestClient(id, name string) *Client {
	return &Client{
		ID:   id,
		Name: name,
		send: make(chan []byte, 256),
	}
}

// newTestServer 构造不监听端口、不连 Redis 的服务器
func newTestServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		config:        cfg,
		clients:       make(map[string]*Client),
		connSemaphore: make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.messageLimiter = NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond)
	s.chatLimiter = NewChatRateLimiter(
		cfg.Security.ChatLimit.MaxPerSecond,
		cfg.Security.ChatLimit.MaxPerMinute,
		cfg.Security.ChatLimit.CooldownDuration(),
	)
	s.sessionManager = NewSessionManager()
	s.roomManager = NewRoomManager(s)
	s.handler = NewMessageHandler(s)

	return s
}

// newTestGame 搭一个进行中的房间和对局，玩家 ID 为 p0..pN-1
func newTestGame(numPlayers int) (*GameSession, *Room) {
	s := newTestServer(nil)

	room := &Room{
		Code:    "ABCD",
		State:   RoomStatePlaying,
		Players: make(map[string]*RoomPlayer),
		server:  s,
	}

	for i := 0; i < numPlayers; i++ {
		id := fmt.Sprintf("p%d", i)
		client := newTestClient(id, fmt.Sprintf("玩家%d", i))
		client.RoomID = room.Code
		room.Players[id] = &RoomPlayer{Client: client, Name: client.Name, Seat: i}
		room.PlayerOrder = append(room.PlayerOrder, id)
	}

	gs := NewGameSession(room)
	room.game = gs
	return gs, room
}

// rigRound 绕过发牌，直接设置各玩家手牌和两堆牌，0 号位先手
func rigRound(gs *GameSession, hands [][]card.Card, draw, discard card.Deck) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	for i, p := range gs.players {
		p.Hand = hands[i]
		p.Laid = nil
		p.PhaseDone = false
	}
	gs.piles = &card.Piles{Draw: draw, Discard: discard}
	gs.currentTurn = 0
	gs.dealerIdx = 0
	gs.roundNumber = 1
	gs.hasDrawn = false
	gs.skipped = make(map[string]bool)
}

// totalCards 对局里所有容器的牌数合计：两堆牌、手牌和铺出的阶段牌组
func totalCards(gs *GameSession) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	total := gs.piles.Count()
	for _, p := range gs.players {
		total += len(p.Hand)
		for _, g := range p.Laid {
			total += len(g)
		}
	}
	return total
}

func numCard(color card.Color, v int) card.Card {
	return card.Card{Color: color, Value: card.Value(v)}
}

func wildCard() card.Card {
	return card.Card{Color: card.WildColor, Value: card.ValueWild}
}

func skipCard() card.Card {
	return card.Card{Color: card.SkipColor, Value: card.ValueSkip}
}
