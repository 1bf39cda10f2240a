package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/phase-ten/internal/apperrors"
	"github.com/palemoky/phase-ten/internal/game/card"
)

func TestStartDealsHands(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	require.NoError(t, gs.Start())

	snap := gs.Snapshot()
	assert.True(t, snap.Started)
	assert.Equal(t, 1, snap.RoundNumber)
	assert.Equal(t, 0, snap.CurrentTurn)
	require.NotNil(t, snap.DiscardTop)
	assert.NotEqual(t, "Wild", snap.DiscardTop.Value)
	assert.NotEqual(t, "Skip", snap.DiscardTop.Value)

	for _, p := range snap.Players {
		assert.Equal(t, card.HandSize, p.HandCount)
		assert.Equal(t, 1, p.Phase)
		assert.False(t, p.PhaseComplete)
	}

	assert.Equal(t, 108, totalCards(gs))
}

func TestDrawSequence(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 1), numCard(card.Red, 2)},
			{numCard(card.Blue, 1), numCard(card.Blue, 2)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	// 没轮到的玩家不能摸牌
	err := gs.HandleDraw("p1", card.FromDeck)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	// 摸牌前不能弃牌
	err = gs.HandleDiscard("p0", numCard(card.Red, 1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)

	// 正常摸牌
	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	info, _ := gs.playerInfo("p0")
	assert.Equal(t, 3, info.HandCount)

	// 一回合只能摸一次
	err = gs.HandleDraw("p0", card.FromDeck)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
}

func TestDrawFromEmptyDiscard(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 1)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{}, // 弃牌堆为空
	)

	err := gs.HandleDraw("p0", card.FromDiscard)
	assert.ErrorIs(t, err, apperrors.ErrEmptyPile)

	// 失败不消耗本回合的摸牌机会
	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
}

func TestLayPhase(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	phase1 := []card.Card{
		numCard(card.Red, 3), numCard(card.Blue, 3), numCard(card.Green, 3),
		numCard(card.Red, 7), numCard(card.Yellow, 7), numCard(card.Blue, 7),
	}
	hand := append(append([]card.Card{}, phase1...),
		numCard(card.Red, 9), numCard(card.Blue, 10), numCard(card.Green, 11), numCard(card.Yellow, 12))

	rigRound(gs,
		[][]card.Card{hand, {numCard(card.Blue, 1)}},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 2)},
	)

	// 摸牌前不能铺
	err := gs.HandleLayPhase("p0", phase1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))

	// 牌不在手中
	err = gs.HandleLayPhase("p0", []card.Card{
		numCard(card.Red, 4), numCard(card.Blue, 4), numCard(card.Green, 4),
		numCard(card.Red, 8), numCard(card.Yellow, 8), numCard(card.Blue, 8),
	})
	assert.ErrorIs(t, err, apperrors.ErrCardNotInHand)

	// 不满足阶段要求
	err = gs.HandleLayPhase("p0", []card.Card{
		numCard(card.Red, 3), numCard(card.Blue, 3), numCard(card.Green, 3),
		numCard(card.Red, 9), numCard(card.Blue, 10), numCard(card.Green, 11),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhase)

	// 校验失败不改变手牌
	info, _ := gs.playerInfo("p0")
	assert.Equal(t, 11, info.HandCount)
	assert.False(t, info.PhaseComplete)

	// 合法铺牌
	require.NoError(t, gs.HandleLayPhase("p0", phase1))
	info, _ = gs.playerInfo("p0")
	assert.Equal(t, 5, info.HandCount)
	assert.True(t, info.PhaseComplete)
	require.Len(t, info.Laid, 2, "铺出的牌组对所有人公开")
	assert.Len(t, info.Laid[0], 3)
	assert.Len(t, info.Laid[1], 3)

	// 本轮不能再铺
	err = gs.HandleLayPhase("p0", []card.Card{numCard(card.Red, 9)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
}

func TestDiscardAdvancesTurn(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 1), numCard(card.Red, 2)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	require.NoError(t, gs.HandleDiscard("p0", numCard(card.Red, 1)))

	snap := gs.Snapshot()
	assert.Equal(t, 1, snap.CurrentTurn)
	require.NotNil(t, snap.DiscardTop)
	assert.Equal(t, "Red", snap.DiscardTop.Color)
	assert.Equal(t, "1", snap.DiscardTop.Value)

	// 下一个玩家的摸牌机会已重置
	require.NoError(t, gs.HandleDraw("p1", card.FromDeck))
}

func TestDiscardSkipCardRejected(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{skipCard(), numCard(card.Red, 2)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))

	// 跳过牌必须指定目标，普通弃牌入口直接拒绝
	err := gs.HandleDiscard("p0", skipCard())
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
}

func TestSkipTargeting(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(3)
	rigRound(gs,
		[][]card.Card{
			{skipCard(), numCard(card.Red, 2)},
			{skipCard(), numCard(card.Blue, 2)},
			{numCard(card.Green, 2)},
		},
		card.Deck{numCard(card.Green, 5), numCard(card.Green, 6), numCard(card.Green, 7)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))

	// 不能跳过自己
	err := gs.HandlePlaySkip("p0", skipCard(), "p0")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTarget)

	// 目标必须在局中
	err = gs.HandlePlaySkip("p0", skipCard(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTarget)

	// 跳过入口只接受跳过牌
	err = gs.HandlePlaySkip("p0", numCard(card.Red, 2), "p2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)

	// p0 跳过 p2，轮到 p1
	require.NoError(t, gs.HandlePlaySkip("p0", skipCard(), "p2"))
	assert.Equal(t, 1, gs.Snapshot().CurrentTurn)

	// p2 已有待生效的跳过，不能叠加
	require.NoError(t, gs.HandleDraw("p1", card.FromDeck))
	err = gs.HandlePlaySkip("p1", skipCard(), "p2")
	assert.ErrorIs(t, err, apperrors.ErrAlreadySkip)

	// p1 正常弃牌后，p2 的回合被跳过，直接轮回 p0
	require.NoError(t, gs.HandleDiscard("p1", numCard(card.Blue, 2)))
	assert.Equal(t, 0, gs.Snapshot().CurrentTurn)
}

func TestSkipWithTwoPlayers(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{skipCard(), numCard(card.Red, 2)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	require.NoError(t, gs.HandlePlaySkip("p0", skipCard(), "p1"))

	// 两人局跳过对手后立刻轮回自己
	assert.Equal(t, 0, gs.Snapshot().CurrentTurn)
}

func TestGoingOutScoring(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{}, // p0 摸一张弃一张即打空
			{numCard(card.Red, 5), numCard(card.Blue, 5), wildCard()},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)
	gs.mu.Lock()
	gs.players[0].PhaseDone = true // p0 本轮已完成阶段
	gs.mu.Unlock()

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	require.NoError(t, gs.HandleDiscard("p0", numCard(card.Green, 5)))

	snap := gs.Snapshot()
	assert.Equal(t, 2, snap.RoundNumber)
	assert.Equal(t, 1, snap.CurrentTurn, "庄家轮换到 1 号位")

	// 留牌 [5,5,Wild] 记 5+5+25=35 罚分；打空者不罚并推进阶段
	p0, _ := gs.playerInfo("p0")
	p1, _ := gs.playerInfo("p1")
	assert.Equal(t, 0, p0.Score)
	assert.Equal(t, 2, p0.Phase)
	assert.Equal(t, 35, p1.Score)
	assert.Equal(t, 1, p1.Phase)

	// 重新发牌后牌数守恒
	assert.Equal(t, card.HandSize, p0.HandCount)
	assert.Equal(t, card.HandSize, p1.HandCount)
	assert.Equal(t, 108, totalCards(gs))
	assert.False(t, p0.PhaseComplete, "新一轮重置铺牌标记")
}

func TestGameOver(t *testing.T) {
	t.Parallel()

	gs, room := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{},
			{numCard(card.Red, 5)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)
	gs.mu.Lock()
	gs.players[0].Phase = 10
	gs.players[0].PhaseDone = true
	gs.mu.Unlock()

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	require.NoError(t, gs.HandleDiscard("p0", numCard(card.Green, 5)))

	assert.True(t, gs.Ended())

	// 终局后不再接受操作
	err := gs.HandleDraw("p1", card.FromDeck)
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)

	require.Eventually(t, func() bool {
		room.mu.RLock()
		defer room.mu.RUnlock()
		return room.State == RoomStateEnded
	}, time.Second, 10*time.Millisecond)
}

func TestPhaseTenWithoutGoingOutContinues(t *testing.T) {
	t.Parallel()

	// p1 在第 10 阶段完成铺牌，但打空手牌的是 p0：游戏继续
	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{},
			{numCard(card.Red, 5)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)
	gs.mu.Lock()
	gs.players[1].Phase = 10
	gs.players[1].PhaseDone = true
	gs.mu.Unlock()

	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	require.NoError(t, gs.HandleDiscard("p0", numCard(card.Green, 5)))

	assert.False(t, gs.Ended())
	p1, _ := gs.playerInfo("p1")
	assert.Equal(t, 10, p1.Phase, "阶段 10 封顶不再推进")
}

func TestCardConservation(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(3)
	require.NoError(t, gs.Start())
	assert.Equal(t, 108, totalCards(gs))

	// 打几个完整回合，每次操作后牌数守恒
	for turn := 0; turn < 6; turn++ {
		gs.mu.Lock()
		actor := gs.players[gs.currentTurn]
		gs.mu.Unlock()

		require.NoError(t, gs.HandleDraw(actor.ID, card.FromDeck))
		assert.Equal(t, 108, totalCards(gs))

		gs.mu.Lock()
		var discard card.Card
		var hasNumber bool
		for _, c := range actor.Hand {
			if !c.IsSkip() {
				discard, hasNumber = c, true
				break
			}
		}
		gs.mu.Unlock()

		if hasNumber {
			require.NoError(t, gs.HandleDiscard(actor.ID, discard))
		} else {
			// 满手跳过牌，找个没被跳过的目标打出去
			gs.mu.Lock()
			var target string
			for _, p := range gs.players {
				if p != actor && !gs.skipped[p.ID] {
					target = p.ID
					break
				}
			}
			gs.mu.Unlock()
			require.NoError(t, gs.HandlePlaySkip(actor.ID, skipCard(), target))
		}
		assert.Equal(t, 108, totalCards(gs))
	}
}

func TestCardConservationWithLay(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	hand := []card.Card{
		numCard(card.Red, 3), numCard(card.Blue, 3), numCard(card.Green, 3),
		numCard(card.Red, 7), numCard(card.Yellow, 7), numCard(card.Red, 9),
	}
	rigRound(gs,
		[][]card.Card{hand, {numCard(card.Blue, 1)}},
		card.Deck{numCard(card.Blue, 7)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	before := totalCards(gs)
	require.NoError(t, gs.HandleDraw("p0", card.FromDeck))
	assert.Equal(t, before, totalCards(gs))

	// 铺出的牌离开手牌但留在桌面上，总数不变
	require.NoError(t, gs.HandleLayPhase("p0", []card.Card{
		numCard(card.Red, 3), numCard(card.Blue, 3), numCard(card.Green, 3),
		numCard(card.Red, 7), numCard(card.Yellow, 7), numCard(card.Blue, 7),
	}))
	assert.Equal(t, before, totalCards(gs))

	info, _ := gs.playerInfo("p0")
	assert.Equal(t, 1, info.HandCount)
	require.Len(t, info.Laid, 2)

	// 弃掉最后一张打空手牌：重新发牌后桌面清空，整副牌归位
	require.NoError(t, gs.HandleDiscard("p0", numCard(card.Red, 9)))
	assert.Equal(t, 108, totalCards(gs))
	assert.Equal(t, 2, gs.Snapshot().RoundNumber)

	info, _ = gs.playerInfo("p0")
	assert.Empty(t, info.Laid)
}

func TestActionsBeforeDealRejected(t *testing.T) {
	t.Parallel()

	// 尚未发牌的对局没有牌堆，操作要被拒绝而不是崩溃
	gs, _ := newTestGame(2)

	err := gs.HandleDraw("p0", card.FromDeck)
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)

	err = gs.HandleDiscard("p0", numCard(card.Red, 1))
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
}

func TestAbortStopsGame(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 1)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	// 轮到离线玩家，托管计时已启动
	gs.PlayerOffline("p0")

	gs.Abort()
	assert.True(t, gs.Ended())

	gs.mu.Lock()
	armed := gs.gracePlayerID
	gs.mu.Unlock()
	assert.Empty(t, armed, "终止时取消托管计时")

	err := gs.HandleDraw("p0", card.FromDeck)
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
}

func TestAutoPlayDiscardsHighestPenalty(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 3), wildCard(), numCard(card.Green, 7)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)
	gs.mu.Lock()
	gs.players[0].Offline = true
	gs.mu.Unlock()

	gs.autoPlay("p0")

	snap := gs.Snapshot()
	assert.Equal(t, 1, snap.CurrentTurn, "托管完成后轮到下家")
	require.NotNil(t, snap.DiscardTop)
	assert.Equal(t, "Wild", snap.DiscardTop.Value, "托管弃掉罚分最高的牌")

	info, _ := gs.playerInfo("p0")
	assert.Equal(t, 3, info.HandCount)
}

func TestAutoPlayAllSkipHand(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{skipCard()},
			{numCard(card.Blue, 1)},
		},
		card.Deck{skipCard()},
		card.Deck{numCard(card.Yellow, 3)},
	)
	gs.mu.Lock()
	gs.players[0].Offline = true
	gs.mu.Unlock()

	gs.autoPlay("p0")

	// 打出跳过牌给 p1，p1 的回合作废后轮回 p0
	assert.Equal(t, 0, gs.Snapshot().CurrentTurn)

	gs.mu.Lock()
	pending := len(gs.skipped)
	gs.mu.Unlock()
	assert.Zero(t, pending, "跳过已被消耗")
}

func TestAutoPlaySkipsWhenPlayerReturns(t *testing.T) {
	t.Parallel()

	gs, _ := newTestGame(2)
	rigRound(gs,
		[][]card.Card{
			{numCard(card.Red, 3)},
			{numCard(card.Blue, 1)},
		},
		card.Deck{numCard(card.Green, 5)},
		card.Deck{numCard(card.Yellow, 3)},
	)

	gs.PlayerOffline("p0")
	gs.mu.Lock()
	armed := gs.gracePlayerID
	gs.mu.Unlock()
	assert.Equal(t, "p0", armed, "轮到离线玩家时启动宽限计时")

	gs.PlayerOnline("p0")
	gs.mu.Lock()
	armed = gs.gracePlayerID
	gs.mu.Unlock()
	assert.Empty(t, armed, "重连取消托管")

	// 玩家已回来，托管不再生效
	gs.autoPlay("p0")
	assert.Equal(t, 0, gs.Snapshot().CurrentTurn)
}
