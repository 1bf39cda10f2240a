package card

import (
	"github.com/palemoky/phase-ten/internal/apperrors"
)

// HandSize 每人起手牌数
const HandSize = 10

// DrawSource 摸牌来源
type DrawSource string

const (
	FromDeck    DrawSource = "deck"    // 牌堆
	FromDiscard DrawSource = "discard" // 弃牌堆
)

// Piles 牌堆与弃牌堆。切片末尾为堆顶。
type Piles struct {
	Draw    Deck
	Discard Deck
}

// Deal 洗一副新牌并按座位顺序发牌。
// 返回每个玩家的手牌和初始化好的牌堆（弃牌堆顶为一张数字牌）。
func Deal(numPlayers int) ([][]Card, *Piles, error) {
	deck := NewDeck()
	deck.Shuffle()
	return dealFrom(deck, numPlayers)
}

// dealFrom 从给定顺序的牌发牌，便于测试时控制牌序。牌从切片末尾发出。
func dealFrom(deck Deck, numPlayers int) ([][]Card, *Piles, error) {
	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, HandSize+1)
	}

	pop := func() Card {
		c := deck[len(deck)-1]
		deck = deck[:len(deck)-1]
		return c
	}

	for i := 0; i < HandSize; i++ {
		for j := 0; j < numPlayers; j++ {
			hands[j] = append(hands[j], pop())
		}
	}

	// 翻牌直到弃牌堆顶是数字牌，翻出的特殊牌压回牌堆底
	var flipped Deck
	for len(deck) > 0 {
		c := pop()
		if c.IsNumber() {
			draw := make(Deck, 0, len(deck)+len(flipped))
			draw = append(draw, flipped...)
			draw = append(draw, deck...)
			return hands, &Piles{Draw: draw, Discard: Deck{c}}, nil
		}
		flipped = append(flipped, c)
	}

	// 牌堆里一张数字牌都没有：牌数账目被破坏，按致命错误处理
	return nil, nil, apperrors.ErrDeckExhausted
}

// DrawFrom 从指定的堆摸一张牌。
// 牌堆摸空时先把弃牌堆（保留堆顶）重洗为新牌堆；
// 弃牌堆为空时直接拒绝，不触发重洗。
func (p *Piles) DrawFrom(source DrawSource) (Card, error) {
	switch source {
	case FromDeck:
		if len(p.Draw) == 0 {
			p.replenish()
		}
		if len(p.Draw) == 0 {
			return Card{}, apperrors.ErrEmptyPile
		}
		c := p.Draw[len(p.Draw)-1]
		p.Draw = p.Draw[:len(p.Draw)-1]
		return c, nil

	case FromDiscard:
		if len(p.Discard) == 0 {
			return Card{}, apperrors.ErrEmptyPile
		}
		c := p.Discard[len(p.Discard)-1]
		p.Discard = p.Discard[:len(p.Discard)-1]
		return c, nil

	default:
		return Card{}, apperrors.ErrInvalidAction
	}
}

// replenish 弃牌堆重洗为新牌堆，堆顶那张保持可见
func (p *Piles) replenish() {
	if len(p.Discard) <= 1 {
		return
	}
	top := p.Discard[len(p.Discard)-1]
	rest := make(Deck, len(p.Discard)-1)
	copy(rest, p.Discard[:len(p.Discard)-1])
	rest.Shuffle()

	p.Draw = rest
	p.Discard = Deck{top}
}

// PushDiscard 把一张牌放到弃牌堆顶
func (p *Piles) PushDiscard(c Card) {
	p.Discard = append(p.Discard, c)
}

// DiscardTop 返回弃牌堆顶的牌
func (p *Piles) DiscardTop() (Card, bool) {
	if len(p.Discard) == 0 {
		return Card{}, false
	}
	return p.Discard[len(p.Discard)-1], true
}

// Count 两堆牌的总数，用于守恒校验
func (p *Piles) Count() int {
	return len(p.Draw) + len(p.Discard)
}
