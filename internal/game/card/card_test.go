package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckComposition(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	require.Len(t, deck, 108)

	counts := make(map[Card]int)
	wilds, skips := 0, 0
	for _, c := range deck {
		switch {
		case c.IsWild():
			wilds++
		case c.IsSkip():
			skips++
		default:
			counts[c]++
		}
	}

	assert.Equal(t, 8, wilds, "万能牌应有 8 张")
	assert.Equal(t, 4, skips, "跳过牌应有 4 张")

	// 每种颜色每个面值恰好两张
	for _, color := range []Color{Red, Blue, Green, Yellow} {
		for v := ValueMin; v <= ValueMax; v++ {
			assert.Equal(t, 2, counts[Card{Color: color, Value: v}], "%v %v", color, v)
		}
	}
}

func TestShufflePreservesCards(t *testing.T) {
	t.Parallel()

	deck := NewDeck()
	shuffled := make(Deck, len(deck))
	copy(shuffled, deck)
	shuffled.Shuffle()

	require.Len(t, shuffled, 108)

	count := func(d Deck) map[Card]int {
		m := make(map[Card]int)
		for _, c := range d {
			m[c]++
		}
		return m
	}
	assert.Equal(t, count(deck), count(shuffled))
}

func TestPenalty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card Card
		want int
	}{
		{"数字牌按面值", Card{Color: Red, Value: 7}, 7},
		{"最小面值", Card{Color: Blue, Value: 1}, 1},
		{"最大面值", Card{Color: Green, Value: 12}, 12},
		{"万能牌 25 分", Card{Color: WildColor, Value: ValueWild}, 25},
		{"跳过牌 15 分", Card{Color: SkipColor, Value: ValueSkip}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.card.Penalty())
		})
	}
}

func TestCardPredicates(t *testing.T) {
	t.Parallel()

	wild := Card{Color: WildColor, Value: ValueWild}
	skip := Card{Color: SkipColor, Value: ValueSkip}
	num := Card{Color: Yellow, Value: 9}

	assert.True(t, wild.IsWild())
	assert.False(t, wild.IsNumber())
	assert.True(t, skip.IsSkip())
	assert.False(t, skip.IsNumber())
	assert.True(t, num.IsNumber())
	assert.False(t, num.IsWild())
	assert.False(t, num.IsSkip())
}

func TestValueRoundTrip(t *testing.T) {
	t.Parallel()

	for v := ValueMin; v <= ValueMax; v++ {
		parsed, err := ValueFromString(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	for _, s := range []string{"Wild", "Skip"} {
		v, err := ValueFromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}

	for _, s := range []string{"0", "13", "abc", ""} {
		_, err := ValueFromString(s)
		assert.Error(t, err, s)
	}
}

func TestColorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Color{Red, Blue, Green, Yellow, WildColor, SkipColor} {
		parsed, err := ColorFromString(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ColorFromString("Purple")
	assert.Error(t, err)
}
