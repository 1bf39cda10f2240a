package card

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Color 定义牌的颜色
type Color int

// Value 定义牌面值
type Value int

const (
	Red Color = iota
	Blue
	Green
	Yellow
	WildColor // 万能牌无颜色
	SkipColor // 跳过牌无颜色
)

const (
	ValueMin  Value = 1
	ValueMax  Value = 12
	ValueWild Value = 13 // 万能牌
	ValueSkip Value = 14 // 跳过牌
)

// 罚分规则：数字牌按面值计，万能牌 25 分，跳过牌 15 分
const (
	wildPenalty = 25
	skipPenalty = 15
)

// Card 定义一张牌
type Card struct {
	Color Color
	Value Value
}

// colorNames 颜色字符串映射表
var colorNames = map[Color]string{
	Red:       "Red",
	Blue:      "Blue",
	Green:     "Green",
	Yellow:    "Yellow",
	WildColor: "Wild",
	SkipColor: "Skip",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "Unknown"
}

// ColorFromString 解析颜色字符串
func ColorFromString(s string) (Color, error) {
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return -1, fmt.Errorf("无法识别的颜色: %s", s)
}

func (v Value) String() string {
	switch v {
	case ValueWild:
		return "Wild"
	case ValueSkip:
		return "Skip"
	default:
		return strconv.Itoa(int(v))
	}
}

// ValueFromString 解析牌面值字符串
func ValueFromString(s string) (Value, error) {
	switch s {
	case "Wild":
		return ValueWild, nil
	case "Skip":
		return ValueSkip, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || Value(n) < ValueMin || Value(n) > ValueMax {
		return -1, fmt.Errorf("无法识别的牌面值: %s", s)
	}
	return Value(n), nil
}

func (c Card) String() string {
	if c.IsWild() || c.IsSkip() {
		return c.Value.String()
	}
	return c.Color.String() + " " + c.Value.String()
}

// IsWild 是否为万能牌
func (c Card) IsWild() bool { return c.Value == ValueWild }

// IsSkip 是否为跳过牌
func (c Card) IsSkip() bool { return c.Value == ValueSkip }

// IsNumber 是否为数字牌
func (c Card) IsNumber() bool { return c.Value >= ValueMin && c.Value <= ValueMax }

// Penalty 轮末罚分
func (c Card) Penalty() int {
	switch {
	case c.IsWild():
		return wildPenalty
	case c.IsSkip():
		return skipPenalty
	default:
		return int(c.Value)
	}
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 构建标准 108 张牌：
// 4 色 × 1-12 各 2 张 = 96 张，外加 8 张万能牌和 4 张跳过牌
func NewDeck() Deck {
	deck := make(Deck, 0, 108)
	for _, color := range []Color{Red, Blue, Green, Yellow} {
		for v := ValueMin; v <= ValueMax; v++ {
			deck = append(deck, Card{Color: color, Value: v}, Card{Color: color, Value: v})
		}
	}
	for i := 0; i < 8; i++ {
		deck = append(deck, Card{Color: WildColor, Value: ValueWild})
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Color: SkipColor, Value: ValueSkip})
	}
	return deck
}

// Shuffle 均匀洗牌
func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}
