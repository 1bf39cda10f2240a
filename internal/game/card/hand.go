package card

// TakeCards 从手牌中取出指定的牌。
// 全部找到时返回剩余手牌和 true；任意一张不在手中则不变更并返回 false。
// 同面值的牌按出现顺序逐张匹配，不会重复消耗同一张。
func TakeCards(hand, toTake []Card) ([]Card, bool) {
	remaining := make([]Card, len(hand))
	copy(remaining, hand)

	for _, c := range toTake {
		found := false
		for i, h := range remaining {
			if h == c {
				remaining = append(remaining[:i], remaining[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return hand, false
		}
	}
	return remaining, true
}

// Contains 手牌中是否有指定的牌
func Contains(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}
