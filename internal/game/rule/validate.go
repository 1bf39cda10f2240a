package rule

import (
	"sort"

	"github.com/palemoky/phase-ten/internal/game/card"
)

// Validate 判断候选牌组能否恰好满足指定阶段的全部子要求
func Validate(cards []card.Card, phase int) bool {
	_, ok := Partition(cards, phase)
	return ok
}

// Partition 在 Validate 的基础上返回满足要求的分组方式（与子要求一一对应），
// 用于审计日志。候选牌必须被各子要求恰好消耗完，不多不少。
//
// 万能牌可以落在任意子要求里，贪心的首次适配会误判，
// 这里做回溯搜索：先放数字牌，万能牌排在最后填空。
// 候选牌不超过 11 张，穷举代价可以忽略。
func Partition(cards []card.Card, phase int) ([][]card.Card, bool) {
	reqs, ok := Requirements(phase)
	if !ok {
		return nil, false
	}

	total := 0
	for _, r := range reqs {
		total += r.Count
	}
	if len(cards) != total {
		return nil, false
	}

	// 跳过牌永远不能铺进阶段
	for _, c := range cards {
		if c.IsSkip() {
			return nil, false
		}
	}

	// 数字牌在前、万能牌在后，同值相邻以便剪枝
	sorted := make([]card.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].IsWild() != sorted[j].IsWild() {
			return !sorted[i].IsWild()
		}
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value < sorted[j].Value
		}
		return sorted[i].Color < sorted[j].Color
	})

	groups := make([][]card.Card, len(reqs))
	if !assign(sorted, 0, reqs, groups) {
		return nil, false
	}
	return groups, true
}

// assign 把第 idx 张牌依次尝试放进每个还没满的分组，递归回溯
func assign(cards []card.Card, idx int, reqs []Requirement, groups [][]card.Card) bool {
	if idx == len(cards) {
		return true // 分组数量恰好匹配由调用方的总数检查保证
	}

	c := cards[idx]
	for g := range reqs {
		if len(groups[g]) >= reqs[g].Count {
			continue
		}
		if !fits(reqs[g], groups[g], c) {
			continue
		}
		groups[g] = append(groups[g], c)
		if assign(cards, idx+1, reqs, groups) {
			return true
		}
		groups[g] = groups[g][:len(groups[g])-1]
	}
	return false
}

// fits 增量校验：把 c 放入 group 后子要求是否仍可能被满足。
// 这些约束都是单调的，加牌不会修复已经破坏的约束，所以可以边放边剪。
func fits(req Requirement, group []card.Card, c card.Card) bool {
	if c.IsWild() {
		return true
	}

	switch req.Kind {
	case Set:
		// 所有数字牌面值一致
		for _, g := range group {
			if !g.IsWild() && g.Value != c.Value {
				return false
			}
		}
		return true

	case ColorGroup:
		// 所有数字牌颜色一致
		for _, g := range group {
			if !g.IsWild() && g.Color != c.Color {
				return false
			}
		}
		return true

	case Run:
		// 数字牌面值互异，且存在一个长度为 Count 的区间
		// 落在 [1,12] 内并覆盖所有数字牌，万能牌补剩下的空位
		lo, hi := c.Value, c.Value
		for _, g := range group {
			if g.IsWild() {
				continue
			}
			if g.Value == c.Value {
				return false
			}
			if g.Value < lo {
				lo = g.Value
			}
			if g.Value > hi {
				hi = g.Value
			}
		}
		span := card.Value(req.Count)
		if hi-lo+1 > span {
			return false
		}
		sLow := hi - span + 1
		if sLow < card.ValueMin {
			sLow = card.ValueMin
		}
		sHigh := card.ValueMax - span + 1
		if sHigh > lo {
			sHigh = lo
		}
		return sLow <= sHigh

	default:
		return false
	}
}
