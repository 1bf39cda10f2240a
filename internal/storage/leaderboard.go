package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis 键
const (
	keyLeaderboardWins = "phase10:leaderboard:wins" // zset: playerID -> 胜场数
	keyPlayerPrefix    = "phase10:player:"          // hash: 玩家统计
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string
	PlayerName string
	TotalGames int
	Wins       int
	TotalScore int // 累计罚分
}

// WinRate 胜率
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames)
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	PlayerID   string
	PlayerName string
	Wins       int
	TotalGames int
}

// WinRate 胜率
func (e *LeaderboardEntry) WinRate() float64 {
	if e.TotalGames == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.TotalGames)
}

// LeaderboardManager 排行榜管理器，基于 Redis 持久化胜场与罚分统计
type LeaderboardManager struct {
	client *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{client: client}
}

// RecordGameResult 记录一局游戏结果
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, playerID, playerName string, won bool, score int) error {
	playerKey := keyPlayerPrefix + playerID

	pipe := lm.client.Pipeline()
	pipe.HSet(ctx, playerKey, "name", playerName)
	pipe.HIncrBy(ctx, playerKey, "total_games", 1)
	pipe.HIncrBy(ctx, playerKey, "total_score", int64(score))

	// 所有玩家都进榜，胜者加一分
	pipe.ZAddNX(ctx, keyLeaderboardWins, redis.Z{Score: 0, Member: playerID})
	if won {
		pipe.HIncrBy(ctx, playerKey, "wins", 1)
		pipe.ZIncrBy(ctx, keyLeaderboardWins, 1, playerID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("记录游戏结果失败: %w", err)
	}
	return nil
}

// GetPlayerStats 获取玩家统计
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.client.HGetAll(ctx, keyPlayerPrefix+playerID).Result()
	if err != nil {
		return nil, fmt.Errorf("查询玩家统计失败: %w", err)
	}

	stats := &PlayerStats{
		PlayerID:   playerID,
		PlayerName: data["name"],
	}
	stats.TotalGames, _ = strconv.Atoi(data["total_games"])
	stats.Wins, _ = strconv.Atoi(data["wins"])
	stats.TotalScore, _ = strconv.Atoi(data["total_score"])

	return stats, nil
}

// GetPlayerRank 获取玩家的胜场排名（从 1 开始，未上榜返回 0）
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int, error) {
	rank, err := lm.client.ZRevRank(ctx, keyLeaderboardWins, playerID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询排名失败: %w", err)
	}
	return int(rank) + 1, nil
}

// GetLeaderboard 获取胜场前 n 名
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	members, err := lm.client.ZRevRangeWithScores(ctx, keyLeaderboardWins, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("查询排行榜失败: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, m := range members {
		playerID, ok := m.Member.(string)
		if !ok {
			continue
		}

		entry := LeaderboardEntry{
			PlayerID: playerID,
			Wins:     int(m.Score),
		}

		data, err := lm.client.HGetAll(ctx, keyPlayerPrefix+playerID).Result()
		if err == nil {
			entry.PlayerName = data["name"]
			entry.TotalGames, _ = strconv.Atoi(data["total_games"])
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
