package service

import (
	"context"
	"fmt"
	"time"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/pkg/redis"
)

// RosterKeyPrefix 报名名单 key 前缀，与全局锁共用 special:raid 命名空间
const RosterKeyPrefix = redis.DefaultRaidLockKey + ":joined:"

// Roster 可写的报名名单
type Roster interface {
	engine.RosterProvider
	// Join 重复加入返回 false
	Join(ctx context.Context, sessionID, userID string) (bool, error)
}

// RedisRoster 基于 Redis 有序集合的报名名单，按加入顺序返回
type RedisRoster struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoster ttl 应覆盖一场 raid 的最长时长
func NewRedisRoster(client *redis.Client, ttl time.Duration) *RedisRoster {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisRoster{client: client, ttl: ttl}
}

func rosterKey(sessionID string) string {
	return RosterKeyPrefix + sessionID
}

func (r *RedisRoster) Join(ctx context.Context, sessionID, userID string) (bool, error) {
	added, err := r.client.AddMembers(ctx, rosterKey(sessionID), r.ttl, userID)
	if err != nil {
		return false, fmt.Errorf("join raid %s: %w", sessionID, err)
	}
	return added > 0, nil
}

func (r *RedisRoster) GetJoined(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := r.client.Members(ctx, rosterKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read raid roster %s: %w", sessionID, err)
	}
	return ids, nil
}
