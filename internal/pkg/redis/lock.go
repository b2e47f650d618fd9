package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRaidLockKey 全局 raid 锁的 key
const DefaultRaidLockKey = "special:raid"

// 只删除自己持有的租约
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockNotHeld Release 时租约已丢失（过期或被他人持有）
var ErrLockNotHeld = errors.New("redis lease lock not held")

// LeaseLock 基于 SET NX EX 的进程间互斥锁，带 TTL 防止进程崩溃后死锁
type LeaseLock struct {
	client *Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

// NewLeaseLock key 为空时使用 DefaultRaidLockKey
func NewLeaseLock(client *Client, key string, ttl time.Duration) *LeaseLock {
	if key == "" {
		key = DefaultRaidLockKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LeaseLock{client: client, key: key, ttl: ttl}
}

// TryAcquire 立即返回，不排队
func (l *LeaseLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token != "" {
		return false, nil
	}

	token := uuid.NewString()
	ok, err := l.client.SetNXWithTTL(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release 释放锁；租约已丢失时返回 ErrLockNotHeld
func (l *LeaseLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	res, err := l.client.RunScript(ctx, releaseScript, []string{l.key}, token)
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if n, ok := res.(int64); ok && n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
