package redis

import (
	"context"
	"fmt"
	"time"

	"tsu-raid/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Config Redis 配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Client Redis 客户端封装，每个操作都记录 metrics
type Client struct {
	*redis.Client
	service string
}

// NewClient 创建 Redis 客户端
func NewClient(cfg Config, service string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	return Wrap(rdb, service), nil
}

// Wrap 包装已有连接（测试或共享连接池时使用）
func Wrap(rdb *redis.Client, service string) *Client {
	if service == "" {
		service = metrics.GetServiceName()
	}
	return &Client{Client: rdb, service: service}
}

func (c *Client) record(op string, err error, start time.Time) {
	metrics.DefaultResourceMetrics.RecordRedisOperation(op, err == nil || err == redis.Nil, time.Since(start), c.service)
	switch {
	case err == redis.Nil:
		metrics.DefaultResourceMetrics.RecordRedisError("nil", c.service)
	case err != nil:
		metrics.DefaultResourceMetrics.RecordRedisError("operation_error", c.service)
	}
}

// SetNXWithTTL 仅当 key 不存在时写入
func (c *Client) SetNXWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.SetNX(ctx, key, value, ttl).Result()
	c.record("SETNX", err, start)
	return ok, err
}

// GetString 获取字符串值
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	start := time.Now()
	result, err := c.Get(ctx, key).Result()
	c.record("GET", err, start)
	return result, err
}

// AddMembers 按加入时间写入有序集合（已存在的成员保持原位置）并刷新过期时间
func (c *Client) AddMembers(ctx context.Context, key string, ttl time.Duration, members ...string) (int64, error) {
	start := time.Now()
	score := float64(start.UnixNano())
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		zs[i] = redis.Z{Score: score, Member: m}
	}
	pipe := c.TxPipeline()
	added := pipe.ZAddNX(ctx, key, zs...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	c.record("ZADD", err, start)
	if err != nil {
		return 0, err
	}
	return added.Val(), nil
}

// Members 按加入顺序读取全部成员
func (c *Client) Members(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := c.ZRange(ctx, key, 0, -1).Result()
	c.record("ZRANGE", err, start)
	return members, err
}

// DeleteKey 删除键
func (c *Client) DeleteKey(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.Del(ctx, keys...).Err()
	c.record("DEL", err, start)
	return err
}

// RunScript 执行 Lua 脚本
func (c *Client) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	start := time.Now()
	res, err := script.Run(ctx, c.Client, keys, args...).Result()
	c.record("EVALSHA", err, start)
	return res, err
}
