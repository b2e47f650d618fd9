package engine

import (
	"context"
	"sync"
	"time"
)

// Clock 调度原语，测试中替换为 ManualClock
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
	DeadlineFrom(now time.Time, d time.Duration) time.Time
}

// RealClock 墙钟
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (RealClock) DeadlineFrom(now time.Time, d time.Duration) time.Time { return now.Add(d) }

// ManualClock 模拟时间：Sleep 立即返回并推进当前时间
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

func (c *ManualClock) DeadlineFrom(now time.Time, d time.Duration) time.Time { return now.Add(d) }

// Advance 推进模拟时间
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
