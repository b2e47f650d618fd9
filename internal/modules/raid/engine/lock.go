package engine

import (
	"context"
	"sync/atomic"
)

// LocalLock 单进程内的会话锁
type LocalLock struct {
	held atomic.Bool
}

func (l *LocalLock) TryAcquire(context.Context) (bool, error) {
	return l.held.CompareAndSwap(false, true), nil
}

func (l *LocalLock) Release(context.Context) error {
	l.held.Store(false)
	return nil
}

// Held 当前是否被持有
func (l *LocalLock) Held() bool {
	return l.held.Load()
}
