package service

import (
	"context"
	"time"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/pkg/xerrors"
)

// DefaultBidQueueSize 出价队列缓冲
const DefaultBidQueueSize = 256

// BidQueue 多生产者单消费者的出价队列，实现 engine.BidStream
// HTTP 与 NATS 两个入口都写入同一个队列，拍卖逐个判定
type BidQueue struct {
	ch chan engine.BidEvent
}

// NewBidQueue size <= 0 时使用 DefaultBidQueueSize
func NewBidQueue(size int) *BidQueue {
	if size <= 0 {
		size = DefaultBidQueueSize
	}
	return &BidQueue{ch: make(chan engine.BidEvent, size)}
}

// Push 非阻塞写入；队列已满时返回限流错误
func (q *BidQueue) Push(bid engine.BidEvent) error {
	select {
	case q.ch <- bid:
		return nil
	default:
		return xerrors.New(xerrors.CodeRateLimitExceeded, "出价队列已满")
	}
}

// Next 等待下一个出价，timeout 到期或 ctx 取消时返回 WaitTimedOut
func (q *BidQueue) Next(ctx context.Context, timeout time.Duration) (engine.BidEvent, engine.WaitResult) {
	if timeout <= 0 {
		select {
		case bid := <-q.ch:
			return bid, engine.WaitReceived
		default:
			return engine.BidEvent{}, engine.WaitTimedOut
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case bid := <-q.ch:
		return bid, engine.WaitReceived
	case <-timer.C:
		return engine.BidEvent{}, engine.WaitTimedOut
	case <-ctx.Done():
		return engine.BidEvent{}, engine.WaitTimedOut
	}
}

// Drain 丢弃上一场遗留的出价，返回丢弃数量
func (q *BidQueue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len 当前排队的出价数
func (q *BidQueue) Len() int {
	return len(q.ch)
}
