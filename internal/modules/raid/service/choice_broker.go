package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tsu-raid/internal/pkg/xerrors"
)

type pendingChoice struct {
	options []string
	answer  chan int
}

// ChoiceBroker 实现 engine.InteractiveChoice：回合内向玩家发起询问，HTTP 行动接口作答
type ChoiceBroker struct {
	mu      sync.Mutex
	pending map[string]*pendingChoice
}

func NewChoiceBroker() *ChoiceBroker {
	return &ChoiceBroker{pending: make(map[string]*pendingChoice)}
}

// Ask 阻塞直到玩家作答、超时或 ctx 取消；同一玩家同时只有一个询问
func (b *ChoiceBroker) Ask(ctx context.Context, participantID string, options []string, timeout time.Duration) (int, bool) {
	p := &pendingChoice{options: append([]string(nil), options...), answer: make(chan int, 1)}

	b.mu.Lock()
	b.pending[participantID] = p
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.pending[participantID] == p {
			delete(b.pending, participantID)
		}
		b.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case idx := <-p.answer:
		return idx, true
	case <-timer.C:
		return 0, false
	case <-ctx.Done():
		return 0, false
	}
}

// Pending 玩家当前待选的行动，没有时返回 nil
func (b *ChoiceBroker) Pending(participantID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pending[participantID]; ok {
		return append([]string(nil), p.options...)
	}
	return nil
}

// Answer 按选项名或序号作答
func (b *ChoiceBroker) Answer(participantID, action string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[participantID]
	if !ok {
		return 0, xerrors.FromCode(xerrors.CodeRaidNoPendingChoice).WithMetadata("user_id", participantID)
	}

	idx := -1
	for i, opt := range p.options {
		if opt == action || fmt.Sprint(i) == action {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, xerrors.NewValidationError("action", fmt.Sprintf("未知的行动: %s", action))
	}

	// answer 有一个缓冲且作答后立即移除，不会阻塞
	p.answer <- idx
	delete(b.pending, participantID)
	return idx, nil
}
