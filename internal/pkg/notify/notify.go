package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// Default subjects
const (
	SubjectRaidEventsPrefix = "raid.events"
	SubjectRaidBids         = "raid.bids"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

func currentConn() *nats.Conn {
	ncMu.RLock()
	defer ncMu.RUnlock()
	return nc
}

// RaidEventSubject raid.events.<type>
func RaidEventSubject(eventType string) string {
	return SubjectRaidEventsPrefix + "." + eventType
}

// PublishEvent 发布 JSON 事件；没有连接时静默降级
func PublishEvent(ctx context.Context, subject string, payload any) error {
	conn := currentConn()
	if conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s failed: %w", subject, err)
	}
	return conn.Publish(subject, data)
}

// Subscription 可取消的订阅
type Subscription interface {
	Unsubscribe() error
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }

// Subscribe 订阅 subject，handler 在 NATS 回调 goroutine 中执行；没有连接时返回空订阅
func Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	conn := currentConn()
	if conn == nil {
		return noopSubscription{}, nil
	}
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s failed: %w", subject, err)
	}
	return sub, nil
}
