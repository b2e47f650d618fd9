package service

import (
	"context"
	"errors"
	"sync"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/pkg/metrics"
	"tsu-raid/internal/pkg/notify"
)

// 注意：engine 可能在持有会话锁时调用 Emit，sink 内不能读取 Session 快照

// MultiSink 依次推送到所有 sink，错误合并返回
type MultiSink []engine.EventSink

func (m MultiSink) Emit(ctx context.Context, event engine.Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NATSSink 把事件发布到 raid.events.<type>
type NATSSink struct {
	publish func(ctx context.Context, subject string, payload any) error
}

func NewNATSSink() *NATSSink {
	return &NATSSink{publish: notify.PublishEvent}
}

func (s *NATSSink) Emit(ctx context.Context, event engine.Event) error {
	return s.publish(ctx, notify.RaidEventSubject(string(event.Type)), event)
}

// MetricsSink 把事件折算成 Prometheus 指标
type MetricsSink struct {
	metrics *metrics.RaidMetrics
	service string
}

func NewMetricsSink(m *metrics.RaidMetrics, service string) *MetricsSink {
	if m == nil {
		m = metrics.DefaultRaidMetrics
	}
	return &MetricsSink{metrics: m, service: service}
}

func (s *MetricsSink) Emit(_ context.Context, event engine.Event) error {
	switch event.Type {
	case engine.EventRound:
		s.metrics.RecordRound(string(event.Mode), s.service)
	case engine.EventRosterResolved:
		if data, ok := event.Data.(map[string]any); ok {
			if admitted, ok := data["admitted"].(int); ok {
				s.metrics.SetParticipants(admitted, s.service)
			}
		}
	case engine.EventBidAccepted:
		s.metrics.RecordBid("accepted", s.service)
	case engine.EventBidRejected:
		s.metrics.RecordBid("rejected", s.service)
	case engine.EventClosed:
		s.metrics.SetParticipants(0, s.service)
	}
	return nil
}

// DefaultEventLogSize 每场保留的最近事件数
const DefaultEventLogSize = 100

// EventLog 保存当前会话最近的事件，供状态接口回放
type EventLog struct {
	mu        sync.Mutex
	size      int
	sessionID string
	events    []engine.Event
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{size: size}
}

func (l *EventLog) Emit(_ context.Context, event engine.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if event.SessionID != l.sessionID {
		l.sessionID = event.SessionID
		l.events = l.events[:0]
	}
	l.events = append(l.events, event)
	if len(l.events) > l.size {
		l.events = append(l.events[:0:0], l.events[len(l.events)-l.size:]...)
	}
	return nil
}

// Recent 指定会话最近的事件，limit <= 0 返回全部
func (l *EventLog) Recent(sessionID string, limit int) []engine.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sessionID != l.sessionID {
		return []engine.Event{}
	}
	events := l.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return append([]engine.Event{}, events...)
}
