package engine

import (
	"context"
	"time"

	"github.com/ericlagergren/decimal"
)

// RosterProvider 报名名单来源
type RosterProvider interface {
	// GetJoined 返回原始候选 ID，可能为空
	GetJoined(ctx context.Context, sessionID string) ([]string, error)
}

// Profile 参与资格与属性数据
type Profile struct {
	UserID string
	God    string
	Class  string
	Race   string
	Guild  string
	Money  int64

	BaseDamage int64
	BaseArmor  int64

	AtkMultiply *decimal.Big
	DefMultiply *decimal.Big

	// RaiderTier 职业 raider 阶位，每阶 +0.1 倍率
	RaiderTier int
	// RaidBuilding 公会 raid 建筑等级，每级 +0.1 倍率
	RaidBuilding int
}

// Delta 一次账本变更，Key 用于幂等
type Delta struct {
	Money  int64            `json:"money,omitempty"`
	XP     int64            `json:"xp,omitempty"`
	Items  map[string]int64 `json:"items,omitempty"`
	Reason string           `json:"reason"`
	Key    string           `json:"key"`
}

// IsZero 没有任何变更
func (d Delta) IsZero() bool {
	if d.Money != 0 || d.XP != 0 {
		return false
	}
	for _, n := range d.Items {
		if n != 0 {
			return false
		}
	}
	return true
}

// ProfileStore 资料与账本；ApplyDelta 对同一 Key 只生效一次
type ProfileStore interface {
	// GetProfile 不存在时返回 (nil, nil)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	ApplyDelta(ctx context.Context, userID string, delta Delta) error
}

// EventSink 叙事 / 遥测出口，失败不影响会话
type EventSink interface {
	Emit(ctx context.Context, event Event) error
}

// InteractiveChoice 向目标玩家询问行动，超时返回 ok=false
type InteractiveChoice interface {
	Ask(ctx context.Context, participantID string, options []string, timeout time.Duration) (index int, ok bool)
}

// WaitResult 等待原语的结果
type WaitResult int

const (
	WaitReceived WaitResult = iota
	WaitTimedOut
)

// BidEvent 拍卖出价
type BidEvent struct {
	BidderID string    `json:"bidder_id"`
	Amount   int64     `json:"amount"`
	At       time.Time `json:"at,omitempty"`
}

// BidStream 单消费者出价队列
type BidStream interface {
	Next(ctx context.Context, timeout time.Duration) (BidEvent, WaitResult)
}

// SessionLock 进程级互斥
type SessionLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// EventType 会话事件类型
type EventType string

const (
	EventSpawned         EventType = "spawned"
	EventCountdown       EventType = "countdown"
	EventRosterResolved  EventType = "roster_resolved"
	EventRound           EventType = "round"
	EventChoiceRequested EventType = "choice_requested"
	EventResolved        EventType = "resolved"
	EventAuctionOpened   EventType = "auction_opened"
	EventBidAccepted     EventType = "bid_accepted"
	EventBidRejected     EventType = "bid_rejected"
	EventAuctionClosed   EventType = "auction_closed"
	EventAuctionVoid     EventType = "auction_void"
	EventReward          EventType = "reward"
	EventPayout          EventType = "payout"
	EventClosed          EventType = "closed"
)

// Event 推送给 EventSink 的事件
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Preset    string    `json:"preset,omitempty"`
	Mode      ModeKind  `json:"mode"`
	Round     int       `json:"round,omitempty"`
	At        time.Time `json:"at"`
	Data      any       `json:"data,omitempty"`
}

type nopSink struct{}

func (nopSink) Emit(context.Context, Event) error { return nil }
