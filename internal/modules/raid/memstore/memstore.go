// Package memstore 内存版报名名单与资料账本，用于离线模拟和测试
package memstore

import (
	"context"
	"sync"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/ericlagergren/decimal"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/repository/interfaces"
)

// Roster 按加入顺序保存每个会话的报名名单
type Roster struct {
	mu     sync.Mutex
	joined map[string][]string
}

// NewRoster 创建内存名单
func NewRoster() *Roster {
	return &Roster{joined: make(map[string][]string)}
}

// Join 重复加入返回 false
func (r *Roster) Join(_ context.Context, sessionID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.joined[sessionID] {
		if id == userID {
			return false, nil
		}
	}
	r.joined[sessionID] = append(r.joined[sessionID], userID)
	return true, nil
}

// JoinAll 把同一批用户加入所有会话，sessionID 为空时作为通配
func (r *Roster) JoinAll(userIDs ...string) {
	for _, id := range userIDs {
		_, _ = r.Join(context.Background(), "", id)
	}
}

func (r *Roster) GetJoined(_ context.Context, sessionID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := append([]string(nil), r.joined[sessionID]...)
	for _, id := range r.joined[""] {
		if !contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type account struct {
	profile engine.Profile
	xp      int64
	items   map[string]int64
}

// Ledger 内存资料与账本，实现 interfaces.RaidProfileRepository
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
	applied  map[string]engine.Delta
	entries  []Entry
}

// Entry 一条已生效的流水
type Entry struct {
	UserID string
	Delta  engine.Delta
}

// NewLedger 创建内存账本
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[string]*account),
		applied:  make(map[string]engine.Delta),
	}
}

// Put 写入或覆盖资料
func (l *Ledger) Put(p engine.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[p.UserID]; ok {
		acc.profile = p
		return
	}
	l.accounts[p.UserID] = &account{profile: p, items: make(map[string]int64)}
}

func (l *Ledger) GetProfile(_ context.Context, userID string) (*engine.Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok {
		return nil, nil
	}
	p := acc.profile
	return &p, nil
}

func (l *Ledger) GetBalance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[userID]; ok {
		return acc.profile.Money, nil
	}
	return 0, nil
}

func (l *Ledger) ApplyDelta(ctx context.Context, userID string, delta engine.Delta) error {
	_, err := l.ApplyDeltaTx(ctx, nil, userID, delta)
	return err
}

// ApplyDeltaTx exec 被忽略，内存账本的每次调用本身就是原子的
func (l *Ledger) ApplyDeltaTx(_ context.Context, _ boil.ContextExecutor, userID string, delta engine.Delta) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(userID, delta)
}

func (l *Ledger) applyLocked(userID string, delta engine.Delta) (bool, error) {
	acc, ok := l.accounts[userID]
	if !ok {
		return false, interfaces.ErrProfileNotFound
	}
	if _, done := l.applied[delta.Key]; done {
		return false, nil
	}
	if delta.Money < 0 && acc.profile.Money+delta.Money < 0 {
		return false, interfaces.ErrInsufficientFunds
	}

	acc.profile.Money += delta.Money
	acc.xp += delta.XP
	for item, n := range delta.Items {
		acc.items[item] += n
		if acc.items[item] < 0 {
			acc.items[item] = 0
		}
	}
	l.applied[delta.Key] = delta
	l.entries = append(l.entries, Entry{UserID: userID, Delta: delta})
	return true, nil
}

func (l *Ledger) UpgradeStat(_ context.Context, userID string, stat interfaces.RaidStat, quote interfaces.UpgradeQuote, key string) (*interfaces.UpgradeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[userID]
	if !ok {
		return nil, interfaces.ErrProfileNotFound
	}

	var current *decimal.Big
	switch stat {
	case interfaces.RaidStatDamage:
		current = acc.profile.AtkMultiply
	case interfaces.RaidStatDefense:
		current = acc.profile.DefMultiply
	default:
		return nil, interfaces.ErrUnknownStat
	}
	if current == nil {
		current = decimal.New(1, 0)
	}

	next, price, err := quote(current)
	if err != nil {
		return nil, err
	}
	if acc.profile.Money < price {
		return nil, interfaces.ErrInsufficientFunds
	}
	if price > 0 {
		if _, err := l.applyLocked(userID, engine.Delta{Money: -price, Reason: "raid stat upgrade: " + string(stat), Key: key}); err != nil {
			return nil, err
		}
	}

	if stat == interfaces.RaidStatDamage {
		acc.profile.AtkMultiply = next
	} else {
		acc.profile.DefMultiply = next
	}
	return &interfaces.UpgradeResult{Stat: stat, Level: next, Price: price, Balance: acc.profile.Money}, nil
}

// Items 用户持有的物品数量
func (l *Ledger) Items(userID string) map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64)
	if acc, ok := l.accounts[userID]; ok {
		for k, v := range acc.items {
			out[k] = v
		}
	}
	return out
}

// XP 用户累计经验
func (l *Ledger) XP(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[userID]; ok {
		return acc.xp
	}
	return 0
}

// Entries 已生效流水，按写入顺序
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

var _ interfaces.RaidProfileRepository = (*Ledger)(nil)
