package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericlagergren/decimal"
)

// maxRNG 总是返回最大值
type maxRNG struct{}

func (maxRNG) Intn(n int) int { return n - 1 }

// zeroRNG 总是返回 0
type zeroRNG struct{}

func (zeroRNG) Intn(int) int { return 0 }

// seqRNG 按顺序返回预设值（对 n 取模），耗尽后返回 0
type seqRNG struct {
	values []int
	i      int
}

func (r *seqRNG) Intn(n int) int {
	if r.i >= len(r.values) {
		return 0
	}
	v := r.values[r.i] % n
	r.i++
	return v
}

type fakeRoster struct {
	ids []string
	err error
}

func (f *fakeRoster) GetJoined(context.Context, string) ([]string, error) {
	return f.ids, f.err
}

type fakeLedger struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	balances map[string]int64
	applied  map[string]Delta
	byUser   map[string][]Delta
	failFor  map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		profiles: map[string]*Profile{},
		balances: map[string]int64{},
		applied:  map[string]Delta{},
		byUser:   map[string][]Delta{},
		failFor:  map[string]error{},
	}
}

func (f *fakeLedger) add(id string, baseDamage, baseArmor, balance int64) *fakeLedger {
	f.profiles[id] = &Profile{
		UserID:      id,
		BaseDamage:  baseDamage,
		BaseArmor:   baseArmor,
		AtkMultiply: decimal.New(1, 0),
		DefMultiply: decimal.New(1, 0),
		Money:       balance,
	}
	f.balances[id] = balance
	return f
}

func (f *fakeLedger) GetProfile(_ context.Context, id string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id], nil
}

func (f *fakeLedger) GetBalance(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[id], nil
}

func (f *fakeLedger) ApplyDelta(_ context.Context, id string, d Delta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[id]; err != nil {
		return err
	}
	if _, done := f.applied[d.Key]; done {
		return nil
	}
	f.applied[d.Key] = d
	f.byUser[id] = append(f.byUser[id], d)
	f.balances[id] += d.Money
	return nil
}

func (f *fakeLedger) setBalance(id string, v int64) {
	f.mu.Lock()
	f.balances[id] = v
	f.mu.Unlock()
}

// ctxLedger 与 SQL 账本一样，ctx 取消后拒绝读写
type ctxLedger struct {
	*fakeLedger
}

func (l ctxLedger) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.fakeLedger.GetProfile(ctx, id)
}

func (l ctxLedger) GetBalance(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.fakeLedger.GetBalance(ctx, id)
}

func (l ctxLedger) ApplyDelta(ctx context.Context, id string, d Delta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.fakeLedger.ApplyDelta(ctx, id, d)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingSink) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// scriptedBids 依次返回预设出价，耗尽后超时；可选在某次出价前执行钩子
type scriptedBids struct {
	bids   []BidEvent
	i      int
	before func(i int)
}

func (s *scriptedBids) Next(context.Context, time.Duration) (BidEvent, WaitResult) {
	if s.i >= len(s.bids) {
		return BidEvent{}, WaitTimedOut
	}
	if s.before != nil {
		s.before(s.i)
	}
	b := s.bids[s.i]
	s.i++
	return b, WaitReceived
}

type fixedChoice struct {
	index int
	ok    bool
	asked []string
}

func (f *fixedChoice) Ask(_ context.Context, id string, _ []string, _ time.Duration) (int, bool) {
	f.asked = append(f.asked, id)
	return f.index, f.ok
}

var errLedgerDown = errors.New("ledger down")

var testEpoch = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

func newTestEngine(roster RosterProvider, ledger ProfileStore, rng RNG) (*Engine, *recordingSink, *ManualClock, *LocalLock) {
	sink := &recordingSink{}
	clock := NewManualClock(testEpoch)
	lock := &LocalLock{}
	e := NewEngine(Dependencies{
		Roster:   roster,
		Profiles: ledger,
		Events:   sink,
		Clock:    clock,
		Lock:     lock,
		RNG:      rng,
		Logger:   discardLogger(),
	})
	return e, sink, clock, lock
}

// bossSession 直接构造会话，绕过调度器测试单回合
func bossSession(cfg BossConfig, participants ...*Combatant) (*Session, *BossMode) {
	mode := &BossMode{cfg: cfg}
	s := newSession("s-test", EncounterConfig{Mode: ModeBoss, Boss: &cfg}, mode, testEpoch)
	mode.Prepare(s, zeroRNG{})
	for _, p := range participants {
		s.Participants.Add(p)
	}
	return s, mode
}

func roundCtx(s *Session, rng RNG, round int) *RoundContext {
	return &RoundContext{Ctx: context.Background(), Round: round, Session: s, RNG: rng, Record: &RoundRecord{Round: round}}
}
