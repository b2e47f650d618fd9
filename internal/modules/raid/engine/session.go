package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tsu-raid/internal/pkg/xerrors"
)

// State 会话状态
type State string

const (
	StateSignup    State = "signup"
	StateCountdown State = "countdown"
	StateActive    State = "active"
	StateResolved  State = "resolved"
	StateClosed    State = "closed"
)

// Outcome 结局
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeWipe    Outcome = "wipe"
	OutcomeVictory Outcome = "victory"
	OutcomeTimeout Outcome = "timeout"
)

// RoundRecord 一回合的结算记录
type RoundRecord struct {
	Round         int      `json:"round"`
	TargetID      string   `json:"target_id,omitempty"`
	AttackerID    string   `json:"attacker_id,omitempty"`
	Action        string   `json:"action,omitempty"`
	Ability       string   `json:"ability,omitempty"`
	Game          string   `json:"game,omitempty"`
	Roll          int      `json:"roll,omitempty"`
	RawDamage     int64    `json:"raw_damage,omitempty"`
	Damage        int64    `json:"damage"`
	TargetHP      int64    `json:"target_hp"`
	CounterDamage int64    `json:"counter_damage,omitempty"`
	EnemyHP       int64    `json:"enemy_hp,omitempty"`
	EnemiesLeft   int      `json:"enemies_left,omitempty"`
	KillReward    int64    `json:"kill_reward,omitempty"`
	Blocked       bool     `json:"blocked,omitempty"`
	Executed      bool     `json:"executed,omitempty"`
	Culled        bool     `json:"culled,omitempty"`
	Eliminated    []string `json:"eliminated,omitempty"`
}

// Session 一次 raid 会话，由调度器独占修改
type Session struct {
	ID     string
	Preset string
	Mode   Mode
	Config EncounterConfig

	CreatedAt time.Time
	StartedAt time.Time
	Deadline  time.Time
	EndedAt   time.Time

	Participants *Arena

	// Boss 单 boss 模式
	Boss      *Combatant
	InitialHP int64
	// Queue 波次模式，只有队首参与战斗
	Queue []*Combatant

	mu       sync.Mutex
	state    State
	outcome  Outcome
	round    atomic.Int32
	roundLog []RoundRecord

	// auctionOpen 拍卖窗口开启期间为 true
	auctionOpen bool

	rewardFailures []string
}

func newSession(id string, cfg EncounterConfig, mode Mode, now time.Time) *Session {
	return &Session{
		ID:           id,
		Preset:       cfg.Preset,
		Mode:         mode,
		Config:       cfg,
		CreatedAt:    now,
		Participants: NewArena(),
		state:        StateSignup,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// RoundLog 返回副本
func (s *Session) RoundLog() []RoundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RoundRecord(nil), s.roundLog...)
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) resolve(outcome Outcome, now time.Time) {
	s.mu.Lock()
	s.state = StateResolved
	s.outcome = outcome
	s.EndedAt = now
	s.mu.Unlock()
}

// AuctionOpen 是否正在接受出价
func (s *Session) AuctionOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auctionOpen
}

func (s *Session) setAuctionOpen(open bool) {
	s.mu.Lock()
	s.auctionOpen = open
	s.mu.Unlock()
}

// Joinable 报名阶段或倒计时阶段
func (s *Session) Joinable() bool {
	st := s.State()
	return st == StateSignup || st == StateCountdown
}

// Survivors 存活者，按 ID 升序
func (s *Session) Survivors() []*Combatant {
	alive := s.Participants.Alive()
	sort.Slice(alive, func(i, j int) bool { return alive[i].ID < alive[j].ID })
	return alive
}

// AlterBossHP 修改 boss 当前血量与初始血量（影响奖池），仅限 COUNTDOWN / ACTIVE
func (s *Session) AlterBossHP(hp int64) error {
	if hp <= 0 {
		return xerrors.NewValidationError("hp", "must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Boss == nil {
		return xerrors.FromCode(xerrors.CodeRaidStateConflict).WithMetadata("reason", "not a boss raid")
	}
	if s.state != StateCountdown && s.state != StateActive {
		return xerrors.FromCode(xerrors.CodeRaidStateConflict).WithMetadata("state", string(s.state))
	}
	s.Boss.HP = hp
	s.Boss.MaxHP = hp
	s.Boss.Alive = true
	s.InitialHP = hp
	return nil
}

// Snapshot 会话只读快照
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Preset       string    `json:"preset"`
	Mode         ModeKind  `json:"mode"`
	State        State     `json:"state"`
	Outcome      Outcome   `json:"outcome,omitempty"`
	Round        int       `json:"round"`
	CreatedAt    time.Time `json:"created_at"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	Deadline     time.Time `json:"deadline,omitempty"`
	BossName     string    `json:"boss_name,omitempty"`
	BossHP       int64     `json:"boss_hp,omitempty"`
	InitialHP    int64     `json:"initial_hp,omitempty"`
	EnemiesLeft  int       `json:"enemies_left,omitempty"`
	HeadHP       int64     `json:"head_hp,omitempty"`
	Participants int       `json:"participants"`
	Alive        int       `json:"alive"`
	AuctionOpen  bool      `json:"auction_open,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:    s.ID,
		Preset:       s.Preset,
		Mode:         s.Config.Mode,
		State:        s.state,
		Outcome:      s.outcome,
		Round:        int(s.round.Load()),
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		Deadline:     s.Deadline,
		Participants: s.Participants.Len(),
		Alive:        s.Participants.AliveCount(),
		EnemiesLeft:  len(s.Queue),
		AuctionOpen:  s.auctionOpen,
	}
	if s.Boss != nil {
		snap.BossName = s.Boss.Name
		snap.BossHP = s.Boss.HP
		snap.InitialHP = s.InitialHP
	}
	if len(s.Queue) > 0 {
		snap.HeadHP = s.Queue[0].HP
	}
	return snap
}

// RoundContext 单回合上下文
type RoundContext struct {
	Ctx     context.Context
	Round   int
	Session *Session
	RNG     RNG
	Choice  InteractiveChoice
	Ledger  ProfileStore

	Mods   Modifiers
	Target *Combatant
	Action *PlayerAction
	Record *RoundRecord

	emit func(EventType, any)
}

// Emit 发送事件，失败由引擎吞掉
func (rc *RoundContext) Emit(t EventType, data any) {
	if rc.emit != nil {
		rc.emit(t, data)
	}
}
