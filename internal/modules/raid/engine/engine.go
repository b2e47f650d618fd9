package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tsu-raid/internal/pkg/ctxkey"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/xerrors"
)

// Dependencies 引擎依赖，未设置的字段使用默认实现
type Dependencies struct {
	Roster   RosterProvider
	Profiles ProfileStore
	Events   EventSink
	Clock    Clock
	Choice   InteractiveChoice
	Bids     BidStream
	Lock     SessionLock
	RNG      RNG
	Logger   log.Logger
	NewID    func() string
}

// Result 会话结束后的汇总
type Result struct {
	SessionID      string         `json:"session_id"`
	Preset         string         `json:"preset"`
	Mode           ModeKind       `json:"mode"`
	Outcome        Outcome        `json:"outcome"`
	Rounds         int            `json:"rounds"`
	Participants   int            `json:"participants"`
	Survivors      []string       `json:"survivors"`
	InitialHP      int64          `json:"initial_hp,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        time.Time      `json:"ended_at"`
	Auction        *AuctionResult `json:"auction,omitempty"`
	Payout         *PayoutResult  `json:"payout,omitempty"`
	RewardFailures []string       `json:"reward_failures,omitempty"`
	RoundLog       []RoundRecord  `json:"round_log"`
}

// Duration ACTIVE 阶段耗时
func (r *Result) Duration() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Engine 回合调度器 + 会话状态机，同一时刻最多一个会话
type Engine struct {
	deps   Dependencies
	logger log.Logger

	mu      sync.RWMutex
	current *Session
}

// NewEngine 创建引擎
func NewEngine(deps Dependencies) *Engine {
	if deps.Events == nil {
		deps.Events = nopSink{}
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.RNG == nil {
		deps.RNG = NewRNG(0)
	}
	if deps.Lock == nil {
		deps.Lock = &LocalLock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.GetLogger()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Engine{
		deps:   deps,
		logger: deps.Logger.With("component", "raid-engine"),
	}
}

// Current 当前会话，没有则返回 nil
func (e *Engine) Current() *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Spawn 校验配置、获取全局锁并进入倒计时；锁被占用时立即失败
func (e *Engine) Spawn(ctx context.Context, cfg EncounterConfig) (*Session, error) {
	mode, err := cfg.BuildMode()
	if err != nil {
		return nil, err
	}

	ok, err := e.deps.Lock.TryAcquire(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeCacheError, "获取 raid 锁失败")
	}
	if !ok {
		return nil, xerrors.FromCode(xerrors.CodeRaidInProgress)
	}

	s := newSession(e.deps.NewID(), cfg, mode, e.deps.Clock.Now())
	mode.Prepare(s, e.deps.RNG)
	s.setState(StateCountdown)

	e.mu.Lock()
	e.current = s
	e.mu.Unlock()

	e.emit(ctx, s, EventSpawned, map[string]any{"initial_hp": s.InitialHP, "enemies": len(s.Queue)})
	e.logger.InfoContext(ctx, "raid 已创建", log.String("session_id", s.ID), log.String("preset", s.Preset), log.String("mode", string(cfg.Mode)))
	return s, nil
}

// Run 执行倒计时、回合循环、拍卖与结算，结束时释放锁
// 返回的 error 仅表示奖励部分发放，Result 始终有效
func (e *Engine) Run(ctx context.Context, s *Session) (*Result, error) {
	ctx = ctxkey.WithRaidSession(ctx, s.ID)
	defer e.close(ctx, s)

	e.countdown(ctx, s)
	e.resolveRoster(ctx, s)
	outcome := e.loop(ctx, s)

	result := &Result{
		SessionID:    s.ID,
		Preset:       s.Preset,
		Mode:         s.Config.Mode,
		Outcome:      outcome,
		Participants: s.Participants.Len(),
		InitialHP:    s.InitialHP,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		Survivors:    []string{},
	}
	survivors := s.Survivors()
	for _, c := range survivors {
		result.Survivors = append(result.Survivors, c.ID)
	}
	e.emit(ctx, s, EventResolved, map[string]any{"outcome": outcome, "survivors": result.Survivors})

	var payoutErr error
	if outcome == OutcomeVictory && len(survivors) > 0 {
		if auctionCfg := s.Config.Reward.Auction; auctionCfg != nil {
			auction := newAuction(s.ID, *auctionCfg, result.Survivors, e.deps.Clock, e.deps.Bids, e.deps.Profiles, e.emitter(ctx, s), e.logger)
			auction.onClose = func() { s.setAuctionOpen(false) }
			s.setAuctionOpen(true)
			res := auction.Run(ctx)
			result.Auction = &res
		}
		if e.deps.Profiles != nil {
			// 胜利一旦判定，发奖不随会话 ctx 取消而中断
			settleCtx, cancel := settlementContext(ctx)
			plan := PlanPayout(s, e.deps.RNG)
			payoutErr = ApplyPayout(settleCtx, s.ID, plan, e.deps.Profiles)
			cancel()
			result.Payout = plan
			e.emit(ctx, s, EventPayout, plan)
			if payoutErr != nil {
				e.logger.ErrorContext(ctx, "raid 奖励部分发放失败", log.Any("error", payoutErr))
			}
		}
	}

	result.Rounds = int(s.round.Load())
	s.mu.Lock()
	result.RoundLog = append([]RoundRecord(nil), s.roundLog...)
	result.RewardFailures = append([]string(nil), s.rewardFailures...)
	s.mu.Unlock()

	return result, payoutErr
}

// SettlementTimeout 拍卖结算与发奖的超时
const SettlementTimeout = 30 * time.Second

// settlementContext 脱离会话 ctx 的取消，保留其中的值
func settlementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), SettlementTimeout)
}

// Start Spawn + Run
func (e *Engine) Start(ctx context.Context, cfg EncounterConfig) (*Result, error) {
	s, err := e.Spawn(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, s)
}

func (e *Engine) countdown(ctx context.Context, s *Session) {
	total := s.Config.Countdown.Signup
	var elapsed time.Duration
	for _, n := range s.Config.sortedNotices() {
		at := total - n.Before
		if at < elapsed {
			continue
		}
		_ = e.deps.Clock.Sleep(ctx, at-elapsed)
		elapsed = at
		e.emit(ctx, s, EventCountdown, map[string]any{"before_ms": n.Before.Milliseconds(), "message": n.Message})
	}
	if total > elapsed {
		_ = e.deps.Clock.Sleep(ctx, total-elapsed)
	}
}

// resolveRoster 剔除无资料、不满足资格或属性计算失败的候选人
func (e *Engine) resolveRoster(ctx context.Context, s *Session) {
	var ids []string
	if e.deps.Roster != nil {
		joined, err := e.deps.Roster.GetJoined(ctx, s.ID)
		if err != nil {
			e.logger.WarnContext(ctx, "读取报名名单失败，按空名单处理", log.Any("error", err))
		}
		ids = joined
	}

	dropped := 0
	for _, id := range ids {
		if s.Participants.Get(id) != nil {
			continue
		}
		combatant, reason := e.admit(ctx, s, id)
		if combatant == nil {
			dropped++
			e.logger.DebugContext(ctx, "候选人被剔除", log.String("user_id", id), log.String("reason", reason))
			continue
		}
		s.mu.Lock()
		s.Participants.Add(combatant)
		s.mu.Unlock()
	}
	e.emit(ctx, s, EventRosterResolved, map[string]any{"admitted": s.Participants.Len(), "dropped": dropped})
}

func (e *Engine) admit(ctx context.Context, s *Session, userID string) (*Combatant, string) {
	if e.deps.Profiles == nil {
		return nil, "no profile store"
	}
	profile, err := e.deps.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, "profile lookup failed"
	}
	if profile == nil {
		return nil, "no profile"
	}
	if !s.Config.Eligibility.Allows(profile) {
		return nil, "not eligible"
	}
	combatant, err := s.Mode.Enlist(userID, profile)
	if err != nil {
		return nil, err.Error()
	}
	return combatant, ""
}

// loop 每回合之前按 WIPE / VICTORY / TIMEOUT 顺序检查终止条件
func (e *Engine) loop(ctx context.Context, s *Session) Outcome {
	clock := e.deps.Clock
	now := clock.Now()

	s.mu.Lock()
	s.state = StateActive
	s.StartedAt = now
	s.Deadline = clock.DeadlineFrom(now, s.Config.deadline())
	s.mu.Unlock()

	for {
		s.mu.Lock()
		outcome, done := s.Mode.Outcome(s)
		s.mu.Unlock()
		if done {
			s.resolve(outcome, clock.Now())
			return outcome
		}
		if ctx.Err() != nil || !clock.Now().Before(s.Deadline) {
			s.resolve(OutcomeTimeout, clock.Now())
			return OutcomeTimeout
		}

		round := int(s.round.Add(1))

		rc := &RoundContext{
			Ctx:     ctx,
			Round:   round,
			Session: s,
			RNG:     e.deps.RNG,
			Choice:  e.deps.Choice,
			Ledger:  e.deps.Profiles,
			Record:  &RoundRecord{Round: round},
			emit:    e.emitter(ctx, s),
		}
		if p, ok := s.Mode.(Prompter); ok {
			p.Prompt(rc)
		}

		s.mu.Lock()
		s.Mode.Resolve(rc)
		s.roundLog = append(s.roundLog, *rc.Record)
		s.mu.Unlock()

		e.emit(ctx, s, EventRound, rc.Record)
		_ = clock.Sleep(ctx, s.Config.RoundDelay)
	}
}

func (e *Engine) close(ctx context.Context, s *Session) {
	s.setState(StateClosed)
	e.emit(ctx, s, EventClosed, map[string]any{"outcome": s.Outcome()})

	e.mu.Lock()
	if e.current == s {
		e.current = nil
	}
	e.mu.Unlock()

	// 会话的 ctx 可能已取消，释放锁使用独立的超时
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.deps.Lock.Release(releaseCtx); err != nil {
		e.logger.WarnContext(ctx, "释放 raid 锁失败", log.Any("error", err))
	}
	e.logger.InfoContext(ctx, "raid 已关闭", log.String("outcome", string(s.Outcome())))
}

func (e *Engine) emitter(ctx context.Context, s *Session) func(EventType, any) {
	return func(t EventType, data any) {
		e.emit(ctx, s, t, data)
	}
}

// emit 失败只记录 debug 日志；可能在持有会话锁时调用，不能再加锁
func (e *Engine) emit(ctx context.Context, s *Session, t EventType, data any) {
	event := Event{
		Type:      t,
		SessionID: s.ID,
		Preset:    s.Preset,
		Mode:      s.Config.Mode,
		Round:     int(s.round.Load()),
		At:        e.deps.Clock.Now(),
		Data:      data,
	}
	if err := e.deps.Events.Emit(ctx, event); err != nil {
		e.logger.DebugContext(ctx, "事件推送失败", log.String("event", string(t)), log.Any("error", err))
	}
}
