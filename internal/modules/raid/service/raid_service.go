package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/ericlagergren/decimal"
	"github.com/google/uuid"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/pkg/ctxkey"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/metrics"
	"tsu-raid/internal/pkg/notify"
	"tsu-raid/internal/pkg/xerrors"
	"tsu-raid/internal/repository/interfaces"
)

// Deps RaidService 依赖；Reports、Sink、Lock 可以为空
type Deps struct {
	Roster   Roster
	Profiles interfaces.RaidProfileRepository
	Reports  interfaces.RaidReportRepository
	Lock     engine.SessionLock
	Clock    engine.Clock
	RNG      engine.RNG
	// Sink 额外的事件出口（例如 NATS），指标与事件回放由服务自带
	Sink    engine.EventSink
	Metrics *metrics.RaidMetrics
	Logger  log.Logger

	// PacingScale 缩放倒计时与回合间隔，0 表示快进
	PacingScale float64
	ServiceName string
}

// SpawnRequest 创建 raid 请求
type SpawnRequest struct {
	Preset      string   `json:"preset" validate:"required"`
	BossHP      int64    `json:"boss_hp" validate:"omitempty,gt=0"`
	EnemyCount  int      `json:"enemy_count" validate:"omitempty,gte=0"`
	PacingScale *float64 `json:"pacing_scale,omitempty" validate:"omitempty,gte=0"`
}

// JoinResult 报名结果
type JoinResult struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	// Joined false 表示之前已经报名
	Joined bool `json:"joined"`
}

// StatsView raid 属性与下一级价格
type StatsView struct {
	UserID           string `json:"user_id"`
	Damage           int64  `json:"damage"`
	Armor            int64  `json:"armor"`
	AtkMultiply      string `json:"atk_multiply"`
	DefMultiply      string `json:"def_multiply"`
	RaiderTier       int    `json:"raider_tier"`
	RaidBuilding     int    `json:"raid_building"`
	Money            int64  `json:"money"`
	NextDamagePrice  int64  `json:"next_damage_price"`
	NextDefensePrice int64  `json:"next_defense_price"`
}

// bidMessage NATS 出价消息
type bidMessage struct {
	SessionID string `json:"session_id,omitempty"`
	BidderID  string `json:"bidder_id"`
	Amount    int64  `json:"amount"`
}

// RaidService 组合引擎与外部存储，对 HTTP / RPC / 定时任务提供 raid 用例
type RaidService struct {
	engine   *engine.Engine
	roster   Roster
	profiles interfaces.RaidProfileRepository
	reports  interfaces.RaidReportRepository
	bids     *BidQueue
	choices  *ChoiceBroker
	events   *EventLog
	metrics  *metrics.RaidMetrics
	logger   log.Logger

	pacingScale float64
	serviceName string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastMu sync.RWMutex
	last   *engine.Result
}

// NewRaidService 创建 raid 服务
func NewRaidService(deps Deps) *RaidService {
	if deps.Logger == nil {
		deps.Logger = log.GetLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultRaidMetrics
	}
	if deps.ServiceName == "" {
		deps.ServiceName = metrics.GetServiceName()
	}

	s := &RaidService{
		roster:      deps.Roster,
		profiles:    deps.Profiles,
		reports:     deps.Reports,
		bids:        NewBidQueue(0),
		choices:     NewChoiceBroker(),
		events:      NewEventLog(0),
		metrics:     deps.Metrics,
		logger:      deps.Logger.With("component", "raid-service"),
		pacingScale: deps.PacingScale,
		serviceName: deps.ServiceName,
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	var profiles engine.ProfileStore
	if deps.Profiles != nil {
		profiles = deps.Profiles
	}
	var roster engine.RosterProvider
	if deps.Roster != nil {
		roster = deps.Roster
	}

	s.engine = engine.NewEngine(engine.Dependencies{
		Roster:   roster,
		Profiles: profiles,
		Events:   MultiSink{s.events, NewMetricsSink(deps.Metrics, deps.ServiceName), deps.Sink},
		Clock:    deps.Clock,
		Choice:   s.choices,
		Bids:     s.bids,
		Lock:     deps.Lock,
		RNG:      deps.RNG,
		Logger:   deps.Logger,
	})
	return s
}

// Engine 底层引擎
func (s *RaidService) Engine() *engine.Engine {
	return s.engine
}

// Spawn 按预设创建 raid，倒计时与回合在后台执行
func (s *RaidService) Spawn(ctx context.Context, req SpawnRequest) (*engine.Snapshot, error) {
	cfg, err := engine.Preset(req.Preset, engine.PresetOptions{BossHP: req.BossHP, EnemyCount: req.EnemyCount})
	if err != nil {
		return nil, err
	}
	scale := s.pacingScale
	if req.PacingScale != nil {
		scale = *req.PacingScale
	}
	return s.SpawnEncounter(ctx, cfg.WithPacingScale(scale))
}

// SpawnEncounter 使用完整配置创建 raid
func (s *RaidService) SpawnEncounter(ctx context.Context, cfg engine.EncounterConfig) (*engine.Snapshot, error) {
	session, err := s.engine.Spawn(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if n := s.bids.Drain(); n > 0 {
		s.logger.DebugContext(ctx, "丢弃上一场遗留的出价", log.Int("count", n))
	}

	s.wg.Add(1)
	go s.run(session)

	snap := session.Snapshot()
	return &snap, nil
}

func (s *RaidService) run(session *engine.Session) {
	defer s.wg.Done()

	ctx := ctxkey.WithRaidSession(s.baseCtx, session.ID)
	result, err := s.engine.Run(ctx, session)
	if result == nil {
		return
	}

	s.recordResult(result, err)
	s.saveReport(ctx, result)

	s.lastMu.Lock()
	s.last = result
	s.lastMu.Unlock()

	log.LogRaidEvent(ctx, s.logger, "raid_finished", result.SessionID, map[string]interface{}{
		"preset":       result.Preset,
		"mode":         string(result.Mode),
		"outcome":      string(result.Outcome),
		"rounds":       result.Rounds,
		"participants": result.Participants,
		"survivors":    len(result.Survivors),
	})
}

func (s *RaidService) recordResult(result *engine.Result, payoutErr error) {
	s.metrics.RecordSession(string(result.Mode), string(result.Outcome), result.Duration(), s.serviceName)

	if a := result.Auction; a != nil {
		s.metrics.RecordAuction(string(a.Status), s.serviceName)
		if a.Status == engine.AuctionFailed {
			s.metrics.RecordLedgerFailure("auction", s.serviceName)
		}
	}
	if p := result.Payout; p != nil {
		amount := (p.PerSurvivorAmount + p.FlatMoney) * int64(len(p.Credited))
		if p.BonusRecipient != "" {
			amount += p.BonusMoney
		}
		s.metrics.RecordPayout(amount, s.serviceName)
	}
	if payoutErr != nil {
		s.metrics.RecordLedgerFailure("payout", s.serviceName)
	}
	for range result.RewardFailures {
		s.metrics.RecordLedgerFailure("reward", s.serviceName)
	}
}

func (s *RaidService) saveReport(ctx context.Context, result *engine.Result) {
	if s.reports == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.ErrorContext(ctx, "序列化 raid 战报失败", log.Any("error", err))
		return
	}

	report := &interfaces.RaidReport{
		SessionID:    result.SessionID,
		Preset:       null.NewString(result.Preset, result.Preset != ""),
		Mode:         string(result.Mode),
		Outcome:      string(result.Outcome),
		Rounds:       result.Rounds,
		Participants: result.Participants,
		StartedAt:    null.NewTime(result.StartedAt, !result.StartedAt.IsZero()),
		EndedAt:      result.EndedAt,
		Payload:      payload,
	}

	// 服务关闭时会话 ctx 已取消，战报仍然需要落库
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.reports.Save(saveCtx, report); err != nil {
		s.logger.ErrorContext(ctx, "保存 raid 战报失败", log.Any("error", err))
	}
}

func (s *RaidService) current() (*engine.Session, error) {
	session := s.engine.Current()
	if session == nil {
		return nil, xerrors.FromCode(xerrors.CodeRaidNotFound)
	}
	return session, nil
}

// Status 当前会话快照
func (s *RaidService) Status(_ context.Context) (*engine.Snapshot, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	snap := session.Snapshot()
	return &snap, nil
}

// LastResult 最近一场已结束的 raid
func (s *RaidService) LastResult() (*engine.Result, error) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return nil, xerrors.FromCode(xerrors.CodeRaidNotFound)
	}
	return s.last, nil
}

// RecentEvents 当前（或最近一场）会话的事件
func (s *RaidService) RecentEvents(limit int) []engine.Event {
	if session := s.engine.Current(); session != nil {
		return s.events.Recent(session.ID, limit)
	}
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return []engine.Event{}
	}
	return s.events.Recent(s.last.SessionID, limit)
}

// AlterBossHP 修改 boss 血量并重置初始血量（影响奖池）
func (s *RaidService) AlterBossHP(ctx context.Context, hp int64) (*engine.Snapshot, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	if err := session.AlterBossHP(hp); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "boss 血量已修改", log.String("session_id", session.ID), log.Int64("hp", hp))
	snap := session.Snapshot()
	return &snap, nil
}

// Join 报名当前 raid，仅 SIGNUP / COUNTDOWN 阶段允许
func (s *RaidService) Join(ctx context.Context, userID string) (*JoinResult, error) {
	if userID == "" {
		return nil, xerrors.NewValidationError("user_id", "不能为空")
	}
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	if !session.Joinable() {
		return nil, xerrors.FromCode(xerrors.CodeRaidStateConflict).WithMetadata("state", string(session.State()))
	}
	if s.roster == nil {
		return nil, xerrors.New(xerrors.CodeInternalError, "raid 报名名单未配置")
	}

	if s.profiles != nil {
		profile, err := s.profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, xerrors.NewDatabaseError("select", "raid_profiles", err)
		}
		if profile == nil {
			return nil, xerrors.NewNotFoundError("raid_profile", userID)
		}
		if !session.Config.Eligibility.Allows(profile) {
			return nil, xerrors.New(xerrors.CodeOperationNotAllowed, "不满足参加该 raid 的条件")
		}
	}

	joined, err := s.roster.Join(ctx, session.ID, userID)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeCacheError, "写入报名名单失败")
	}
	if joined {
		s.logger.DebugContext(ctx, "玩家已报名", log.String("session_id", session.ID), log.String("user_id", userID))
	}
	return &JoinResult{SessionID: session.ID, UserID: userID, Joined: joined}, nil
}

// Bid 出价进入单消费者队列，由拍卖统一判定；仅在拍卖窗口开启时接受
func (s *RaidService) Bid(ctx context.Context, userID string, amount int64) error {
	if userID == "" {
		return xerrors.NewValidationError("user_id", "不能为空")
	}
	if amount <= 0 {
		return xerrors.NewValidationError("amount", "必须大于 0")
	}
	session, err := s.current()
	if err != nil {
		return err
	}
	if !session.AuctionOpen() {
		return xerrors.FromCode(xerrors.CodeRaidStateConflict).
			WithMetadata("state", string(session.State())).
			WithMetadata("reason", "auction not open")
	}
	return s.bids.Push(engine.BidEvent{BidderID: userID, Amount: amount})
}

// HandleBidMessage 处理 NATS 出价消息；格式错误或不属于当前会话的消息被丢弃
func (s *RaidService) HandleBidMessage(data []byte) {
	var msg bidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("无法解析出价消息", log.Any("error", err))
		return
	}
	if session := s.engine.Current(); session != nil && msg.SessionID != "" && msg.SessionID != session.ID {
		s.logger.Debug("丢弃其他会话的出价", log.String("session_id", msg.SessionID))
		return
	}
	if err := s.Bid(s.baseCtx, msg.BidderID, msg.Amount); err != nil {
		s.logger.Debug("NATS 出价未入队", log.String("bidder_id", msg.BidderID), log.Any("error", err))
	}
}

// SubscribeBids 订阅 NATS 出价，subject 为空时使用默认 subject
func (s *RaidService) SubscribeBids(subject string) (notify.Subscription, error) {
	if subject == "" {
		subject = notify.SubjectRaidBids
	}
	return notify.Subscribe(subject, s.HandleBidMessage)
}

// Act 回答当前回合的行动询问，action 可以是选项名或序号
func (s *RaidService) Act(_ context.Context, userID, action string) (int, error) {
	if action == "" {
		return 0, xerrors.NewValidationError("action", "不能为空")
	}
	return s.choices.Answer(userID, action)
}

// PendingActions 玩家当前可选的行动
func (s *RaidService) PendingActions(userID string) []string {
	return s.choices.Pending(userID)
}

// GetStats raid 属性与升级价格
func (s *RaidService) GetStats(ctx context.Context, userID string) (*StatsView, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	damage, armor, err := engine.ComputeStats(profile)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeHeroStatInvalid, "raid 属性计算失败")
	}
	nextDamage, err := engine.UpgradePrice(engine.NextLevel(profile.AtkMultiply))
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeHeroStatInvalid, "升级价格计算失败")
	}
	nextDefense, err := engine.UpgradePrice(engine.NextLevel(profile.DefMultiply))
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeHeroStatInvalid, "升级价格计算失败")
	}

	return &StatsView{
		UserID:           userID,
		Damage:           damage,
		Armor:            armor,
		AtkMultiply:      multiplierString(profile.AtkMultiply),
		DefMultiply:      multiplierString(profile.DefMultiply),
		RaiderTier:       profile.RaiderTier,
		RaidBuilding:     profile.RaidBuilding,
		Money:            profile.Money,
		NextDamagePrice:  nextDamage,
		NextDefensePrice: nextDefense,
	}, nil
}

// IncreaseStat 倍率 +0.1，余额检查与扣款在同一事务内完成
func (s *RaidService) IncreaseStat(ctx context.Context, userID string, stat interfaces.RaidStat) (*interfaces.UpgradeResult, error) {
	if s.profiles == nil {
		return nil, xerrors.New(xerrors.CodeInternalError, "raid 资料仓储未配置")
	}
	if stat != interfaces.RaidStatDamage && stat != interfaces.RaidStatDefense {
		return nil, xerrors.NewValidationError("stat", "只能是 damage 或 defense")
	}

	quote := func(current *decimal.Big) (*decimal.Big, int64, error) {
		next := engine.NextLevel(current)
		price, err := engine.UpgradePrice(next)
		return next, price, err
	}
	res, err := s.profiles.UpgradeStat(ctx, userID, stat, quote, "upgrade:"+uuid.NewString())
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrProfileNotFound):
		return nil, xerrors.NewNotFoundError("raid_profile", userID)
	case errors.Is(err, interfaces.ErrInsufficientFunds):
		return nil, xerrors.FromCode(xerrors.CodeInsufficientResource).WithMetadata("stat", string(stat))
	case errors.Is(err, engine.ErrStatComputation):
		return nil, xerrors.Wrap(err, xerrors.CodeHeroStatInvalid, "升级价格计算失败")
	default:
		return nil, xerrors.NewDatabaseError("upgrade", "raid_profiles", err)
	}

	s.logger.InfoContext(ctx, "raid 属性已升级",
		log.String("user_id", userID),
		log.String("stat", string(stat)),
		log.String("level", res.Level.String()),
		log.Int64("price", res.Price))
	return res, nil
}

func (s *RaidService) loadProfile(ctx context.Context, userID string) (*engine.Profile, error) {
	if userID == "" {
		return nil, xerrors.NewValidationError("user_id", "不能为空")
	}
	if s.profiles == nil {
		return nil, xerrors.New(xerrors.CodeInternalError, "raid 资料仓储未配置")
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, xerrors.NewDatabaseError("select", "raid_profiles", err)
	}
	if profile == nil {
		return nil, xerrors.NewNotFoundError("raid_profile", userID)
	}
	return profile, nil
}

func multiplierString(d *decimal.Big) string {
	if d == nil {
		return "1.0"
	}
	return d.String()
}

// Wait 等待后台会话全部结束
func (s *RaidService) Wait() {
	s.wg.Wait()
}

// Close 取消进行中的会话（按 TIMEOUT 结束）并等待收尾
func (s *RaidService) Close() {
	s.cancel()
	s.wg.Wait()
}
