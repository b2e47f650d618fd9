package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"tsu-raid/internal/pkg/xerrors"
)

// DefaultDeadline ACTIVE 阶段上限
const DefaultDeadline = 45 * time.Minute

// ModeKind 遭遇模式
type ModeKind string

const (
	ModeBoss        ModeKind = "boss"
	ModeWave        ModeKind = "wave"
	ModeElimination ModeKind = "elimination"
	ModeTournament  ModeKind = "tournament"
)

// EncounterConfig 一次 raid 的完整配置
type EncounterConfig struct {
	Preset string   `json:"preset"`
	Mode   ModeKind `json:"mode" validate:"required,oneof=boss wave elimination tournament"`

	Boss        *BossConfig        `json:"boss,omitempty"`
	Wave        *WaveConfig        `json:"wave,omitempty"`
	Elimination *EliminationConfig `json:"elimination,omitempty"`
	Tournament  *TournamentConfig  `json:"tournament,omitempty"`

	Eligibility Eligibility     `json:"eligibility"`
	Countdown   CountdownConfig `json:"countdown"`
	RoundDelay  time.Duration   `json:"round_delay" validate:"gte=0"`
	Deadline    time.Duration   `json:"deadline" validate:"gte=0"`
	Reward      RewardConfig    `json:"reward"`
}

// BossConfig 单 boss 消耗战
type BossConfig struct {
	Name          string `json:"name"`
	HP            int64  `json:"hp" validate:"gt=0"`
	MinDamage     int64  `json:"min_damage" validate:"gte=0"`
	MaxDamage     int64  `json:"max_damage" validate:"gtefield=MinDamage"`
	ParticipantHP int64  `json:"participant_hp" validate:"gt=0"`

	// CounterBeforeRemoval 本回合阵亡的目标仍参与反击
	CounterBeforeRemoval bool `json:"counter_before_removal"`

	Abilities     AbilityTable   `json:"-" validate:"-"`
	Actions       []PlayerAction `json:"-" validate:"-"`
	ActionTimeout time.Duration  `json:"action_timeout" validate:"gte=0"`
}

// WaveConfig 敌人队列
type WaveConfig struct {
	// EnemyHP 显式指定每个敌人血量，非空时忽略 EnemyCount
	EnemyHP    []int64 `json:"enemy_hp,omitempty" validate:"dive,gt=0"`
	EnemyCount int     `json:"enemy_count" validate:"gte=0"`
	EnemyMinHP int64   `json:"enemy_min_hp" validate:"gte=0"`
	EnemyMaxHP int64   `json:"enemy_max_hp" validate:"gtefield=EnemyMinHP"`

	EnemyMinDamage int64 `json:"enemy_min_damage" validate:"gte=0"`
	EnemyMaxDamage int64 `json:"enemy_max_damage" validate:"gtefield=EnemyMinDamage"`

	// ArmorFactorsPct 每回合从中随机一个，目标护甲按该比例生效
	ArmorFactorsPct []int `json:"armor_factors_pct" validate:"min=1,dive,gte=0,lte=100"`

	KillRewardMin int64 `json:"kill_reward_min" validate:"gte=0"`
	KillRewardMax int64 `json:"kill_reward_max" validate:"gtefield=KillRewardMin"`

	ParticipantHP int64 `json:"participant_hp" validate:"gt=0"`
}

// EliminationConfig 互相淘汰
type EliminationConfig struct {
	ParticipantHP int64 `json:"participant_hp" validate:"gt=0"`
	MinDamage     int64 `json:"min_damage" validate:"gte=0"`
	MaxDamage     int64 `json:"max_damage" validate:"gtefield=MinDamage"`

	CullChancePct int `json:"cull_chance_pct" validate:"gte=0,lte=100"`
	// CullFloor 人数严格大于该值才会触发清洗
	CullFloor int `json:"cull_floor" validate:"gte=1"`
	CullMin   int `json:"cull_min" validate:"gte=1"`
	CullMax   int `json:"cull_max" validate:"gtefield=CullMin"`
}

// Game 淘汰赛小游戏
type Game struct {
	Name           string `json:"name" validate:"required"`
	EliminationPct int    `json:"elimination_pct" validate:"gte=0,lte=100"`
}

// TournamentConfig 概率淘汰赛
type TournamentConfig struct {
	Games []Game `json:"games" validate:"min=1,dive"`
}

// Eligibility 资格判定
type Eligibility struct {
	// RequiredGod 非空时只允许信仰该神的玩家
	RequiredGod string `json:"required_god,omitempty"`
}

// Allows 判断资料是否满足资格
func (e Eligibility) Allows(p *Profile) bool {
	if p == nil {
		return false
	}
	return e.RequiredGod == "" || p.God == e.RequiredGod
}

// Notice 倒计时公告
type Notice struct {
	Before  time.Duration `json:"before" validate:"gte=0"`
	Message string        `json:"message"`
}

// CountdownConfig 报名倒计时
type CountdownConfig struct {
	Signup  time.Duration `json:"signup" validate:"gte=0"`
	Notices []Notice      `json:"notices" validate:"dive"`
}

// AuctionConfig 胜利后的拍卖
type AuctionConfig struct {
	Item   string        `json:"item" validate:"required"`
	Window time.Duration `json:"window" validate:"gt=0"`
	// CheckBalanceOnBid 出价时预检余额，结算时仍会再次检查
	CheckBalanceOnBid bool `json:"check_balance_on_bid"`
}

// BonusRecipient 额外奖励的获得者
type BonusRecipient string

const (
	BonusNone           BonusRecipient = ""
	BonusTopKills       BonusRecipient = "top_kills"
	BonusRandomSurvivor BonusRecipient = "random_survivor"
)

// RewardConfig 胜利奖励
type RewardConfig struct {
	Auction *AuctionConfig `json:"auction,omitempty"`

	// PoolDivisor boss 模式下奖池 = 初始血量 / PoolDivisor
	PoolDivisor int64 `json:"pool_divisor" validate:"gte=0"`
	FixedPool   int64 `json:"fixed_pool" validate:"gte=0"`

	// 每位幸存者固定获得
	FlatMoney int64 `json:"flat_money" validate:"gte=0"`
	FlatXP    int64 `json:"flat_xp" validate:"gte=0"`

	BonusRecipient BonusRecipient `json:"bonus_recipient" validate:"omitempty,oneof=top_kills random_survivor"`
	BonusItem      string         `json:"bonus_item,omitempty"`
	BonusMoney     int64          `json:"bonus_money" validate:"gte=0"`
}

var validate = validator.New()

// Validate 在获取会话锁之前执行
func (c *EncounterConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return xerrors.NewRaidConfigError(fe.Namespace(), fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()))
		}
		return xerrors.Wrap(err, xerrors.CodeRaidInvalidConfig, "raid 配置无效")
	}

	switch c.Mode {
	case ModeBoss:
		if c.Boss == nil {
			return xerrors.NewRaidConfigError("boss", "boss mode requires boss config")
		}
	case ModeWave:
		if c.Wave == nil {
			return xerrors.NewRaidConfigError("wave", "wave mode requires wave config")
		}
		if len(c.Wave.EnemyHP) == 0 && c.Wave.EnemyCount <= 0 {
			return xerrors.NewRaidConfigError("wave.enemy_count", "must be positive")
		}
		if len(c.Wave.EnemyHP) == 0 && c.Wave.EnemyMinHP <= 0 {
			return xerrors.NewRaidConfigError("wave.enemy_min_hp", "must be positive")
		}
	case ModeElimination:
		if c.Elimination == nil {
			return xerrors.NewRaidConfigError("elimination", "elimination mode requires elimination config")
		}
	case ModeTournament:
		if c.Tournament == nil {
			return xerrors.NewRaidConfigError("tournament", "tournament mode requires tournament config")
		}
	}

	if c.Reward.BonusRecipient != BonusNone && c.Reward.BonusItem == "" && c.Reward.BonusMoney == 0 {
		return xerrors.NewRaidConfigError("reward.bonus_item", "bonus recipient without bonus")
	}
	return nil
}

// WithPacingScale 缩放倒计时与回合间隔；0 表示快进。截止时间与等待超时不受影响
func (c EncounterConfig) WithPacingScale(scale float64) EncounterConfig {
	if scale == 1 || scale < 0 {
		return c
	}
	scaleDur := func(d time.Duration) time.Duration { return time.Duration(float64(d) * scale) }

	c.Countdown.Signup = scaleDur(c.Countdown.Signup)
	notices := make([]Notice, len(c.Countdown.Notices))
	for i, n := range c.Countdown.Notices {
		notices[i] = Notice{Before: scaleDur(n.Before), Message: n.Message}
	}
	c.Countdown.Notices = notices
	c.RoundDelay = scaleDur(c.RoundDelay)
	return c
}

func (c *EncounterConfig) deadline() time.Duration {
	if c.Deadline <= 0 {
		return DefaultDeadline
	}
	return c.Deadline
}

// sortedNotices 按距开始时间从远到近
func (c *EncounterConfig) sortedNotices() []Notice {
	out := append([]Notice(nil), c.Countdown.Notices...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before > out[j].Before })
	return out
}

// BuildMode 按配置构造遭遇模式
func (c *EncounterConfig) BuildMode() (Mode, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Mode {
	case ModeBoss:
		return &BossMode{cfg: *c.Boss}, nil
	case ModeWave:
		return &WaveMode{cfg: *c.Wave}, nil
	case ModeElimination:
		return &EliminationMode{cfg: *c.Elimination}, nil
	case ModeTournament:
		return &TournamentMode{cfg: *c.Tournament}, nil
	}
	return nil, xerrors.NewRaidConfigError("mode", string(c.Mode))
}
