package engine

import (
	"sort"
	"time"

	"tsu-raid/internal/pkg/xerrors"
)

// 奖励物品
const (
	ItemLegendaryCrate = "crates_legendary"
)

// PresetOptions 生成预设时的可调参数
type PresetOptions struct {
	BossHP     int64
	EnemyCount int
}

// DefaultCountdown 15 分钟报名，开始前 10m/5m/2m/1m/30s/10s 公告
func DefaultCountdown() CountdownConfig {
	return CountdownConfig{
		Signup: 15 * time.Minute,
		Notices: []Notice{
			{Before: 10 * time.Minute, Message: "raid starts in 10 minutes"},
			{Before: 5 * time.Minute, Message: "raid starts in 5 minutes"},
			{Before: 2 * time.Minute, Message: "raid starts in 2 minutes"},
			{Before: time.Minute, Message: "raid starts in 1 minute"},
			{Before: 30 * time.Second, Message: "raid starts in 30 seconds"},
			{Before: 10 * time.Second, Message: "raid starts in 10 seconds"},
		},
	}
}

// DefaultAuction 传奇箱拍卖，60 秒滑动窗口
func DefaultAuction() *AuctionConfig {
	return &AuctionConfig{Item: ItemLegendaryCrate, Window: 60 * time.Second, CheckBalanceOnBid: true}
}

// Greater Heal / Second Wind / Block
func DefaultPlayerActions() []PlayerAction {
	return []PlayerAction{
		GreaterHeal(63),
		SecondWind(50),
		Block(5),
	}
}

// DefaultTournamentGames 淘汰概率从 1% 到 99%
func DefaultTournamentGames() []Game {
	return []Game{
		{Name: "I wonder if I'll win this.", EliminationPct: 1},
		{Name: "Coin Flip", EliminationPct: 50},
		{Name: "Tic-Tac-Toe", EliminationPct: 55},
		{Name: "Hangman", EliminationPct: 60},
		{Name: "Battleship", EliminationPct: 65},
		{Name: "Connect Four", EliminationPct: 70},
		{Name: "Dots and Boxes", EliminationPct: 75},
		{Name: "Checkers", EliminationPct: 80},
		{Name: "Mancala", EliminationPct: 85},
		{Name: "Poker", EliminationPct: 90},
		{Name: "Chess", EliminationPct: 95},
		{Name: "You look boring.", EliminationPct: 99},
	}
}

type presetBuilder func(opts PresetOptions) EncounterConfig

func attritionPreset(name string, minDmg, maxDmg int64, mutate func(*EncounterConfig)) presetBuilder {
	return func(opts PresetOptions) EncounterConfig {
		cfg := EncounterConfig{
			Preset: name,
			Mode:   ModeBoss,
			Boss: &BossConfig{
				Name:          name,
				HP:            opts.BossHP,
				MinDamage:     minDmg,
				MaxDamage:     maxDmg,
				ParticipantHP: 250,
			},
			Countdown:  DefaultCountdown(),
			RoundDelay: 8 * time.Second,
			Deadline:   DefaultDeadline,
			Reward: RewardConfig{
				Auction:     DefaultAuction(),
				PoolDivisor: 4,
			},
		}
		if mutate != nil {
			mutate(&cfg)
		}
		return cfg
	}
}

// followersOf 只允许信仰 god 的玩家
func followersOf(god string) func(*EncounterConfig) {
	return func(c *EncounterConfig) {
		c.Eligibility.RequiredGod = god
	}
}

var presets = map[string]presetBuilder{
	"zerekiel": attritionPreset("zerekiel", 100, 500, nil),
	"chamburr": attritionPreset("chamburr", 100, 500, followersOf("CHamburr")),
	"jesus":    attritionPreset("jesus", 100, 500, followersOf("Jesus")),
	// 无奖励的演示 raid
	"starwars": attritionPreset("starwars", 0, 450, func(c *EncounterConfig) {
		c.Reward = RewardConfig{}
	}),
	"eden": attritionPreset("eden", 100, 500, func(c *EncounterConfig) {
		c.Eligibility.RequiredGod = "Eden"
		c.Reward.Auction = nil
		c.Reward.BonusRecipient = BonusRandomSurvivor
		c.Reward.BonusItem = ItemLegendaryCrate
	}),
	"asmodeus": attritionPreset("asmodeus", 100, 500, func(c *EncounterConfig) {
		c.Eligibility.RequiredGod = "Asmodeus"
		c.Boss.CounterBeforeRemoval = true
		c.Reward.Auction = nil
		c.Reward.PoolDivisor = 0
		c.Reward.BonusRecipient = BonusRandomSurvivor
		c.Reward.BonusItem = ItemLegendaryCrate
	}),
	"cyberus": attritionPreset("cyberus", 100, 500, func(c *EncounterConfig) {
		c.Eligibility.RequiredGod = "Salutations"
		c.Boss.Actions = DefaultPlayerActions()
		c.Boss.ActionTimeout = 20 * time.Second
		c.Boss.Abilities = AbilityTable{
			Enrage(1, 40, 10),
			Assassinate(1, 5),
			Howl(1, 30),
		}
		c.Reward.PoolDivisor = 0
		c.Reward.FlatMoney = 5000
		c.Reward.FlatXP = 1000
	}),
	"kvothe": func(opts PresetOptions) EncounterConfig {
		count := opts.EnemyCount
		if count == 0 {
			count = 2
		}
		return EncounterConfig{
			Preset: "kvothe",
			Mode:   ModeWave,
			Wave: &WaveConfig{
				EnemyCount:      count,
				EnemyMinHP:      80,
				EnemyMaxHP:      100,
				EnemyMinDamage:  35,
				EnemyMaxDamage:  65,
				ArmorFactorsPct: []int{40, 50},
				KillRewardMin:   250,
				KillRewardMax:   750,
				ParticipantHP:   100,
			},
			Eligibility: Eligibility{RequiredGod: "Kvothe"},
			Countdown:   DefaultCountdown(),
			RoundDelay:  7 * time.Second,
			Deadline:    DefaultDeadline,
			Reward: RewardConfig{
				BonusRecipient: BonusTopKills,
				BonusItem:      ItemLegendaryCrate,
			},
		}
	},
	"guilt": func(PresetOptions) EncounterConfig {
		return EncounterConfig{
			Preset: "guilt",
			Mode:   ModeElimination,
			Elimination: &EliminationConfig{
				ParticipantHP: 250,
				MinDamage:     30,
				MaxDamage:     50,
				CullChancePct: 20,
				CullFloor:     10,
				CullMin:       2,
				CullMax:       5,
			},
			Eligibility: Eligibility{RequiredGod: "Guilt"},
			Countdown:   DefaultCountdown(),
			RoundDelay:  5 * time.Second,
			Deadline:    DefaultDeadline,
			Reward: RewardConfig{
				BonusRecipient: BonusRandomSurvivor,
				BonusItem:      ItemLegendaryCrate,
			},
		}
	},
	"tet": func(PresetOptions) EncounterConfig {
		return EncounterConfig{
			Preset:      "tet",
			Mode:        ModeTournament,
			Tournament:  &TournamentConfig{Games: DefaultTournamentGames()},
			Eligibility: Eligibility{RequiredGod: "Tet"},
			Countdown:   DefaultCountdown(),
			RoundDelay:  5 * time.Second,
			Deadline:    DefaultDeadline,
			Reward: RewardConfig{
				BonusRecipient: BonusRandomSurvivor,
				BonusItem:      ItemLegendaryCrate,
			},
		}
	},
}

// Preset 按名称生成配置；返回值未做校验（例如 BossHP 为 0 时由 Spawn 拒绝）
func Preset(name string, opts PresetOptions) (EncounterConfig, error) {
	build, ok := presets[name]
	if !ok {
		return EncounterConfig{}, xerrors.FromCode(xerrors.CodeRaidUnknownPreset).WithMetadata("preset", name)
	}
	return build(opts), nil
}

// PresetNames 全部预设名，按字母序
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
