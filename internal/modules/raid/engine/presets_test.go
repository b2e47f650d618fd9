package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/pkg/xerrors"
)

func TestPresets_AllValidate(t *testing.T) {
	names := PresetNames()
	require.Len(t, names, 10)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name, PresetOptions{BossHP: 5000})
			require.NoError(t, err)
			assert.Equal(t, name, cfg.Preset)
			assert.NoError(t, cfg.Validate())

			_, err = cfg.BuildMode()
			assert.NoError(t, err)
		})
	}
}

func TestPreset_BossHPRequired(t *testing.T) {
	cfg, err := Preset("zerekiel", PresetOptions{})
	require.NoError(t, err)
	assert.True(t, xerrors.Is(cfg.Validate(), xerrors.CodeRaidInvalidConfig))
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("nobody", PresetOptions{})
	assert.True(t, xerrors.Is(err, xerrors.CodeRaidUnknownPreset))
}

func TestPreset_Variants(t *testing.T) {
	eden, _ := Preset("eden", PresetOptions{BossHP: 100})
	assert.Nil(t, eden.Reward.Auction)
	assert.Equal(t, int64(4), eden.Reward.PoolDivisor)
	assert.Equal(t, BonusRandomSurvivor, eden.Reward.BonusRecipient)

	starwars, _ := Preset("starwars", PresetOptions{BossHP: 100})
	assert.Equal(t, RewardConfig{}, starwars.Reward)
	assert.Equal(t, int64(0), starwars.Boss.MinDamage)
	assert.Equal(t, int64(450), starwars.Boss.MaxDamage)

	cyberus, _ := Preset("cyberus", PresetOptions{BossHP: 100})
	assert.Len(t, cyberus.Boss.Actions, 3)
	assert.Len(t, cyberus.Boss.Abilities, 3)
	assert.Equal(t, int64(5000), cyberus.Reward.FlatMoney)

	kvothe, _ := Preset("kvothe", PresetOptions{EnemyCount: 5})
	assert.Equal(t, 5, kvothe.Wave.EnemyCount)
	assert.Equal(t, 7*time.Second, kvothe.RoundDelay)

	guilt, _ := Preset("guilt", PresetOptions{})
	assert.Equal(t, "Guilt", guilt.Eligibility.RequiredGod)

	tet, _ := Preset("tet", PresetOptions{})
	assert.Len(t, tet.Tournament.Games, 12)
}

func TestPresets_FollowersOnly(t *testing.T) {
	tests := []struct {
		preset string
		god    string
	}{
		{"zerekiel", ""},
		{"starwars", ""},
		{"chamburr", "CHamburr"},
		{"jesus", "Jesus"},
		{"eden", "Eden"},
		{"asmodeus", "Asmodeus"},
		{"cyberus", "Salutations"},
		{"kvothe", "Kvothe"},
		{"guilt", "Guilt"},
		{"tet", "Tet"},
	}
	require.Len(t, tests, len(PresetNames()))

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			ledger := newFakeLedger().add("heretic", 10, 0, 0).add("believer", 10, 0, 0)
			ledger.profiles["heretic"].God = "Nobody"
			ledger.profiles["believer"].God = tt.god
			e, sink, _, _ := newTestEngine(&fakeRoster{ids: []string{"heretic", "believer"}}, ledger, maxRNG{})

			cfg, err := Preset(tt.preset, PresetOptions{BossHP: 5000})
			require.NoError(t, err)
			assert.Equal(t, tt.god, cfg.Eligibility.RequiredGod)

			res, err := e.Start(context.Background(), cfg.WithPacingScale(0))
			require.NoError(t, err)

			resolved := sink.ofType(EventRosterResolved)
			require.Len(t, resolved, 1)
			if tt.god == "" {
				assert.Equal(t, 2, res.Participants)
				assert.Equal(t, map[string]any{"admitted": 2, "dropped": 0}, resolved[0].Data)
				return
			}
			assert.Equal(t, 1, res.Participants)
			assert.Equal(t, map[string]any{"admitted": 1, "dropped": 1}, resolved[0].Data)

			// 只有异教徒报名时无人入场
			ledger = newFakeLedger().add("heretic", 10, 0, 0)
			ledger.profiles["heretic"].God = "Nobody"
			e, _, _, _ = newTestEngine(&fakeRoster{ids: []string{"heretic"}}, ledger, maxRNG{})
			res, err = e.Start(context.Background(), cfg.WithPacingScale(0))
			require.NoError(t, err)
			assert.Equal(t, 0, res.Participants)
			assert.Equal(t, OutcomeWipe, res.Outcome)
		})
	}
}

func TestWithPacingScale(t *testing.T) {
	cfg, _ := Preset("zerekiel", PresetOptions{BossHP: 100})

	fast := cfg.WithPacingScale(0.5)
	assert.Equal(t, 450*time.Second, fast.Countdown.Signup)
	assert.Equal(t, 5*time.Minute, fast.Countdown.Notices[0].Before)
	assert.Equal(t, 4*time.Second, fast.RoundDelay)
	assert.Equal(t, DefaultDeadline, fast.Deadline)

	// 原配置不受影响
	assert.Equal(t, 15*time.Minute, cfg.Countdown.Signup)
	assert.Equal(t, 10*time.Minute, cfg.Countdown.Notices[0].Before)
}
