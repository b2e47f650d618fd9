package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/pkg/xerrors"
)

func waveConfig(hps ...int64) EncounterConfig {
	return EncounterConfig{
		Preset: "test-wave",
		Mode:   ModeWave,
		Wave: &WaveConfig{
			EnemyHP:         hps,
			EnemyMinDamage:  10,
			EnemyMaxDamage:  10,
			ArmorFactorsPct: []int{50},
			KillRewardMin:   300,
			KillRewardMax:   300,
			ParticipantHP:   100,
		},
		Reward: RewardConfig{BonusRecipient: BonusTopKills, BonusItem: ItemLegendaryCrate},
	}
}

func TestWave_ClearsQueueSequentially(t *testing.T) {
	ledger := newFakeLedger().add("p1", 100, 0, 0)
	e, sink, _, _ := newTestEngine(&fakeRoster{ids: []string{"p1"}}, ledger, zeroRNG{})

	s, err := e.Spawn(context.Background(), waveConfig(80, 90, 100))
	require.NoError(t, err)
	require.Len(t, s.Queue, 3)

	res, err := e.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, 3, s.Participants.Get("p1").Kills)
	assert.Equal(t, int64(70), s.Participants.Get("p1").HP)
	assert.Empty(t, s.Queue)

	// 三次击杀奖励 + 结算
	assert.Equal(t, int64(900), ledger.balances["p1"])
	assert.Len(t, sink.ofType(EventReward), 3)
	for _, key := range []string{"enemy-1", "enemy-2", "enemy-3"} {
		_, ok := ledger.applied[s.ID+":kill:"+key]
		assert.True(t, ok, key)
	}

	require.NotNil(t, res.Payout)
	assert.Equal(t, "p1", res.Payout.BonusRecipient)
	payout := ledger.applied[s.ID+":payout:p1"]
	assert.Equal(t, int64(1), payout.Items[ItemLegendaryCrate])
}

func TestWave_DeadTargetStillCounters(t *testing.T) {
	mode := &WaveMode{cfg: WaveConfig{
		EnemyHP:         []int64{50},
		EnemyMinDamage:  50,
		EnemyMaxDamage:  50,
		ArmorFactorsPct: []int{100},
	}}
	s := newSession("s-wave", EncounterConfig{Mode: ModeWave}, mode, testEpoch)
	mode.Prepare(s, zeroRNG{})
	s.Participants.Add(NewCombatant("p1", 10, 0, 60))

	rc := roundCtx(s, zeroRNG{}, 1)
	mode.Resolve(rc)

	assert.Equal(t, []string{"p1"}, rc.Record.Eliminated)
	assert.Equal(t, int64(60), rc.Record.CounterDamage)
	assert.Equal(t, 0, rc.Record.EnemiesLeft)

	// 队列清空与全灭同时发生时判定胜利
	outcome, done := mode.Outcome(s)
	require.True(t, done)
	assert.Equal(t, OutcomeVictory, outcome)
}

func TestWave_ArmorFactor(t *testing.T) {
	mode := &WaveMode{cfg: WaveConfig{
		EnemyHP:         []int64{1000},
		EnemyMinDamage:  60,
		EnemyMaxDamage:  60,
		ArmorFactorsPct: []int{40, 50},
	}}
	s := newSession("s-wave", EncounterConfig{Mode: ModeWave}, mode, testEpoch)
	mode.Prepare(s, zeroRNG{})
	s.Participants.Add(NewCombatant("p1", 100, 100, 5))

	// maxRNG 选中 50%，有效护甲 50
	rc := roundCtx(s, maxRNG{}, 1)
	mode.Resolve(rc)
	assert.Equal(t, int64(10), rc.Record.Damage)
	assert.Equal(t, int64(995), rc.Record.EnemyHP)
}

func TestWave_RandomEnemyCount(t *testing.T) {
	mode := &WaveMode{cfg: WaveConfig{EnemyCount: 4, EnemyMinHP: 80, EnemyMaxHP: 100}}
	s := newSession("s-wave", EncounterConfig{Mode: ModeWave}, mode, testEpoch)
	mode.Prepare(s, NewRNG(5))

	require.Len(t, s.Queue, 4)
	for i, enemy := range s.Queue {
		assert.True(t, enemy.HP >= 80 && enemy.HP <= 100)
		assert.True(t, strings.HasPrefix(enemy.ID, "enemy-"), i)
	}
}

func TestWave_RewardFailureDoesNotAbort(t *testing.T) {
	ledger := newFakeLedger().add("p1", 100, 0, 0)
	ledger.failFor["p1"] = errLedgerDown
	e, _, _, _ := newTestEngine(&fakeRoster{ids: []string{"p1"}}, ledger, zeroRNG{})

	res, err := e.Start(context.Background(), waveConfig(80, 90))
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.CodeRaidPartialPayout))

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, []string{"p1", "p1"}, res.RewardFailures)
	require.NotNil(t, res.Payout)
	assert.Equal(t, []string{"p1"}, res.Payout.Failed)
}

func TestTopKiller_TieBreakByID(t *testing.T) {
	a := NewCombatant("alice", 1, 0, 0)
	b := NewCombatant("bob", 1, 0, 0)
	c := NewCombatant("carol", 1, 0, 0)
	a.Kills, b.Kills, c.Kills = 2, 3, 3

	assert.Equal(t, "bob", TopKiller([]*Combatant{c, a, b}).ID)
	assert.Nil(t, TopKiller(nil))
}
