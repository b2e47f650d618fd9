package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/pkg/xerrors"
)

func TestSplitPool(t *testing.T) {
	per, rem := SplitPool(250, 3)
	assert.Equal(t, int64(83), per)
	assert.Equal(t, int64(1), rem)

	per, rem = SplitPool(100, 0)
	assert.Equal(t, int64(0), per)
	assert.Equal(t, int64(100), rem)

	for pool := int64(0); pool < 2000; pool += 97 {
		for n := 1; n <= 13; n++ {
			per, rem := SplitPool(pool, n)
			assert.LessOrEqual(t, per*int64(n), pool)
			assert.Equal(t, pool, per*int64(n)+rem)
			assert.Less(t, rem, int64(n))
		}
	}
}

func TestPlanPayout_BossPool(t *testing.T) {
	s, _ := bossSession(BossConfig{HP: 5000, MinDamage: 1, MaxDamage: 1, ParticipantHP: 10},
		NewCombatant("c", 10, 0, 1), NewCombatant("a", 10, 0, 1), NewCombatant("b", 10, 0, 1))
	s.Participants.Get("b").Eliminate()
	s.Config.Reward = RewardConfig{PoolDivisor: 4, BonusRecipient: BonusRandomSurvivor, BonusItem: ItemLegendaryCrate}

	plan := PlanPayout(s, maxRNG{})
	assert.Equal(t, int64(1250), plan.RewardPool)
	assert.Equal(t, int64(625), plan.PerSurvivorAmount)
	assert.Equal(t, []string{"a", "c"}, plan.Grantees)
	assert.Equal(t, "c", plan.BonusRecipient)

	d := plan.deltaFor("s1", "c")
	assert.Equal(t, int64(625), d.Money)
	assert.Equal(t, int64(1), d.Items[ItemLegendaryCrate])
	assert.Equal(t, "s1:payout:c", d.Key)
	assert.Nil(t, plan.deltaFor("s1", "a").Items)
}

func TestPlanPayout_AlteredHPChangesPool(t *testing.T) {
	s, _ := bossSession(BossConfig{HP: 1000, MinDamage: 1, MaxDamage: 1, ParticipantHP: 10}, NewCombatant("a", 10, 0, 1))
	s.Config.Reward = RewardConfig{PoolDivisor: 4}
	require.NoError(t, s.AlterBossHP(8000))

	plan := PlanPayout(s, zeroRNG{})
	assert.Equal(t, int64(2000), plan.RewardPool)
}

func TestApplyPayout_FlatRewards(t *testing.T) {
	s, _ := bossSession(BossConfig{HP: 1000, MinDamage: 1, MaxDamage: 1, ParticipantHP: 10},
		NewCombatant("a", 10, 0, 1), NewCombatant("b", 10, 0, 1))
	s.Config.Reward = RewardConfig{FlatMoney: 5000, FlatXP: 1000}
	ledger := newFakeLedger()

	plan := PlanPayout(s, zeroRNG{})
	require.NoError(t, ApplyPayout(context.Background(), "s1", plan, ledger))

	assert.Equal(t, []string{"a", "b"}, plan.Credited)
	assert.Equal(t, int64(5000), ledger.balances["b"])
	assert.Equal(t, int64(1000), ledger.applied["s1:payout:a"].XP)

	// 重放同一计划不会重复发放
	require.NoError(t, ApplyPayout(context.Background(), "s1", PlanPayout(s, zeroRNG{}), ledger))
	assert.Equal(t, int64(5000), ledger.balances["b"])
}

func TestApplyPayout_PartialFailure(t *testing.T) {
	s, _ := bossSession(BossConfig{HP: 1000, MinDamage: 1, MaxDamage: 1, ParticipantHP: 10},
		NewCombatant("a", 10, 0, 1), NewCombatant("b", 10, 0, 1), NewCombatant("c", 10, 0, 1))
	s.Config.Reward = RewardConfig{FixedPool: 300}
	ledger := newFakeLedger()
	ledger.failFor["b"] = errLedgerDown

	plan := PlanPayout(s, zeroRNG{})
	err := ApplyPayout(context.Background(), "s1", plan, ledger)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.CodeRaidPartialPayout))
	assert.ErrorIs(t, err, errLedgerDown)

	assert.Equal(t, []string{"a", "c"}, plan.Credited)
	assert.Equal(t, []string{"b"}, plan.Failed)
	assert.Equal(t, int64(100), ledger.balances["a"])
	assert.Equal(t, int64(100), ledger.balances["c"])
}

func TestPlanPayout_NoSurvivors(t *testing.T) {
	s, _ := bossSession(BossConfig{HP: 1000, MinDamage: 1, MaxDamage: 1, ParticipantHP: 10}, NewCombatant("a", 10, 0, 1))
	s.Participants.Get("a").Eliminate()
	s.Config.Reward = RewardConfig{PoolDivisor: 4, BonusRecipient: BonusTopKills, BonusItem: ItemLegendaryCrate}

	plan := PlanPayout(s, zeroRNG{})
	assert.Empty(t, plan.Grantees)
	assert.Empty(t, plan.BonusRecipient)
	assert.Equal(t, int64(250), plan.Remainder)
}
