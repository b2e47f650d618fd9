package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bossConfig(hp, participantHP int64) EncounterConfig {
	return EncounterConfig{
		Preset: "test",
		Mode:   ModeBoss,
		Boss: &BossConfig{
			Name:          "test",
			HP:            hp,
			MinDamage:     100,
			MaxDamage:     500,
			ParticipantHP: participantHP,
		},
	}
}

func rosterOf(ledger *fakeLedger, n int, damage, armor int64) *fakeRoster {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i+1)
		ledger.add(ids[i], damage, armor, 0)
	}
	return &fakeRoster{ids: ids}
}

func TestBoss_WipeWithMaxRolls(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 5, 50, 0)
	e, _, _, _ := newTestEngine(roster, ledger, maxRNG{})

	res, err := e.Start(context.Background(), bossConfig(1000, 250))
	require.NoError(t, err)

	// 每回合最后一名存活者被 500 伤害击杀，反击 200/150/100/50/0
	assert.Equal(t, OutcomeWipe, res.Outcome)
	assert.Equal(t, 5, res.Rounds)
	assert.Empty(t, res.Survivors)
	require.Len(t, res.RoundLog, 5)
	assert.Equal(t, int64(500), res.RoundLog[4].EnemyHP)
	assert.Nil(t, res.Payout, "全灭不发奖励")
}

func TestBoss_VictoryWithMaxRolls(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 5, 50, 0)
	e, _, _, _ := newTestEngine(roster, ledger, maxRNG{})

	cfg := bossConfig(1000, 2500)
	cfg.Reward.PoolDivisor = 4
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, res.Survivors)

	require.NotNil(t, res.Payout)
	assert.Equal(t, int64(250), res.Payout.RewardPool)
	assert.Equal(t, int64(50), res.Payout.PerSurvivorAmount)
	assert.Equal(t, int64(50), ledger.balances["p3"])
}

func TestBoss_SingleParticipantHPMonotonic(t *testing.T) {
	ledger := newFakeLedger().add("solo", 300, 0, 0)
	e, _, _, _ := newTestEngine(&fakeRoster{ids: []string{"solo"}}, ledger, maxRNG{})

	res, err := e.Start(context.Background(), bossConfig(1000, 5000))
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	prev := int64(1000)
	for _, rec := range res.RoundLog {
		assert.LessOrEqual(t, rec.EnemyHP, prev)
		prev = rec.EnemyHP
	}
	assert.LessOrEqual(t, prev, int64(0))
}

func TestBoss_HPOnlyDecreasedByAlive(t *testing.T) {
	participants := make([]*Combatant, 0, 8)
	for i := 0; i < 8; i++ {
		participants = append(participants, NewCombatant(fmt.Sprintf("p%d", i), 250, int64(i*10), int64(20+i*7)))
	}
	s, mode := bossSession(BossConfig{HP: 5000, MinDamage: 100, MaxDamage: 500, ParticipantHP: 250}, participants...)
	rng := NewRNG(99)

	for round := 1; round < 100; round++ {
		if _, done := mode.Outcome(s); done {
			break
		}
		before := s.Boss.HP
		mode.Resolve(roundCtx(s, rng, round))

		assert.Equal(t, before-s.Participants.AliveDamage(), s.Boss.HP, "round %d", round)
	}
}

func TestBoss_ArmorAbsorbsHit(t *testing.T) {
	tank := NewCombatant("tank", 5000, 1000, 0)
	s, mode := bossSession(BossConfig{HP: 100, MinDamage: 100, MaxDamage: 500, ParticipantHP: 5000}, tank)
	rc := roundCtx(s, maxRNG{}, 1)
	mode.Resolve(rc)
	assert.Equal(t, int64(500), rc.Record.RawDamage)
	assert.Equal(t, int64(0), rc.Record.Damage)
	assert.Equal(t, int64(5000), rc.Record.TargetHP)

	squishy := NewCombatant("p1", 5000, 120, 0)
	s, mode = bossSession(BossConfig{HP: 100, MinDamage: 100, MaxDamage: 500, ParticipantHP: 5000}, squishy)
	rc = roundCtx(s, maxRNG{}, 1)
	mode.Resolve(rc)
	assert.Equal(t, int64(380), rc.Record.Damage)
	assert.Equal(t, int64(4620), rc.Record.TargetHP)
}

func TestBoss_CounterBeforeRemoval(t *testing.T) {
	fragile := func() *Combatant { return NewCombatant("p1", 100, 0, 300) }

	s, mode := bossSession(BossConfig{HP: 1000, MinDamage: 500, MaxDamage: 500, ParticipantHP: 100}, fragile())
	rc := roundCtx(s, zeroRNG{}, 1)
	mode.Resolve(rc)
	assert.Equal(t, []string{"p1"}, rc.Record.Eliminated)
	assert.Equal(t, int64(0), rc.Record.CounterDamage)
	assert.Equal(t, int64(1000), s.Boss.HP)

	s, mode = bossSession(BossConfig{HP: 1000, MinDamage: 500, MaxDamage: 500, ParticipantHP: 100, CounterBeforeRemoval: true}, fragile())
	rc = roundCtx(s, zeroRNG{}, 1)
	mode.Resolve(rc)
	assert.Equal(t, int64(300), rc.Record.CounterDamage)
	assert.Equal(t, int64(700), s.Boss.HP)
}

func TestBoss_PlayerActions(t *testing.T) {
	cfg := BossConfig{HP: 1000, MinDamage: 100, MaxDamage: 100, ParticipantHP: 250, Actions: DefaultPlayerActions()}

	t.Run("greater heal 先于 boss 攻击", func(t *testing.T) {
		p := NewCombatant("p1", 250, 0, 10)
		p.HP = 100
		s, mode := bossSession(cfg, p)
		rc := roundCtx(s, zeroRNG{}, 1)
		rc.Choice = &fixedChoice{index: 0, ok: true}

		mode.Prompt(rc)
		mode.Resolve(rc)
		assert.Equal(t, "greater_heal", rc.Record.Action)
		assert.Equal(t, int64(63), p.HP)
	})

	t.Run("second wind 提高反击", func(t *testing.T) {
		s, mode := bossSession(cfg, NewCombatant("p1", 250, 0, 10))
		rc := roundCtx(s, zeroRNG{}, 1)
		rc.Choice = &fixedChoice{index: 1, ok: true}

		mode.Prompt(rc)
		mode.Resolve(rc)
		assert.Equal(t, int64(15), rc.Record.CounterDamage)
	})

	t.Run("block 成功时不受伤", func(t *testing.T) {
		p := NewCombatant("p1", 250, 0, 10)
		s, mode := bossSession(cfg, p)
		rc := roundCtx(s, zeroRNG{}, 1)
		rc.Choice = &fixedChoice{index: 2, ok: true}

		mode.Prompt(rc)
		mode.Resolve(rc)
		assert.True(t, rc.Record.Blocked)
		assert.Equal(t, int64(250), p.HP)
		assert.Equal(t, int64(10), rc.Record.CounterDamage)
	})

	t.Run("超时不执行行动", func(t *testing.T) {
		p := NewCombatant("p1", 250, 0, 10)
		s, mode := bossSession(cfg, p)
		rc := roundCtx(s, zeroRNG{}, 1)
		choice := &fixedChoice{ok: false}
		rc.Choice = choice

		mode.Prompt(rc)
		mode.Resolve(rc)
		assert.Equal(t, []string{"p1"}, choice.asked)
		assert.Empty(t, rc.Record.Action)
		assert.Equal(t, int64(150), p.HP)
	})
}

func TestBoss_AssassinateExecutes(t *testing.T) {
	cfg := BossConfig{HP: 1000, MinDamage: 100, MaxDamage: 100, ParticipantHP: 250, Abilities: AbilityTable{Assassinate(1, 5)}}
	s, mode := bossSession(cfg, NewCombatant("p1", 250, 0, 10), NewCombatant("p2", 250, 0, 20))

	rc := roundCtx(s, zeroRNG{}, 1)
	mode.Resolve(rc)

	assert.Equal(t, "assassinate", rc.Record.Ability)
	assert.True(t, rc.Record.Executed)
	assert.Equal(t, "p1", rc.Record.TargetID)
	assert.Equal(t, int64(250), rc.Record.Damage)
	assert.False(t, s.Participants.Get("p1").Alive)
	assert.Equal(t, int64(20), rc.Record.CounterDamage)
}

func TestBoss_ChoiceRequestedEvent(t *testing.T) {
	ledger := newFakeLedger().add("p1", 600, 0, 0)
	sink := &recordingSink{}
	choice := &fixedChoice{index: 1, ok: true}
	e := NewEngine(Dependencies{
		Roster:   &fakeRoster{ids: []string{"p1"}},
		Profiles: ledger,
		Events:   sink,
		Clock:    NewManualClock(testEpoch),
		Choice:   choice,
		RNG:      zeroRNG{},
		Logger:   discardLogger(),
	})

	cfg := bossConfig(1000, 250)
	cfg.Boss.Actions = DefaultPlayerActions()
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	// 600 × 1.5 = 900，第二回合击杀
	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, 2, res.Rounds)
	assert.Len(t, sink.ofType(EventChoiceRequested), 2)
	assert.Equal(t, []string{"p1", "p1"}, choice.asked)
}
