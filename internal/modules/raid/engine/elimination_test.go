package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eliminationConfig(minDmg, maxDmg int64) EncounterConfig {
	return EncounterConfig{
		Preset: "test-elimination",
		Mode:   ModeElimination,
		Elimination: &EliminationConfig{
			ParticipantHP: 10,
			MinDamage:     minDmg,
			MaxDamage:     maxDmg,
			CullChancePct: 20,
			CullFloor:     10,
			CullMin:       2,
			CullMax:       5,
		},
		RoundDelay: 5 * time.Second,
	}
}

func TestElimination_LastStandingWins(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 3, 0, 0)
	e, _, _, _ := newTestEngine(roster, ledger, NewRNG(11))

	cfg := eliminationConfig(50, 50)
	cfg.Reward.FixedPool = 100
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Survivors, 1)
	assert.Equal(t, int64(100), ledger.balances[res.Survivors[0]])
}

func TestElimination_RequiredGod(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 4, 0, 0)
	for _, id := range []string{"p1", "p2", "p3"} {
		ledger.profiles[id].God = "Guilt"
	}
	e, _, _, _ := newTestEngine(roster, ledger, NewRNG(11))

	cfg := eliminationConfig(50, 50)
	cfg.Eligibility.RequiredGod = "Guilt"
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Participants)
	assert.NotContains(t, res.Survivors, "p4")
}

func TestElimination_TimeoutWhenNobodyDies(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 2, 0, 0)
	e, _, clock, lock := newTestEngine(roster, ledger, NewRNG(3))

	res, err := e.Start(context.Background(), eliminationConfig(0, 0))
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, 540, res.Rounds)
	assert.Len(t, res.Survivors, 2)
	assert.Nil(t, res.Payout, "超时不发奖励")
	assert.Equal(t, testEpoch.Add(DefaultDeadline), clock.Now())
	assert.False(t, lock.Held())
}

func TestElimination_CullLeavesOneStanding(t *testing.T) {
	mode := &EliminationMode{cfg: EliminationConfig{
		ParticipantHP: 10,
		CullChancePct: 100,
		CullFloor:     10,
		CullMin:       20,
		CullMax:       20,
	}}
	s := newSession("s-elim", EncounterConfig{Mode: ModeElimination}, mode, testEpoch)
	for i := 0; i < 12; i++ {
		s.Participants.Add(NewCombatant(fmt.Sprintf("p%02d", i), 10, 0, 0))
	}

	rc := roundCtx(s, maxRNG{}, 1)
	mode.Resolve(rc)

	assert.True(t, rc.Record.Culled)
	assert.Len(t, rc.Record.Eliminated, 11)
	assert.Equal(t, 1, s.Participants.AliveCount())

	outcome, done := mode.Outcome(s)
	require.True(t, done)
	assert.Equal(t, OutcomeVictory, outcome)
}

func TestElimination_NoCullAtFloor(t *testing.T) {
	mode := &EliminationMode{cfg: EliminationConfig{
		ParticipantHP: 10,
		MinDamage:     1,
		MaxDamage:     1,
		CullChancePct: 100,
		CullFloor:     10,
		CullMin:       2,
		CullMax:       5,
	}}
	s := newSession("s-elim", EncounterConfig{Mode: ModeElimination}, mode, testEpoch)
	for i := 0; i < 10; i++ {
		s.Participants.Add(NewCombatant(fmt.Sprintf("p%02d", i), 10, 0, 0))
	}

	rc := roundCtx(s, NewRNG(8), 1)
	mode.Resolve(rc)

	assert.False(t, rc.Record.Culled)
	assert.NotEqual(t, rc.Record.AttackerID, rc.Record.TargetID)
	assert.Equal(t, int64(9), rc.Record.TargetHP)
}

func TestTournament_EliminatesUntilOne(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 3, 0, 0)
	e, _, _, _ := newTestEngine(roster, ledger, NewRNG(21))

	cfg := EncounterConfig{
		Preset:     "test-tournament",
		Mode:       ModeTournament,
		Tournament: &TournamentConfig{Games: []Game{{Name: "Sudden Death", EliminationPct: 100}}},
		RoundDelay: time.Second,
		Reward:     RewardConfig{BonusRecipient: BonusRandomSurvivor, BonusItem: ItemLegendaryCrate},
	}
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, OutcomeVictory, res.Outcome)
	assert.Equal(t, 2, res.Rounds)
	for _, rec := range res.RoundLog {
		assert.Equal(t, "Sudden Death", rec.Game)
		assert.Len(t, rec.Eliminated, 1)
	}
	require.Len(t, res.Survivors, 1)
	assert.Equal(t, res.Survivors[0], res.Payout.BonusRecipient)
}

func TestTournament_TimeoutWithHarmlessGames(t *testing.T) {
	ledger := newFakeLedger()
	roster := rosterOf(ledger, 2, 0, 0)
	e, _, _, _ := newTestEngine(roster, ledger, NewRNG(21))

	cfg := EncounterConfig{
		Mode:       ModeTournament,
		Tournament: &TournamentConfig{Games: []Game{{Name: "Nap", EliminationPct: 0}}},
		RoundDelay: time.Minute,
		Deadline:   10 * time.Minute,
	}
	res, err := e.Start(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, 10, res.Rounds)
}
