package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbilityTable_Sample(t *testing.T) {
	table := AbilityTable{
		{Name: "never", Weight: 0},
		{Name: "a", Weight: 1},
		{Name: "b", Weight: 3},
	}

	picked, ok := table.Sample(zeroRNG{})
	require.True(t, ok)
	assert.Equal(t, "a", picked.Name)

	picked, ok = table.Sample(&seqRNG{values: []int{1}})
	require.True(t, ok)
	assert.Equal(t, "b", picked.Name)

	picked, ok = table.Sample(maxRNG{})
	require.True(t, ok)
	assert.Equal(t, "b", picked.Name)
}

func TestAbilityTable_ZeroWeightNeverPicked(t *testing.T) {
	table := AbilityTable{{Name: "never", Weight: 0}, {Name: "always", Weight: 2}}
	rng := NewRNG(7)
	for i := 0; i < 200; i++ {
		picked, ok := table.Sample(rng)
		require.True(t, ok)
		assert.Equal(t, "always", picked.Name)
	}
}

func TestAbilityTable_Empty(t *testing.T) {
	_, ok := AbilityTable{}.Sample(zeroRNG{})
	assert.False(t, ok)

	_, ok = AbilityTable{{Name: "x", Weight: 0}}.Sample(zeroRNG{})
	assert.False(t, ok)
}

func TestAbilityEffects(t *testing.T) {
	rc := &RoundContext{RNG: zeroRNG{}}
	Enrage(1, 40, 10).Effect(rc)
	Howl(1, 30).Effect(rc)
	assert.Equal(t, 40, rc.Mods.RawDamagePct)
	assert.Equal(t, -20, rc.Mods.CounterPct)

	// zeroRNG 掷出 1，小于阈值 5
	Assassinate(1, 5).Effect(rc)
	assert.True(t, rc.Mods.Execute)

	// maxRNG 掷出 10，不小于阈值
	rc = &RoundContext{RNG: maxRNG{}}
	Assassinate(1, 5).Effect(rc)
	assert.False(t, rc.Mods.Execute)
}
