package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombatant_TakeDamage(t *testing.T) {
	c := NewCombatant("p1", 100, 0, 10)

	assert.False(t, c.TakeDamage(40))
	assert.Equal(t, int64(60), c.HP)

	assert.True(t, c.TakeDamage(60))
	assert.False(t, c.Alive)

	// 已阵亡不再重复报告死亡
	assert.False(t, c.TakeDamage(10))
	assert.Equal(t, int64(0), c.HP)
}

func TestCombatant_Heal(t *testing.T) {
	c := NewCombatant("p1", 250, 0, 10)
	c.TakeDamage(30)

	assert.Equal(t, int64(30), c.Heal(63))
	assert.Equal(t, int64(250), c.HP)

	c.Eliminate()
	assert.Equal(t, int64(0), c.Heal(10))
}

func TestArena(t *testing.T) {
	a := NewArena()
	require.True(t, a.Add(NewCombatant("b", 10, 0, 5)))
	require.True(t, a.Add(NewCombatant("a", 10, 0, 7)))
	assert.False(t, a.Add(NewCombatant("a", 10, 0, 7)), "重复 ID")
	assert.False(t, a.Add(nil))

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, int64(12), a.AliveDamage())

	a.Get("b").Eliminate()
	assert.Equal(t, 1, a.AliveCount())
	assert.Equal(t, int64(7), a.AliveDamage())
	assert.Len(t, a.All(), 2, "阵亡者仍保留在 arena 中")

	alive := a.Alive()
	require.Len(t, alive, 1)
	assert.Equal(t, "a", alive[0].ID)
}

func TestSample_Distinct(t *testing.T) {
	rng := NewRNG(42)
	for i := 0; i < 50; i++ {
		idx := Sample(rng, 10, 4)
		require.Len(t, idx, 4)
		seen := map[int]bool{}
		for _, v := range idx {
			assert.False(t, seen[v])
			assert.True(t, v >= 0 && v < 10)
			seen[v] = true
		}
	}
	assert.Len(t, Sample(rng, 3, 5), 3)
	assert.Nil(t, Sample(rng, 3, 0))
}

func TestRandInt_Bounds(t *testing.T) {
	rng := NewRNG(3)
	for i := 0; i < 500; i++ {
		v := RandInt(rng, 100, 500)
		assert.True(t, v >= 100 && v <= 500)
	}
	assert.Equal(t, int64(500), RandInt(maxRNG{}, 100, 500))
	assert.Equal(t, int64(9), RandInt(rng, 9, 9))
}
