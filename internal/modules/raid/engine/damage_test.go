package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDamage(t *testing.T) {
	tests := []struct {
		name  string
		raw   int64
		armor int64
		want  int64
	}{
		{"无护甲", 120, 0, 120},
		{"护甲部分抵消", 120, 20, 100},
		{"护甲等于伤害", 50, 50, 0},
		{"护甲大于伤害", 50, 80, 0},
		{"零伤害", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveDamage(tt.raw, tt.armor))
		})
	}
}

func TestEffectiveDamage_NeverNegative(t *testing.T) {
	for raw := int64(0); raw <= 600; raw += 37 {
		for armor := int64(0); armor <= 600; armor += 41 {
			d := EffectiveDamage(raw, armor)
			assert.GreaterOrEqual(t, d, int64(0))
			if armor == 0 {
				assert.Equal(t, raw, d)
			}
		}
	}
}

func TestApplyPercent(t *testing.T) {
	assert.Equal(t, int64(100), ApplyPercent(100, 0))
	assert.Equal(t, int64(140), ApplyPercent(100, 40))
	assert.Equal(t, int64(70), ApplyPercent(100, -30))
	assert.Equal(t, int64(0), ApplyPercent(100, -150))
	// 四舍五入: 25 × 1.1 = 27.5
	assert.Equal(t, int64(28), ApplyPercent(25, 10))
	assert.Equal(t, int64(0), ApplyPercent(0, 50))
}

func TestBossHitAndCounter(t *testing.T) {
	mods := Modifiers{RawDamagePct: 40, CounterPct: 10}
	// 500 × 1.4 = 700，护甲 100
	assert.Equal(t, int64(600), BossHit(500, mods, 100))
	// 200 × 1.1 = 220
	assert.Equal(t, int64(220), CounterDamage(200, mods))

	assert.Equal(t, int64(0), BossHit(100, Modifiers{}, 500))
	assert.Equal(t, int64(0), CounterDamage(0, mods))
}
