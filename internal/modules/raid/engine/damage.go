package engine

// EffectiveDamage max(0, raw - armor)
func EffectiveDamage(raw, armor int64) int64 {
	if d := raw - armor; d > 0 {
		return d
	}
	return 0
}

// ApplyPercent 百分比加成，四舍五入，结果不小于 0
func ApplyPercent(base int64, pct int) int64 {
	if pct == 0 || base <= 0 {
		return base
	}
	scaled := base * int64(100+pct)
	if scaled <= 0 {
		return 0
	}
	return (scaled + 50) / 100
}

// Modifiers 单回合修正，下一回合重新构造
type Modifiers struct {
	// RawDamagePct boss 原始伤害加成
	RawDamagePct int
	// CounterPct 队伍反击伤害加成（易伤为正，削弱为负）
	CounterPct int
	// Blocked boss 攻击被格挡
	Blocked bool
	// Execute 目标被直接处决
	Execute bool
}

// BossHit boss 对目标造成的实际伤害
func BossHit(raw int64, mods Modifiers, armor int64) int64 {
	return EffectiveDamage(ApplyPercent(raw, mods.RawDamagePct), armor)
}

// CounterDamage 队伍本回合对 boss 的总伤害
func CounterDamage(aliveDamage int64, mods Modifiers) int64 {
	return ApplyPercent(aliveDamage, mods.CounterPct)
}
