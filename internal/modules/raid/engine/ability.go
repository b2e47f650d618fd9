package engine

// Ability boss 技能描述，每回合按权重抽取一次
type Ability struct {
	Name   string
	Weight int
	Effect func(rc *RoundContext)
}

// AbilityTable 权重表
type AbilityTable []Ability

// Sample 权重为 0 的条目不会被抽中；表为空返回 false
func (t AbilityTable) Sample(r RNG) (Ability, bool) {
	total := 0
	for _, a := range t {
		if a.Weight > 0 {
			total += a.Weight
		}
	}
	if total == 0 {
		return Ability{}, false
	}
	pick := r.Intn(total)
	for _, a := range t {
		if a.Weight <= 0 {
			continue
		}
		if pick < a.Weight {
			return a, true
		}
		pick -= a.Weight
	}
	return Ability{}, false
}

// Enrage boss 原始伤害提高 rawPct，同时本回合承受伤害提高 vulnerabilityPct
func Enrage(weight, rawPct, vulnerabilityPct int) Ability {
	return Ability{
		Name:   "enrage",
		Weight: weight,
		Effect: func(rc *RoundContext) {
			rc.Mods.RawDamagePct += rawPct
			rc.Mods.CounterPct += vulnerabilityPct
		},
	}
}

// Assassinate 以 1..10 掷骰小于 threshold 时处决目标，否则普通攻击
func Assassinate(weight, threshold int) Ability {
	return Ability{
		Name:   "assassinate",
		Weight: weight,
		Effect: func(rc *RoundContext) {
			if int(RandInt(rc.RNG, 1, 10)) < threshold {
				rc.Mods.Execute = true
			}
		},
	}
}

// Howl 本回合队伍伤害降低 pct
func Howl(weight, pct int) Ability {
	return Ability{
		Name:   "howl",
		Weight: weight,
		Effect: func(rc *RoundContext) {
			rc.Mods.CounterPct -= pct
		},
	}
}
