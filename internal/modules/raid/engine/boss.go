package engine

import "time"

// DefaultActionTimeout 玩家行动选择的等待上限
const DefaultActionTimeout = 20 * time.Second

// PlayerAction boss 目标可选的行动
type PlayerAction struct {
	Name  string
	Apply func(rc *RoundContext, target *Combatant)
}

// GreaterHeal 回复 amount 血量，不超过上限
func GreaterHeal(amount int64) PlayerAction {
	return PlayerAction{
		Name: "greater_heal",
		Apply: func(_ *RoundContext, target *Combatant) {
			target.Heal(amount)
		},
	}
}

// SecondWind 本回合队伍伤害 +pct
func SecondWind(pct int) PlayerAction {
	return PlayerAction{
		Name: "second_wind",
		Apply: func(rc *RoundContext, _ *Combatant) {
			rc.Mods.CounterPct += pct
		},
	}
}

// Block 1..10 掷骰小于 threshold 时完全格挡
func Block(threshold int) PlayerAction {
	return PlayerAction{
		Name: "block",
		Apply: func(rc *RoundContext, _ *Combatant) {
			if int(RandInt(rc.RNG, 1, 10)) < threshold {
				rc.Mods.Blocked = true
			}
		},
	}
}

// BossMode 单 boss 消耗战
type BossMode struct {
	cfg BossConfig
}

func (m *BossMode) Kind() ModeKind { return ModeBoss }

func (m *BossMode) Prepare(s *Session, _ RNG) {
	boss := NewCombatant("boss", m.cfg.HP, 0, 0)
	boss.Name = m.cfg.Name
	s.Boss = boss
	s.InitialHP = m.cfg.HP
}

func (m *BossMode) Enlist(userID string, p *Profile) (*Combatant, error) {
	damage, armor, err := ComputeStats(p)
	if err != nil {
		return nil, err
	}
	return NewCombatant(userID, m.cfg.ParticipantHP, armor, damage), nil
}

// Prompt 选定目标并询问行动
func (m *BossMode) Prompt(rc *RoundContext) {
	alive := rc.Session.Participants.Alive()
	if len(alive) == 0 {
		return
	}
	rc.Target = alive[rc.RNG.Intn(len(alive))]

	if len(m.cfg.Actions) == 0 || rc.Choice == nil {
		return
	}
	options := make([]string, len(m.cfg.Actions))
	for i, a := range m.cfg.Actions {
		options[i] = a.Name
	}
	timeout := m.cfg.ActionTimeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	rc.Emit(EventChoiceRequested, map[string]any{
		"participant_id": rc.Target.ID,
		"options":        options,
		"timeout_ms":     timeout.Milliseconds(),
	})
	if idx, ok := rc.Choice.Ask(rc.Ctx, rc.Target.ID, options, timeout); ok && idx >= 0 && idx < len(m.cfg.Actions) {
		rc.Action = &m.cfg.Actions[idx]
	}
}

func (m *BossMode) Resolve(rc *RoundContext) {
	s := rc.Session
	if rc.Target == nil {
		m.Prompt(rc)
	}
	target := rc.Target
	rec := rc.Record
	if target == nil || !target.Alive {
		return
	}
	rec.TargetID = target.ID

	if rc.Action != nil {
		rec.Action = rc.Action.Name
		rc.Action.Apply(rc, target)
	}
	if ability, ok := m.cfg.Abilities.Sample(rc.RNG); ok {
		rec.Ability = ability.Name
		ability.Effect(rc)
	}

	switch {
	case rc.Mods.Blocked:
		rec.Blocked = true
	case rc.Mods.Execute:
		rec.Executed = true
		rec.Damage = target.HP
		target.Eliminate()
	default:
		raw := RandInt(rc.RNG, m.cfg.MinDamage, m.cfg.MaxDamage)
		rec.RawDamage = raw
		rec.Damage = BossHit(raw, rc.Mods, target.Armor)
		target.TakeDamage(rec.Damage)
	}
	rec.TargetHP = target.HP

	aliveDamage := s.Participants.AliveDamage()
	if !target.Alive {
		rec.Eliminated = append(rec.Eliminated, target.ID)
		if m.cfg.CounterBeforeRemoval {
			aliveDamage += target.Damage
		}
	}
	rec.CounterDamage = CounterDamage(aliveDamage, rc.Mods)
	s.Boss.TakeDamage(rec.CounterDamage)
	rec.EnemyHP = s.Boss.HP
}

// Outcome 先判 WIPE 再判 VICTORY
func (m *BossMode) Outcome(s *Session) (Outcome, bool) {
	if s.Participants.AliveCount() == 0 {
		return OutcomeWipe, true
	}
	if s.Boss.HP <= 0 {
		return OutcomeVictory, true
	}
	return OutcomeNone, false
}
