package engine

import (
	"fmt"
	"strconv"
)

// WaveMode 敌人队列，只有队首参战
type WaveMode struct {
	cfg WaveConfig
}

func (m *WaveMode) Kind() ModeKind { return ModeWave }

func (m *WaveMode) Prepare(s *Session, rng RNG) {
	hps := m.cfg.EnemyHP
	if len(hps) == 0 {
		hps = make([]int64, m.cfg.EnemyCount)
		for i := range hps {
			hps[i] = RandInt(rng, m.cfg.EnemyMinHP, m.cfg.EnemyMaxHP)
		}
	}
	s.Queue = make([]*Combatant, len(hps))
	for i, hp := range hps {
		enemy := NewCombatant("enemy-"+strconv.Itoa(i+1), hp, 0, 0)
		s.Queue[i] = enemy
	}
}

func (m *WaveMode) Enlist(userID string, p *Profile) (*Combatant, error) {
	damage, armor, err := ComputeStats(p)
	if err != nil {
		return nil, err
	}
	return NewCombatant(userID, m.cfg.ParticipantHP, armor, damage), nil
}

func (m *WaveMode) Resolve(rc *RoundContext) {
	s := rc.Session
	alive := s.Participants.Alive()
	if len(alive) == 0 || len(s.Queue) == 0 {
		return
	}
	rec := rc.Record
	target := alive[rc.RNG.Intn(len(alive))]
	head := s.Queue[0]
	rec.TargetID = target.ID

	raw := RandInt(rc.RNG, m.cfg.EnemyMinDamage, m.cfg.EnemyMaxDamage)
	factor := m.cfg.ArmorFactorsPct[rc.RNG.Intn(len(m.cfg.ArmorFactorsPct))]
	rec.RawDamage = raw
	rec.Damage = EffectiveDamage(raw, target.Armor*int64(factor)/100)
	if target.TakeDamage(rec.Damage) {
		rec.Eliminated = append(rec.Eliminated, target.ID)
	}
	rec.TargetHP = target.HP

	// 本回合阵亡的目标仍以最后的伤害值反击
	rec.CounterDamage = target.Damage
	head.TakeDamage(target.Damage)
	rec.EnemyHP = head.HP

	if head.HP <= 0 {
		s.Queue = s.Queue[1:]
		target.Kills++
		rec.KillReward = RandInt(rc.RNG, m.cfg.KillRewardMin, m.cfg.KillRewardMax)
		if rec.KillReward > 0 {
			m.creditKill(rc, target.ID, head.ID, rec.KillReward)
		}
	}
	rec.EnemiesLeft = len(s.Queue)
}

func (m *WaveMode) creditKill(rc *RoundContext, userID, enemyID string, amount int64) {
	s := rc.Session
	delta := Delta{
		Money:  amount,
		Reason: "raid wave kill",
		Key:    fmt.Sprintf("%s:kill:%s", s.ID, enemyID),
	}
	if rc.Ledger == nil {
		return
	}
	if err := rc.Ledger.ApplyDelta(rc.Ctx, userID, delta); err != nil {
		s.rewardFailures = append(s.rewardFailures, userID)
		rc.Emit(EventReward, map[string]any{"user_id": userID, "amount": amount, "error": err.Error()})
		return
	}
	rc.Emit(EventReward, map[string]any{"user_id": userID, "amount": amount})
}

// Outcome 队列清空优先于全灭
func (m *WaveMode) Outcome(s *Session) (Outcome, bool) {
	if len(s.Queue) == 0 {
		return OutcomeVictory, true
	}
	if s.Participants.AliveCount() == 0 {
		return OutcomeWipe, true
	}
	return OutcomeNone, false
}
