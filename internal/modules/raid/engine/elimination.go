package engine

// EliminationMode 参与者互相攻击，偶发清洗
type EliminationMode struct {
	cfg EliminationConfig
}

func (m *EliminationMode) Kind() ModeKind { return ModeElimination }

func (m *EliminationMode) Prepare(*Session, RNG) {}

func (m *EliminationMode) Enlist(userID string, _ *Profile) (*Combatant, error) {
	return NewCombatant(userID, m.cfg.ParticipantHP, 0, 0), nil
}

func (m *EliminationMode) Resolve(rc *RoundContext) {
	alive := rc.Session.Participants.Alive()
	n := len(alive)
	rec := rc.Record

	if n > m.cfg.CullFloor && Percent(rc.RNG) <= m.cfg.CullChancePct {
		k := int(RandInt(rc.RNG, int64(m.cfg.CullMin), int64(m.cfg.CullMax)))
		if k > n-1 {
			k = n - 1
		}
		rec.Culled = true
		for _, i := range Sample(rc.RNG, n, k) {
			alive[i].Eliminate()
			rec.Eliminated = append(rec.Eliminated, alive[i].ID)
		}
		return
	}
	if n < 2 {
		return
	}

	pair := Sample(rc.RNG, n, 2)
	attacker, target := alive[pair[0]], alive[pair[1]]
	rec.AttackerID = attacker.ID
	rec.TargetID = target.ID
	rec.Damage = RandInt(rc.RNG, m.cfg.MinDamage, m.cfg.MaxDamage)
	if target.TakeDamage(rec.Damage) {
		rec.Eliminated = append(rec.Eliminated, target.ID)
	}
	rec.TargetHP = target.HP
}

func (m *EliminationMode) Outcome(s *Session) (Outcome, bool) {
	return lastStanding(s)
}

func lastStanding(s *Session) (Outcome, bool) {
	switch s.Participants.AliveCount() {
	case 0:
		return OutcomeWipe, true
	case 1:
		return OutcomeVictory, true
	}
	return OutcomeNone, false
}
