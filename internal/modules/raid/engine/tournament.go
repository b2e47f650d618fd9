package engine

// TournamentMode 每回合抽一名参与者和一个小游戏，掷骰决定淘汰
type TournamentMode struct {
	cfg TournamentConfig
}

func (m *TournamentMode) Kind() ModeKind { return ModeTournament }

func (m *TournamentMode) Prepare(*Session, RNG) {}

func (m *TournamentMode) Enlist(userID string, _ *Profile) (*Combatant, error) {
	return NewCombatant(userID, 1, 0, 0), nil
}

func (m *TournamentMode) Resolve(rc *RoundContext) {
	alive := rc.Session.Participants.Alive()
	if len(alive) == 0 {
		return
	}
	rec := rc.Record
	player := alive[rc.RNG.Intn(len(alive))]
	game := m.cfg.Games[rc.RNG.Intn(len(m.cfg.Games))]
	roll := Percent(rc.RNG)

	rec.TargetID = player.ID
	rec.Game = game.Name
	rec.Roll = roll
	if roll <= game.EliminationPct {
		player.Eliminate()
		rec.Eliminated = append(rec.Eliminated, player.ID)
	}
}

func (m *TournamentMode) Outcome(s *Session) (Outcome, bool) {
	return lastStanding(s)
}
