package engine

// Mode 遭遇模式的统一回合契约
type Mode interface {
	Kind() ModeKind
	// Prepare 生成 boss / 敌人队列
	Prepare(s *Session, rng RNG)
	// Enlist 把资料转换为参战单位，返回 error 时候选人被剔除
	Enlist(userID string, p *Profile) (*Combatant, error)
	// Resolve 结算一回合，调用方持有会话锁
	Resolve(rc *RoundContext)
	// Outcome 判定 WIPE / VICTORY，未结束返回 false
	Outcome(s *Session) (Outcome, bool)
}

// Prompter 需要在回合结算前与玩家交互的模式；调用时不持有会话锁
type Prompter interface {
	Prompt(rc *RoundContext)
}
