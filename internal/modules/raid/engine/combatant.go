package engine

// Combatant 参与者或 boss / 敌人
type Combatant struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	HP     int64  `json:"hp"`
	MaxHP  int64  `json:"max_hp"`
	Armor  int64  `json:"armor"`
	Damage int64  `json:"damage"`
	Alive  bool   `json:"alive"`

	// Kills 波次模式的击杀计数
	Kills int `json:"kills,omitempty"`
}

// NewCombatant 满血存活
func NewCombatant(id string, hp, armor, damage int64) *Combatant {
	return &Combatant{ID: id, HP: hp, MaxHP: hp, Armor: armor, Damage: damage, Alive: true}
}

// TakeDamage 扣血，返回本次是否阵亡
func (c *Combatant) TakeDamage(amount int64) bool {
	if !c.Alive || amount <= 0 {
		return false
	}
	c.HP -= amount
	if c.HP <= 0 {
		c.Alive = false
		return true
	}
	return false
}

// Heal 治疗，不超过上限，对阵亡单位无效
func (c *Combatant) Heal(amount int64) int64 {
	if !c.Alive || amount <= 0 {
		return 0
	}
	before := c.HP
	c.HP += amount
	if c.MaxHP > 0 && c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	return c.HP - before
}

// Eliminate 直接淘汰（处决 / 清洗 / 游戏失败），不可逆
func (c *Combatant) Eliminate() bool {
	if !c.Alive {
		return false
	}
	c.Alive = false
	return true
}

// Arena 按稳定 ID 持有全部参与者，阵亡只翻转标记
type Arena struct {
	order []string
	byID  map[string]*Combatant
}

func NewArena() *Arena {
	return &Arena{byID: make(map[string]*Combatant)}
}

// Add 重复 ID 返回 false
func (a *Arena) Add(c *Combatant) bool {
	if c == nil || c.ID == "" {
		return false
	}
	if _, exists := a.byID[c.ID]; exists {
		return false
	}
	a.order = append(a.order, c.ID)
	a.byID[c.ID] = c
	return true
}

func (a *Arena) Get(id string) *Combatant {
	return a.byID[id]
}

func (a *Arena) Len() int {
	return len(a.order)
}

// All 按加入顺序返回（含阵亡）
func (a *Arena) All() []*Combatant {
	out := make([]*Combatant, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// Alive 按加入顺序返回存活者
func (a *Arena) Alive() []*Combatant {
	out := make([]*Combatant, 0, len(a.order))
	for _, id := range a.order {
		if c := a.byID[id]; c.Alive {
			out = append(out, c)
		}
	}
	return out
}

func (a *Arena) AliveCount() int {
	n := 0
	for _, id := range a.order {
		if a.byID[id].Alive {
			n++
		}
	}
	return n
}

// AliveDamage 存活者每回合伤害之和
func (a *Arena) AliveDamage() int64 {
	var sum int64
	for _, id := range a.order {
		if c := a.byID[id]; c.Alive {
			sum += c.Damage
		}
	}
	return sum
}
