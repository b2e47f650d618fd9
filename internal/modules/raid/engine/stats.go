package engine

import (
	"errors"
	"fmt"

	"github.com/ericlagergren/decimal"
)

var (
	// ErrStatComputation 属性无法计算，候选人被剔除
	ErrStatComputation = errors.New("raid stat computation failed")

	tierStep = decimal.New(1, 1) // 0.1
)

// Multiplier 倍率 = 基础倍率 + 0.1×raider 阶位 + 0.1×公会 raid 建筑等级
func Multiplier(base *decimal.Big, tier, building int) (*decimal.Big, error) {
	if base == nil {
		base = decimal.New(1, 0)
	}
	if base.Sign() < 0 || tier < 0 || building < 0 {
		return nil, fmt.Errorf("%w: negative multiplier input", ErrStatComputation)
	}
	bonus := new(decimal.Big).Mul(tierStep, decimal.New(int64(tier+building), 0))
	return new(decimal.Big).Add(base, bonus), nil
}

// ComputeStats 计算 raid 伤害与护甲（向零取整）
func ComputeStats(p *Profile) (damage, armor int64, err error) {
	if p == nil {
		return 0, 0, fmt.Errorf("%w: missing profile", ErrStatComputation)
	}
	if p.BaseDamage < 0 || p.BaseArmor < 0 {
		return 0, 0, fmt.Errorf("%w: negative base stats", ErrStatComputation)
	}

	atk, err := Multiplier(p.AtkMultiply, p.RaiderTier, p.RaidBuilding)
	if err != nil {
		return 0, 0, err
	}
	def, err := Multiplier(p.DefMultiply, p.RaiderTier, p.RaidBuilding)
	if err != nil {
		return 0, 0, err
	}

	damage, ok := new(decimal.Big).Mul(decimal.New(p.BaseDamage, 0), atk).Int64()
	if !ok {
		return 0, 0, fmt.Errorf("%w: damage overflow", ErrStatComputation)
	}
	armor, ok = new(decimal.Big).Mul(decimal.New(p.BaseArmor, 0), def).Int64()
	if !ok {
		return 0, 0, fmt.Errorf("%w: armor overflow", ErrStatComputation)
	}
	return damage, armor, nil
}

// UpgradePrice 将倍率从 1.0 提升到 level 的累计价格: Σ i×25000, i = 1..(level×10 − 10)
func UpgradePrice(level *decimal.Big) (int64, error) {
	if level == nil {
		return 0, fmt.Errorf("%w: nil level", ErrStatComputation)
	}
	steps, ok := new(decimal.Big).Mul(level, decimal.New(10, 0)).Int64()
	if !ok {
		return 0, fmt.Errorf("%w: level overflow", ErrStatComputation)
	}
	n := steps - 10
	if n <= 0 {
		return 0, nil
	}
	return 25000 * n * (n + 1) / 2, nil
}

// NextLevel 倍率 +0.1
func NextLevel(level *decimal.Big) *decimal.Big {
	if level == nil {
		level = decimal.New(1, 0)
	}
	return new(decimal.Big).Add(level, tierStep)
}
