package interfaces

import (
	"context"
	"errors"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/ericlagergren/decimal"

	"tsu-raid/internal/modules/raid/engine"
)

// RaidStat 可升级的 raid 属性
type RaidStat string

const (
	RaidStatDamage  RaidStat = "damage"
	RaidStatDefense RaidStat = "defense"
)

var (
	// ErrProfileNotFound 用户没有 raid 资料
	ErrProfileNotFound = errors.New("raid profile not found")
	// ErrInsufficientFunds 余额不足
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownStat 不支持升级的属性
	ErrUnknownStat = errors.New("unknown raid stat")
)

// UpgradeQuote 升级报价：当前倍率 -> 下一级倍率与价格
type UpgradeQuote func(current *decimal.Big) (next *decimal.Big, price int64, err error)

// UpgradeResult 升级后的状态
type UpgradeResult struct {
	Stat    RaidStat
	Level   *decimal.Big
	Price   int64
	Balance int64
}

// RaidProfileRepository raid 资料与账本仓储，同时满足 engine.ProfileStore
type RaidProfileRepository interface {
	engine.ProfileStore

	// ApplyDeltaTx 在事务内应用账本变更，Key 已存在时不做任何修改
	ApplyDeltaTx(ctx context.Context, exec boil.ContextExecutor, userID string, delta engine.Delta) (applied bool, err error)

	// UpgradeStat 在同一事务内校验余额、扣款并提升倍率
	UpgradeStat(ctx context.Context, userID string, stat RaidStat, quote UpgradeQuote, key string) (*UpgradeResult, error)
}
