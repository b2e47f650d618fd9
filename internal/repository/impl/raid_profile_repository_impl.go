package impl

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/aarondl/sqlboiler/v4/queries"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/google/uuid"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/repository/interfaces"
)

const profileColumns = `user_id, god, class, race, guild, money, base_damage, base_armor,
	atk_multiply, def_multiply, raider_tier, raid_building`

// raidProfileRow raid.raid_profiles 的一行
type raidProfileRow struct {
	UserID       string        `boil:"user_id"`
	God          null.String   `boil:"god"`
	Class        null.String   `boil:"class"`
	Race         null.String   `boil:"race"`
	Guild        null.String   `boil:"guild"`
	Money        int64         `boil:"money"`
	BaseDamage   int64         `boil:"base_damage"`
	BaseArmor    int64         `boil:"base_armor"`
	AtkMultiply  types.Decimal `boil:"atk_multiply"`
	DefMultiply  types.Decimal `boil:"def_multiply"`
	RaiderTier   int           `boil:"raider_tier"`
	RaidBuilding int           `boil:"raid_building"`
}

func (row *raidProfileRow) toProfile() *engine.Profile {
	return &engine.Profile{
		UserID:       row.UserID,
		God:          row.God.String,
		Class:        row.Class.String,
		Race:         row.Race.String,
		Guild:        row.Guild.String,
		Money:        row.Money,
		BaseDamage:   row.BaseDamage,
		BaseArmor:    row.BaseArmor,
		AtkMultiply:  row.AtkMultiply.Big,
		DefMultiply:  row.DefMultiply.Big,
		RaiderTier:   row.RaiderTier,
		RaidBuilding: row.RaidBuilding,
	}
}

type raidProfileRepositoryImpl struct {
	exec     boil.ContextExecutor
	beginner boil.ContextBeginner
}

// NewRaidProfileRepository 创建 raid 资料仓储实例
func NewRaidProfileRepository(db *sql.DB) interfaces.RaidProfileRepository {
	return &raidProfileRepositoryImpl{exec: db, beginner: db}
}

func (r *raidProfileRepositoryImpl) loadRow(ctx context.Context, exec boil.ContextExecutor, userID string, forUpdate bool) (*raidProfileRow, error) {
	query := `SELECT ` + profileColumns + ` FROM raid.raid_profiles WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row raidProfileRow
	if err := queries.Raw(query, userID).Bind(ctx, exec, &row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrProfileNotFound
		}
		return nil, fmt.Errorf("查询 raid 资料失败: %w", err)
	}
	return &row, nil
}

// GetProfile 不存在时返回 (nil, nil)
func (r *raidProfileRepositoryImpl) GetProfile(ctx context.Context, userID string) (*engine.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id 不能为空")
	}
	row, err := r.loadRow(ctx, r.exec, userID, false)
	if errors.Is(err, interfaces.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toProfile(), nil
}

func (r *raidProfileRepositoryImpl) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user_id 不能为空")
	}
	var balance int64
	err := r.exec.QueryRowContext(ctx, `SELECT money FROM raid.raid_profiles WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

func (r *raidProfileRepositoryImpl) ApplyDelta(ctx context.Context, userID string, delta engine.Delta) error {
	return withTx(ctx, r.exec, r.beginner, func(tx boil.ContextExecutor) error {
		_, err := r.ApplyDeltaTx(ctx, tx, userID, delta)
		return err
	})
}

func (r *raidProfileRepositoryImpl) ApplyDeltaTx(ctx context.Context, exec boil.ContextExecutor, userID string, delta engine.Delta) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("user_id 不能为空")
	}
	if delta.Key == "" {
		return false, fmt.Errorf("idempotency key 不能为空")
	}

	items := types.JSON("{}")
	if len(delta.Items) > 0 {
		raw, err := json.Marshal(delta.Items)
		if err != nil {
			return false, fmt.Errorf("序列化物品变更失败: %w", err)
		}
		items = raw
	}

	// 先锁定资料行，保证余额检查与扣款之间不被并发修改
	row, err := r.loadRow(ctx, exec, userID, true)
	if err != nil {
		return false, err
	}
	if delta.Money < 0 && row.Money+delta.Money < 0 {
		return false, interfaces.ErrInsufficientFunds
	}

	res, err := exec.ExecContext(ctx, `
INSERT INTO raid.raid_ledger_entries (id, idempotency_key, user_id, money, xp, items, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (idempotency_key) DO NOTHING
`, uuid.NewString(), delta.Key, userID, delta.Money, delta.XP, items, delta.Reason)
	if err != nil {
		return false, fmt.Errorf("写入 raid 流水失败: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("读取流水写入结果失败: %w", err)
	} else if n == 0 {
		// 同一 key 已经生效过
		return false, nil
	}

	if delta.Money != 0 || delta.XP != 0 {
		_, err = exec.ExecContext(ctx, `
UPDATE raid.raid_profiles
SET money = money + $2, xp = xp + $3, updated_at = NOW()
WHERE user_id = $1
`, userID, delta.Money, delta.XP)
		if err != nil {
			return false, fmt.Errorf("更新 raid 余额失败: %w", err)
		}
	}

	names := make([]string, 0, len(delta.Items))
	for name, qty := range delta.Items {
		if qty != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		_, err = exec.ExecContext(ctx, `
INSERT INTO raid.raid_inventory (user_id, item, quantity)
VALUES ($1, $2, GREATEST($3, 0))
ON CONFLICT (user_id, item) DO UPDATE
SET quantity = GREATEST(raid.raid_inventory.quantity + $3, 0),
    updated_at = NOW()
`, userID, name, delta.Items[name])
		if err != nil {
			return false, fmt.Errorf("更新 raid 物品失败: %w", err)
		}
	}
	return true, nil
}

func (r *raidProfileRepositoryImpl) UpgradeStat(ctx context.Context, userID string, stat interfaces.RaidStat, quote interfaces.UpgradeQuote, key string) (*interfaces.UpgradeResult, error) {
	var column string
	switch stat {
	case interfaces.RaidStatDamage:
		column = "atk_multiply"
	case interfaces.RaidStatDefense:
		column = "def_multiply"
	default:
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownStat, stat)
	}
	if quote == nil {
		return nil, fmt.Errorf("缺少升级报价")
	}

	var result *interfaces.UpgradeResult
	err := withTx(ctx, r.exec, r.beginner, func(tx boil.ContextExecutor) error {
		row, err := r.loadRow(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		current := row.AtkMultiply.Big
		if stat == interfaces.RaidStatDefense {
			current = row.DefMultiply.Big
		}
		next, price, err := quote(current)
		if err != nil {
			return err
		}
		if row.Money < price {
			return interfaces.ErrInsufficientFunds
		}

		if price > 0 {
			delta := engine.Delta{Money: -price, Reason: "raid stat upgrade: " + string(stat), Key: key}
			if _, err := r.ApplyDeltaTx(ctx, tx, userID, delta); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE raid.raid_profiles SET `+column+` = $2, updated_at = NOW() WHERE user_id = $1`,
			userID, types.NewDecimal(next))
		if err != nil {
			return fmt.Errorf("更新 raid 倍率失败: %w", err)
		}

		result = &interfaces.UpgradeResult{
			Stat:    stat,
			Level:   next,
			Price:   price,
			Balance: row.Money - price,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
