package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"
)

// withTx 在 exec 已是事务时直接复用，否则开启新事务并在 fn 成功后提交
func withTx(ctx context.Context, exec boil.ContextExecutor, beginner boil.ContextBeginner, fn func(tx boil.ContextExecutor) error) error {
	if tx, ok := exec.(*sql.Tx); ok {
		return fn(tx)
	}
	if beginner == nil {
		return fmt.Errorf("执行器不支持事务")
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
