package impl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/aarondl/sqlboiler/v4/queries"

	"tsu-raid/internal/repository/interfaces"
)

const reportColumns = `session_id, preset, mode, outcome, rounds, participants, started_at, ended_at, payload`

type raidReportRepositoryImpl struct {
	exec boil.ContextExecutor
}

// NewRaidReportRepository 创建 raid 战报仓储实例
func NewRaidReportRepository(db *sql.DB) interfaces.RaidReportRepository {
	return &raidReportRepositoryImpl{exec: db}
}

func (r *raidReportRepositoryImpl) Save(ctx context.Context, report *interfaces.RaidReport) error {
	if report == nil {
		return fmt.Errorf("raid report is nil")
	}
	if report.SessionID == "" {
		return fmt.Errorf("session_id 不能为空")
	}

	query := `
		INSERT INTO raid.raid_reports (` + reportColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (session_id) DO UPDATE SET
			preset       = EXCLUDED.preset,
			mode         = EXCLUDED.mode,
			outcome      = EXCLUDED.outcome,
			rounds       = EXCLUDED.rounds,
			participants = EXCLUDED.participants,
			started_at   = EXCLUDED.started_at,
			ended_at     = EXCLUDED.ended_at,
			payload      = EXCLUDED.payload
	`
	_, err := r.exec.ExecContext(ctx, query,
		report.SessionID,
		report.Preset,
		report.Mode,
		report.Outcome,
		report.Rounds,
		report.Participants,
		report.StartedAt,
		report.EndedAt,
		nullJSON(report.Payload),
	)
	if err != nil {
		return fmt.Errorf("保存 raid 战报失败: %w", err)
	}
	return nil
}

func (r *raidReportRepositoryImpl) GetBySessionID(ctx context.Context, sessionID string) (*interfaces.RaidReport, error) {
	var report interfaces.RaidReport
	err := queries.Raw(`SELECT `+reportColumns+` FROM raid.raid_reports WHERE session_id = $1`, sessionID).
		Bind(ctx, r.exec, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询 raid 战报失败: %w", err)
	}
	return &report, nil
}

func (r *raidReportRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*interfaces.RaidReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var reports []*interfaces.RaidReport
	err := queries.Raw(`SELECT `+reportColumns+` FROM raid.raid_reports ORDER BY ended_at DESC LIMIT $1`, limit).
		Bind(ctx, r.exec, &reports)
	if err != nil {
		return nil, fmt.Errorf("查询 raid 战报列表失败: %w", err)
	}
	return reports, nil
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
