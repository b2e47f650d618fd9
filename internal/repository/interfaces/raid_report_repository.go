package interfaces

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"
)

// RaidReport 会话结束后持久化的战报
type RaidReport struct {
	SessionID    string      `boil:"session_id" json:"session_id"`
	Preset       null.String `boil:"preset" json:"preset"`
	Mode         string      `boil:"mode" json:"mode"`
	Outcome      string      `boil:"outcome" json:"outcome"`
	Rounds       int         `boil:"rounds" json:"rounds"`
	Participants int         `boil:"participants" json:"participants"`
	StartedAt    null.Time   `boil:"started_at" json:"started_at"`
	EndedAt      time.Time   `boil:"ended_at" json:"ended_at"`
	// Payload 完整 engine.Result JSON
	Payload types.JSON `boil:"payload" json:"payload"`
}

// RaidReportRepository 战报仓储
type RaidReportRepository interface {
	// Save 以 session_id 为键插入或覆盖
	Save(ctx context.Context, report *RaidReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*RaidReport, error)
	// ListRecent 按结束时间倒序
	ListRecent(ctx context.Context, limit int) ([]*RaidReport, error)
}
