package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/modules/raid/service"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/xerrors"
)

// Spawner 创建 raid 的能力，RaidService 实现
type Spawner interface {
	Spawn(ctx context.Context, req service.SpawnRequest) (*engine.Snapshot, error)
}

// ScheduledRaidTask 按 cron 表达式定时开启 raid
type ScheduledRaidTask struct {
	spawner Spawner
	spec    string
	request service.SpawnRequest
	logger  log.Logger
	cron    *cron.Cron
}

// NewScheduledRaidTask 创建定时 raid 任务，spec 为秒级 cron 表达式
func NewScheduledRaidTask(spawner Spawner, spec string, req service.SpawnRequest, logger log.Logger) *ScheduledRaidTask {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ScheduledRaidTask{
		spawner: spawner,
		spec:    spec,
		request: req,
		logger:  logger,
	}
}

// Start 启动定时任务
func (t *ScheduledRaidTask) Start() error {
	// Cron 表达式: 秒 分 时 日 月 周
	t.cron = cron.New(cron.WithSeconds())

	_, err := t.cron.AddFunc(t.spec, func() {
		t.SpawnOnce(context.Background())
	})
	if err != nil {
		t.logger.Error("【定时任务】添加 raid 任务失败", err, "spec", t.spec)
		t.cron = nil
		return fmt.Errorf("invalid raid cron spec %q: %w", t.spec, err)
	}

	t.cron.Start()
	t.logger.Info("【定时任务】已启动 - 定时开启 raid", "spec", t.spec, "preset", t.request.Preset)
	return nil
}

// SpawnOnce 开启一场 raid；已有 raid 进行中时跳过，返回是否开启成功
func (t *ScheduledRaidTask) SpawnOnce(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := t.spawner.Spawn(ctx, t.request)
	switch {
	case err == nil:
		t.logger.Info("【定时任务】raid 已开启", "session_id", snap.SessionID, "preset", snap.Preset, "mode", string(snap.Mode))
		return true
	case xerrors.Is(err, xerrors.CodeRaidInProgress):
		t.logger.Warn("【定时任务】已有 raid 进行中，本次跳过", "preset", t.request.Preset)
	default:
		t.logger.Error("【定时任务】开启 raid 失败", err, "preset", t.request.Preset)
	}
	return false
}

// Stop 停止定时任务（优雅关闭）
func (t *ScheduledRaidTask) Stop() {
	if t.cron != nil {
		t.logger.Info("【定时任务】正在停止定时任务...")
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【定时任务】定时任务已停止")
	}
}
