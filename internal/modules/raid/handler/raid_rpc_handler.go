package handler

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"tsu-raid/internal/modules/raid/service"
	"tsu-raid/internal/pkg/xerrors"
)

// rpcTimeout 单次 RPC 调用的超时
const rpcTimeout = 10 * time.Second

// RaidRPCHandler raid RPC 处理器
// 供其他 mqant 模块（如 Admin Server）调用，载荷是 google.protobuf.Struct
type RaidRPCHandler struct {
	raidService *service.RaidService
}

// NewRaidRPCHandler 创建 raid RPC Handler
func NewRaidRPCHandler(raidService *service.RaidService) *RaidRPCHandler {
	return &RaidRPCHandler{raidService: raidService}
}

// ==================== RPC Methods ====================

// SpawnRaid 创建 raid，请求字段同 HTTP: preset / boss_hp / enemy_count
func (h *RaidRPCHandler) SpawnRaid(data []byte) ([]byte, error) {
	req := &structpb.Struct{}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, xerrors.NewValidationError("request", "invalid protobuf data")
	}

	fields := req.AsMap()
	spawnReq := service.SpawnRequest{}
	spawnReq.Preset, _ = fields["preset"].(string)
	if spawnReq.Preset == "" {
		return nil, xerrors.NewValidationError("preset", "不能为空")
	}
	if v, ok := fields["boss_hp"].(float64); ok {
		spawnReq.BossHP = int64(v)
	}
	if v, ok := fields["enemy_count"].(float64); ok {
		spawnReq.EnemyCount = int(v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	snap, err := h.raidService.Spawn(ctx, spawnReq)
	if err != nil {
		return nil, err
	}
	return marshalStruct(snap)
}

// GetRaidStatus 当前 raid 快照
func (h *RaidRPCHandler) GetRaidStatus(data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	snap, err := h.raidService.Status(ctx)
	if err != nil {
		return nil, err
	}
	return marshalStruct(snap)
}

// GetLastRaidResult 最近一场 raid 的结果（不含回合日志）
func (h *RaidRPCHandler) GetLastRaidResult(data []byte) ([]byte, error) {
	result, err := h.raidService.LastResult()
	if err != nil {
		return nil, err
	}
	summary := *result
	summary.RoundLog = nil
	return marshalStruct(summary)
}

// marshalStruct 经 JSON 转成 structpb.Struct 再序列化
func marshalStruct(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "failed to encode response")
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "failed to encode response")
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "failed to encode response")
	}
	return proto.Marshal(resp)
}
