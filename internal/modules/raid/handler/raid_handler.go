package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	custommiddleware "tsu-raid/internal/middleware"
	"tsu-raid/internal/modules/raid/service"
	"tsu-raid/internal/pkg/response"
	"tsu-raid/internal/pkg/xerrors"
	"tsu-raid/internal/repository/interfaces"
)

// RaidHandler raid HTTP Handler
type RaidHandler struct {
	raidService *service.RaidService
	respWriter  response.Writer
}

// NewRaidHandler 创建 raid Handler
func NewRaidHandler(raidService *service.RaidService, respWriter response.Writer) *RaidHandler {
	return &RaidHandler{
		raidService: raidService,
		respWriter:  respWriter,
	}
}

// ==================== HTTP Request/Response Models ====================

// AlterBossHPRequest 修改 boss 血量请求
type AlterBossHPRequest struct {
	HP int64 `json:"hp" validate:"gt=0" example:"8000"` // 新血量，同时作为奖池计算的初始血量
}

// BidRequest 出价请求
type BidRequest struct {
	Amount int64 `json:"amount" validate:"gt=0" example:"500"` // 出价金额，必须严格高于当前最高价
}

// ActionRequest 行动选择请求
type ActionRequest struct {
	Action string `json:"action" validate:"required" example:"heal"` // 选项名或序号
}

// ActionResponse 行动选择结果
type ActionResponse struct {
	Index   int      `json:"index"`
	Pending []string `json:"pending,omitempty"`
}

// IncreaseStatRequest 属性升级请求
type IncreaseStatRequest struct {
	Stat string `json:"stat" validate:"required,oneof=damage defense" example:"damage"`
}

// IncreaseStatResponse 属性升级结果
type IncreaseStatResponse struct {
	Stat    string `json:"stat"`
	Level   string `json:"level"`
	Price   int64  `json:"price"`
	Balance int64  `json:"balance"`
}

// ==================== HTTP Handlers ====================

// GetCurrent 当前 raid 状态
func (h *RaidHandler) GetCurrent(c echo.Context) error {
	snap, err := h.raidService.Status(c.Request().Context())
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, snap)
}

// GetEvents 当前（或最近一场）raid 的事件，?limit= 控制条数
func (h *RaidHandler) GetEvents(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.EchoBadRequest(c, h.respWriter, "limit 必须是非负整数")
		}
		limit = n
	}
	return response.EchoOK(c, h.respWriter, h.raidService.RecentEvents(limit))
}

// GetLast 最近一场已结束 raid 的结果
func (h *RaidHandler) GetLast(c echo.Context) error {
	result, err := h.raidService.LastResult()
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, result)
}

// Spawn 创建 raid（管理接口）
func (h *RaidHandler) Spawn(c echo.Context) error {
	var req service.SpawnRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	snap, err := h.raidService.Spawn(c.Request().Context(), req)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, snap)
}

// AlterBossHP 修改当前 boss 血量（管理接口）
func (h *RaidHandler) AlterBossHP(c echo.Context) error {
	var req AlterBossHPRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	snap, err := h.raidService.AlterBossHP(c.Request().Context(), req.HP)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, snap)
}

// Join 报名当前 raid
func (h *RaidHandler) Join(c echo.Context) error {
	userID := custommiddleware.UserIDFrom(c)
	if userID == "" {
		return response.EchoUnauthorized(c, h.respWriter, "未登录")
	}

	result, err := h.raidService.Join(c.Request().Context(), userID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, result)
}

// Bid 拍卖出价，结果通过事件流异步返回
func (h *RaidHandler) Bid(c echo.Context) error {
	userID := custommiddleware.UserIDFrom(c)
	if userID == "" {
		return response.EchoUnauthorized(c, h.respWriter, "未登录")
	}

	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	if err := h.raidService.Bid(c.Request().Context(), userID, req.Amount); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, map[string]any{
		"bidder_id": userID,
		"amount":    req.Amount,
		"queued":    true,
	})
}

// GetActions 当前玩家待选的行动
func (h *RaidHandler) GetActions(c echo.Context) error {
	userID := custommiddleware.UserIDFrom(c)
	if userID == "" {
		return response.EchoUnauthorized(c, h.respWriter, "未登录")
	}
	pending := h.raidService.PendingActions(userID)
	if pending == nil {
		pending = []string{}
	}
	return response.EchoOK(c, h.respWriter, ActionResponse{Index: -1, Pending: pending})
}

// Act 回答回合内的行动询问
func (h *RaidHandler) Act(c echo.Context) error {
	userID := custommiddleware.UserIDFrom(c)
	if userID == "" {
		return response.EchoUnauthorized(c, h.respWriter, "未登录")
	}

	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	idx, err := h.raidService.Act(c.Request().Context(), userID, req.Action)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, ActionResponse{Index: idx})
}

// GetStats 玩家 raid 属性与下一级价格
func (h *RaidHandler) GetStats(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return response.EchoBadRequest(c, h.respWriter, "user_id 不能为空")
	}

	stats, err := h.raidService.GetStats(c.Request().Context(), userID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, stats)
}

// IncreaseStat 花费金币升级一项属性，只能升级自己的
func (h *RaidHandler) IncreaseStat(c echo.Context) error {
	userID := custommiddleware.UserIDFrom(c)
	if userID == "" {
		return response.EchoUnauthorized(c, h.respWriter, "未登录")
	}
	if target := c.Param("user_id"); target != userID {
		err := xerrors.New(xerrors.CodePermissionDenied, "只能升级自己的属性").
			WithMetadata("user_id", target)
		return response.EchoError(c, h.respWriter, err)
	}

	var req IncreaseStatRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	result, err := h.raidService.IncreaseStat(c.Request().Context(), userID, interfaces.RaidStat(req.Stat))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, IncreaseStatResponse{
		Stat:    string(result.Stat),
		Level:   result.Level.String(),
		Price:   result.Price,
		Balance: result.Balance,
	})
}
