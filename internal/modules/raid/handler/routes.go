package handler

import (
	"github.com/labstack/echo/v4"

	custommiddleware "tsu-raid/internal/middleware"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/response"
)

// RouteOptions 路由中间件参数
type RouteOptions struct {
	AdminToken string
	RespWriter response.Writer
	Logger     log.Logger

	// 出价 / 行动接口每个玩家的限流
	RatePerSecond float64
	RateBurst     int
}

// RegisterRoutes 注册 /raid 路由
//
//	GET    /raid/current                 当前状态
//	GET    /raid/current/events          最近事件
//	GET    /raid/last                    上一场结果
//	POST   /raid/spawn                   创建（管理）
//	PATCH  /raid/current/boss-hp         修改血量（管理）
//	POST   /raid/current/join            报名
//	POST   /raid/current/bids            出价（限流）
//	GET    /raid/current/actions         待选行动
//	POST   /raid/current/actions         选择行动（限流）
//	GET    /raid/stats/:user_id          属性
//	POST   /raid/stats/:user_id/increase 升级属性
func RegisterRoutes(g *echo.Group, h *RaidHandler, opts RouteOptions) {
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}

	auth := custommiddleware.AuthMiddleware(opts.RespWriter, opts.Logger)
	admin := custommiddleware.AdminTokenMiddleware(opts.AdminToken, opts.RespWriter, opts.Logger)
	limit := custommiddleware.RateLimitMiddleware(opts.RatePerSecond, opts.RateBurst)

	raid := g.Group("/raid")
	{
		raid.GET("/current", h.GetCurrent)
		raid.GET("/current/events", h.GetEvents)
		raid.GET("/last", h.GetLast)

		// 管理接口
		raid.POST("/spawn", h.Spawn, admin)
		raid.PATCH("/current/boss-hp", h.AlterBossHP, admin)

		// 玩家接口
		raid.POST("/current/join", h.Join, auth)
		raid.POST("/current/bids", h.Bid, auth, limit)
		raid.GET("/current/actions", h.GetActions, auth)
		raid.POST("/current/actions", h.Act, auth, limit)

		raid.GET("/stats/:user_id", h.GetStats)
		raid.POST("/stats/:user_id/increase", h.IncreaseStat, auth)
	}
}
