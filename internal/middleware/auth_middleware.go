package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"tsu-raid/internal/pkg/ctxkey"
	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/response"
	"tsu-raid/internal/pkg/xerrors"
)

// HeaderUserID 网关校验身份后传入的玩家 ID
const HeaderUserID = "X-User-ID"

// HeaderAdminToken 管理接口令牌
const HeaderAdminToken = "X-Admin-Token"

// AuthMiddleware 从网关 Header 提取玩家身份
func AuthMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			userID := c.Request().Header.Get(HeaderUserID)
			if userID == "" {
				logger.WarnContext(ctx, "认证失败: 缺少 X-User-ID header")
				err := xerrors.New(xerrors.CodeAuthenticationFailed, "未授权访问: 缺少用户身份信息").
					WithService("middleware", "auth")
				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			ctx = ctxkey.WithValue(ctx, ctxkey.UserID, userID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(ctxkey.UserID), userID)
			return next(c)
		}
	}
}

// AdminTokenMiddleware 管理接口（spawn / 修改血量）校验共享令牌；token 为空时拒绝所有请求
func AdminTokenMiddleware(token string, respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			got := c.Request().Header.Get(HeaderAdminToken)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.WarnContext(ctx, "管理接口令牌无效", log.String("path", c.Request().URL.Path), log.String("client_ip", c.RealIP()))
				err := xerrors.New(xerrors.CodePermissionDenied, "管理接口令牌无效").
					WithService("middleware", "admin_token")
				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}
			return next(c)
		}
	}
}

// UserIDFrom 读取 AuthMiddleware 注入的玩家 ID
func UserIDFrom(c echo.Context) string {
	if v, ok := c.Get(string(ctxkey.UserID)).(string); ok {
		return v
	}
	return ""
}
