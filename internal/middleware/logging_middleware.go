package middleware

import (
	"strings"
	"time"

	"tsu-raid/internal/pkg/log"

	"github.com/labstack/echo/v4"
)

// DefaultSkipPaths 不记录访问日志的路径
var DefaultSkipPaths = []string{"/health", "/metrics"}

// LoggingMiddleware 访问日志，按状态码选择日志级别
func LoggingMiddleware(logger log.Logger, skipPaths ...string) echo.MiddlewareFunc {
	if len(skipPaths) == 0 {
		skipPaths = DefaultSkipPaths
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if shouldSkip(path, skipPaths) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			ctx := c.Request().Context()
			status := c.Response().Status
			fields := []any{
				log.String("method", c.Request().Method),
				log.String("path", path),
				log.Int("status_code", status),
				log.Duration("duration", time.Since(start).Milliseconds()),
				log.Int64("response_size", c.Response().Size),
				log.String("client_ip", c.RealIP()),
			}
			if userID := UserIDFrom(c); userID != "" {
				fields = append(fields, log.String("user_id", userID))
			}

			switch {
			case err != nil:
				fields = append(fields, log.Any("error", err))
				logger.ErrorContext(ctx, "请求处理出错", fields...)
			case status >= 500:
				logger.ErrorContext(ctx, "请求完成（服务器错误）", fields...)
			case status >= 400:
				logger.WarnContext(ctx, "请求完成（客户端错误）", fields...)
			default:
				logger.InfoContext(ctx, "请求完成", fields...)
			}
			return err
		}
	}
}

func shouldSkip(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
