package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"tsu-raid/internal/pkg/log"
	"tsu-raid/internal/pkg/response"
	"tsu-raid/internal/pkg/xerrors"
)

// RecoveryMiddleware 捕获 handler panic，记录堆栈后返回 CodeInternalError
func RecoveryMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				req := c.Request()
				logger.ErrorContext(req.Context(), "handler panic",
					log.Any("panic_value", r),
					log.String("method", req.Method),
					log.String("path", req.URL.Path),
					log.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				appErr := xerrors.FromCode(xerrors.CodeInternalError).
					WithService("echo-middleware", "recovery").
					WithMetadata("panic_value", fmt.Sprint(r))
				err = respWriter.WriteError(req.Context(), c.Response().Writer, appErr)
			}()
			return next(c)
		}
	}
}
