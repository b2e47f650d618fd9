package trace

import (
	"github.com/labstack/echo/v4"
)

// HeaderTraceID 响应头，NATS 事件与日志里的 trace_id 与之对应
const HeaderTraceID = "X-Trace-Id"

// Middleware 在所有中间件之前执行：复用上游 TraceID 或生成新的
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			traceID := ExtractFromHeader(req.Header)

			c.SetRequest(req.WithContext(WithTraceID(req.Context(), traceID)))
			c.Set("trace_id", traceID)
			c.Response().Header().Set(HeaderTraceID, traceID)
			return next(c)
		}
	}
}
