// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EchoHandler Echo 框架的 Prometheus metrics 处理器
func EchoHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	}
}

// ObserveDBPool 按固定间隔采集连接池统计，stop 关闭后退出
func ObserveDBPool(db *sql.DB, database string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastWaitCount int64
	var lastWaitDuration time.Duration
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s := db.Stats()
			DefaultResourceMetrics.RecordDBPoolStats("", database,
				s.OpenConnections, s.InUse, s.Idle, s.MaxOpenConnections,
				s.WaitCount-lastWaitCount, s.WaitDuration-lastWaitDuration)
			lastWaitCount, lastWaitDuration = s.WaitCount, s.WaitDuration
		}
	}
}
