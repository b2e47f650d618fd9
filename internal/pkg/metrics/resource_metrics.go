package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResourceMetrics 外部资源指标：Postgres 连接池 + Redis（锁与报名名单）
type ResourceMetrics struct {
	// state: open / in_use / idle / max
	DBPool        *prometheus.GaugeVec
	DBWaits       *prometheus.CounterVec
	DBWaitSeconds *prometheus.CounterVec

	RedisCommands       *prometheus.CounterVec
	RedisCommandLatency *prometheus.HistogramVec
	RedisErrors         *prometheus.CounterVec
}

// DefaultResourceMetrics 默认的资源指标实例
var DefaultResourceMetrics *ResourceMetrics

// RedisLatencyBuckets 单条命令 1ms ~ 1s，单位秒
var RedisLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

func init() {
	DefaultResourceMetrics = NewResourceMetrics("tsu")
}

// NewResourceMetrics 使用全局 Registerer
func NewResourceMetrics(namespace string) *ResourceMetrics {
	return NewResourceMetricsWithRegistry(namespace, GetRegisterer())
}

// NewResourceMetricsWithRegistry 测试中传入独立注册表
func NewResourceMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ResourceMetrics {
	factory := promauto.With(registerer)
	db := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Subsystem: "db", Name: name, Help: help}
	}

	return &ResourceMetrics{
		DBPool: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Database pool connections by state (open/in_use/idle/max)",
		}, []string{"service", "database", "state"}),
		DBWaits:       factory.NewCounterVec(db("pool_waits_total", "Connections that had to wait for a free slot"), []string{"service", "database"}),
		DBWaitSeconds: factory.NewCounterVec(db("pool_wait_seconds_total", "Time spent waiting for a free connection"), []string{"service", "database"}),

		RedisCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "commands_total",
			Help:      "Redis commands by name and result (success/error)",
		}, []string{"operation", "result", "service"}),
		RedisCommandLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Redis command latency",
			Buckets:   RedisLatencyBuckets,
		}, []string{"operation", "service"}),
		RedisErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "errors_total",
			Help:      "Redis errors by type (operation_error/nil/lock_lost)",
		}, []string{"error_type", "service"}),
	}
}

// RecordDBPoolStats waitCount / waitDuration 为两次采集之间的增量
func (m *ResourceMetrics) RecordDBPoolStats(service, database string, open, inUse, idle, maxOpen int, waitCount int64, waitDuration time.Duration) {
	service = serviceLabel(service)
	for state, v := range map[string]int{"open": open, "in_use": inUse, "idle": idle, "max": maxOpen} {
		m.DBPool.WithLabelValues(service, database, state).Set(float64(v))
	}
	m.DBWaits.WithLabelValues(service, database).Add(float64(waitCount))
	m.DBWaitSeconds.WithLabelValues(service, database).Add(waitDuration.Seconds())
}

// RecordRedisOperation operation 为命令名（SET / ZADD / EVAL ...）
func (m *ResourceMetrics) RecordRedisOperation(operation string, success bool, duration time.Duration, service string) {
	service = serviceLabel(service)
	result := "success"
	if !success {
		result = "error"
	}
	m.RedisCommands.WithLabelValues(operation, result, service).Inc()
	m.RedisCommandLatency.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *ResourceMetrics) RecordRedisError(errorType, service string) {
	m.RedisErrors.WithLabelValues(errorType, serviceLabel(service)).Inc()
}
