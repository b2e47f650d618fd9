// File: internal/pkg/metrics/raid_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RaidMetrics raid 会话指标收集器
type RaidMetrics struct {
	// 会话数（按模式和结局分组：victory/wipe/timeout）
	SessionsTotal *prometheus.CounterVec

	// 会话耗时（ACTIVE 开始到 RESOLVED）
	SessionDuration *prometheus.HistogramVec

	RoundsTotal *prometheus.CounterVec

	// 当前参与人数
	Participants *prometheus.GaugeVec

	// 出价（accepted/rejected）
	BidsTotal *prometheus.CounterVec

	// 拍卖结局（settled/void/no_bids）
	AuctionsTotal *prometheus.CounterVec

	PayoutAmountTotal   *prometheus.CounterVec
	LedgerFailuresTotal *prometheus.CounterVec
}

var (
	// DefaultRaidMetrics 默认的 raid 指标实例
	DefaultRaidMetrics *RaidMetrics
)

// RaidDurationBuckets raid 预期时长: 数分钟到 45 分钟上限
// 单位：秒
var RaidDurationBuckets = []float64{
	1,
	30,
	60,
	300,
	600,
	1200,
	1800,
	2700,
}

func init() {
	DefaultRaidMetrics = NewRaidMetrics("tsu")
}

// NewRaidMetrics 创建新的 raid 指标收集器
func NewRaidMetrics(namespace string) *RaidMetrics {
	return NewRaidMetricsWithRegistry(namespace, GetRegisterer())
}

// NewRaidMetricsWithRegistry 创建新的 raid 指标收集器（使用自定义注册表）
func NewRaidMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *RaidMetrics {
	factory := promauto.With(registerer)

	return &RaidMetrics{
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "sessions_total",
				Help:      "Total number of resolved raid sessions by mode and outcome",
			},
			[]string{"mode", "outcome", "service"},
		),

		SessionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "session_duration_seconds",
				Help:      "Raid active phase duration in seconds",
				Buckets:   RaidDurationBuckets,
			},
			[]string{"mode", "service"},
		),

		RoundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "rounds_total",
				Help:      "Total number of resolved raid rounds",
			},
			[]string{"mode", "service"},
		),

		Participants: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "participants",
				Help:      "Participants admitted into the current raid",
			},
			[]string{"service"},
		),

		BidsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "bids_total",
				Help:      "Total number of auction bids by verdict",
			},
			[]string{"verdict", "service"},
		),

		AuctionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "auctions_total",
				Help:      "Total number of closed auctions by result (settled/void/no_bids)",
			},
			[]string{"result", "service"},
		),

		PayoutAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "payout_amount_total",
				Help:      "Total currency credited to raid survivors",
			},
			[]string{"service"},
		),

		LedgerFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "raid",
				Name:      "ledger_failures_total",
				Help:      "Total number of failed ledger writes during raid settlement",
			},
			[]string{"stage", "service"},
		),
	}
}

// RecordSession 记录一次已结束的 raid
func (m *RaidMetrics) RecordSession(mode, outcome string, duration time.Duration, service string) {
	service = serviceLabel(service)
	m.SessionsTotal.WithLabelValues(mode, outcome, service).Inc()
	m.SessionDuration.WithLabelValues(mode, service).Observe(duration.Seconds())
}

func (m *RaidMetrics) RecordRound(mode, service string) {
	m.RoundsTotal.WithLabelValues(mode, serviceLabel(service)).Inc()
}

func (m *RaidMetrics) SetParticipants(count int, service string) {
	m.Participants.WithLabelValues(serviceLabel(service)).Set(float64(count))
}

// RecordBid 记录出价判定 ("accepted", "rejected")
func (m *RaidMetrics) RecordBid(verdict, service string) {
	m.BidsTotal.WithLabelValues(verdict, serviceLabel(service)).Inc()
}

func (m *RaidMetrics) RecordAuction(result, service string) {
	m.AuctionsTotal.WithLabelValues(result, serviceLabel(service)).Inc()
}

func (m *RaidMetrics) RecordPayout(amount int64, service string) {
	if amount <= 0 {
		return
	}
	m.PayoutAmountTotal.WithLabelValues(serviceLabel(service)).Add(float64(amount))
}

// RecordLedgerFailure stage: payout / auction / reward
func (m *RaidMetrics) RecordLedgerFailure(stage, service string) {
	m.LedgerFailuresTotal.WithLabelValues(stage, serviceLabel(service)).Inc()
}
