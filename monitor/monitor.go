package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 摄取指标
	tradesIngested    *prometheus.CounterVec
	linesSkipped      *prometheus.CounterVec
	duplicatesDropped *prometheus.CounterVec

	// 聚合指标
	metricsRows *prometheus.CounterVec
	movingAvg   *prometheus.GaugeVec
	volumeSum   *prometheus.GaugeVec
	seriesLen   *prometheus.GaugeVec

	// 相关性指标
	correlationRows prometheus.Counter
	bestCorrelation *prometheus.GaugeVec

	// 调度指标
	tickLatency *prometheus.HistogramVec
	cpuIdle     prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "mm",
		Subsystem: "stream",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		tradesIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trades_ingested_total",
				Help:      "成交接收总数",
			},
			[]string{"symbol"},
		),
		linesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lines_skipped_total",
				Help:      "解析失败跳过的行数",
			},
			[]string{"symbol"},
		),
		duplicatesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duplicates_dropped_total",
				Help:      "按 id 去重丢弃的行数",
			},
			[]string{"symbol"},
		),

		metricsRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "metrics_rows_total",
				Help:      "写出的指标行总数",
			},
			[]string{"symbol"},
		),
		movingAvg: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "moving_avg",
				Help:      "最近一次15分钟移动平均价",
			},
			[]string{"symbol"},
		),
		volumeSum: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "volume_sum",
				Help:      "最近一次窗口内成交量之和",
			},
			[]string{"symbol"},
		),
		seriesLen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "series_points",
				Help:      "移动平均序列当前点数",
			},
			[]string{"symbol"},
		),

		correlationRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "correlation_rows_total",
			Help:      "写出的相关性结果行总数",
		}),
		bestCorrelation: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "best_correlation",
				Help:      "最近一次最优相关系数",
			},
			[]string{"symbol"},
		),

		tickLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tick_latency_seconds",
				Help:      "周期任务相对分钟边界的唤醒+计算延迟（秒）",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"work"},
		),
		cpuIdle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cpu_idle_percent",
			Help:      "两次采样间的CPU空闲百分比",
		}),
	}

	return m
}

// 摄取相关方法
func (m *Monitor) RecordTradeIngested(symbol string) {
	m.tradesIngested.WithLabelValues(symbol).Inc()
}

func (m *Monitor) RecordLineSkipped(symbol string) {
	m.linesSkipped.WithLabelValues(symbol).Inc()
}

func (m *Monitor) RecordDuplicateDropped(symbol string) {
	m.duplicatesDropped.WithLabelValues(symbol).Inc()
}

// 聚合相关方法
func (m *Monitor) RecordMetricsRow(symbol string) {
	m.metricsRows.WithLabelValues(symbol).Inc()
}

func (m *Monitor) UpdateMovingAvg(symbol string, avg, volSum float64) {
	m.movingAvg.WithLabelValues(symbol).Set(avg)
	m.volumeSum.WithLabelValues(symbol).Set(volSum)
}

func (m *Monitor) UpdateSeriesLen(symbol string, n int) {
	m.seriesLen.WithLabelValues(symbol).Set(float64(n))
}

// 相关性相关方法
func (m *Monitor) RecordCorrelationRow() {
	m.correlationRows.Inc()
}

func (m *Monitor) UpdateBestCorrelation(symbol string, corr float64) {
	m.bestCorrelation.WithLabelValues(symbol).Set(corr)
}

// 调度相关方法
func (m *Monitor) RecordTickLatency(work string, seconds float64) {
	m.tickLatency.WithLabelValues(work).Observe(seconds)
}

func (m *Monitor) UpdateCPUIdle(pct float64) {
	m.cpuIdle.Set(pct)
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
