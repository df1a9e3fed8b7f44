package aggregate

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"market-metrics-go/csvlog"
	"market-metrics-go/latency"
	"market-metrics-go/market"
	"market-metrics-go/monitor"
	"market-metrics-go/sched"
)

// Header 指标输出的表头。
const Header = "timestamp,symbol,moving_avg,volume_sum"

// Aggregator 每到整分钟为一个 symbol 计算一次 15 分钟移动平均价和
// 成交量之和，结果追加到共享的序列表和指标日志。
// 对齐的是墙钟分钟边界而不是固定周期定时器：每轮基于当前时刻算下一个
// 边界再睡过去，计算耗时不会累积成偏移。
type Aggregator struct {
	Symbol   string
	Store    *market.TradeStore
	Series   *market.SeriesTable
	Out      *csvlog.Writer
	Recorder *latency.Recorder
	Window   time.Duration
	Clock    sched.Clock
	Budget   *sched.Budget
	Log      *zap.Logger
	Mon      *monitor.Monitor
}

// Run 循环直到运行预算耗尽（每轮顶部检查）或 ctx 取消。
func (a *Aggregator) Run(ctx context.Context) error {
	if a.Clock == nil {
		a.Clock = sched.Real
	}
	for {
		now := a.Clock.Now()
		if a.Budget.Exceeded(now) {
			return nil
		}
		boundary := sched.NextMinute(now)
		if !a.Clock.SleepUntil(ctx, boundary) {
			return ctx.Err()
		}
		a.Tick(boundary)
	}
}

// Tick 执行一次完整的聚合周期。deadline 是刚到达的分钟边界；
// 先登记它，算完后再记录实际唤醒时刻，两者之差就是调度抖动加计算耗时。
func (a *Aggregator) Tick(deadline time.Time) {
	if a.Recorder != nil {
		a.Recorder.SetDeadline(deadline)
	}

	now := a.Clock.Now()
	nowMs := now.UnixMilli()
	st := a.Store.SnapshotWindow(a.Symbol, nowMs-a.Window.Milliseconds(), nowMs)

	if st.Count > 0 {
		movingAvg := st.PriceSum / float64(st.Count)

		a.Series.Append(a.Symbol, market.Point{TsMs: nowMs, Value: movingAvg})

		row := []string{
			now.Format("2006-01-02 15:04:05"),
			a.Symbol,
			strconv.FormatFloat(movingAvg, 'g', -1, 64),
			strconv.FormatFloat(st.VolumeSum, 'g', -1, 64),
		}
		if err := a.Out.Append(row...); err != nil {
			a.Log.Warn("metrics row write failed", zap.String("symbol", a.Symbol), zap.Error(err))
		}

		a.Log.Info("window metrics",
			zap.String("symbol", a.Symbol),
			zap.Float64("moving_avg", movingAvg),
			zap.Float64("volume_sum", st.VolumeSum),
			zap.Int("trades", st.Count))
		if a.Mon != nil {
			a.Mon.RecordMetricsRow(a.Symbol)
			a.Mon.UpdateMovingAvg(a.Symbol, movingAvg, st.VolumeSum)
			a.Mon.UpdateSeriesLen(a.Symbol, a.Series.Len(a.Symbol))
		}
	} else {
		// 没有成交就只留一句提示：不写行、不补零点，
		// 序列里留下的空洞由相关性引擎按不规则时间戳处理。
		a.Log.Info("no trades in window", zap.String("symbol", a.Symbol))
	}

	if a.Recorder != nil {
		a.Recorder.RecordWake(a.Symbol, a.Clock.Now())
	}
}
