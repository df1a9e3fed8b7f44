package correlate

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

// Header 相关性输出的表头。
const Header = "timestamp,symbol,best_symbol,best_time,best_corr"

// sentinel 低于任何合法相关系数的初值，保证全负的候选集也能选出最优。
const sentinel = -2.0

// Engine 全局唯一的相关性搜索任务：每分钟对每个 symbol，在其余所有
// symbol 的完整序列上滑动定长窗口，找相关性最高的历史窗口。
// 遍历顺序决定平局的归属，不要为了省计算改写它。
type Engine struct {
	Symbols   []string
	Series    *market.SeriesTable
	WindowLen int
	Out       *csvlog.Writer
	Recorder  *latency.Recorder
	Clock     sched.Clock
	Budget    *sched.Budget
	Log       *zap.Logger
	Mon       *monitor.Monitor
}

// Run 与聚合器共用分钟边界节拍，但互相之间没有同步栅栏：
// 某轮读到的序列表可能只包含部分聚合器本分钟的追加，按尽力而为处理。
func (e *Engine) Run(ctx context.Context) error {
	if e.Clock == nil {
		e.Clock = sched.Real
	}
	for {
		now := e.Clock.Now()
		if e.Budget.Exceeded(now) {
			return nil
		}
		boundary := sched.NextMinute(now)
		if !e.Clock.SleepUntil(ctx, boundary) {
			return ctx.Err()
		}
		e.Tick(boundary)
	}
}

// result 单个 symbol 的一轮搜索结果。
type result struct {
	bestSymbol string
	bestTimeMs int64
	bestCorr   float64
}

// Tick 执行一轮完整的搜索并为每个有 ≥WindowLen 点的 symbol 写一行。
func (e *Engine) Tick(deadline time.Time) {
	if e.Recorder != nil {
		e.Recorder.SetDeadline(deadline)
	}

	// 一次表锁内的深拷贝，之后的扫描都在锁外进行。
	snap := e.Series.Snapshot()
	ts := e.Clock.Now().Format("2006-01-02 15:04:05")

	for _, sym := range e.Symbols {
		pts := snap[sym]
		if len(pts) < e.WindowLen {
			continue
		}
		x := values(pts[len(pts)-e.WindowLen:])

		res := e.searchBest(sym, x, snap)

		row := []string{
			ts,
			sym,
			res.bestSymbol,
			strconv.FormatInt(res.bestTimeMs, 10),
			strconv.FormatFloat(res.bestCorr, 'g', -1, 64),
		}
		if err := e.Out.Append(row...); err != nil {
			e.Log.Warn("correlation row write failed", zap.String("symbol", sym), zap.Error(err))
		}
		if e.Mon != nil {
			e.Mon.RecordCorrelationRow()
			e.Mon.UpdateBestCorrelation(sym, res.bestCorr)
		}
	}

	if e.Recorder != nil {
		e.Recorder.RecordWake("correlation", e.Clock.Now())
	}
}

// searchBest 在其余 symbol 的序列上滑动窗口找最大相关。
// 遍历顺序固定为 {配置中的 symbol 顺序} × {窗口起点升序}，
// 只在严格更大时更新，平局归先遇到者。
func (e *Engine) searchBest(sym string, x []float64, snap map[string][]market.Point) result {
	res := result{bestCorr: sentinel}
	for _, other := range e.Symbols {
		if other == sym {
			continue
		}
		series := snap[other]
		if len(series) < e.WindowLen {
			continue
		}
		for i := 0; i+e.WindowLen <= len(series); i++ {
			window := series[i : i+e.WindowLen]
			corr := Pearson(x, values(window))
			if corr > res.bestCorr {
				res.bestCorr = corr
				res.bestSymbol = other
				res.bestTimeMs = window[0].TsMs
			}
		}
	}
	return res
}

func values(pts []market.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}
