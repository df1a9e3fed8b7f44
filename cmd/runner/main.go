package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"market-metrics-go/aggregate"
	"market-metrics-go/config"
	"market-metrics-go/correlate"
	"market-metrics-go/csvlog"
	"market-metrics-go/infrastructure/logger"
	"market-metrics-go/ingest"
	"market-metrics-go/latency"
	"market-metrics-go/market"
	"market-metrics-go/monitor"
	"market-metrics-go/sched"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", ":9100", "Prometheus metrics 监听地址，留空则关闭")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	clock := sched.Real

	// 延迟探针打不开直接中止：所有周期任务都依赖它。
	recorder, err := latency.Open(cfg.Outputs.LatencyFile, clock)
	if err != nil {
		lg.Fatal("open latency recorder", zap.Error(err))
	}
	defer recorder.Close()

	mon := monitor.New(monitor.DefaultConfig())
	recorder.SetMonitor(mon)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, mon)
	}

	engineCfg := cfg.Engine
	budget := sched.NewBudget(clock.Now(), engineCfg.Runtime())
	store := market.NewTradeStore(cfg.Symbols, engineCfg.Retention(), clock)
	series := market.NewSeriesTable(engineCfg.SeriesCap, engineCfg.SeriesTrim)
	metricsOut := csvlog.NewWriter(cfg.Outputs.MetricsFile, aggregate.Header)
	corrOut := csvlog.NewWriter(cfg.Outputs.CorrelationFile, correlate.Header)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("engine starting",
		zap.Strings("symbols", cfg.Symbols),
		zap.String("env", cfg.Env),
		zap.Int("runtime_hours", engineCfg.RuntimeHours))

	var wg sync.WaitGroup
	for _, sym := range cfg.Symbols {
		tailer := &ingest.Tailer{
			Symbol:       sym,
			Path:         cfg.TradeLogPath(sym),
			Store:        store,
			PollInterval: engineCfg.Poll(),
			Clock:        clock,
			Budget:       budget,
			Log:          lg.Logger,
			Mon:          mon,
		}
		agg := &aggregate.Aggregator{
			Symbol:   sym,
			Store:    store,
			Series:   series,
			Out:      metricsOut,
			Recorder: recorder,
			Window:   engineCfg.Window(),
			Clock:    clock,
			Budget:   budget,
			Log:      lg.Logger,
			Mon:      mon,
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			// 打不开日志只结束本 symbol 的摄取
			_ = tailer.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = agg.Run(ctx)
		}()
	}

	engine := &correlate.Engine{
		Symbols:   cfg.Symbols,
		Series:    series,
		WindowLen: engineCfg.CorrelationPoints,
		Out:       corrOut,
		Recorder:  recorder,
		Clock:     clock,
		Budget:    budget,
		Log:       lg.Logger,
		Mon:       mon,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = engine.Run(ctx)
	}()

	wg.Wait()
	lg.Info("engine stopped")
}

func serveMetrics(addr string, mon *monitor.Monitor) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	_ = http.ListenAndServe(addr, mux)
}
