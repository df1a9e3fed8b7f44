package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present and consistent.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if len(cfg.Symbols) == 0 {
		return errors.New("symbols config is required")
	}
	seen := make(map[string]bool, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		if sym == "" {
			return errors.New("symbols must not contain empty entries")
		}
		if seen[sym] {
			return fmt.Errorf("symbol %s listed twice", sym)
		}
		seen[sym] = true
	}
	if cfg.Data.Dir == "" {
		return errors.New("data.dir is required")
	}
	if cfg.Outputs.MetricsFile == "" || cfg.Outputs.CorrelationFile == "" || cfg.Outputs.LatencyFile == "" {
		return errors.New("outputs.metricsFile/correlationFile/latencyFile are required")
	}
	e := cfg.Engine
	if e.RuntimeHours <= 0 {
		return errors.New("engine.runtimeHours must be > 0")
	}
	if e.RetentionMinutes <= 0 {
		return errors.New("engine.retentionMinutes must be > 0")
	}
	if e.WindowMinutes <= 0 {
		return errors.New("engine.windowMinutes must be > 0")
	}
	if e.WindowMinutes > e.RetentionMinutes {
		return fmt.Errorf("engine.windowMinutes (%d) must not exceed retentionMinutes (%d)", e.WindowMinutes, e.RetentionMinutes)
	}
	if e.CorrelationPoints < 2 {
		return errors.New("engine.correlationPoints must be >= 2")
	}
	if e.SeriesCap <= 0 {
		return errors.New("engine.seriesCap must be > 0")
	}
	if e.SeriesTrim <= 0 || e.SeriesTrim > e.SeriesCap {
		return fmt.Errorf("engine.seriesTrim must be in (0, %d]", e.SeriesCap)
	}
	if e.SeriesCap-e.SeriesTrim < e.CorrelationPoints {
		return fmt.Errorf("seriesCap-seriesTrim (%d) must keep at least correlationPoints (%d)", e.SeriesCap-e.SeriesTrim, e.CorrelationPoints)
	}
	if e.PollMs <= 0 {
		return errors.New("engine.pollMs must be > 0")
	}
	return nil
}
