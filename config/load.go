package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"market-metrics-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Symbols []string      `yaml:"symbols"`
	Data    DataConfig    `yaml:"data"`
	Outputs OutputConfig  `yaml:"outputs"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     logger.Config `yaml:"log"`
}

// DataConfig locates the per-symbol trade logs written by the collector.
type DataConfig struct {
	Dir    string `yaml:"dir"`    // directory holding <SYMBOL><suffix> files
	Suffix string `yaml:"suffix"` // appended to the symbol, e.g. "-USDT.csv"
}

// OutputConfig names the append-only result logs.
type OutputConfig struct {
	MetricsFile     string `yaml:"metricsFile"`
	CorrelationFile string `yaml:"correlationFile"`
	LatencyFile     string `yaml:"latencyFile"`
}

// EngineConfig 引擎参数，配置文件里使用整数单位（小时/分钟/毫秒）。
type EngineConfig struct {
	RuntimeHours      int `yaml:"runtimeHours"`      // 全局运行预算
	RetentionMinutes  int `yaml:"retentionMinutes"`  // 成交在内存里保留的最大时长
	WindowMinutes     int `yaml:"windowMinutes"`     // 移动平均回看窗口
	CorrelationPoints int `yaml:"correlationPoints"` // 相关性子窗口长度（点数）
	SeriesCap         int `yaml:"seriesCap"`         // 均值序列软上限
	SeriesTrim        int `yaml:"seriesTrim"`        // 超限时一次裁掉的最老点数
	PollMs            int `yaml:"pollMs"`            // tail 轮询间隔
}

// Load reads YAML config from path, fills defaults and validates.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	setDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides path fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("MM_OUT_DIR"); v != "" {
		cfg.Outputs.MetricsFile = filepath.Join(v, filepath.Base(cfg.Outputs.MetricsFile))
		cfg.Outputs.CorrelationFile = filepath.Join(v, filepath.Base(cfg.Outputs.CorrelationFile))
		cfg.Outputs.LatencyFile = filepath.Join(v, filepath.Base(cfg.Outputs.LatencyFile))
	}
	return cfg, Validate(cfg)
}

func setDefaults(cfg *AppConfig) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"BTC", "ADA", "ETH", "DOGE", "LTC", "BNB", "SOL", "XRP"}
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "trades"
	}
	if cfg.Data.Suffix == "" {
		cfg.Data.Suffix = "-USDT.csv"
	}
	if cfg.Outputs.MetricsFile == "" {
		cfg.Outputs.MetricsFile = "all_metrics.csv"
	}
	if cfg.Outputs.CorrelationFile == "" {
		cfg.Outputs.CorrelationFile = "correlations.csv"
	}
	if cfg.Outputs.LatencyFile == "" {
		cfg.Outputs.LatencyFile = "proof_log.csv"
	}
	e := &cfg.Engine
	if e.RuntimeHours == 0 {
		e.RuntimeHours = 48
	}
	if e.RetentionMinutes == 0 {
		e.RetentionMinutes = 30
	}
	if e.WindowMinutes == 0 {
		e.WindowMinutes = 15
	}
	if e.CorrelationPoints == 0 {
		e.CorrelationPoints = 8
	}
	if e.SeriesCap == 0 {
		e.SeriesCap = 1000
	}
	if e.SeriesTrim == 0 {
		e.SeriesTrim = 500
	}
	if e.PollMs == 0 {
		e.PollMs = 500
	}
	if cfg.Log.Level == "" {
		cfg.Log = logger.DefaultConfig()
	}
}

// TradeLogPath returns the trade log location for one symbol.
func (c AppConfig) TradeLogPath(symbol string) string {
	return filepath.Join(c.Data.Dir, symbol+c.Data.Suffix)
}

// Runtime 全局运行预算。
func (e EngineConfig) Runtime() time.Duration {
	return time.Duration(e.RuntimeHours) * time.Hour
}

// Retention 成交保留窗口。
func (e EngineConfig) Retention() time.Duration {
	return time.Duration(e.RetentionMinutes) * time.Minute
}

// Window 移动平均回看窗口。
func (e EngineConfig) Window() time.Duration {
	return time.Duration(e.WindowMinutes) * time.Minute
}

// Poll tail 轮询间隔。
func (e EngineConfig) Poll() time.Duration {
	return time.Duration(e.PollMs) * time.Millisecond
}
