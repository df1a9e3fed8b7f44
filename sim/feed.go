package sim

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"market-metrics-go/sched"
)

// Feed 本地合成行情源：按固定节奏向每个 symbol 的日志追加随机游走
// 的成交行，格式与真实采集端一致。用于本地联调和端到端验证，
// 不连接任何交易所。
type Feed struct {
	Dir      string
	Suffix   string
	Symbols  []string
	Interval time.Duration
	Clock    sched.Clock
	Seed     int64

	rng    *rand.Rand
	files  map[string]*os.File
	prices map[string]float64
	nextID map[string]int64
}

// Open 创建（或截断）各 symbol 的日志并写表头。
func (f *Feed) Open() error {
	if f.Clock == nil {
		f.Clock = sched.Real
	}
	if f.Interval <= 0 {
		f.Interval = 200 * time.Millisecond
	}
	seed := f.Seed
	if seed == 0 {
		seed = f.Clock.Now().UnixNano()
	}
	f.rng = rand.New(rand.NewSource(seed))
	f.files = make(map[string]*os.File, len(f.Symbols))
	f.prices = make(map[string]float64, len(f.Symbols))
	f.nextID = make(map[string]int64, len(f.Symbols))

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", f.Dir, err)
	}
	for _, sym := range f.Symbols {
		path := filepath.Join(f.Dir, sym+f.Suffix)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			f.Close()
			return fmt.Errorf("open %s: %w", path, err)
		}
		if _, err := file.WriteString("id,exchangeTimeMs,receivedTimeMs,delayMs,price,volume\n"); err != nil {
			f.Close()
			return fmt.Errorf("write header %s: %w", path, err)
		}
		f.files[sym] = file
		// 起始价随机落在 [10, 1010)，之后做百分比随机游走
		f.prices[sym] = 10 + f.rng.Float64()*1000
		f.nextID[sym] = 1
	}
	return nil
}

// Run 持续产生成交直到 ctx 取消。
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.EmitOnce(); err != nil {
				return err
			}
		}
	}
}

// EmitOnce 为每个 symbol 追加一行成交。
func (f *Feed) EmitOnce() error {
	nowMs := f.Clock.Now().UnixMilli()
	for _, sym := range f.Symbols {
		p := f.prices[sym] * (1 + (f.rng.Float64()-0.5)*0.002)
		f.prices[sym] = p
		vol := 0.01 + f.rng.Float64()*5
		delay := int64(f.rng.Intn(50))
		id := f.nextID[sym]
		f.nextID[sym] = id + 1

		line := fmt.Sprintf("%d,%d,%d,%d,%.4f,%.4f\n", id, nowMs-delay, nowMs, delay, p, vol)
		if _, err := f.files[sym].WriteString(line); err != nil {
			return fmt.Errorf("append %s: %w", sym, err)
		}
	}
	return nil
}

// Close 关闭全部日志文件。
func (f *Feed) Close() {
	for _, file := range f.files {
		file.Close()
	}
}
