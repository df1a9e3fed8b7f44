package market

import (
	"sync"
	"time"

	"market-metrics-go/sched"
)

// WindowStats 是一次窗口扫描的聚合结果。
type WindowStats struct {
	Count     int
	PriceSum  float64
	VolumeSum float64
}

// TradeStore 按 symbol 维护最近 retention 内的成交。
// 锁粒度为单个 symbol：Tailer 写入和聚合读取在同一 symbol 上互斥，
// 不同 symbol 之间完全并行；任何时刻不会同时持有两个 symbol 的锁。
type TradeStore struct {
	retention time.Duration
	clock     sched.Clock
	shards    map[string]*tradeShard
}

type tradeShard struct {
	mu     sync.Mutex
	trades []Trade
}

// NewTradeStore 为给定的 symbol 集合创建 store。
// symbol 集合在进程启动时固定，之后不再增删，因此 shards map 本身无需加锁。
func NewTradeStore(symbols []string, retention time.Duration, clock sched.Clock) *TradeStore {
	if clock == nil {
		clock = sched.Real
	}
	shards := make(map[string]*tradeShard, len(symbols))
	for _, sym := range symbols {
		shards[sym] = &tradeShard{}
	}
	return &TradeStore{
		retention: retention,
		clock:     clock,
		shards:    shards,
	}
}

// Append 在 symbol 的锁内追加成交并顺手淘汰过期条目。
// 未配置的 symbol 直接忽略。
func (s *TradeStore) Append(symbol string, t Trade) {
	sh, ok := s.shards[symbol]
	if !ok {
		return
	}
	cutoff := s.clock.Now().UnixMilli() - s.retention.Milliseconds()
	sh.mu.Lock()
	sh.trades = append(sh.trades, t)
	sh.evictLocked(cutoff)
	sh.mu.Unlock()
}

// SnapshotWindow 在 symbol 的锁内线性扫描 [fromMs, toMs] 的成交并聚合，
// 同一临界区内完成过期淘汰，锁持有时间限定在一次遍历。
func (s *TradeStore) SnapshotWindow(symbol string, fromMs, toMs int64) WindowStats {
	var st WindowStats
	sh, ok := s.shards[symbol]
	if !ok {
		return st
	}
	cutoff := s.clock.Now().UnixMilli() - s.retention.Milliseconds()
	sh.mu.Lock()
	for _, t := range sh.trades {
		if t.ExchangeTimeMs >= fromMs && t.ExchangeTimeMs <= toMs {
			st.Count++
			st.PriceSum += t.Price
			st.VolumeSum += t.Volume
		}
	}
	sh.evictLocked(cutoff)
	sh.mu.Unlock()
	return st
}

// Trades 返回 symbol 当前保留成交的拷贝，保持插入顺序。
func (s *TradeStore) Trades(symbol string) []Trade {
	sh, ok := s.shards[symbol]
	if !ok {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	out := make([]Trade, len(sh.trades))
	copy(out, sh.trades)
	return out
}

// Len 返回当前保留的成交条数（测试用）。
func (s *TradeStore) Len(symbol string) int {
	sh, ok := s.shards[symbol]
	if !ok {
		return 0
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.trades)
}

// evictLocked 就地丢弃 exchange 时间早于 cutoff 的条目，必须持锁调用。
func (sh *tradeShard) evictLocked(cutoffMs int64) {
	kept := sh.trades[:0]
	for _, t := range sh.trades {
		if t.ExchangeTimeMs >= cutoffMs {
			kept = append(kept, t)
		}
	}
	sh.trades = kept
}
