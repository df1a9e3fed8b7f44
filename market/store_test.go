package market

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) SleepUntil(ctx context.Context, t time.Time) bool {
	c.now = t
	return true
}

func TestSnapshotWindowSums(t *testing.T) {
	clk := &fakeClock{now: time.UnixMilli(10 * 60 * 1000)}
	s := NewTradeStore([]string{"BTC"}, 30*time.Minute, clk)

	base := clk.now.UnixMilli()
	for i, price := range []float64{10, 20, 30} {
		s.Append("BTC", Trade{
			ID:             int64(i + 1),
			ExchangeTimeMs: base - int64(i)*1000,
			Price:          price,
			Volume:         1,
		})
	}

	st := s.SnapshotWindow("BTC", base-15*60*1000, base)
	if st.Count != 3 {
		t.Fatalf("expected 3 trades in window, got %d", st.Count)
	}
	if st.PriceSum != 60 || st.VolumeSum != 3 {
		t.Fatalf("unexpected sums: %+v", st)
	}
}

func TestRetentionEviction(t *testing.T) {
	clk := &fakeClock{now: time.UnixMilli(0)}
	s := NewTradeStore([]string{"BTC"}, 30*time.Minute, clk)

	s.Append("BTC", Trade{ID: 1, ExchangeTimeMs: 0, Price: 1, Volume: 1})
	if s.Len("BTC") != 1 {
		t.Fatalf("expected 1 trade, got %d", s.Len("BTC"))
	}

	// 31 分钟后再写入：旧成交必须在同一临界区内被淘汰
	clk.now = clk.now.Add(31 * time.Minute)
	s.Append("BTC", Trade{ID: 2, ExchangeTimeMs: clk.now.UnixMilli(), Price: 2, Volume: 1})
	if got := s.Len("BTC"); got != 1 {
		t.Fatalf("expected old trade evicted, len=%d", got)
	}

	// 快照读也要触发淘汰
	clk.now = clk.now.Add(31 * time.Minute)
	nowMs := clk.now.UnixMilli()
	st := s.SnapshotWindow("BTC", nowMs-15*60*1000, nowMs)
	if st.Count != 0 {
		t.Fatalf("expected empty window, got %d", st.Count)
	}
	if got := s.Len("BTC"); got != 0 {
		t.Fatalf("expected store emptied by snapshot eviction, len=%d", got)
	}
}

func TestUnknownSymbolIgnored(t *testing.T) {
	clk := &fakeClock{now: time.UnixMilli(0)}
	s := NewTradeStore([]string{"BTC"}, 30*time.Minute, clk)
	s.Append("ETH", Trade{ID: 1})
	if s.Len("ETH") != 0 {
		t.Fatalf("unexpected shard for unknown symbol")
	}
	st := s.SnapshotWindow("ETH", 0, 1)
	if st.Count != 0 {
		t.Fatalf("expected zero stats for unknown symbol")
	}
}
