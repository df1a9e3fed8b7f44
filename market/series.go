package market

import "sync"

// Point 移动平均序列中的一个点。
type Point struct {
	TsMs  int64
	Value float64
}

// SeriesTable 全部 symbol 的移动平均序列，单把表级锁。
// 所有聚合器写、相关性引擎读都经过同一把锁，换来"整表快照"的原子性；
// 这是有意的粗粒度设计，不做按 symbol 分片。
type SeriesTable struct {
	mu     sync.Mutex
	cap    int // 软上限，超过后批量裁剪
	trim   int // 一次裁掉的最老点数
	series map[string][]Point
}

// NewSeriesTable 创建序列表。cap 超限后一次性丢掉最老的 trim 个点
// （摊销式裁剪，不是严格滑动上限）。
func NewSeriesTable(cap, trim int) *SeriesTable {
	return &SeriesTable{
		cap:    cap,
		trim:   trim,
		series: make(map[string][]Point),
	}
}

// Append 追加一个点并按需裁剪。序列内时间戳严格递增由调用方保证
// （聚合器永不回填）。
func (t *SeriesTable) Append(symbol string, p Point) {
	t.mu.Lock()
	s := append(t.series[symbol], p)
	if len(s) > t.cap {
		s = append(s[:0:0], s[t.trim:]...)
	}
	t.series[symbol] = s
	t.mu.Unlock()
}

// Len 返回 symbol 当前的点数。
func (t *SeriesTable) Len(symbol string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.series[symbol])
}

// Snapshot 在表锁内深拷贝所有序列，调用方可在锁外任意扫描。
// 拷贝本身保证了"所有序列同一时刻"的一致视图。
func (t *SeriesTable) Snapshot() map[string][]Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]Point, len(t.series))
	for sym, pts := range t.series {
		cp := make([]Point, len(pts))
		copy(cp, pts)
		out[sym] = cp
	}
	return out
}
