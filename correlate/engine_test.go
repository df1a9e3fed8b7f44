package correlate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"market-metrics-go/csvlog"
	"market-metrics-go/market"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) SleepUntil(ctx context.Context, t time.Time) bool {
	c.now = t
	return true
}

func appendValues(tbl *market.SeriesTable, symbol string, startTs int64, values []float64) {
	for i, v := range values {
		tbl.Append(symbol, market.Point{TsMs: startTs + int64(i)*60000, Value: v})
	}
}

func newTestEngine(t *testing.T, symbols []string, tbl *market.SeriesTable) (*Engine, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "correlations.csv")
	return &Engine{
		Symbols:   symbols,
		Series:    tbl,
		WindowLen: 8,
		Out:       csvlog.NewWriter(out, Header),
		Clock:     &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		Log:       zap.NewNop(),
	}, out
}

func readRows(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != Header {
		t.Fatalf("missing header, got %q", lines[0])
	}
	return lines[1:]
}

func TestTieBreakFirstEncountered(t *testing.T) {
	tbl := market.NewSeriesTable(1000, 500)
	ramp := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	// B 和 C 都包含与 A 完全相关的窗口（corr=1 并列），
	// 必须归属枚举顺序靠前的 B 的第一个窗口
	appendValues(tbl, "A", 1000, ramp)
	appendValues(tbl, "B", 2000, append(append([]float64{}, ramp...), 9))
	appendValues(tbl, "C", 3000, ramp)

	eng, out := newTestEngine(t, []string{"A", "B", "C"}, tbl)
	eng.Tick(eng.Clock.Now())

	rows := readRows(t, out)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	fields := strings.Split(rows[0], ",")
	if fields[1] != "A" || fields[2] != "B" {
		t.Fatalf("tie should go to first symbol in order, got %q", rows[0])
	}
	if fields[3] != "2000" {
		t.Fatalf("tie should go to earliest window start, got best_time=%q", fields[3])
	}
	if corr := mustFloat(t, fields[4]); corr < 0.999 {
		t.Fatalf("expected best_corr ~1, got %v", corr)
	}
}

func TestShortSeriesSkipped(t *testing.T) {
	tbl := market.NewSeriesTable(1000, 500)
	appendValues(tbl, "A", 1000, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	appendValues(tbl, "B", 2000, []float64{1, 2, 3}) // 点数不足

	eng, out := newTestEngine(t, []string{"A", "B"}, tbl)
	eng.Tick(eng.Clock.Now())

	rows := readRows(t, out)
	// B 自身不足 8 点：不产生行；A 没有合格候选：哨兵行
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	fields := strings.Split(rows[0], ",")
	if fields[1] != "A" || fields[2] != "" || fields[3] != "0" || fields[4] != "-2" {
		t.Fatalf("expected sentinel row for A, got %q", rows[0])
	}
}

func TestBestWindowAcrossHistory(t *testing.T) {
	tbl := market.NewSeriesTable(1000, 500)
	ramp := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	// B 的历史里埋一个与 A 完全相关的窗口（起点 index 4），
	// 前后都是反向段，引擎必须扫全序列找到它
	history := []float64{8, 7, 6, 5, 1, 2, 3, 4, 5, 6, 7, 8, 4, 3}
	appendValues(tbl, "A", 1000, ramp)
	appendValues(tbl, "B", 2000, history)

	eng, out := newTestEngine(t, []string{"A", "B"}, tbl)
	eng.Tick(eng.Clock.Now())

	rows := readRows(t, out)
	fields := strings.Split(rows[0], ",")
	if fields[2] != "B" || mustFloat(t, fields[4]) < 0.999 {
		t.Fatalf("expected perfect window in B, got %q", rows[0])
	}
	wantTs := strconv.FormatInt(2000+4*60000, 10)
	if fields[3] != wantTs {
		t.Fatalf("unexpected best_time %q, want %s", fields[3], wantTs)
	}
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse float %q: %v", s, err)
	}
	return v
}
