package latency

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) SleepUntil(ctx context.Context, t time.Time) bool {
	c.now = t
	return true
}

func TestRecordWake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof_log.csv")
	clk := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}

	r, err := Open(path, clk)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	deadline := clk.now.Add(time.Minute)
	r.SetDeadline(deadline)

	actual := deadline.Add(1500 * time.Microsecond)
	clk.now = actual
	r.RecordWake("BTC", actual)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "timestamp_ns,work,latency_us,cpu_idle_percent" {
		t.Fatalf("bad header: %q", lines[0])
	}
	if len(lines) != 2 {
		t.Fatalf("expected 1 row, got %d", len(lines)-1)
	}

	fields := strings.Split(lines[1], ",")
	if len(fields) != 4 || fields[1] != "BTC" {
		t.Fatalf("bad row: %q", lines[1])
	}
	latencyUs, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || latencyUs != 1500 {
		t.Fatalf("latency_us = %q, want 1500.000", fields[2])
	}
	// 第一次采样没有基线，空闲率报 0
	if idle, _ := strconv.ParseFloat(fields[3], 64); idle != 0 {
		t.Fatalf("first sample idle should be 0, got %q", fields[3])
	}
}

func TestLastDeadlineWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof_log.csv")
	clk := &fakeClock{now: time.Unix(0, 0)}

	r, err := Open(path, clk)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	first := clk.now.Add(time.Minute)
	second := clk.now.Add(2 * time.Minute)
	r.SetDeadline(first)
	r.SetDeadline(second)

	clk.now = second
	r.RecordWake("correlation", second)

	raw, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	fields := strings.Split(lines[1], ",")
	if v, _ := strconv.ParseFloat(fields[2], 64); v != 0 {
		t.Fatalf("latency must be measured against the last deadline, got %q", fields[2])
	}
}

func TestOpenFailure(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "no", "dir", "x.csv"), nil); err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}
