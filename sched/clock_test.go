package sched

import (
	"context"
	"testing"
	"time"
)

func TestNextMinute(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 30, 15, 500, time.UTC)
	next := NextMinute(base)
	want := time.Date(2024, 5, 1, 10, 31, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("NextMinute = %v, want %v", next, want)
	}

	// 正好在边界上：下一个边界是整整一分钟之后
	next = NextMinute(want)
	if !next.Equal(want.Add(time.Minute)) {
		t.Fatalf("NextMinute on boundary = %v", next)
	}
}

func TestBudgetExceeded(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	b := NewBudget(start, 48*time.Hour)

	if b.Exceeded(start.Add(47 * time.Hour)) {
		t.Fatalf("budget should not be exceeded at 47h")
	}
	if !b.Exceeded(start.Add(48 * time.Hour)) {
		t.Fatalf("budget should be exceeded at exactly 48h")
	}

	var nilBudget *Budget
	if nilBudget.Exceeded(start) {
		t.Fatalf("nil budget never expires")
	}
}

func TestRealClockSleepUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Real.SleepUntil(ctx, time.Now().Add(time.Hour)) {
		t.Fatalf("expected false on cancelled context")
	}
}

func TestRealClockSleepUntilPast(t *testing.T) {
	if !Real.SleepUntil(context.Background(), time.Now().Add(-time.Second)) {
		t.Fatalf("past deadline should return immediately")
	}
}
