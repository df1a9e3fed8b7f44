package sched

import (
	"context"
	"time"
)

// Clock 抽象时间便于测试：周期任务只通过它读钟和等待。
type Clock interface {
	Now() time.Time
	// SleepUntil 阻塞到 t（或 ctx 取消，返回 false）。
	SleepUntil(ctx context.Context, t time.Time) bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) SleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Real 默认的系统时钟。
var Real Clock = realClock{}

// NextMinute 返回 now 之后的下一个整分钟边界。
// 每次基于当前时刻重新计算，计算耗时不会累积成偏移。
func NextMinute(now time.Time) time.Time {
	return now.Truncate(time.Minute).Add(time.Minute)
}
