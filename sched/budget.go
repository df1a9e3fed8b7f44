package sched

import "time"

// Budget 全局运行预算：所有长期任务共享同一个起点，
// 在各自循环顶部协作式检查，不做中途打断。
type Budget struct {
	Start time.Time
	Limit time.Duration
}

// NewBudget 以 now 为公共起点创建预算。
func NewBudget(now time.Time, limit time.Duration) *Budget {
	return &Budget{Start: now, Limit: limit}
}

// Exceeded 预算是否已用尽。
func (b *Budget) Exceeded(now time.Time) bool {
	if b == nil {
		return false
	}
	return now.Sub(b.Start) >= b.Limit
}
