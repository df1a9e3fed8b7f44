package latency

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/procfs"

	"market-metrics-go/monitor"
	"market-metrics-go/sched"
)

// Recorder 周期任务的截止时间/延迟记录器。
// 整个进程共享一个实例：deadline 是最近一次被设置的值，谁后设置谁生效，
// 不按 symbol 区分。deadline 和上一次的 CPU 计数对都是跨任务共享的
// 可变状态，所有调用经内部互斥锁串行。
type Recorder struct {
	mu       sync.Mutex
	f        *os.File
	clock    sched.Clock
	start    time.Time
	deadline time.Time

	fs    procfs.FS
	fsOK  bool
	prev  cpuSample
	mon   *monitor.Monitor
}

type cpuSample struct {
	idle  float64
	total float64
	valid bool
}

// Open 创建记录器并写表头。失败应让进程启动中止：
// 所有下游周期任务都依赖它提供时序可见性。
func Open(path string, clock sched.Clock) (*Recorder, error) {
	if clock == nil {
		clock = sched.Real
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open latency log: %w", err)
	}
	if _, err := f.WriteString("timestamp_ns,work,latency_us,cpu_idle_percent\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("write latency header: %w", err)
	}
	r := &Recorder{
		f:     f,
		clock: clock,
		start: clock.Now(),
	}
	if fs, err := procfs.NewDefaultFS(); err == nil {
		r.fs = fs
		r.fsOK = true
	}
	return r, nil
}

// SetMonitor 可选地挂接 Prometheus 采集。
func (r *Recorder) SetMonitor(m *monitor.Monitor) {
	r.mu.Lock()
	r.mon = m
	r.mu.Unlock()
}

// SetDeadline 存下最近一次期望的唤醒时刻，覆盖之前的值。
func (r *Recorder) SetDeadline(t time.Time) {
	r.mu.Lock()
	r.deadline = t
	r.mu.Unlock()
}

// RecordWake 计算 actual 相对已存 deadline 的差（微秒），采样一次
// CPU 空闲百分比，追加一行并立即落盘。
func (r *Recorder) RecordWake(work string, actual time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latencyUs := float64(actual.Sub(r.deadline).Nanoseconds()) / 1e3
	idlePct := r.sampleIdleLocked()
	nowNs := r.clock.Now().Sub(r.start).Nanoseconds()

	fmt.Fprintf(r.f, "%d,%s,%.3f,%.2f\n", nowNs, work, latencyUs, idlePct)
	r.f.Sync()

	if r.mon != nil {
		r.mon.RecordTickLatency(work, latencyUs/1e6)
		r.mon.UpdateCPUIdle(idlePct)
	}
}

// sampleIdleLocked 读取 /proc/stat 的累计计数，对上一次采样求差得出
// 空闲百分比。第一次采样没有基线，报 0；读取失败同样报 0，
// 行照常写出（开发机上可能没有 procfs）。
func (r *Recorder) sampleIdleLocked() float64 {
	if !r.fsOK {
		return 0
	}
	stat, err := r.fs.Stat()
	if err != nil {
		return 0
	}
	c := stat.CPUTotal
	idle := c.Idle + c.Iowait
	total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal

	pct := 0.0
	if r.prev.valid {
		dIdle := idle - r.prev.idle
		dTotal := total - r.prev.total
		if dTotal > 0 {
			pct = 100.0 * dIdle / dTotal
		}
	}
	r.prev = cpuSample{idle: idle, total: total, valid: true}
	return pct
}

// Close 关闭底层文件。
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
