package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"market-metrics-go/market"
	"market-metrics-go/monitor"
	"market-metrics-go/sched"
)

// Tailer 持续跟读一个 symbol 的追加式成交日志：解析、按 id 去重、
// 写入 TradeStore。读到文件末尾时回退到行首等待新数据：有 fsnotify
// 写事件就提前醒，否则按 PollInterval 轮询兜底。已消费的字节不会重读。
type Tailer struct {
	Symbol       string
	Path         string
	Store        *market.TradeStore
	PollInterval time.Duration
	Clock        sched.Clock
	Budget       *sched.Budget
	Log          *zap.Logger
	Mon          *monitor.Monitor

	lastSeenID int64
}

// Run 跟读日志直到运行预算耗尽或 ctx 取消。
// 文件打不开只影响本 symbol：记错误后返回，不波及其他任务。
func (t *Tailer) Run(ctx context.Context) error {
	if t.Clock == nil {
		t.Clock = sched.Real
	}
	if t.PollInterval <= 0 {
		t.PollInterval = 500 * time.Millisecond
	}
	t.lastSeenID = -1

	f, err := os.Open(t.Path)
	if err != nil {
		t.Log.Error("cannot open trade log", zap.String("symbol", t.Symbol), zap.String("path", t.Path), zap.Error(err))
		return fmt.Errorf("open %s: %w", t.Path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)

	// 跳过表头；空文件按采集端约定不应出现，遇到则直接退出本任务。
	header, err := reader.ReadString('\n')
	if err != nil {
		t.Log.Warn("trade log has no header yet, giving up", zap.String("symbol", t.Symbol), zap.String("path", t.Path))
		return nil
	}
	offset := int64(len(header))

	// 写事件通知是可选加速，拿不到 watcher 就纯轮询。
	var events <-chan fsnotify.Event
	if w, werr := fsnotify.NewWatcher(); werr == nil {
		if werr = w.Add(t.Path); werr == nil {
			events = w.Events
		}
		defer w.Close()
	}

	for !t.Budget.Exceeded(t.Clock.Now()) {
		line, err := reader.ReadString('\n')
		if err != nil {
			// 读到末尾（可能带半行）：回到行首，等新数据再试。
			if _, serr := f.Seek(offset, io.SeekStart); serr != nil {
				return fmt.Errorf("seek %s: %w", t.Path, serr)
			}
			reader.Reset(f)
			if !t.waitForData(ctx, events) {
				return ctx.Err()
			}
			continue
		}
		offset += int64(len(line))

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		t.consume(line)
	}
	return nil
}

// consume 解析一行并在通过去重后写入 store。
func (t *Tailer) consume(line string) {
	tr, err := market.ParseTradeLine(line)
	if err != nil {
		t.Log.Warn("bad trade line skipped",
			zap.String("symbol", t.Symbol),
			zap.String("line", line),
			zap.Error(err))
		if t.Mon != nil {
			t.Mon.RecordLineSkipped(t.Symbol)
		}
		return
	}
	// id 不增则丢：既滤掉重复，也把乱序行永久拒掉（producer 保证
	// 单 symbol 按 id 非降序投递）。
	if tr.ID <= t.lastSeenID {
		if t.Mon != nil {
			t.Mon.RecordDuplicateDropped(t.Symbol)
		}
		return
	}
	t.lastSeenID = tr.ID

	t.Store.Append(t.Symbol, tr)
	if t.Mon != nil {
		t.Mon.RecordTradeIngested(t.Symbol)
	}
}

// waitForData 阻塞至多一个轮询周期；fsnotify 写事件可提前唤醒。
// ctx 取消返回 false。
func (t *Tailer) waitForData(ctx context.Context, events <-chan fsnotify.Event) bool {
	timer := time.NewTimer(t.PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Write) {
				return true
			}
		case <-timer.C:
			return true
		}
	}
}
