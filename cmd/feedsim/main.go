package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market-metrics-go/sim"
)

func main() {
	dir := flag.String("dir", "trades", "成交日志输出目录")
	suffix := flag.String("suffix", "-USDT.csv", "文件名后缀")
	symbols := flag.String("symbols", "BTC,ADA,ETH,DOGE,LTC,BNB,SOL,XRP", "逗号分隔的 symbol 列表")
	intervalMs := flag.Int("intervalMs", 200, "每轮产生成交的间隔（毫秒）")
	seed := flag.Int64("seed", 0, "随机种子，0 表示取当前时间")
	flag.Parse()

	feed := &sim.Feed{
		Dir:      *dir,
		Suffix:   *suffix,
		Symbols:  strings.Split(*symbols, ","),
		Interval: time.Duration(*intervalMs) * time.Millisecond,
		Seed:     *seed,
	}
	if err := feed.Open(); err != nil {
		log.Fatalf("初始化合成行情失败: %v", err)
	}
	defer feed.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("feedsim writing to %s (%s)", *dir, *symbols)
	_ = feed.Run(ctx)
}
