package market

import (
	"fmt"
	"strconv"
	"strings"
)

// Trade represents one normalized trade row from a per-symbol log.
type Trade struct {
	ID             int64
	ExchangeTimeMs int64
	ReceivedTimeMs int64
	DelayMs        int64
	Price          float64
	Volume         float64
}

// tradeFieldCount 行格式：id,exchangeTimeMs,receivedTimeMs,delayMs,price,volume
const tradeFieldCount = 6

// ParseTradeLine 解析一行成交记录。字段缺失、为空或数字解析失败都返回错误，
// 由调用方跳过该行继续。不支持引号/转义。
func ParseTradeLine(line string) (Trade, error) {
	var t Trade
	fields := strings.Split(line, ",")
	if len(fields) < tradeFieldCount {
		return t, fmt.Errorf("expected %d fields, got %d", tradeFieldCount, len(fields))
	}
	for i := 0; i < tradeFieldCount; i++ {
		if fields[i] == "" {
			return t, fmt.Errorf("field %d is empty", i)
		}
	}

	var err error
	if t.ID, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return t, fmt.Errorf("parse id: %w", err)
	}
	if t.ExchangeTimeMs, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return t, fmt.Errorf("parse exchange ts: %w", err)
	}
	if t.ReceivedTimeMs, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return t, fmt.Errorf("parse received ts: %w", err)
	}
	if t.DelayMs, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
		return t, fmt.Errorf("parse delay: %w", err)
	}
	if t.Price, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return t, fmt.Errorf("parse price: %w", err)
	}
	if t.Volume, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return t, fmt.Errorf("parse volume: %w", err)
	}
	return t, nil
}
