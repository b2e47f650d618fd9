package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tsu-raid/internal/modules/raid/engine"
)

// defaultBidDelay 未指定 @延迟 时与上一次出价的间隔
const defaultBidDelay = time.Second

type scriptedBid struct {
	bid   engine.BidEvent
	delay time.Duration
}

// scriptedBids 按脚本回放出价，并推进 ManualClock 模拟等待
type scriptedBids struct {
	clock *engine.ManualClock
	queue []scriptedBid
}

// parseBids 解析 "p1:50@5s,p2:60" 形式的出价脚本，@ 后为距上一次出价的延迟
func parseBids(script string) ([]scriptedBid, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, nil
	}

	var bids []scriptedBid
	for _, item := range strings.Split(script, ",") {
		item = strings.TrimSpace(item)
		delay := defaultBidDelay
		if at := strings.LastIndex(item, "@"); at >= 0 {
			d, err := time.ParseDuration(item[at+1:])
			if err != nil || d < 0 {
				return nil, fmt.Errorf("invalid bid delay in %q", item)
			}
			delay = d
			item = item[:at]
		}

		bidder, amountStr, ok := strings.Cut(item, ":")
		if !ok || bidder == "" {
			return nil, fmt.Errorf("invalid bid %q, want bidder:amount[@delay]", item)
		}
		amount, err := strconv.ParseInt(amountStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bid amount in %q", item)
		}
		bids = append(bids, scriptedBid{bid: engine.BidEvent{BidderID: bidder, Amount: amount}, delay: delay})
	}
	return bids, nil
}

// Next 下一条出价在超时前到达则推进对应延迟并返回，否则推进到超时
func (s *scriptedBids) Next(ctx context.Context, timeout time.Duration) (engine.BidEvent, engine.WaitResult) {
	if ctx.Err() != nil {
		return engine.BidEvent{}, engine.WaitTimedOut
	}
	if len(s.queue) == 0 || s.queue[0].delay >= timeout {
		s.clock.Advance(timeout)
		return engine.BidEvent{}, engine.WaitTimedOut
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.clock.Advance(next.delay)
	return next.bid, engine.WaitReceived
}
