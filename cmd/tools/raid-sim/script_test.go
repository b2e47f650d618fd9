package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/modules/raid/engine"
)

func TestParseBids(t *testing.T) {
	bids, err := parseBids(" p1:50@5s, p2:60 ")
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, engine.BidEvent{BidderID: "p1", Amount: 50}, bids[0].bid)
	assert.Equal(t, 5*time.Second, bids[0].delay)
	assert.Equal(t, defaultBidDelay, bids[1].delay)

	empty, err := parseBids("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"p1", ":50", "p1:abc", "p1:50@soon", "p1:50@-1s"} {
		_, err := parseBids(bad)
		assert.Error(t, err, bad)
	}
}

func TestScriptedBids_AdvancesClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := engine.NewManualClock(start)
	bids, err := parseBids("p1:50@5s,p2:60@90s")
	require.NoError(t, err)
	stream := &scriptedBids{clock: clock, queue: bids}
	ctx := context.Background()

	bid, res := stream.Next(ctx, time.Minute)
	assert.Equal(t, engine.WaitReceived, res)
	assert.Equal(t, "p1", bid.BidderID)
	assert.Equal(t, start.Add(5*time.Second), clock.Now())

	// p2 的延迟超过窗口，本次等待超时
	_, res = stream.Next(ctx, time.Minute)
	assert.Equal(t, engine.WaitTimedOut, res)
	assert.Equal(t, start.Add(65*time.Second), clock.Now())
}
