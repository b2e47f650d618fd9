package engine

import (
	"context"
	"time"

	"tsu-raid/internal/pkg/log"
)

// HouseBidderID 拍卖初始最高出价者
const HouseBidderID = "house"

// Verdict 单次等待的三态结果
type Verdict int

const (
	VerdictAccepted Verdict = iota
	VerdictRejected
	VerdictTimedOut
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	default:
		return "timed_out"
	}
}

// RejectReason 出价被拒原因
type RejectReason string

const (
	RejectNone                RejectReason = ""
	RejectNotEligible         RejectReason = "not_eligible"
	RejectNonPositive         RejectReason = "non_positive"
	RejectNotHigher           RejectReason = "not_higher"
	RejectSelfOutbid          RejectReason = "self_outbid"
	RejectInsufficientBalance RejectReason = "insufficient_balance"
)

// AuctionState 拍卖状态，最高价单调不减
type AuctionState struct {
	HighestBidderID string              `json:"highest_bidder_id"`
	HighestAmount   int64               `json:"highest_amount"`
	WindowDeadline  time.Time           `json:"window_deadline"`
	Eligible        map[string]struct{} `json:"-"`
}

func NewAuctionState(eligible []string, deadline time.Time) *AuctionState {
	set := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		set[id] = struct{}{}
	}
	return &AuctionState{HighestBidderID: HouseBidderID, WindowDeadline: deadline, Eligible: set}
}

// Evaluate 只判定，不修改状态
func (a *AuctionState) Evaluate(bid BidEvent) (Verdict, RejectReason) {
	if _, ok := a.Eligible[bid.BidderID]; !ok {
		return VerdictRejected, RejectNotEligible
	}
	if bid.Amount <= 0 {
		return VerdictRejected, RejectNonPositive
	}
	if bid.Amount <= a.HighestAmount {
		return VerdictRejected, RejectNotHigher
	}
	if bid.BidderID == a.HighestBidderID {
		return VerdictRejected, RejectSelfOutbid
	}
	return VerdictAccepted, RejectNone
}

// accept 替换最高价并续期窗口
func (a *AuctionState) accept(bid BidEvent, deadline time.Time) {
	a.HighestBidderID = bid.BidderID
	a.HighestAmount = bid.Amount
	a.WindowDeadline = deadline
}

// AuctionStatus 拍卖结局
type AuctionStatus string

const (
	AuctionSettled AuctionStatus = "settled"
	AuctionVoid    AuctionStatus = "void"
	AuctionNoBids  AuctionStatus = "no_bids"
	AuctionFailed  AuctionStatus = "failed"
)

// AuctionResult 拍卖结果
type AuctionResult struct {
	Item     string        `json:"item"`
	Status   AuctionStatus `json:"status"`
	WinnerID string        `json:"winner_id,omitempty"`
	Amount   int64         `json:"amount,omitempty"`
	Accepted []BidEvent    `json:"accepted"`
	Rejected int           `json:"rejected"`
	Err      error         `json:"-"`
}

// Auction 出价协议；同一时刻只处理一个出价
type Auction struct {
	sessionID string
	cfg       AuctionConfig
	clock     Clock
	bids      BidStream
	ledger    ProfileStore
	emit      func(EventType, any)
	logger    log.Logger
	// onClose 窗口关闭、结算之前调用
	onClose func()

	state  *AuctionState
	result AuctionResult
}

func newAuction(sessionID string, cfg AuctionConfig, eligible []string, clock Clock, bids BidStream, ledger ProfileStore, emit func(EventType, any), logger log.Logger) *Auction {
	return &Auction{
		sessionID: sessionID,
		cfg:       cfg,
		clock:     clock,
		bids:      bids,
		ledger:    ledger,
		emit:      emit,
		logger:    logger,
		state:     NewAuctionState(eligible, clock.DeadlineFrom(clock.Now(), cfg.Window)),
		result:    AuctionResult{Item: cfg.Item, Accepted: []BidEvent{}},
	}
}

// State 当前状态
func (a *Auction) State() AuctionState {
	return *a.state
}

// Step 等待并判定下一次出价
func (a *Auction) Step(ctx context.Context) (Verdict, BidEvent) {
	remaining := a.state.WindowDeadline.Sub(a.clock.Now())
	if remaining <= 0 || a.bids == nil {
		return VerdictTimedOut, BidEvent{}
	}
	bid, res := a.bids.Next(ctx, remaining)
	if res == WaitTimedOut {
		return VerdictTimedOut, BidEvent{}
	}

	verdict, reason := a.state.Evaluate(bid)
	if verdict == VerdictAccepted && a.cfg.CheckBalanceOnBid && a.ledger != nil {
		balance, err := a.ledger.GetBalance(ctx, bid.BidderID)
		if err != nil || balance < bid.Amount {
			verdict, reason = VerdictRejected, RejectInsufficientBalance
		}
	}

	if verdict == VerdictRejected {
		a.result.Rejected++
		a.emit(EventBidRejected, map[string]any{"bidder_id": bid.BidderID, "amount": bid.Amount, "reason": reason})
		return verdict, bid
	}

	now := a.clock.Now()
	bid.At = now
	a.state.accept(bid, a.clock.DeadlineFrom(now, a.cfg.Window))
	a.result.Accepted = append(a.result.Accepted, bid)
	a.emit(EventBidAccepted, map[string]any{"bidder_id": bid.BidderID, "amount": bid.Amount, "window_deadline": a.state.WindowDeadline})
	return verdict, bid
}

// Run 窗口内没有被接受的出价则关闭并结算
func (a *Auction) Run(ctx context.Context) AuctionResult {
	a.emit(EventAuctionOpened, map[string]any{"item": a.cfg.Item, "window_ms": a.cfg.Window.Milliseconds()})
	for {
		if v, _ := a.Step(ctx); v == VerdictTimedOut {
			break
		}
	}
	if a.onClose != nil {
		a.onClose()
	}
	a.emit(EventAuctionClosed, map[string]any{"highest_bidder_id": a.state.HighestBidderID, "amount": a.state.HighestAmount})

	settleCtx, cancel := settlementContext(ctx)
	defer cancel()
	return a.settle(settleCtx)
}

// settle 结算前重新检查余额，不足则作废且不重试
func (a *Auction) settle(ctx context.Context) AuctionResult {
	res := a.result
	if a.state.HighestBidderID == HouseBidderID {
		res.Status = AuctionNoBids
		return res
	}
	res.WinnerID = a.state.HighestBidderID
	res.Amount = a.state.HighestAmount

	if a.ledger == nil {
		res.Status = AuctionFailed
		return res
	}
	balance, err := a.ledger.GetBalance(ctx, res.WinnerID)
	if err != nil {
		res.Status = AuctionFailed
		res.Err = err
		a.logger.ErrorContext(ctx, "拍卖结算读取余额失败", log.String("winner_id", res.WinnerID), log.Any("error", err))
		return res
	}
	if balance < res.Amount {
		res.Status = AuctionVoid
		a.logger.WarnContext(ctx, "拍卖作废：余额不足", log.String("winner_id", res.WinnerID), log.Int64("amount", res.Amount), log.Int64("balance", balance))
		a.emit(EventAuctionVoid, map[string]any{"winner_id": res.WinnerID, "amount": res.Amount, "balance": balance, "abuse": true})
		return res
	}

	delta := Delta{
		Money:  -res.Amount,
		Items:  map[string]int64{a.cfg.Item: 1},
		Reason: "raid auction",
		Key:    a.sessionID + ":auction",
	}
	if err := a.ledger.ApplyDelta(ctx, res.WinnerID, delta); err != nil {
		res.Status = AuctionFailed
		res.Err = err
		a.logger.ErrorContext(ctx, "拍卖结算扣款失败", log.String("winner_id", res.WinnerID), log.Any("error", err))
		return res
	}
	res.Status = AuctionSettled
	return res
}
