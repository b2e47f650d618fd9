package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tsu-raid/internal/pkg/xerrors"
)

// PayoutResult 奖励分配结果
type PayoutResult struct {
	RewardPool        int64    `json:"reward_pool"`
	PerSurvivorAmount int64    `json:"per_survivor_amount"`
	Remainder         int64    `json:"remainder"`
	Grantees          []string `json:"grantees"`

	FlatMoney int64 `json:"flat_money,omitempty"`
	FlatXP    int64 `json:"flat_xp,omitempty"`

	BonusRecipient string `json:"bonus_recipient,omitempty"`
	BonusItem      string `json:"bonus_item,omitempty"`
	BonusMoney     int64  `json:"bonus_money,omitempty"`

	Credited []string `json:"credited"`
	Failed   []string `json:"failed,omitempty"`
}

// SplitPool 向下取整平分，余数不发放
func SplitPool(pool int64, survivors int) (per, remainder int64) {
	if survivors <= 0 || pool <= 0 {
		return 0, max(pool, 0)
	}
	per = pool / int64(survivors)
	return per, pool - per*int64(survivors)
}

// TopKiller 击杀数最多者；并列时取 ID 最小者
func TopKiller(candidates []*Combatant) *Combatant {
	var best *Combatant
	for _, c := range candidates {
		if best == nil || c.Kills > best.Kills || (c.Kills == best.Kills && c.ID < best.ID) {
			best = c
		}
	}
	return best
}

// PlanPayout 计算奖池分配与额外奖励获得者，不落账
func PlanPayout(s *Session, rng RNG) *PayoutResult {
	reward := s.Config.Reward
	survivors := s.Survivors()

	pool := reward.FixedPool
	if reward.PoolDivisor > 0 && s.Boss != nil {
		pool = s.InitialHP / reward.PoolDivisor
	}
	per, remainder := SplitPool(pool, len(survivors))

	res := &PayoutResult{
		RewardPool:        pool,
		PerSurvivorAmount: per,
		Remainder:         remainder,
		Grantees:          make([]string, 0, len(survivors)),
		FlatMoney:         reward.FlatMoney,
		FlatXP:            reward.FlatXP,
		Credited:          []string{},
	}
	for _, c := range survivors {
		res.Grantees = append(res.Grantees, c.ID)
	}
	if len(survivors) == 0 {
		return res
	}

	var bonus *Combatant
	switch reward.BonusRecipient {
	case BonusTopKills:
		bonus = TopKiller(survivors)
	case BonusRandomSurvivor:
		bonus = survivors[rng.Intn(len(survivors))]
	}
	if bonus != nil {
		res.BonusRecipient = bonus.ID
		res.BonusItem = reward.BonusItem
		res.BonusMoney = reward.BonusMoney
	}
	return res
}

// deltaFor 每位获得者一次账本调用
func (p *PayoutResult) deltaFor(sessionID, userID string) Delta {
	d := Delta{
		Money:  p.PerSurvivorAmount + p.FlatMoney,
		XP:     p.FlatXP,
		Reason: "raid payout",
		Key:    fmt.Sprintf("%s:payout:%s", sessionID, userID),
	}
	if userID == p.BonusRecipient {
		d.Money += p.BonusMoney
		if p.BonusItem != "" {
			d.Items = map[string]int64{p.BonusItem: 1}
		}
	}
	return d
}

// ApplyPayout 逐个落账；失败不回滚已成功的部分，返回部分发放错误
func ApplyPayout(ctx context.Context, sessionID string, plan *PayoutResult, ledger ProfileStore) error {
	ids := append([]string(nil), plan.Grantees...)
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		delta := plan.deltaFor(sessionID, id)
		if delta.IsZero() {
			continue
		}
		if err := ledger.ApplyDelta(ctx, id, delta); err != nil {
			plan.Failed = append(plan.Failed, id)
			errs = append(errs, fmt.Errorf("credit %s: %w", id, err))
			continue
		}
		plan.Credited = append(plan.Credited, id)
	}
	if len(errs) > 0 {
		return xerrors.NewPartialPayoutError(sessionID, plan.Credited, plan.Failed, errors.Join(errs...))
	}
	return nil
}
