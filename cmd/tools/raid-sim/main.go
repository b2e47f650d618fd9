package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/ericlagergren/decimal"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/modules/raid/memstore"
	"tsu-raid/internal/pkg/log"
)

// 离线模拟一场 raid：内存账本 + 模拟时钟，不依赖数据库和 Redis
func main() {
	preset := flag.String("preset", "zerekiel", "Preset name ("+strings.Join(engine.PresetNames(), ", ")+")")
	players := flag.Int("players", 5, "Number of simulated participants")
	seed := flag.Int64("seed", 1, "RNG seed, same seed replays the same raid")
	bossHP := flag.Int64("boss-hp", 0, "Override boss HP (0 keeps the preset default)")
	enemies := flag.Int("enemies", 0, "Override enemy count for wave presets")
	money := flag.Int64("money", 1000, "Starting balance of every participant")
	bidScript := flag.String("bids", "", "Scripted auction bids, e.g. p1:50@5s,p2:60")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	flag.Parse()

	if *players <= 0 {
		stdlog.Fatal("players must be greater than 0")
	}
	bids, err := parseBids(*bidScript)
	if err != nil {
		stdlog.Fatalf("invalid -bids: %v", err)
	}

	cfg, err := engine.Preset(*preset, engine.PresetOptions{BossHP: *bossHP, EnemyCount: *enemies})
	if err != nil {
		stdlog.Fatalf("unknown preset %q: %v", *preset, err)
	}

	clock := engine.NewManualClock(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
	roster := memstore.NewRoster()
	ledger := memstore.NewLedger()
	ids := make([]string, *players)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i+1)
		// 模拟玩家都信仰预设要求的神
		ledger.Put(engine.Profile{
			UserID:      ids[i],
			God:         cfg.Eligibility.RequiredGod,
			Money:       *money,
			BaseDamage:  int64(80 + 20*i),
			BaseArmor:   int64(20 + 5*i),
			AtkMultiply: decimal.New(1, 0),
			DefMultiply: decimal.New(1, 0),
		})
	}
	roster.JoinAll(ids...)

	eng := engine.NewEngine(engine.Dependencies{
		Roster:   roster,
		Profiles: ledger,
		Events:   printSink{},
		Clock:    clock,
		Bids:     &scriptedBids{clock: clock, queue: bids},
		RNG:      engine.NewRNG(*seed),
		Logger:   log.Discard(),
	})

	ctx := context.Background()
	session, err := eng.Spawn(ctx, cfg)
	if err != nil {
		stdlog.Fatalf("spawn failed: %v", err)
	}
	result, err := eng.Run(ctx, session)
	if result == nil {
		stdlog.Fatalf("raid failed: %v", err)
	}
	if err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			stdlog.Fatalf("encode result: %v", err)
		}
		return
	}
	printResult(ctx, result, ledger, ids)
}

// printSink 把关键事件打印成叙事
type printSink struct{}

func (printSink) Emit(_ context.Context, e engine.Event) error {
	switch e.Type {
	case engine.EventSpawned, engine.EventRosterResolved, engine.EventAuctionOpened,
		engine.EventBidAccepted, engine.EventBidRejected, engine.EventAuctionClosed,
		engine.EventAuctionVoid, engine.EventResolved:
		data, _ := json.Marshal(e.Data)
		fmt.Printf("[%s] %-16s %s\n", e.At.Format("15:04:05"), e.Type, data)
	}
	return nil
}

func printResult(ctx context.Context, r *engine.Result, ledger *memstore.Ledger, ids []string) {
	fmt.Println()
	fmt.Printf("Raid %s (%s, %s)\n", r.SessionID, r.Preset, r.Mode)
	for _, rec := range r.RoundLog {
		line := fmt.Sprintf("  round %3d: %s -> %s dmg=%d hp=%d", rec.Round, rec.AttackerID, rec.TargetID, rec.Damage, rec.TargetHP)
		if rec.CounterDamage > 0 {
			line += fmt.Sprintf(" counter=%d", rec.CounterDamage)
		}
		if rec.EnemyHP > 0 || rec.EnemiesLeft > 0 {
			line += fmt.Sprintf(" enemy_hp=%d left=%d", rec.EnemyHP, rec.EnemiesLeft)
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Printf("Outcome:      %s after %d rounds (%s simulated)\n", r.Outcome, r.Rounds, r.Duration())
	fmt.Printf("Participants: %d, survivors: %v\n", r.Participants, r.Survivors)
	if a := r.Auction; a != nil {
		fmt.Printf("Auction:      %s item=%s winner=%s amount=%d rejected=%d\n", a.Status, a.Item, a.WinnerID, a.Amount, a.Rejected)
	}
	if p := r.Payout; p != nil {
		fmt.Printf("Payout:       pool=%d per_survivor=%d remainder=%d\n", p.RewardPool, p.PerSurvivorAmount, p.Remainder)
	}
	if len(r.RewardFailures) > 0 {
		fmt.Printf("Failures:     %v\n", r.RewardFailures)
	}

	fmt.Println()
	for _, id := range ids {
		balance, _ := ledger.GetBalance(ctx, id)
		fmt.Printf("  %-4s balance=%d xp=%d items=%v\n", id, balance, ledger.XP(id), ledger.Items(id))
	}
}
