package impl

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/modules/raid/engine"
	"tsu-raid/internal/repository/interfaces"
)

// setupTestDB 设置测试数据库连接
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("RAID_TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=tsu_user password=tsu_test dbname=tsu_db sslmode=disable"
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Skipf("无法连接测试数据库: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("跳过依赖数据库的测试，原因: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedProfile 插入测试资料，测试结束后清理
func seedProfile(t *testing.T, db *sql.DB, money int64) string {
	t.Helper()

	userID := "test-" + uuid.NewString()
	_, err := db.Exec(`
INSERT INTO raid.raid_profiles (user_id, god, guild, money, base_damage, base_armor, atk_multiply, def_multiply, raider_tier)
VALUES ($1, 'Guilt', 'g-1', $2, 100, 50, 1.2, 1.0, 1)
`, userID, money)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM raid.raid_profiles WHERE user_id = $1`, userID)
	})
	return userID
}

func TestRaidProfileRepository_GetProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过集成测试")
	}

	db := setupTestDB(t)
	repo := NewRaidProfileRepository(db)
	ctx := context.Background()

	missing, err := repo.GetProfile(ctx, "missing-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	userID := seedProfile(t, db, 1000)
	profile, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "Guilt", profile.God)
	assert.Equal(t, "", profile.Class)
	assert.Equal(t, int64(1000), profile.Money)
	assert.Equal(t, 0, profile.AtkMultiply.Cmp(decimal.New(12, 1)))

	damage, armor, err := engine.ComputeStats(profile)
	require.NoError(t, err)
	assert.Equal(t, int64(130), damage)
	assert.Equal(t, int64(55), armor)
}

func TestRaidProfileRepository_ApplyDeltaIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过集成测试")
	}

	db := setupTestDB(t)
	repo := NewRaidProfileRepository(db)
	ctx := context.Background()
	userID := seedProfile(t, db, 100)

	delta := engine.Delta{
		Money:  250,
		XP:     10,
		Items:  map[string]int64{engine.ItemLegendaryCrate: 1},
		Reason: "raid reward",
		Key:    "test-session:payout:" + userID,
	}
	require.NoError(t, repo.ApplyDelta(ctx, userID, delta))
	require.NoError(t, repo.ApplyDelta(ctx, userID, delta))

	balance, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)

	var crates int64
	err = db.QueryRow(`SELECT quantity FROM raid.raid_inventory WHERE user_id = $1 AND item = $2`,
		userID, engine.ItemLegendaryCrate).Scan(&crates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), crates)

	var entries int
	err = db.QueryRow(`SELECT COUNT(*) FROM raid.raid_ledger_entries WHERE user_id = $1`, userID).Scan(&entries)
	require.NoError(t, err)
	assert.Equal(t, 1, entries)
}

func TestRaidProfileRepository_ApplyDeltaRejectsOverdraft(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过集成测试")
	}

	db := setupTestDB(t)
	repo := NewRaidProfileRepository(db)
	ctx := context.Background()
	userID := seedProfile(t, db, 100)

	err := repo.ApplyDelta(ctx, userID, engine.Delta{Money: -101, Reason: "auction", Key: "overdraft:" + userID})
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFunds)

	err = repo.ApplyDelta(ctx, "missing-"+uuid.NewString(), engine.Delta{Money: 1, Reason: "x", Key: uuid.NewString()})
	assert.ErrorIs(t, err, interfaces.ErrProfileNotFound)
}

func TestRaidProfileRepository_UpgradeStat(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过集成测试")
	}

	db := setupTestDB(t)
	repo := NewRaidProfileRepository(db)
	ctx := context.Background()
	userID := seedProfile(t, db, 60000)

	quote := func(current *decimal.Big) (*decimal.Big, int64, error) {
		next := engine.NextLevel(current)
		price, err := engine.UpgradePrice(next)
		return next, price, err
	}

	// 1.2 -> 1.3: Σ i×25000, i=1..3
	res, err := repo.UpgradeStat(ctx, userID, interfaces.RaidStatDamage, quote, uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFunds)
	assert.Nil(t, res)

	// 1.0 -> 1.1 costs 25000
	res, err = repo.UpgradeStat(ctx, userID, interfaces.RaidStatDefense, quote, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, int64(25000), res.Price)
	assert.Equal(t, int64(35000), res.Balance)

	profile, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.DefMultiply.Cmp(decimal.New(11, 1)))
	assert.Equal(t, int64(35000), profile.Money)

	_, err = repo.UpgradeStat(ctx, userID, interfaces.RaidStat("speed"), quote, uuid.NewString())
	assert.Error(t, err)
}

func TestRaidReportRepository_SaveAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过集成测试")
	}

	db := setupTestDB(t)
	repo := NewRaidReportRepository(db)
	ctx := context.Background()

	sessionID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM raid.raid_reports WHERE session_id = $1`, sessionID)
	})

	report := &interfaces.RaidReport{
		SessionID:    sessionID,
		Mode:         string(engine.ModeBoss),
		Outcome:      string(engine.OutcomeVictory),
		Rounds:       4,
		Participants: 5,
		Payload:      []byte(`{"outcome":"victory"}`),
	}
	report.Preset.SetValid("zerekiel")
	report.EndedAt = time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, report))

	report.Rounds = 5
	require.NoError(t, repo.Save(ctx, report))

	got, err := repo.GetBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Rounds)
	assert.Equal(t, "zerekiel", got.Preset.String)
	assert.False(t, got.StartedAt.Valid)
	assert.JSONEq(t, `{"outcome":"victory"}`, string(got.Payload))

	missing, err := repo.GetBySessionID(ctx, "missing-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	recent, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
}
