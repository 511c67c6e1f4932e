package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j
}

func testTrade(id string, closeTime time.Time, pl float64) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Symbol:     "SOL",
		Venue:      "binance",
		Pool:       "steady",
		Amount:     4.5,
		EntryPrice: 100,
		ExitPrice:  103.5,
		OpenTime:   closeTime.Add(-time.Hour),
		CloseTime:  closeTime,
		RealizedPL: pl,
		Reason:     "target",
	}
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	closeT := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	rec := testTrade("T1", closeT, 15.75)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Symbol, got.Symbol)
	assert.Equal(t, rec.Pool, got.Pool)
	assert.Equal(t, rec.RealizedPL, got.RealizedPL)
	assert.True(t, got.CloseTime.Equal(closeT))

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(testTrade("T1", base.Add(1*time.Hour), 10)))
	require.NoError(t, j.RecordTrade(testTrade("T2", base.Add(2*time.Hour), -5)))
	require.NoError(t, j.RecordTrade(testTrade("T3", base.Add(48*time.Hour), 3)))

	got, err := j.ListTradesClosedBetween(base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TradeID)
	assert.Equal(t, "T2", got[1].TradeID)
}

func TestSQLiteSummarize(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(testTrade("T1", base.Add(time.Hour), 10)))
	require.NoError(t, j.RecordTrade(testTrade("T2", base.Add(2*time.Hour), -4)))

	s, err := j.Summarize(base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 10, s.GrossProfit, 1e-9)
	assert.InDelta(t, 4, s.GrossLoss, 1e-9)
	assert.InDelta(t, 6, s.NetPL, 1e-9)
}

func TestSQLitePositionLifecycle(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	row := PositionRow{
		PositionID:  "P1",
		Symbol:      "ETH",
		Venue:       "binance",
		Pool:        "steady",
		EntryPrice:  2900,
		Amount:      0.1,
		CapitalCost: 290,
		TargetPrice: 3100,
		StopPrice:   2850,
		OpenedAt:    sql.NullTime{Time: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), Valid: true},
	}
	require.NoError(t, j.SavePosition(row))

	open, err := j.ListOpenPositions()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "P1", open[0].PositionID)
	assert.Equal(t, 290.0, open[0].CapitalCost)

	require.NoError(t, j.DeletePosition("P1"))
	open, err = j.ListOpenPositions()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSQLiteLatestPools(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordPool(PoolSnapshot{Time: base, Pool: "steady", Total: 900, Used: 0}))
	require.NoError(t, j.RecordPool(PoolSnapshot{Time: base.Add(time.Hour), Pool: "steady", Total: 910, Used: 450}))
	require.NoError(t, j.RecordPool(PoolSnapshot{Time: base, Pool: "speculative", Total: 100, Used: 0}))

	latest, err := j.LatestPools()
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 910.0, latest["steady"].Total)
	assert.Equal(t, 450.0, latest["steady"].Used)
	assert.Equal(t, 100.0, latest["speculative"].Total)
}
