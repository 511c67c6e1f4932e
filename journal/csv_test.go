package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	poolsPath := filepath.Join(dir, "pools.csv")

	j, err := NewCSV(tradesPath, poolsPath)
	require.NoError(t, err)

	closeT := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(testTrade("T1", closeT, 15.75)))
	require.NoError(t, j.RecordPool(PoolSnapshot{
		Time: closeT, Pool: "steady", Total: 907.875, Used: 0,
	}))
	require.NoError(t, j.Close())

	tf, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer tf.Close()

	rows, err := csv.NewReader(tf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one trade")
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "SOL", rows[1][1])
	assert.Equal(t, "steady", rows[1][3])
	assert.Equal(t, "15.750000", rows[1][9])

	pf, err := os.Open(poolsPath)
	require.NoError(t, err)
	defer pf.Close()

	prows, err := csv.NewReader(pf).ReadAll()
	require.NoError(t, err)
	require.Len(t, prows, 2)
	assert.Equal(t, "steady", prows[1][1])
	assert.Equal(t, "907.875000", prows[1][2])
}
