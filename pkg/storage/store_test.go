package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func trades(n int, runID *string) []core.MatchRecord {
	out := make([]core.MatchRecord, n)
	for i := range out {
		out[i] = core.MatchRecord{
			BuyOrderID:  fmt.Sprintf("b%d", i),
			SellOrderID: fmt.Sprintf("s%d", i),
			Kwh:         decimal.New(int64(i+1), -1),
			Price:       decimal.RequireFromString("0.15"),
			Timestamp:   base,
			RunID:       runID,
		}
	}
	return out
}

func meta(key string, created time.Time) RunMeta {
	return RunMeta{Key: key, CreatedAt: created, Orders: 4, TotalKwh: decimal.NewFromInt(1), Digest: "ab"}
}

func eachStore(t *testing.T, fn func(t *testing.T, s RunStore)) {
	t.Run("pebble", func(t *testing.T) {
		s, err := NewPebbleStore(filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
	t.Run("mem", func(t *testing.T) {
		fn(t, NewMemStore())
	})
}

func TestSaveLoadRun(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		run := "batch-7"
		// more than 10 trades so lexical seq order matters
		records := trades(12, &run)
		m := meta("k1", base)
		m.RunID = &run
		require.NoError(t, s.SaveRun(m, records))

		got, back, err := s.LoadRun("k1")
		require.NoError(t, err)
		assert.Equal(t, "k1", got.Key)
		assert.Equal(t, 12, got.Trades)
		require.NotNil(t, got.RunID)
		assert.Equal(t, run, *got.RunID)
		assert.True(t, got.CreatedAt.Equal(base))

		require.Len(t, back, 12)
		for i, r := range back {
			assert.Equal(t, records[i].BuyOrderID, r.BuyOrderID)
			assert.True(t, records[i].Kwh.Equal(r.Kwh))
			require.NotNil(t, r.RunID)
			assert.Equal(t, run, *r.RunID)
		}
	})
}

func TestLoadRunNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		_, _, err := s.LoadRun("missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestSaveRunRejectsBadKey(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		for _, key := range []string{"", "a:b"} {
			err := s.SaveRun(meta(key, base), nil)
			assert.ErrorIs(t, err, ErrInvalidKey, key)
		}
	})
}

func TestSaveRunReplacesTrades(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		require.NoError(t, s.SaveRun(meta("k", base), trades(5, nil)))
		require.NoError(t, s.SaveRun(meta("k", base.Add(time.Hour)), trades(2, nil)))

		m, back, err := s.LoadRun("k")
		require.NoError(t, err)
		assert.Equal(t, 2, m.Trades)
		assert.Len(t, back, 2)

		runs, err := s.ListRuns(0)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})
}

func TestListRunsNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		require.NoError(t, s.SaveRun(meta("old", base), trades(1, nil)))
		require.NoError(t, s.SaveRun(meta("new", base.Add(2*time.Minute)), nil))
		require.NoError(t, s.SaveRun(meta("mid", base.Add(time.Minute)), trades(3, nil)))

		runs, err := s.ListRuns(0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, []string{"new", "mid", "old"}, []string{runs[0].Key, runs[1].Key, runs[2].Key})
		assert.Equal(t, 0, runs[0].Trades)

		runs, err = s.ListRuns(2)
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}

func TestListRunsEmpty(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		runs, err := s.ListRuns(10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestPebbleStoreReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(meta("persisted", base), trades(2, nil)))
	require.NoError(t, s.Close())

	s, err = NewPebbleStore(dir)
	require.NoError(t, err)
	defer s.Close()
	_, back, err := s.LoadRun("persisted")
	require.NoError(t, err)
	assert.Len(t, back, 2)
}

func TestKeyUpperBound(t *testing.T) {
	assert.Equal(t, []byte("trade:k;"), keyUpperBound(tradePrefix("k")))
	assert.Equal(t, "trade:k:00000000000000000003", string(tradeKey("k", 3)))
}
