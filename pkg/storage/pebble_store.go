package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// SaveRun writes the metadata, the index entry and every trade in one synced
// batch. Saving an existing key again replaces its trades.
func (s *PebbleStore) SaveRun(meta RunMeta, records []core.MatchRecord) error {
	if err := checkKey(meta.Key); err != nil {
		return err
	}
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.Trades = len(records)

	batch := s.db.NewBatch()
	defer batch.Close()

	if prev, err := s.loadMeta(meta.Key); err == nil {
		prefix := tradePrefix(meta.Key)
		if err := batch.DeleteRange(prefix, keyUpperBound(prefix), nil); err != nil {
			return fmt.Errorf("failed to clear trades: %w", err)
		}
		if err := batch.Delete(indexKey(prev), nil); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	} else if !errors.Is(err, ErrRunNotFound) {
		return err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := batch.Set(runKey(meta.Key), data, nil); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := batch.Set(indexKey(meta), []byte(meta.Key), nil); err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}

	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal trade: %w", err)
		}
		if err := batch.Set(tradeKey(meta.Key, i), data, nil); err != nil {
			return fmt.Errorf("failed to save trade: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func (s *PebbleStore) loadMeta(key string) (RunMeta, error) {
	data, closer, err := s.db.Get(runKey(key))
	if err == pebble.ErrNotFound {
		return RunMeta{}, fmt.Errorf("%w: %s", ErrRunNotFound, key)
	}
	if err != nil {
		return RunMeta{}, fmt.Errorf("failed to get run: %w", err)
	}
	defer closer.Close()

	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return RunMeta{}, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return meta, nil
}

// LoadRun returns the metadata and trades of a run, trades in match order.
func (s *PebbleStore) LoadRun(key string) (RunMeta, []core.MatchRecord, error) {
	if err := checkKey(key); err != nil {
		return RunMeta{}, nil, err
	}
	meta, err := s.loadMeta(key)
	if err != nil {
		return RunMeta{}, nil, err
	}

	prefix := tradePrefix(key)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return RunMeta{}, nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	records := make([]core.MatchRecord, 0, meta.Trades)
	for iter.First(); iter.Valid(); iter.Next() {
		var r core.MatchRecord
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return RunMeta{}, nil, fmt.Errorf("failed to unmarshal trade: %w", err)
		}
		records = append(records, r)
	}
	if err := iter.Error(); err != nil {
		return RunMeta{}, nil, fmt.Errorf("failed to scan trades: %w", err)
	}
	return meta, records, nil
}

func (s *PebbleStore) ListRuns(limit int) ([]RunMeta, error) {
	prefix := []byte(prefixIndex)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	runs := []RunMeta{}
	for iter.Last(); iter.Valid() && (limit <= 0 || len(runs) < limit); iter.Prev() {
		meta, err := s.loadMeta(string(iter.Value()))
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

var _ RunStore = (*PebbleStore)(nil)
