package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

// MemStore keeps runs in memory. Used when no store directory is configured
// and in tests.
type MemStore struct {
	mu     sync.Mutex
	runs   map[string]RunMeta
	trades map[string][]core.MatchRecord
}

func NewMemStore() *MemStore {
	return &MemStore{
		runs:   make(map[string]RunMeta),
		trades: make(map[string][]core.MatchRecord),
	}
}

func (s *MemStore) SaveRun(meta RunMeta, records []core.MatchRecord) error {
	if err := checkKey(meta.Key); err != nil {
		return err
	}
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.Trades = len(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[meta.Key] = meta
	s.trades[meta.Key] = append([]core.MatchRecord(nil), records...)
	return nil
}

func (s *MemStore) LoadRun(key string) (RunMeta, []core.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.runs[key]
	if !ok {
		return RunMeta{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, key)
	}
	return meta, append([]core.MatchRecord{}, s.trades[key]...), nil
}

func (s *MemStore) ListRuns(limit int) ([]RunMeta, error) {
	s.mu.Lock()
	runs := make([]RunMeta, 0, len(s.runs))
	for _, m := range s.runs {
		runs = append(runs, m)
	}
	s.mu.Unlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].Key > runs[j].Key
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemStore) Close() error { return nil }

var _ RunStore = (*MemStore)(nil)
