package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidKey  = errors.New("invalid run key")
)

// RunMeta describes an archived matching run.
type RunMeta struct {
	Key       string          `json:"key"`
	RunID     *string         `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Orders    int             `json:"orders"`
	Trades    int             `json:"trades"`
	TotalKwh  decimal.Decimal `json:"total_kwh"`
	Digest    string          `json:"digest"`
}

// RunStore archives the ledgers of completed runs. Book state is never stored.
type RunStore interface {
	SaveRun(meta RunMeta, records []core.MatchRecord) error
	LoadRun(key string) (RunMeta, []core.MatchRecord, error)
	// ListRuns returns at most limit runs, newest first. limit <= 0 means all.
	ListRuns(limit int) ([]RunMeta, error)
	Close() error
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
