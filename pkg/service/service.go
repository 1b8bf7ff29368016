// Package service runs one matching pass end to end: validate, book, match,
// record, archive, publish.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/matcher"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/orderbook"
	"github.com/uhyunpark/kwhmatch/pkg/ledger"
	"github.com/uhyunpark/kwhmatch/pkg/loader"
	"github.com/uhyunpark/kwhmatch/pkg/sink"
	"github.com/uhyunpark/kwhmatch/pkg/storage"
	"github.com/uhyunpark/kwhmatch/pkg/util"
)

// Result is the outcome of one run.
type Result struct {
	Key       string                 `json:"key"`
	RunID     *string                `json:"run_id"`
	Orders    int                    `json:"orders"`
	Ledger    *ledger.Ledger         `json:"-"`
	Bids      []core.Order           `json:"-"`
	Asks      []core.Order           `json:"-"`
	BidLevels []orderbook.PriceLevel `json:"-"`
	AskLevels []orderbook.PriceLevel `json:"-"`
	Summary   ledger.Summary         `json:"summary"`
	Digest    string                 `json:"digest"`
	Elapsed   time.Duration          `json:"-"`
}

// RunService owns no book state between runs; every Execute builds and
// discards its own book, so one service may be shared by concurrent callers.
type RunService struct {
	Logger *zap.SugaredLogger
	Clock  util.Clock
	Store  storage.RunStore // nil disables archiving
	Sink   sink.Sink        // nil disables publishing

	// OnTrades is called after a run that produced trades has been archived.
	OnTrades func(res *Result)
}

func New(logger *zap.SugaredLogger) *RunService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RunService{
		Logger: logger,
		Clock:  util.RealClock{},
		Sink:   sink.NopSink{},
	}
}

// Validate prepares a copy of every order and reports all invalid ones at
// once. The input slice is not modified.
func Validate(orders []core.Order) ([]core.Order, error) {
	prepared := make([]core.Order, len(orders))
	var errs []error
	for i, o := range orders {
		if err := o.Prepare(); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", i, err))
			continue
		}
		prepared[i] = o
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return prepared, nil
}

// Execute matches orders as one batch. No book is built unless every order
// is valid.
func (s *RunService) Execute(ctx context.Context, orders []core.Order, runID *string) (*Result, error) {
	start := time.Now()
	key := uuid.NewString()
	log := s.Logger.With("key", key)
	log.Infow("run_started", "orders", len(orders), "run_id", deref(runID))

	prepared, err := Validate(orders)
	if err != nil {
		log.Warnw("run_rejected", "err", err)
		return nil, err
	}

	book := orderbook.New(prepared)
	records := matcher.New(s.Clock).MatchBook(book, runID)

	l := ledger.New()
	l.Extend(records)
	digest, err := l.Digest()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Key:       key,
		RunID:     runID,
		Orders:    len(prepared),
		Ledger:    l,
		Bids:      book.Bids(),
		Asks:      book.Asks(),
		BidLevels: book.BidLevels(),
		AskLevels: book.AskLevels(),
		Summary:   l.Summary(),
		Digest:    digest,
	}
	log.Infow("run_matched",
		"trades", res.Summary.Trades,
		"total_kwh", res.Summary.TotalKwh.String(),
		"resting_bids", len(res.Bids),
		"resting_asks", len(res.Asks),
	)

	if s.Store != nil {
		meta := storage.RunMeta{
			Key:       key,
			RunID:     runID,
			CreatedAt: s.now(),
			Orders:    res.Orders,
			TotalKwh:  res.Summary.TotalKwh,
			Digest:    digest,
		}
		if err := s.Store.SaveRun(meta, records); err != nil {
			log.Errorw("run_archive_failed", "err", err)
			return nil, fmt.Errorf("failed to archive run: %w", err)
		}
		log.Infow("run_archived", "digest", digest)
	}

	if s.Sink != nil && len(records) > 0 {
		// best effort
		if err := s.Sink.Publish(ctx, records); err != nil {
			log.Warnw("run_publish_failed", "err", err)
		}
	}

	res.Elapsed = time.Since(start)
	if s.OnTrades != nil && len(records) > 0 {
		s.OnTrades(res)
	}
	return res, nil
}

// ExecuteFile loads an order file and executes it. Load errors abort before
// any book exists.
func (s *RunService) ExecuteFile(ctx context.Context, path string, runID *string) (*Result, error) {
	orders, err := loader.LoadOrders(path)
	if err != nil {
		s.Logger.Warnw("orders_load_failed", "path", path, "err", err)
		return nil, err
	}
	s.Logger.Infow("orders_loaded", "path", path, "orders", len(orders))
	return s.Execute(ctx, orders, runID)
}

func (s *RunService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
