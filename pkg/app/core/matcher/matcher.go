package matcher

import (
	"github.com/uhyunpark/kwhmatch/pkg/app/core"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/orderbook"
	"github.com/uhyunpark/kwhmatch/pkg/util"
)

// Matcher crosses the best bid against the best ask until the book no longer
// crosses. The trade price is always the ask's price: sells are treated as
// the passive side regardless of which order arrived first.
type Matcher struct {
	clock util.Clock
}

func New(clock util.Clock) *Matcher {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Matcher{clock: clock}
}

// MatchBook matches book with the wall clock as trade time.
func MatchBook(book *orderbook.OrderBook, runID *string) []core.MatchRecord {
	return New(nil).MatchBook(book, runID)
}

// MatchBook drains every cross from book and returns the trades in execution
// order. Each record gets its own copy of runID. Filled orders are removed from
// the book; partially filled heads stay with their reduced remainder.
//
// Each iteration fills at least one head completely, so the loop runs at most
// book.Len() times.
func (m *Matcher) MatchBook(book *orderbook.OrderBook, runID *string) []core.MatchRecord {
	var matches []core.MatchRecord

	for {
		bid, okB := book.BestBid()
		ask, okA := book.BestAsk()
		if !okB || !okA {
			break
		}
		if bid.Price.LessThan(ask.Price) {
			break
		}

		qty := bid.RemainingKwh
		if ask.RemainingKwh.LessThan(qty) {
			qty = ask.RemainingKwh
		}
		qty = core.RoundKwh(qty)
		if !qty.IsPositive() {
			break
		}

		matches = append(matches, core.MatchRecord{
			BuyOrderID:  bid.ID,
			SellOrderID: ask.ID,
			Kwh:         qty,
			Price:       ask.Price,
			Timestamp:   m.clock.Now(),
			RunID:       cloneRunID(runID),
		})

		bid.RemainingKwh = core.RoundKwh(bid.RemainingKwh.Sub(qty))
		ask.RemainingKwh = core.RoundKwh(ask.RemainingKwh.Sub(qty))

		if !bid.RemainingKwh.IsPositive() {
			book.PopBid()
		}
		if !ask.RemainingKwh.IsPositive() {
			book.PopAsk()
		}
	}

	return matches
}

func cloneRunID(runID *string) *string {
	if runID == nil {
		return nil
	}
	v := *runID
	return &v
}
