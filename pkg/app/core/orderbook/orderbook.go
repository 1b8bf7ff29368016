package orderbook

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Kwh    decimal.Decimal `json:"kwh"` // total remaining kwh at this price level
	Orders int             `json:"orders"`
}

// OrderBook holds the bids and asks of one batch auction. It is owned by a
// single matching pass and is not safe for concurrent use.
type OrderBook struct {
	bids bidQueue
	asks askQueue
}

// New partitions orders by side into price-time priority queues. Orders are
// copied, so the caller's slice is left as it was. An order whose
// RemainingKwh is zero starts with its full Kwh; every remainder is rounded
// to core.KwhPrecision places. Orders with a side other than core.Buy or
// core.Sell never reach either queue; callers validate before building.
func New(orders []core.Order) *OrderBook {
	ob := &OrderBook{}
	for i := range orders {
		o := orders[i]
		if o.RemainingKwh.IsZero() {
			o.RemainingKwh = o.Kwh
		}
		o.Normalize()

		e := entry{order: &o, seq: i}
		switch o.Side {
		case core.Buy:
			ob.bids = append(ob.bids, e)
		case core.Sell:
			ob.asks = append(ob.asks, e)
		}
	}
	heap.Init(&ob.bids)
	heap.Init(&ob.asks)
	return ob
}

// BestBid returns the highest priority bid. The returned order is owned by
// the book; callers other than the matcher should treat it as read-only.
func (ob *OrderBook) BestBid() (*core.Order, bool) {
	e, ok := ob.bids.Peek()
	return e.order, ok
}

// BestAsk returns the highest priority ask.
func (ob *OrderBook) BestAsk() (*core.Order, bool) {
	e, ok := ob.asks.Peek()
	return e.order, ok
}

// PopBid removes the best bid.
func (ob *OrderBook) PopBid() (*core.Order, bool) {
	if ob.bids.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&ob.bids).(entry).order, true
}

// PopAsk removes the best ask.
func (ob *OrderBook) PopAsk() (*core.Order, bool) {
	if ob.asks.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&ob.asks).(entry).order, true
}

func (ob *OrderBook) BidLen() int { return ob.bids.Len() }
func (ob *OrderBook) AskLen() int { return ob.asks.Len() }
func (ob *OrderBook) Len() int    { return ob.bids.Len() + ob.asks.Len() }

// Crossed reports whether the best bid is at or above the best ask.
func (ob *OrderBook) Crossed() bool {
	bid, okB := ob.BestBid()
	ask, okA := ob.BestAsk()
	return okB && okA && bid.Price.GreaterThanOrEqual(ask.Price)
}

// Bids returns copies of the resting bids in priority order (best first).
func (ob *OrderBook) Bids() []core.Order {
	q := make(bidQueue, len(ob.bids))
	copy(q, ob.bids)
	sort.Sort(q)
	return orders(q)
}

// Asks returns copies of the resting asks in priority order (best first).
func (ob *OrderBook) Asks() []core.Order {
	q := make(askQueue, len(ob.asks))
	copy(q, ob.asks)
	sort.Sort(q)
	return orders(q)
}

func orders(q []entry) []core.Order {
	out := make([]core.Order, len(q))
	for i, e := range q {
		out[i] = *e.order
	}
	return out
}

// BidLevels returns bid price levels sorted high to low (best bid first),
// aggregating remaining kwh across all orders at each price.
func (ob *OrderBook) BidLevels() []PriceLevel {
	return levels(ob.Bids())
}

// AskLevels returns ask price levels sorted low to high (best ask first).
func (ob *OrderBook) AskLevels() []PriceLevel {
	return levels(ob.Asks())
}

// levels folds orders that are already in priority order. Equal prices are
// adjacent in that order, so a single pass is enough.
func levels(sorted []core.Order) []PriceLevel {
	out := []PriceLevel{}
	for _, o := range sorted {
		n := len(out)
		if n > 0 && out[n-1].Price.Equal(o.Price) {
			out[n-1].Kwh = out[n-1].Kwh.Add(o.RemainingKwh)
			out[n-1].Orders++
			continue
		}
		out = append(out, PriceLevel{Price: o.Price, Kwh: o.RemainingKwh, Orders: 1})
	}
	return out
}
