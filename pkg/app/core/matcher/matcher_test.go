package matcher_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/matcher"
	"github.com/uhyunpark/kwhmatch/pkg/app/core/orderbook"
	"github.com/uhyunpark/kwhmatch/pkg/util"
)

var (
	t0    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock = util.FixedClock{T: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(id string, side core.Side, kwh, price string, at time.Duration) core.Order {
	return core.Order{
		ID:        id,
		TenantID:  "t",
		Side:      side,
		Kwh:       dec(kwh),
		Price:     dec(price),
		Timestamp: t0.Add(at),
	}
}

func strPtr(s string) *string { return &s }

func TestSimpleFill(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "5", "0.20", 0),
		order("s1", core.Sell, "3", "0.18", 0),
	})

	matches := matcher.New(clock).MatchBook(book, strPtr("run1"))

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "b1", m.BuyOrderID)
	assert.Equal(t, "s1", m.SellOrderID)
	assert.True(t, m.Kwh.Equal(dec("3")))
	assert.True(t, m.Price.Equal(dec("0.18")))
	assert.Equal(t, clock.T, m.Timestamp)
	require.NotNil(t, m.RunID)
	assert.Equal(t, "run1", *m.RunID)

	require.Equal(t, 1, book.BidLen())
	assert.Equal(t, 0, book.AskLen())
	bids := book.Bids()
	assert.Equal(t, "b1", bids[0].ID)
	assert.True(t, bids[0].RemainingKwh.Equal(dec("2")))
}

func TestNoCross(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "1", "0.10", 0),
		order("s1", core.Sell, "1", "0.20", 0),
	})

	matches := matcher.MatchBook(book, nil)

	assert.Empty(t, matches)
	require.Equal(t, 1, book.BidLen())
	require.Equal(t, 1, book.AskLen())
	assert.True(t, book.Bids()[0].RemainingKwh.Equal(dec("1")))
	assert.True(t, book.Asks()[0].RemainingKwh.Equal(dec("1")))
}

func TestEmptyAndOneSidedBooks(t *testing.T) {
	assert.Empty(t, matcher.MatchBook(orderbook.New(nil), nil))

	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "1", "0.50", 0),
		order("b2", core.Buy, "1", "0.60", 0),
	})
	assert.Empty(t, matcher.MatchBook(book, nil))
	assert.Equal(t, 2, book.BidLen())
}

func TestEqualPricesCross(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "2", "0.20", 0),
		order("s1", core.Sell, "2", "0.20", 0),
	})
	matches := matcher.New(clock).MatchBook(book, nil)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].RunID)
	assert.Equal(t, 0, book.Len())
}

func TestTradePriceIsAskPriceEvenWhenAskIsNewer(t *testing.T) {
	// the bid has rested for an hour; the newer, cheaper ask still sets the price
	book := orderbook.New([]core.Order{
		order("b-old", core.Buy, "1", "0.40", 0),
		order("s-new", core.Sell, "1", "0.25", time.Hour),
	})
	matches := matcher.New(clock).MatchBook(book, nil)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Price.Equal(dec("0.25")))
}

func TestWalksTheBookInPriorityOrder(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b-big", core.Buy, "10", "0.30", 0),
		order("s-cheap-late", core.Sell, "2", "0.10", 2*time.Second),
		order("s-cheap-early", core.Sell, "3", "0.10", time.Second),
		order("s-mid", core.Sell, "4", "0.20", 0),
		order("s-too-high", core.Sell, "5", "0.35", 0),
	})

	matches := matcher.New(clock).MatchBook(book, strPtr("walk"))

	require.Len(t, matches, 3)
	want := []struct {
		sell, kwh, price string
	}{
		{"s-cheap-early", "3", "0.10"},
		{"s-cheap-late", "2", "0.10"},
		{"s-mid", "4", "0.20"},
	}
	for i, w := range want {
		assert.Equal(t, "b-big", matches[i].BuyOrderID)
		assert.Equal(t, w.sell, matches[i].SellOrderID)
		assert.True(t, matches[i].Kwh.Equal(dec(w.kwh)), "trade %d kwh %s", i, matches[i].Kwh)
		assert.True(t, matches[i].Price.Equal(dec(w.price)), "trade %d price %s", i, matches[i].Price)
	}

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.RemainingKwh.Equal(dec("1")))
	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "s-too-high", ask.ID)
	assert.False(t, book.Crossed())
}

func TestFractionalPartialFills(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "0.0003", "1", 0),
		order("s1", core.Sell, "0.0001", "0.5", 0),
		order("s2", core.Sell, "0.00015", "0.6", 0), // rounds to 0.0002
	})
	matches := matcher.New(clock).MatchBook(book, nil)
	require.Len(t, matches, 2)
	assert.Equal(t, "0.0001", matches[0].Kwh.String())
	assert.Equal(t, "0.0002", matches[1].Kwh.String())
	assert.Equal(t, 0, book.Len())
}

func TestDegenerateZeroRemainderStops(t *testing.T) {
	// only an exactly zero remainder is defaulted to kwh; 0.00004 rounds to
	// zero and must not trade
	b := order("b1", core.Buy, "1", "0.30", 0)
	b.RemainingKwh = dec("0.00004")
	book := orderbook.New([]core.Order{b, order("s1", core.Sell, "1", "0.10", 0)})

	assert.Empty(t, matcher.New(clock).MatchBook(book, nil))
	assert.Equal(t, 2, book.Len())
}

func TestRunIDCopiedPerRecord(t *testing.T) {
	book := orderbook.New([]core.Order{
		order("b1", core.Buy, "2", "0.30", 0),
		order("s1", core.Sell, "1", "0.10", 0),
		order("s2", core.Sell, "1", "0.20", 0),
	})
	runID := strPtr("r-7")
	matches := matcher.New(clock).MatchBook(book, runID)
	require.Len(t, matches, 2)

	*matches[0].RunID = "mutated"
	assert.Equal(t, "r-7", *matches[1].RunID)
	assert.Equal(t, "r-7", *runID)
}
