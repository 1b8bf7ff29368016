package orderbook

import "github.com/uhyunpark/kwhmatch/pkg/app/core"

// entry is a resting order plus its position in the input, which breaks
// ties between orders with identical price and timestamp.
type entry struct {
	order *core.Order
	seq   int
}

// earlier reports whether a has time priority over b.
func earlier(a, b entry) bool {
	if !a.order.Timestamp.Equal(b.order.Timestamp) {
		return a.order.Timestamp.Before(b.order.Timestamp)
	}
	return a.seq < b.seq
}

// bidQueue implements heap.Interface for bids (highest price, then earliest, on top)
// Use container/heap to manipulate it (Init, Push, Pop)
type bidQueue []entry

func (q bidQueue) Len() int { return len(q) }
func (q bidQueue) Less(i, j int) bool {
	if c := q[i].order.Price.Cmp(q[j].order.Price); c != 0 {
		return c > 0
	}
	return earlier(q[i], q[j])
}
func (q bidQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *bidQueue) Push(x interface{}) {
	*q = append(*q, x.(entry))
}

func (q *bidQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	old[n-1] = entry{}
	*q = old[0 : n-1]
	return x
}

// Peek returns the best bid without removing it
func (q bidQueue) Peek() (entry, bool) {
	if len(q) == 0 {
		return entry{}, false
	}
	return q[0], true
}

// askQueue implements heap.Interface for asks (lowest price, then earliest, on top)
type askQueue []entry

func (q askQueue) Len() int { return len(q) }
func (q askQueue) Less(i, j int) bool {
	if c := q[i].order.Price.Cmp(q[j].order.Price); c != 0 {
		return c < 0
	}
	return earlier(q[i], q[j])
}
func (q askQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *askQueue) Push(x interface{}) {
	*q = append(*q, x.(entry))
}

func (q *askQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	old[n-1] = entry{}
	*q = old[0 : n-1]
	return x
}

// Peek returns the best ask without removing it
func (q askQueue) Peek() (entry, bool) {
	if len(q) == 0 {
		return entry{}, false
	}
	return q[0], true
}
