package storage

import (
	"fmt"
)

// Key schema:
//
//   run:<key>                    → RunMeta
//   trade:<key>:<seq>            → MatchRecord, seq zero-padded to 20 digits
//   idx:<created>:<key>          → <key>, created is big-endian unix nanos

const (
	prefixRun   = "run:"
	prefixTrade = "trade:"
	prefixIndex = "idx:"
)

// runKey returns the key for run metadata
// Format: "run:{key}"
func runKey(key string) []byte {
	return []byte(prefixRun + key)
}

// tradeKey returns the key for the seq-th trade of a run
// Format: "trade:{key}:{seq}"
// Seq is zero-padded (20 digits) for lexicographic sorting
func tradeKey(key string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixTrade, key, seq))
}

// tradePrefix returns the prefix for all trades of a run
// Format: "trade:{key}:"
func tradePrefix(key string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixTrade, key))
}

// indexKey orders runs by creation time.
func indexKey(meta RunMeta) []byte {
	k := append([]byte(prefixIndex), timeKey(meta.CreatedAt)...)
	k = append(k, ':')
	return append(k, meta.Key...)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
