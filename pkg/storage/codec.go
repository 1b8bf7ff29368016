package storage

import (
	"encoding/binary"
	"time"
)

// timeKey encodes t so that byte order matches time order for instants
// after the unix epoch.
func timeKey(t time.Time) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(t.UnixNano()))
	return k[:]
}
