package core

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a synthetic identifier: millisecond timestamp plus a short
// random suffix so rapid batch imports within the same tick stay distinct.
// Uniqueness is probabilistic, matching the documents this tool inherits.
func NewID() string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Degenerate fallback; nanosecond resolution keeps collisions unlikely.
		return ms + "-" + strconv.FormatInt(time.Now().UnixNano()%1_000_000, 10)
	}
	return ms + "-" + hex.EncodeToString(b[:])
}
