// Package core provides the recent send history ring.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultHistorySize bounds the send history the risk factors read.
const DefaultHistorySize = 50

// SendHistory is a bounded ring of the most recent dispatches. It feeds the
// speed, uniqueness, and timing risk factors and records only sends that
// actually went out.
type SendHistory struct {
	mu     sync.Mutex
	times  []time.Time
	hashes []string
	size   int
	next   int
	full   bool
}

// NewSendHistory constructs a history ring of the given capacity.
func NewSendHistory(size int) *SendHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &SendHistory{
		times:  make([]time.Time, size),
		hashes: make([]string, size),
		size:   size,
	}
}

// Record appends one dispatched send.
func (h *SendHistory) Record(at time.Time, content string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.times[h.next] = at
	h.hashes[h.next] = ContentHash(content)
	h.next = (h.next + 1) % h.size
	if h.next == 0 {
		h.full = true
	}
}

// Snapshot returns the recorded sends oldest first.
func (h *SendHistory) Snapshot() (times []time.Time, hashes []string) {
	if h == nil {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	count := h.next
	start := 0
	if h.full {
		count = h.size
		start = h.next
	}
	times = make([]time.Time, 0, count)
	hashes = make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx := (start + i) % h.size
		times = append(times, h.times[idx])
		hashes = append(hashes, h.hashes[idx])
	}
	return times, hashes
}

// ContentHash digests a message body for duplicate detection. Whitespace is
// collapsed so trivial padding does not defeat it.
func ContentHash(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}
