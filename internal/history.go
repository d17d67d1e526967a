package internal

import (
	"sync"
	"time"
)

// HistoryCapacity is the number of live-capture verdicts kept per session
const HistoryCapacity = 10

// HistoryEntry is one completed live capture. Entries are never modified
// after they are pushed.
type HistoryEntry struct {
	ID         uint64    `json:"id" yaml:"id"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
	Verdict    Verdict   `json:"verdict" yaml:"verdict"`
	Thumbnail  string    `json:"-" yaml:"-"`
}

// History is a fixed-capacity, newest-first log of verdicts
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry // ring storage, oldest overwritten first
	head     int            // index of the next write
	size     int
	nextID   uint64
	capacity int
}

// NewHistory creates a history holding at most capacity entries
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{
		entries:  make([]HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Push records a verdict as the newest entry, evicting the oldest when full.
// IDs increase monotonically for the lifetime of the History, across clears.
func (h *History) Push(capturedAt time.Time, v Verdict, thumbnail string) HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	entry := HistoryEntry{
		ID:         h.nextID,
		CapturedAt: capturedAt,
		Verdict:    v,
		Thumbnail:  thumbnail,
	}

	h.entries[h.head] = entry
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
	return entry
}

// Entries returns a newest-first copy of the log
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryEntry, 0, h.size)
	for i := 1; i <= h.size; i++ {
		idx := (h.head - i + h.capacity) % h.capacity
		out = append(out, h.entries[idx])
	}
	return out
}

// Len returns the number of entries held
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Clear drops every entry
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		h.entries[i] = HistoryEntry{}
	}
	h.head = 0
	h.size = 0
}
