// Package ring implements the daemon's bounded FIFO byte buffer for PTY
// output accumulated while no client is attached (spec.md §4.4).
package ring

import "sync"

// DefaultMaxBytes is the default ring cap (2 MiB), per spec.md §3.
const DefaultMaxBytes = 2 * 1024 * 1024

// Ring is a thread-safe FIFO of byte chunks bounded by total size.
// Eviction drops whole oldest chunks until the running total is under
// the cap — chunks are never split or compacted (spec.md §4.4).
type Ring struct {
	mu       sync.Mutex
	chunks   [][]byte
	total    int
	maxBytes int
}

func New(maxBytes int) *Ring {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Ring{maxBytes: maxBytes}
}

// Push appends a chunk, evicting whole oldest chunks until under cap.
func (r *Ring) Push(data []byte) {
	if len(data) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
	r.total += len(chunk)

	for r.total > r.maxBytes && len(r.chunks) > 0 {
		r.total -= len(r.chunks[0])
		r.chunks = r.chunks[1:]
	}
}

// DrainTo appends every buffered chunk, in order, to dst and empties the
// ring. Returns the concatenated bytes.
func (r *Ring) DrainTo(dst []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.chunks {
		dst = append(dst, c...)
	}
	r.chunks = nil
	r.total = 0
	return dst
}

// IsEmpty reports whether the ring currently holds no bytes.
func (r *Ring) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total == 0
}

// Len returns the current total buffered byte count.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
