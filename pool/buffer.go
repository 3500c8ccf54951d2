package pool

import "sync"

// Buffer is a bounded ring of image regions for one zone. Append evicts the
// oldest region once the capacity is reached and TakeOne hands out regions
// oldest-first, so the buffer always holds the most recently fetched material.
// All mutation happens under one mutex; no I/O is ever done while holding it.
type Buffer struct {
	mu       sync.Mutex
	regions  [][]byte
	capacity int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		regions:  make([][]byte, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a region, evicting the oldest one when the buffer is full.
func (b *Buffer) Append(region []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.regions) >= b.capacity {
		b.regions = b.regions[1:]
	}
	b.regions = append(b.regions, region)
}

// TakeOne removes and returns the oldest region. It never blocks; the second
// return is false when the buffer is empty and the caller should skip this
// zone's contribution.
func (b *Buffer) TakeOne() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.regions) == 0 {
		return nil, false
	}
	region := b.regions[0]
	b.regions = b.regions[1:]
	return region, true
}

// Len returns the current number of buffered regions.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.regions)
}
