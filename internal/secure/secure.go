// Package secure provides memory handling for secret byte buffers: best-effort
// mlock and explicit zeroing so mnemonics, seeds, and derived keys do not
// linger in swap or get silently optimised out of a zeroisation pass.
package secure

import (
	"runtime"
	"sync"
)

// Bytes is a wrapper around a sensitive byte slice. It attempts to mlock the
// underlying memory and guarantees the bytes are zeroed exactly once, either
// by an explicit Destroy or by a finalizer safety net.
type Bytes struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// New allocates a zeroed secure buffer of the given size.
func New(size int) *Bytes {
	data := make([]byte, size)
	b := &Bytes{data: data, locked: mlock(data)}
	runtime.SetFinalizer(b, func(s *Bytes) { s.Destroy() })
	return b
}

// FromSlice copies data into a new secure buffer. The caller remains
// responsible for wiping its own copy.
func FromSlice(data []byte) *Bytes {
	b := New(len(data))
	copy(b.data, data)
	return b
}

// Bytes returns the underlying slice. Returns nil once destroyed.
func (b *Bytes) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the length of the held data, or 0 if destroyed.
func (b *Bytes) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// IsLocked reports whether mlock succeeded for this buffer.
func (b *Bytes) IsLocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy zeros and unlocks the memory. Safe to call multiple times.
func (b *Bytes) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}

	Wipe(b.data)

	if b.locked {
		munlock(b.data)
		b.locked = false
	}

	b.data = nil
	runtime.SetFinalizer(b, nil)
}

// Wipe overwrites data with zeros. runtime.KeepAlive pins the slice's
// backing array so the compiler cannot prove the writes are dead and elide
// them ahead of the caller dropping its last reference.
func Wipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}
