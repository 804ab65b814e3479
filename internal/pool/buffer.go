// Package pool provides buffer reuse for streams.
//
// Writers hold one part-sized accumulation buffer each, and the io.Copy fast
// paths (ReaderFrom, WriterTo) need a scratch buffer per call. Both are
// pooled here so that long-running processes opening many streams do not
// allocate a fresh part buffer per stream.
package pool

import (
	"sync"
)

// ScratchBufferSize is the size of copy buffers (1MB).
const ScratchBufferSize = 1024 * 1024

// BufferPool manages reusable scratch buffers and part buffers keyed by capacity.
type BufferPool struct {
	scratch *sync.Pool

	mu    sync.Mutex
	parts map[int]*sync.Pool
}

// NewBufferPool creates a new, empty buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		scratch: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, ScratchBufferSize)
				return &buf
			},
		},
		parts: make(map[int]*sync.Pool),
	}
}

// GetScratch returns a buffer of length ScratchBufferSize.
// The caller is responsible for calling PutScratch to return the buffer to the pool.
func (bp *BufferPool) GetScratch() []byte {
	bufPtr := bp.scratch.Get().(*[]byte)
	return (*bufPtr)[:ScratchBufferSize]
}

// PutScratch returns a scratch buffer to the pool.
// Buffers of any other capacity are dropped.
func (bp *BufferPool) PutScratch(buf []byte) {
	if cap(buf) != ScratchBufferSize {
		return
	}
	buf = buf[:ScratchBufferSize]
	bp.scratch.Put(&buf)
}

// partPool returns the pool for buffers of the given capacity, creating it on first use.
func (bp *BufferPool) partPool(capacity int) *sync.Pool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	p, ok := bp.parts[capacity]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, capacity)
				return &buf
			},
		}
		bp.parts[capacity] = p
	}
	return p
}

// GetPart returns an empty buffer with exactly the requested capacity.
// The caller is responsible for calling PutPart to return the buffer to the pool.
func (bp *BufferPool) GetPart(capacity int) []byte {
	if capacity <= 0 {
		return nil
	}
	bufPtr := bp.partPool(capacity).Get().(*[]byte)
	// Reset length to 0 but keep capacity
	return (*bufPtr)[:0]
}

// PutPart returns a part buffer to the pool for its capacity.
// The buffer should not be used after calling PutPart.
func (bp *BufferPool) PutPart(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	bp.partPool(cap(buf)).Put(&buf)
}

// Global buffer pool instance for use throughout the module.
var globalBufferPool = NewBufferPool()

// GetScratchBuffer returns a scratch buffer from the global pool.
func GetScratchBuffer() []byte {
	return globalBufferPool.GetScratch()
}

// PutScratchBuffer returns a scratch buffer to the global pool.
func PutScratchBuffer(buf []byte) {
	globalBufferPool.PutScratch(buf)
}

// GetPartBuffer returns a part buffer from the global pool.
func GetPartBuffer(capacity int) []byte {
	return globalBufferPool.GetPart(capacity)
}

// PutPartBuffer returns a part buffer to the global pool.
func PutPartBuffer(buf []byte) {
	globalBufferPool.PutPart(buf)
}
