package util

import (
	"sync"

	"github.com/awnumar/memguard"
)

// BufferPool provides reusable byte buffers to reduce GC pressure
// during streaming operations. Buffers are securely zeroed before
// being returned to the pool, since they may have held plaintext
// or ciphertext body chunks.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with the specified buffer size.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Get retrieves a buffer from the pool.
// The buffer contents are undefined and should be overwritten.
func (p *BufferPool) Get() []byte {
	return *p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool after securely zeroing it.
// The buffer should not be used after calling Put.
func (p *BufferPool) Put(b []byte) {
	if len(b) != p.size {
		// Don't return mismatched buffers to avoid corruption
		return
	}
	memguard.WipeBytes(b)
	p.pool.Put(&b)
}

// Default buffer pool for streaming envelope bodies.
var StreamPool = NewBufferPool(StreamBufferSize)

// GetStreamBuffer gets a buffer sized for body streaming from the default pool.
func GetStreamBuffer() []byte {
	return StreamPool.Get()
}

// PutStreamBuffer returns a body-streaming buffer to the default pool.
func PutStreamBuffer(b []byte) {
	StreamPool.Put(b)
}
