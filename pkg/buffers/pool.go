package buffers

import (
	"sync"
)

const (
	// PageSize is the default receive buffer size; the driver never sends a
	// message larger than one page.
	PageSize = 4096

	// JumboFrameSize bounds the buffers used for dumps of large fib entries
	JumboFrameSize = 9728
)

// BufferPool maintains a pool of byte slices to reduce GC pressure
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with the specified buffer size
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
		size: size,
	}
}

// Size is the length of the buffers returned by Get.
func (p *BufferPool) Size() int { return p.size }

// Get retrieves a buffer from the pool
func (p *BufferPool) Get() []byte {
	buffer := *(p.pool.Get().(*[]byte))

	if cap(buffer) < p.size {
		buffer = make([]byte, p.size)
	} else {
		// callers only read the bytes they filled
		buffer = buffer[:p.size]
	}

	return buffer
}

// Put returns a buffer to the pool
func (p *BufferPool) Put(buffer []byte) {
	if buffer == nil || cap(buffer) < p.size {
		return
	}

	buffer = buffer[:p.size]
	p.pool.Put(&buffer)
}

var (
	// RxPool holds channel receive buffers.
	RxPool = NewBufferPool(PageSize)

	// TxPool holds encode buffers for the transmit path.
	TxPool = NewBufferPool(JumboFrameSize)
)
