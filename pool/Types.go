package pool

import "sync"


// BufferPool: a pool to pre-allocate and reuse fixed size copy buffers
type BufferPool struct {
	bufferSize int
	pool *sync.Pool
}
