package pool

import "io"
import "sync"


//============================================= Buffer Pool


func NewBufferPool(bufferSize int) *BufferPool {
	pool := &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, bufferSize)
			return &buf
		},
	}

	return &BufferPool{ bufferSize: bufferSize, pool: pool }
}

// GetBuffer
//	Get a buffer of exactly the pool's buffer size.
func (p *BufferPool) GetBuffer() []byte {
	buf := p.pool.Get().(*[]byte)
	return (*buf)[:p.bufferSize]
}

// PutBuffer
//	Put a buffer back in the pool. Buffers of another capacity are dropped.
func (p *BufferPool) PutBuffer(buf []byte) {
	if cap(buf) != p.bufferSize { return }

	buf = buf[:cap(buf)]
	p.pool.Put(&buf)
}

// Copy
//	io.Copy through a pooled buffer.
func (p *BufferPool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := p.GetBuffer()
	defer p.PutBuffer(buf)

	return io.CopyBuffer(dst, src, buf)
}

// Write
//	Copy data into a pooled buffer one chunk at a time and write the buffer.
//	dst never holds a reference into data, so every read of data happens on the calling goroutine.
func (p *BufferPool) Write(dst io.Writer, data []byte) (int64, error) {
	buf := p.GetBuffer()
	defer p.PutBuffer(buf)

	total := int64(0)
	for len(data) > 0 {
		copied := copy(buf, data)

		n, writeErr := dst.Write(buf[:copied])
		total += int64(n)
		if writeErr != nil { return total, writeErr }

		data = data[n:]
	}

	return total, nil
}
