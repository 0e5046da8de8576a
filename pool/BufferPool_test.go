package pool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


type countingWriter struct {
	bytes.Buffer
	writes []int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, len(p))
	return w.Buffer.Write(p)
}

func TestGetBufferSize(t *testing.T) {
	p := NewBufferPool(16)

	buf := p.GetBuffer()
	assert.Len(t, buf, 16)

	p.PutBuffer(buf[:3])
	assert.Len(t, p.GetBuffer(), 16)

	p.PutBuffer(make([]byte, 4))
	assert.Len(t, p.GetBuffer(), 16)
}

func TestCopy(t *testing.T) {
	p := NewBufferPool(8)
	src := strings.Repeat("quic", 100)

	var dst bytes.Buffer
	n, err := p.Copy(&dst, strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.Equal(t, src, dst.String())
}

func TestWriteChunks(t *testing.T) {
	p := NewBufferPool(4)
	dst := &countingWriter{}

	n, err := p.Write(dst, []byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, []int{ 4, 4, 2 }, dst.writes)
	assert.Equal(t, "0123456789", dst.String())

	n, err = p.Write(dst, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// aliasWriter: records whether a write was handed memory from src
type aliasWriter struct {
	src []byte
	aliased bool
}

func (w *aliasWriter) Write(p []byte) (int, error) {
	for idx := range p {
		for jdx := range w.src {
			if &p[idx] == &w.src[jdx] { w.aliased = true }
		}
	}

	return len(p), nil
}

func TestWriteNeverPassesSourceMemory(t *testing.T) {
	p := NewBufferPool(4)
	data := []byte("0123456789")
	dst := &aliasWriter{ src: data }

	n, err := p.Write(dst, data)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.False(t, dst.aliased)
}
