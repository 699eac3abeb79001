package ppp

import "sync"

// bufferPool hands out byte slices for Session read buffers. Go's
// sync.Pool does not parameterize on size, so buffers below the
// requested capacity are discarded rather than reused; this still
// amortizes allocation for the common case of many sessions sharing one
// configured MRU.
var bufferPool sync.Pool

func acquireBuffer(size int) []byte {
	if v, ok := bufferPool.Get().([]byte); ok && cap(v) >= size {
		return v[:size]
	}
	return make([]byte, size)
}

func releaseBuffer(buf []byte) {
	if buf == nil {
		return
	}
	bufferPool.Put(buf) //nolint:staticcheck // SA6002: []byte is the pool's element type by design.
}
