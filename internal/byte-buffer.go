package internal

import "sync"

// ReadBufferSize is the length of buffers handed out by ReserveReadBuffer.
const ReadBufferSize = 1 << 16

var bufPool = sync.Pool{New: func() interface{} {
	return make([]byte, ReadBufferSize)
}}

/*
ReserveReadBuffer uses a sync.Pool to either reuse or make a slice of
bytes of length ReadBufferSize, suitable for streaming reads.

Use ReleaseReadBuffer to return slices of bytes to the internal pool.
*/
func ReserveReadBuffer() []byte {
	return bufPool.Get().([]byte)[:ReadBufferSize]
}

// ReleaseReadBuffer returns the given slice to the pool that
// ReserveReadBuffer fetches from.
func ReleaseReadBuffer(buf []byte) {
	if cap(buf) >= ReadBufferSize {
		bufPool.Put(buf[:ReadBufferSize])
	}
}
