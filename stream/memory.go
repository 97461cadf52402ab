package stream

import "io"

// Memory is a growable in-memory byte buffer implementing Stream plus
// Seek/Tell. Following spec, each write keeps the buffer NUL-terminated
// one byte past the written region, a convenience for text payloads
// (JSON dumps, disassembly listings) read back as C strings elsewhere in
// the toolkit's ecosystem. The NUL byte lives past `size` and is never
// counted as part of the stream's logical contents.
//
// The owned flag controls Close: a buffer supplied by the caller via
// NewMemory is never freed/reset on Close, whereas a buffer grown
// internally (NewMemoryBuffer, or growth past the caller's capacity) is
// released.
type Memory struct {
	buf    []byte // backing array; buf[:size] is the content, NUL at buf[size] when cap allows
	size   int    // logical content length
	pos    int    // read/write cursor
	owned  bool   // true iff buf may be reallocated/freed by us
	growth bool   // true iff Write may grow buf past its initial capacity
	closed bool
}

// NewMemory wraps caller-owned buf: Write may grow it (reallocating, in
// which case ownership of the new array moves to us) but Close never
// touches the original buf.
func NewMemory(buf []byte) *Memory {
	return &Memory{buf: buf, size: len(buf), growth: true}
}

// NewMemoryNonGrowing wraps buf such that Write never reallocates: once
// len(buf) bytes have been written, further writes return ErrShortWrite
// with a partial count, mirroring spec's "write may be declared
// non-growing" mode.
func NewMemoryNonGrowing(buf []byte) *Memory {
	return &Memory{buf: buf, size: len(buf), growth: false}
}

// NewMemoryBuffer returns an empty, internally-owned growable buffer.
func NewMemoryBuffer() *Memory {
	return &Memory{owned: true, growth: true}
}

func (s *Memory) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.pos >= s.size {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.pos:s.size])
	s.pos += n
	return n, nil
}

func (s *Memory) ensureCap(need int) {
	if cap(s.buf) >= need {
		return
	}
	grown := make([]byte, need, need*2+64)
	copy(grown, s.buf[:s.size])
	s.buf = grown
	s.owned = true
}

func (s *Memory) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	n := len(p)
	end := s.pos + n
	if end > cap(s.buf) {
		if !s.growth {
			avail := cap(s.buf) - s.pos
			if avail < 0 {
				avail = 0
			}
			n = avail
			end = s.pos + n
		} else {
			s.ensureCap(end + 1) // +1 for the trailing NUL
		}
	}

	s.buf = s.buf[:cap(s.buf)]
	copy(s.buf[s.pos:end], p[:n])
	s.pos = end
	if end > s.size {
		s.size = end
	}
	if s.size+1 <= cap(s.buf) {
		s.buf[s.size] = 0 // NUL one byte past the written region
	}
	s.buf = s.buf[:s.size]

	if n < len(p) {
		return n, ErrShortWrite
	}
	return n, nil
}

func (s *Memory) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(s.size)
	}
	np := base + offset
	if np < 0 || np > int64(s.size) {
		return 0, ErrUnsupported
	}
	s.pos = int(np)
	return np, nil
}

func (s *Memory) Tell() (int64, error) {
	return int64(s.pos), nil
}

// Finish is a no-op: Memory never buffers beyond what Write already applied.
func (s *Memory) Finish() error { return nil }

// Close releases the backing buffer iff this Memory owns it.
func (s *Memory) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		s.buf = nil
		s.size = 0
	}
	return nil
}

// Bytes returns the written region (excluding the trailing NUL).
func (s *Memory) Bytes() []byte {
	return s.buf[:s.size:s.size]
}

// Len returns the number of bytes written so far.
func (s *Memory) Len() int {
	return s.size
}
