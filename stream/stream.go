// Package stream provides a polymorphic stream abstraction that lets the
// MRT decoder read transparently through gzip, bzip2, xz, and raw
// file/memory sources.
//
// A Stream exposes five optional capabilities (read, write, seek, tell,
// finish/close) as separate embeddable interfaces, the same way the rest
// of this module composes narrow io interfaces (io.Reader, io.Writer,
// io.WriterTo) instead of one fat one. A concrete Stream only needs to
// implement the capabilities it actually supports; callers type-assert
// for the rest and treat a failed assertion as "operation unsupported".
package stream

import "io"

// Reader reads bytes from the stream.
type Reader interface {
	Read(p []byte) (n int, err error)
}

// Writer writes bytes to the stream.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// Seeker repositions the stream, matching io.Seeker.
type Seeker interface {
	Seek(offset int64, whence int) (int64, error)
}

// Teller reports the current stream offset.
type Teller interface {
	Tell() (int64, error)
}

// Finisher flushes any residual, buffered output (eg. a compressor's
// trailer). Streams that don't buffer output may leave this a no-op.
type Finisher interface {
	Finish() error
}

// Closer releases resources held by the stream.
type Closer interface {
	Close() error
}

// Stream is the baseline every concrete stream implements: read, write,
// and close. Seek, Tell, and Finish are optional capabilities; callers
// type-assert for them (eg. `if s, ok := st.(stream.Seeker); ok { ... }`)
// and treat a failed assertion as "operation unsupported", matching the
// missing-vtable-slot behavior of the source format this module reads.
type Stream interface {
	Reader
	Writer
	Closer
}

// NewReader adapts a Stream to a plain io.Reader.
func NewReader(s Reader) io.Reader {
	return s
}

// CanSeek reports whether s supports both Seek and Tell.
func CanSeek(s Stream) bool {
	_, ok1 := s.(Seeker)
	_, ok2 := s.(Teller)
	return ok1 && ok2
}
