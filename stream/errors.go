package stream

import "errors"

var (
	// ErrUnsupported is returned when a capability (seek, tell, finish)
	// is requested on a stream that doesn't implement it.
	ErrUnsupported = errors.New("stream: operation unsupported")

	// ErrClosed is returned on use of a stream after Close.
	ErrClosed = errors.New("stream: use of closed stream")

	// ErrShortWrite is returned by a non-growing Memory stream when the
	// buffer runs out of space before all of p could be written.
	ErrShortWrite = errors.New("stream: short write")

	// ErrUnknownExt reports an unrecognized file extension. OpenPath does
	// not return it: a path with an unrecognized extension is read raw.
	ErrUnknownExt = errors.New("stream: unrecognized file extension")
)
