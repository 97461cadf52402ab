package stream

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// bufSize is the bounded intermediate buffer size spec §4.1 calls for.
const bufSize = 32 * 1024

// Gzip wraps an inner Stream with gzip (de)compression, using
// klauspost/compress's drop-in, faster gzip implementation in place of
// the standard library's.
type Gzip struct {
	inner      Stream
	closeInner bool

	r *gzip.Reader // set when decompressing
	w *gzip.Writer // set when compressing

	buf []byte // bounded intermediate buffer
}

// OpenGzip wraps inner for reading a (possibly multi-member) gzip stream.
// closeInner controls whether Close also closes inner.
func OpenGzip(inner Stream, closeInner bool) (*Gzip, error) {
	r, err := gzip.NewReader(inner)
	if err != nil {
		return nil, err
	}
	r.Multistream(true) // concatenated archives read as one logical stream
	return &Gzip{inner: inner, closeInner: closeInner, r: r, buf: make([]byte, bufSize)}, nil
}

// CreateGzip wraps inner for writing a gzip stream.
func CreateGzip(inner Stream, closeInner bool) *Gzip {
	return &Gzip{inner: inner, closeInner: closeInner, w: gzip.NewWriter(inner), buf: make([]byte, bufSize)}
}

func (s *Gzip) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, ErrUnsupported
	}
	n, err := s.r.Read(p)
	if err == io.EOF {
		// concatenated archive or legitimate end: gzip.Reader with
		// Multistream(true) already folds concatenated members into one
		// logical EOF, so a plain EOF here is terminal.
		return n, io.EOF
	}
	return n, err
}

func (s *Gzip) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrUnsupported
	}
	return s.w.Write(p)
}

// Finish flushes residual compressed data (the gzip trailer) to inner.
func (s *Gzip) Finish() error {
	if s.w != nil {
		return s.w.Close() // gzip.Writer.Close writes the trailer, doesn't close inner
	}
	return nil
}

func (s *Gzip) Close() error {
	var err error
	if s.w != nil {
		err = s.w.Close()
	}
	if s.r != nil {
		err = s.r.Close()
	}
	if s.closeInner {
		if cerr := s.inner.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
