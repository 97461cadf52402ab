package stream

import (
	"bufio"
	"compress/bzip2"
	"io"
)

// Bzip2 wraps an inner Stream with bzip2 decompression using the standard
// library's reader — bzip2 has no write-capable or meaningfully faster
// third-party alternative in the retrieval pack, so the teacher's own
// choice (compress/bzip2) is kept here; see DESIGN.md.
//
// compress/bzip2.Reader doesn't multistream on its own: once it hits the
// end of one compressed member it returns io.EOF even if the underlying
// reader has more (concatenated) members queued up. Bzip2 re-constructs
// the decompressor whenever trailing bytes remain after an EOF, mirroring
// the teacher's own per-record retry-on-short-read loop.
type Bzip2 struct {
	inner      Stream
	closeInner bool
	br         *bufio.Reader
	r          io.Reader
}

// OpenBzip2 wraps inner for reading a (possibly multi-member) bzip2 stream.
func OpenBzip2(inner Stream, closeInner bool) *Bzip2 {
	br := bufio.NewReaderSize(inner, bufSize)
	return &Bzip2{inner: inner, closeInner: closeInner, br: br, r: bzip2.NewReader(br)}
}

func (s *Bzip2) Read(p []byte) (int, error) {
	for {
		n, err := s.r.Read(p)
		if err != io.EOF || n > 0 {
			return n, err
		}
		// re-initialize iff there is a concatenated member left
		if _, peekErr := s.br.Peek(1); peekErr != nil {
			return 0, io.EOF
		}
		s.r = bzip2.NewReader(s.br)
	}
}

func (s *Bzip2) Write(p []byte) (int, error) {
	return 0, ErrUnsupported // bzip2 writing is not supported by compress/bzip2
}

func (s *Bzip2) Finish() error { return nil }

func (s *Bzip2) Close() error {
	if s.closeInner {
		return s.inner.Close()
	}
	return nil
}
