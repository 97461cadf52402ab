package stream

import (
	"io"

	"github.com/ulikunitz/xz"
)

// Xz wraps an inner Stream with xz (de)compression via ulikunitz/xz —
// the only mature, pure-Go xz implementation; not grounded in the
// retrieval pack, see DESIGN.md.
type Xz struct {
	inner      Stream
	closeInner bool

	r *xz.Reader
	w *xz.Writer
}

// OpenXz wraps inner for reading a (possibly multi-stream) xz stream.
// xz.Reader transparently concatenates multiple xz streams on its own.
func OpenXz(inner Stream, closeInner bool) (*Xz, error) {
	r, err := xz.NewReader(inner)
	if err != nil {
		return nil, err
	}
	return &Xz{inner: inner, closeInner: closeInner, r: r}, nil
}

// CreateXz wraps inner for writing an xz stream.
func CreateXz(inner Stream, closeInner bool) (*Xz, error) {
	w, err := xz.NewWriter(inner)
	if err != nil {
		return nil, err
	}
	return &Xz{inner: inner, closeInner: closeInner, w: w}, nil
}

func (s *Xz) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, ErrUnsupported
	}
	n, err := s.r.Read(p)
	if err == io.EOF {
		return n, io.EOF
	}
	return n, err
}

func (s *Xz) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrUnsupported
	}
	return s.w.Write(p)
}

func (s *Xz) Finish() error {
	if s.w != nil {
		return s.w.Close()
	}
	return nil
}

func (s *Xz) Close() error {
	var err error
	if s.w != nil {
		err = s.w.Close()
	}
	if s.closeInner {
		if cerr := s.inner.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
