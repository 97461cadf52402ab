package mrt

import (
	"errors"
	"io"
)

// Reader streams MRT records one at a time from an underlying
// io.Reader — typically a stream.Stream, though Reader only needs plain
// io.Reader so tests and tools can also hand it a bytes.Reader directly.
type Reader struct {
	Options ReaderOptions
	src     io.Reader
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader, opts ReaderOptions) *Reader {
	return &Reader{Options: opts, src: src}
}

// Next decodes the next record from the stream into r (which is reset
// first). Returns io.EOF when the input is exhausted cleanly.
func (rd *Reader) Next(r *Record) error {
	r.Reset()
	return Read(r, rd.src)
}

// RecordFunc is called once per successfully decoded record. Returning
// false stops iteration early (without error).
type RecordFunc func(r *Record) (cont bool)

// Each reads every record from the stream, invoking fn for each one that
// decodes successfully. Per spec §4.2/§7 failure semantics: a per-record
// truncation is logged and skipped, iteration continues with the next
// record; any other I/O error aborts the whole file and is returned.
func (rd *Reader) Each(fn RecordFunc) error {
	log := rd.Options.logger()
	r := NewRecord()

	for {
		err := rd.Next(r)
		switch {
		case err == nil:
			if !fn(r) {
				return nil
			}
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrTruncated):
			log.Warn().Err(err).Msg("dropping truncated MRT record")
			continue
		default:
			log.Error().Err(err).Msg("MRT read failed, aborting file")
			return err
		}
	}
}
