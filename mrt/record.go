// Package mrt decodes Multi-Threaded Routing Toolkit (RFC 6396/8050)
// archives: the MRT record framing, the nested BGP4MP/ZEBRA/TABLE_DUMP
// payloads, and the peer-index table those payloads reference.
package mrt

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/netsentries/routescope/binary"
)

var msb = binary.Msb

// Type is the MRT message type, see
// https://www.iana.org/assignments/mrt/mrt.xhtml
type Type uint16

const (
	INVALID Type = 0

	OSPF2    Type = 11
	OSPF3    Type = 48
	OSPF3_ET Type = 49

	TABLE_DUMP  Type = 12
	TABLE_DUMP2 Type = 13

	BGP4MP    Type = 16
	BGP4MP_ET Type = 17

	ISIS    Type = 32
	ISIS_ET Type = 33
)

// Sub is the MRT message subtype.
type Sub uint16

const (
	// HEADLEN is the plain (non extended-timestamp) MRT header length.
	HEADLEN = 12 // = timestamp(4) + type(2) + subtype(2) + length(4)

	// ETHEADLEN is the extended-timestamp MRT header length.
	ETHEADLEN = HEADLEN + 4

	// MAXLEN is the maximum MRT payload length.
	MAXLEN = math.MaxUint32
)

// IsET returns true iff t carries an Extended Timestamp (ie. a 4-byte
// microseconds field prepended to the payload).
func (t Type) IsET() bool {
	switch t {
	case BGP4MP_ET, OSPF3_ET, ISIS_ET:
		return true
	default:
		return false
	}
}

// IsBGP4MP returns true iff t is one of the BGP4MP family.
func (t Type) IsBGP4MP() bool {
	switch t {
	case BGP4MP, BGP4MP_ET:
		return true
	default:
		return false
	}
}

// Record owns a contiguous byte buffer holding one MRT record: the
// 12/16-byte header plus its declared payload. Callers allocate it with
// NewRecord and may reuse it across reads; Reset drops its contents and
// keeps the buffer for the next record. Neither Record nor Reader takes
// a pluggable allocator.
type Record struct {
	ref bool   // true iff Data references memory Record doesn't own
	buf []byte // internal buffer, reused across Reset() calls

	Time time.Time // record timestamp (extended-timestamp folded in)
	Type Type
	Sub  Sub
	Data []byte // payload, referenced or owned; header already stripped

	// peerCache lazily caches byte offsets into a PEER_INDEX_TABLE
	// payload (see peercache.go, C3). Installed once via CAS; readers
	// load it with Acquire semantics.
	peerCache atomic.Pointer[PeerIndexCache]
}

// NewRecord returns a new, empty Record.
func NewRecord() *Record {
	return new(Record)
}

// Reset clears r for reuse, dropping the peer-index cache (it is a
// cache over this record's own bytes and becomes invalid once the
// payload buffer is reused for different content).
func (r *Record) Reset() *Record {
	r.ref = false
	if cap(r.buf) < 1024*1024 {
		r.buf = r.buf[:0]
	} else {
		r.buf = nil
	}
	r.Time = time.Time{}
	r.Type = INVALID
	r.Sub = 0
	r.Data = nil
	r.peerCache.Store(nil)
	return r
}

// Len returns the total on-wire record length, including header.
func (r *Record) Len() int {
	if r.Data == nil {
		return 0
	}
	if r.Type.IsET() {
		return len(r.Data) + ETHEADLEN
	}
	return len(r.Data) + HEADLEN
}

// Own copies the referenced payload iff needed, making r the owner of
// r.Data.
func (r *Record) Own() *Record {
	if !r.ref {
		return r
	}
	r.ref = false
	if r.Data != nil {
		r.buf = append(r.buf[:0], r.Data...)
		r.Data = r.buf
	}
	return r
}

// FromBuf parses one MRT record from raw, referencing raw's memory
// without copying. Returns the number of bytes consumed from raw.
//
// A declared payload length raw can't satisfy is
// reported as ErrTruncated (callers drop the record and continue, per
// spec §4.2/§7) — NOT io.ErrUnexpectedEOF, which FromBuf reserves for
// the specific "not even a full header is present" boundary case a
// streaming Reader needs to distinguish from "header present but the
// file actually ends mid-record" (the latter is what a corrupted or
// truncated on-disk record itself contains, vs. the former, which just
// means "read more before calling FromBuf again").
func (r *Record) FromBuf(raw []byte) (off int, err error) {
	if len(raw) < HEADLEN {
		return 0, io.ErrUnexpectedEOF
	}

	ts := msb.Uint32(raw[0:4])
	typ := Type(msb.Uint16(raw[4:6]))
	sub := Sub(msb.Uint16(raw[6:8]))
	l := int(msb.Uint32(raw[8:12]))
	off = HEADLEN
	data := raw[off:]

	if len(data) < l {
		return off, ErrTruncated
	}

	r.Time = time.Unix(int64(ts), 0).UTC()
	r.Type = typ
	r.Sub = sub
	off += l

	if typ.IsET() {
		if l < 4 {
			return off, ErrTruncated
		}
		us := msb.Uint32(data[0:4])
		r.Time = r.Time.Add(time.Microsecond * time.Duration(us))
		data = data[4:l]
	} else {
		data = data[:l]
	}

	r.ref = true
	r.Data = data
	r.peerCache.Store(nil)
	return off, nil
}

// Read reads one MRT record from s, allocating/copying its payload.
// A clean EOF (zero bytes available before the header) is reported as
// io.EOF with no error; any other short read is fatal (ErrIO wrapping
// io.ErrUnexpectedEOF), per spec §4.2.
func Read(r *Record, s io.Reader) error {
	var hdr [ETHEADLEN]byte
	n, err := io.ReadFull(s, hdr[:HEADLEN])
	if n == 0 && err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return ioErr(err)
	}

	typ := Type(msb.Uint16(hdr[4:6]))
	sub := Sub(msb.Uint16(hdr[6:8]))
	ts := msb.Uint32(hdr[0:4])
	l := int(msb.Uint32(hdr[8:12]))

	extra := 0
	if typ.IsET() {
		extra = 4
		if _, err := io.ReadFull(s, hdr[HEADLEN:ETHEADLEN]); err != nil {
			return ioErr(err)
		}
	}
	if l < extra {
		return ErrTruncated
	}

	payload := make([]byte, l-extra)
	if len(payload) > 0 {
		if _, err := io.ReadFull(s, payload); err != nil {
			return ioErr(err)
		}
	}

	r.Time = time.Unix(int64(ts), 0).UTC()
	r.Type = typ
	r.Sub = sub
	if extra > 0 {
		us := msb.Uint32(hdr[HEADLEN:ETHEADLEN])
		r.Time = r.Time.Add(time.Microsecond * time.Duration(us))
	}
	r.ref = false
	r.Data = payload
	r.buf = payload
	r.peerCache.Store(nil)
	return nil
}

func ioErr(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}

// WriteTo marshals r to w, implementing io.WriterTo. Writing MRT files
// is out of spec.md's scope; WriteTo exists only so tests can round-trip
// synthetic records without a second, bespoke encoder.
func (r *Record) WriteTo(w io.Writer) (n int64, err error) {
	if r.Data == nil {
		return 0, ErrNoData
	}

	l := r.Len()
	if l < HEADLEN || l > MAXLEN {
		return n, ErrLength
	}

	timeUs := r.Time.UnixMicro()
	var k int
	k, err = msb.WriteUint32(w, uint32(timeUs/1e6))
	n += int64(k)
	if err != nil {
		return n, err
	}
	k, err = msb.WriteUint16(w, uint16(r.Type))
	n += int64(k)
	if err != nil {
		return n, err
	}
	k, err = msb.WriteUint16(w, uint16(r.Sub))
	n += int64(k)
	if err != nil {
		return n, err
	}

	declared := len(r.Data)
	if r.Type.IsET() {
		declared += 4
	}
	k, err = msb.WriteUint32(w, uint32(declared))
	n += int64(k)
	if err != nil {
		return n, err
	}

	if r.Type.IsET() {
		k, err = msb.WriteUint32(w, uint32(timeUs%1e6))
		n += int64(k)
		if err != nil {
			return n, err
		}
	}

	k, err = w.Write(r.Data)
	n += int64(k)
	return n, err
}
