package mrt

import (
	"fmt"
	"net/netip"
)

const (
	PEER_INDEX_TABLE Sub = 1 // TABLE_DUMP2 subtype

	peerFlagIPv6  = 0x01
	peerFlagAS32  = 0x02
	peerEntryHead = 1 + 4 // flags + bgp id
)

// PeerEntry is one entry of a PEER_INDEX_TABLE: flags byte, 4-byte BGP
// identifier, address (4 or 16 bytes depending on the IPv6 flag), ASN (2
// or 4 bytes depending on the AS32 flag).
type PeerEntry struct {
	BgpID netip.Addr // collector-assigned peer identifier (always IPv4-shaped)
	Addr  netip.Addr
	ASN   uint32
	AS32  bool // true iff this entry encoded ASN in 32 bits
}

// Size returns the on-wire size of this entry, computed solely from its
// own fields (flags) — used both when decoding and when the peer-index
// cache needs to recompute an entry's length independently.
func (pe PeerEntry) Size() int {
	n := peerEntryHead
	if pe.Addr.Is6() {
		n += 16
	} else {
		n += 4
	}
	if pe.AS32 {
		n += 4
	} else {
		n += 2
	}
	return n
}

func decodePeerEntry(buf []byte) (pe PeerEntry, size int, err error) {
	if len(buf) < 1 {
		return pe, 0, ErrTruncated
	}
	flags := buf[0]
	pe.AS32 = flags&peerFlagAS32 != 0
	isv6 := flags&peerFlagIPv6 != 0

	need := peerEntryHead
	if isv6 {
		need += 16
	} else {
		need += 4
	}
	if pe.AS32 {
		need += 4
	} else {
		need += 2
	}
	if len(buf) < need {
		return pe, 0, ErrTruncated
	}

	pe.BgpID = netip.AddrFrom4([4]byte(buf[1:5]))
	off := 5
	if isv6 {
		pe.Addr = netip.AddrFrom16([16]byte(buf[off : off+16]))
		off += 16
	} else {
		pe.Addr = netip.AddrFrom4([4]byte(buf[off : off+4]))
		off += 4
	}
	if pe.AS32 {
		pe.ASN = msb.Uint32(buf[off : off+4])
		off += 4
	} else {
		pe.ASN = uint32(msb.Uint16(buf[off : off+2]))
		off += 2
	}
	return pe, off, nil
}

// PeerIndexView is the borrowed, typed view of a TABLE_DUMP2
// PEER_INDEX_TABLE record: fixed header fields plus the peer-entry
// region, accessed via PeerIter or the accelerated GetPeer/Cache.
type PeerIndexView struct {
	rec      *Record
	Collector netip.Addr
	ViewName  string
	PeerCount int
	peers     []byte // the peer-entry region, start to end of record data
}

// PeerIndexTable verifies r is a TABLE_DUMP2/PEER_INDEX_TABLE record and
// returns its typed view. Per spec §4.2, every length-dependent field is
// checked incrementally; any violation yields ErrTruncated (wrong
// type/subtype yields ErrBadType).
func PeerIndexTable(r *Record) (*PeerIndexView, error) {
	if r.Type != TABLE_DUMP2 || r.Sub != PEER_INDEX_TABLE {
		return nil, fmt.Errorf("%w: want TABLE_DUMP2/PEER_INDEX_TABLE", ErrBadType)
	}

	buf := r.Data
	if len(buf) < 4+2 {
		return nil, ErrTruncated
	}
	collector := netip.AddrFrom4([4]byte(buf[0:4]))
	nameLen := int(msb.Uint16(buf[4:6]))
	buf = buf[6:]
	if len(buf) < nameLen+2 {
		return nil, ErrTruncated
	}
	name := string(buf[:nameLen])
	buf = buf[nameLen:]
	peerCount := int(msb.Uint16(buf[0:2]))
	buf = buf[2:]

	return &PeerIndexView{
		rec:       r,
		Collector: collector,
		ViewName:  name,
		PeerCount: peerCount,
		peers:     buf,
	}, nil
}

// PeerIter is the {base, lim, ptr, nextIdx, count} cursor shape spec
// §4.2 specifies for every MRT sub-element iterator.
type PeerIter struct {
	base    []byte
	ptr     []byte
	nextIdx int
	count   int
}

// Iter returns a fresh iterator over v's peer entries.
func (v *PeerIndexView) Iter() *PeerIter {
	return &PeerIter{base: v.peers, ptr: v.peers, count: v.PeerCount}
}

// Next returns the next peer entry and its offset from the start of the
// peer-entry region, or ok=false at end of iteration. err is non-nil on
// a mid-stream truncation or a final count mismatch.
func (it *PeerIter) Next() (pe PeerEntry, offset int, ok bool, err error) {
	if it.nextIdx >= it.count {
		if len(it.ptr) != 0 {
			return pe, 0, false, ErrBadCount
		}
		return pe, 0, false, nil
	}

	offset = len(it.base) - len(it.ptr)
	pe, size, err := decodePeerEntry(it.ptr)
	if err != nil {
		return pe, offset, false, err
	}
	it.ptr = it.ptr[size:]
	it.nextIdx++

	if it.nextIdx == it.count && len(it.ptr) != 0 {
		// more bytes than the declared count accounted for: still a
		// count mismatch, but the entry just read is valid and is
		// returned with ok=true; the caller discovers ErrBadCount on
		// the *next* Next() call, matching spec's "terminal success
		// reported when nextIdx==count && ptr==lim" condition.
	}

	return pe, offset, true, nil
}

// Done reports whether the iterator completed exactly on the record's
// declared peer count (the well-formed terminal condition).
func (it *PeerIter) Done() bool {
	return it.nextIdx == it.count && len(it.ptr) == 0
}
