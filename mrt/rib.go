package mrt

import (
	"net/netip"

	"github.com/netsentries/routescope/af"
)

// TABLE_DUMP2 RIB subtypes, see
// https://www.iana.org/assignments/mrt/mrt.xhtml
const (
	RIB_IPV4_UNICAST   Sub = 2
	RIB_IPV4_MULTICAST Sub = 3
	RIB_IPV6_UNICAST   Sub = 4
	RIB_IPV6_MULTICAST Sub = 5
	RIB_GENERIC        Sub = 6

	RIB_IPV4_UNICAST_ADDPATH   Sub = 8
	RIB_IPV4_MULTICAST_ADDPATH Sub = 9
	RIB_IPV6_UNICAST_ADDPATH   Sub = 10
	RIB_IPV6_MULTICAST_ADDPATH Sub = 11
	RIB_GENERIC_ADDPATH        Sub = 12
)

// IsAddPath reports whether sub is one of the _ADDPATH RIB variants.
func (s Sub) IsAddPath() bool {
	switch s {
	case RIB_IPV4_UNICAST_ADDPATH, RIB_IPV4_MULTICAST_ADDPATH,
		RIB_IPV6_UNICAST_ADDPATH, RIB_IPV6_MULTICAST_ADDPATH, RIB_GENERIC_ADDPATH:
		return true
	default:
		return false
	}
}

// RibEntry is one entry of a TABLE_DUMP2 RIB record: the peer that
// announced the prefix, the time it was learned, optionally its AddPath
// path identifier, and its raw (unparsed) BGP path attributes.
type RibEntry struct {
	PeerIndex      uint16
	OriginatedTime uint32
	PathID         uint32 // valid iff AddPath
	AddPath        bool
	Attrs          []byte // raw attributes, referencing the record's buffer
}

// RIBView is the borrowed, typed view of a TABLE_DUMP2 RIB_* record.
type RIBView struct {
	rec      *Record
	Sub      Sub
	AF       af.AF // resolved from the subtype, or from the generic AFI/SAFI fields
	Sequence uint32
	Prefix   netip.Prefix
	Count    int
	entries  []byte
}

var ribSubAF = map[Sub]af.AF{
	RIB_IPV4_UNICAST:           af.AF_IPV4_UNICAST,
	RIB_IPV4_UNICAST_ADDPATH:   af.AF_IPV4_UNICAST,
	RIB_IPV4_MULTICAST:         af.AF_IPV4_MULTICAST,
	RIB_IPV4_MULTICAST_ADDPATH: af.AF_IPV4_MULTICAST,
	RIB_IPV6_UNICAST:           af.AF_IPV6_UNICAST,
	RIB_IPV6_UNICAST_ADDPATH:   af.AF_IPV6_UNICAST,
	RIB_IPV6_MULTICAST:         af.AF_IPV6_MULTICAST,
	RIB_IPV6_MULTICAST_ADDPATH: af.AF_IPV6_MULTICAST,
}

// RIBEntries verifies r is a TABLE_DUMP2 RIB_* record and returns its
// typed view, reading the common `sequence, [afi,safi], prefix,
// entryCount` header and referencing the entries region for iteration.
func RIBEntries(r *Record) (*RIBView, error) {
	if r.Type != TABLE_DUMP2 {
		return nil, ErrBadType
	}

	af_, generic := ribSubAF[r.Sub]
	if !generic && r.Sub != RIB_GENERIC && r.Sub != RIB_GENERIC_ADDPATH {
		return nil, ErrBadType
	}

	buf := r.Data
	if len(buf) < 4 {
		return nil, ErrTruncated
	}
	seq := msb.Uint32(buf[0:4])
	buf = buf[4:]

	if r.Sub == RIB_GENERIC || r.Sub == RIB_GENERIC_ADDPATH {
		if len(buf) < 3 {
			return nil, ErrTruncated
		}
		afi := af.AFI(msb.Uint16(buf[0:2]))
		safi := af.SAFI(buf[2])
		af_ = af.NewAF(afi, safi)
		buf = buf[3:]
	}

	if len(buf) < 1 {
		return nil, ErrTruncated
	}
	width := int(buf[0])
	nbytes := (width + 7) / 8
	buf = buf[1:]

	var pfx netip.Prefix
	switch af_.Afi() {
	case af.AFI_IPV4:
		if width > 32 {
			return nil, ErrPfxWidth
		}
		var a4 [4]byte
		if len(buf) < nbytes {
			return nil, ErrTruncated
		}
		copy(a4[:], buf[:nbytes])
		pfx = netip.PrefixFrom(netip.AddrFrom4(a4), width)
	case af.AFI_IPV6:
		if width > 128 {
			return nil, ErrPfxWidth
		}
		var a16 [16]byte
		if len(buf) < nbytes {
			return nil, ErrTruncated
		}
		copy(a16[:], buf[:nbytes])
		pfx = netip.PrefixFrom(netip.AddrFrom16(a16), width)
	default:
		return nil, ErrAF
	}
	buf = buf[nbytes:]

	if len(buf) < 2 {
		return nil, ErrTruncated
	}
	count := int(msb.Uint16(buf[0:2]))
	buf = buf[2:]

	return &RIBView{
		rec: r, Sub: r.Sub, AF: af_, Sequence: seq,
		Prefix: pfx, Count: count, entries: buf,
	}, nil
}

// RIBEntryIter is the {ptr, nextIdx, count} cursor over a RIBView's
// entries; the end of ptr is the region's limit.
type RIBEntryIter struct {
	ptr     []byte
	nextIdx int
	count   int
	addPath bool
}

// Iter returns a fresh iterator over v's RIB entries.
func (v *RIBView) Iter() *RIBEntryIter {
	return &RIBEntryIter{ptr: v.entries, count: v.Count, addPath: v.Sub.IsAddPath()}
}

// Next returns the next RibEntry, or ok=false at end of iteration.
func (it *RIBEntryIter) Next() (e RibEntry, ok bool, err error) {
	if it.nextIdx >= it.count {
		if len(it.ptr) != 0 {
			return e, false, ErrBadCount
		}
		return e, false, nil
	}

	need := 2 + 4 + 2
	if it.addPath {
		need += 4
	}
	if len(it.ptr) < need {
		return e, false, ErrTruncated
	}

	e.PeerIndex = msb.Uint16(it.ptr[0:2])
	e.OriginatedTime = msb.Uint32(it.ptr[2:6])
	off := 6
	if it.addPath {
		e.PathID = msb.Uint32(it.ptr[off : off+4])
		e.AddPath = true
		off += 4
	}
	alen := int(msb.Uint16(it.ptr[off : off+2]))
	off += 2
	if len(it.ptr) < off+alen {
		return e, false, ErrTruncated
	}
	e.Attrs = it.ptr[off : off+alen]
	it.ptr = it.ptr[off+alen:]
	it.nextIdx++
	return e, true, nil
}
