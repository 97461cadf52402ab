package mrt

import (
	"net/netip"

	"github.com/netsentries/routescope/af"
)

// Legacy TABLE_DUMP (v1) subtypes double as the AFI of the dumped table.
const (
	TD1_AFI_IPV4 Sub = 1
	TD1_AFI_IPV6 Sub = 2
)

// TableDumpV1Entry is one legacy TABLE_DUMP record, already fully
// decoded: unlike TABLE_DUMP2, v1 carries one prefix + one peer per MRT
// record, so there is no sub-iterator, just a flat view.
type TableDumpV1Entry struct {
	ViewNumber     uint16
	SeqNumber      uint16
	Prefix         netip.Prefix
	Status         byte
	OriginatedTime uint32
	PeerIP         netip.Addr
	PeerAS         uint32
	Attrs          []byte
}

// TableDumpV1 verifies r is a legacy TABLE_DUMP record and decodes it.
func TableDumpV1(r *Record) (*TableDumpV1Entry, error) {
	if r.Type != TABLE_DUMP {
		return nil, ErrBadType
	}

	var afi af.AFI
	switch r.Sub {
	case TD1_AFI_IPV4:
		afi = af.AFI_IPV4
	case TD1_AFI_IPV6:
		afi = af.AFI_IPV6
	default:
		return nil, ErrSub
	}

	buf := r.Data
	if len(buf) < 4 {
		return nil, ErrTruncated
	}
	e := &TableDumpV1Entry{
		ViewNumber: msb.Uint16(buf[0:2]),
		SeqNumber:  msb.Uint16(buf[2:4]),
	}
	buf = buf[4:]

	addrLen := 4
	if afi == af.AFI_IPV6 {
		addrLen = 16
	}
	if len(buf) < addrLen+1 {
		return nil, ErrTruncated
	}
	addr := decodeAddr(afi, buf[:addrLen])
	width := int(buf[addrLen])
	buf = buf[addrLen+1:]
	if afi == af.AFI_IPV4 && width > 32 || afi == af.AFI_IPV6 && width > 128 {
		return nil, ErrPfxWidth
	}
	e.Prefix = netip.PrefixFrom(addr, width)

	if len(buf) < 1+4+addrLen+2+2 {
		return nil, ErrTruncated
	}
	e.Status = buf[0]
	e.OriginatedTime = msb.Uint32(buf[1:5])
	buf = buf[5:]
	e.PeerIP = decodeAddr(afi, buf[:addrLen])
	buf = buf[addrLen:]
	e.PeerAS = uint32(msb.Uint16(buf[0:2]))
	buf = buf[2:]
	alen := int(msb.Uint16(buf[0:2]))
	buf = buf[2:]
	if len(buf) < alen {
		return nil, ErrTruncated
	}
	e.Attrs = buf[:alen]

	return e, nil
}

func decodeAddr(afi af.AFI, buf []byte) netip.Addr {
	if afi == af.AFI_IPV6 {
		return netip.AddrFrom16([16]byte(buf[:16]))
	}
	return netip.AddrFrom4([4]byte(buf[:4]))
}
