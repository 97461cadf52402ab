package mrt

import (
	"bytes"
	"net/netip"

	"github.com/netsentries/routescope/msg"
)

// BGP is the legacy "zebra" MRT type (RFC 6396 calls it deprecated):
// unlike BGP4MP, its payload has no BGP header at all, just the raw
// message body; the subtype alone says which BGP message type it is.
const BGP Type = 5

// Zebra MRT subtypes.
const (
	ZEBRA_BGP_NULL         Sub = 0
	ZEBRA_BGP_UPDATE       Sub = 1
	ZEBRA_BGP_PREF_UPDATE  Sub = 2
	ZEBRA_BGP_STATE_CHANGE Sub = 3
	ZEBRA_BGP_SYNC         Sub = 4
	ZEBRA_BGP_OPEN         Sub = 5
	ZEBRA_BGP_NOTIFY       Sub = 6
	ZEBRA_BGP_KEEPALIVE    Sub = 7
)

var zebraMsgType = map[Sub]msg.Type{
	ZEBRA_BGP_UPDATE:    msg.UPDATE,
	ZEBRA_BGP_OPEN:      msg.OPEN,
	ZEBRA_BGP_NOTIFY:    msg.NOTIFY,
	ZEBRA_BGP_KEEPALIVE: msg.KEEPALIVE,
}

// ZebraView is the borrowed, typed view of a legacy BGP (ZEBRA) record:
// source/destination AS and IPv4 address, plus the raw BGP message body
// (header-less on the wire).
type ZebraView struct {
	rec     *Record
	SrcAS   uint16
	SrcAddr netip.Addr
	DstAS   uint16
	DstAddr netip.Addr
	BGPType msg.Type
	Payload []byte
}

// Zebra verifies r is a legacy BGP (ZEBRA) record and returns its typed view.
func Zebra(r *Record) (*ZebraView, error) {
	if r.Type != BGP {
		return nil, ErrBadType
	}

	bt, ok := zebraMsgType[r.Sub]
	if !ok {
		return nil, ErrSub
	}

	buf := r.Data
	if len(buf) < 2+4+2+4 {
		return nil, ErrTruncated
	}
	v := &ZebraView{
		rec:     r,
		SrcAS:   msb.Uint16(buf[0:2]),
		SrcAddr: netip.AddrFrom4([4]byte(buf[2:6])),
		DstAS:   msb.Uint16(buf[6:8]),
		DstAddr: netip.AddrFrom4([4]byte(buf[8:12])),
		BGPType: bt,
		Payload: buf[12:],
	}
	return v, nil
}

var bgpMarker = bytes.Repeat([]byte{0xff}, 16)

// UnwrapZebra synthesizes a 19-byte BGP header around v.Payload (marker
// of all-ones, correct length, resolved BGP type) and parses the result
// as a BGP message, validating it against msg.MAXLEN (ZEBRA predates RFC
// 8654, so extended messages are never accepted here).
func UnwrapZebra(v *ZebraView) (*msg.Msg, error) {
	total := msg.HEADLEN + len(v.Payload)
	if total > msg.MAXLEN {
		return nil, ErrOversize
	}

	raw := make([]byte, 0, total)
	raw = append(raw, bgpMarker...)
	raw = msb.AppendUint16(raw, uint16(total))
	raw = append(raw, byte(v.BGPType))
	raw = append(raw, v.Payload...)

	m := msg.NewMsg()
	off, err := m.FromBytes(raw)
	if err != nil {
		return nil, err
	}
	if off != len(raw) {
		return nil, ErrLength
	}
	m.Own() // raw is a fresh slice we built, but Own() makes ownership explicit
	m.Time = v.rec.Time
	return m, nil
}
