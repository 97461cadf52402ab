package mrt

import (
	"net/netip"

	"github.com/netsentries/routescope/af"
	"github.com/netsentries/routescope/msg"
)

// BGP4MP subtypes, see https://www.iana.org/assignments/mrt/mrt.xhtml
const (
	BGP4MP_STATE_CHANGE     Sub = 0
	BGP4MP_MESSAGE          Sub = 1
	BGP4MP_MESSAGE_AS4      Sub = 4
	BGP4MP_STATE_CHANGE_AS4 Sub = 5
	BGP4MP_MESSAGE_LOCAL    Sub = 6
	BGP4MP_MESSAGE_AS4_LOCAL Sub = 7

	BGP4MP_MESSAGE_ADDPATH           Sub = 8
	BGP4MP_MESSAGE_AS4_ADDPATH       Sub = 9
	BGP4MP_MESSAGE_LOCAL_ADDPATH     Sub = 10
	BGP4MP_MESSAGE_AS4_LOCAL_ADDPATH Sub = 11
)

// Flags describes the feature bits UnwrapBgp4mp/UnwrapZebra resolve
// from the wire subtype, per spec §3/§4.2.
type Flags uint8

const (
	FlagExtMsg  Flags = 1 << iota // RFC 8654 extended BGP message length accepted
	FlagASN32                     // peer speaks 4-byte ASNs
	FlagAddPath                   // ADD_PATH is in use
)

// BgpState is a BGP4MP_STATE_CHANGE FSM state value (RFC 4271 §8.2.2).
type BgpState uint16

// Bgp4mpView is the borrowed, typed view of an MRT BGP4MP/BGP4MP_ET record.
type Bgp4mpView struct {
	rec       *Record
	PeerAS    uint32
	LocalAS   uint32
	Interface uint16
	PeerAddr  netip.Addr
	LocalAddr netip.Addr
	flags     Flags

	// valid iff Sub is one of the _STATE_CHANGE subtypes
	IsState  bool
	OldState BgpState
	NewState BgpState

	// valid iff Sub is one of the _MESSAGE subtypes: the raw BGP
	// message, including its 19-byte header, referencing the record's
	// buffer (unlike ZEBRA, BGP4MP carries the header on the wire).
	MsgData []byte
}

// Flags returns the ASN32/ADDPATH bits this view resolved from its subtype.
func (v *Bgp4mpView) Flags() Flags { return v.flags }

// Bgp4mp verifies r is a BGP4MP/BGP4MP_ET record and returns its typed view.
func Bgp4mp(r *Record) (*Bgp4mpView, error) {
	if !r.Type.IsBGP4MP() {
		return nil, ErrBadType
	}

	buf := r.Data
	v := &Bgp4mpView{rec: r}

	var afi af.AFI
	switch r.Sub {
	case BGP4MP_STATE_CHANGE, BGP4MP_MESSAGE, BGP4MP_MESSAGE_LOCAL,
		BGP4MP_MESSAGE_ADDPATH, BGP4MP_MESSAGE_LOCAL_ADDPATH:
		if len(buf) < 8 {
			return nil, ErrTruncated
		}
		v.PeerAS = uint32(msb.Uint16(buf[0:2]))
		v.LocalAS = uint32(msb.Uint16(buf[2:4]))
		v.Interface = msb.Uint16(buf[4:6])
		afi = af.AFI(msb.Uint16(buf[6:8]))
		buf = buf[8:]
	case BGP4MP_STATE_CHANGE_AS4, BGP4MP_MESSAGE_AS4, BGP4MP_MESSAGE_AS4_LOCAL,
		BGP4MP_MESSAGE_AS4_ADDPATH, BGP4MP_MESSAGE_AS4_LOCAL_ADDPATH:
		if len(buf) < 12 {
			return nil, ErrTruncated
		}
		v.PeerAS = msb.Uint32(buf[0:4])
		v.LocalAS = msb.Uint32(buf[4:8])
		v.Interface = msb.Uint16(buf[8:10])
		afi = af.AFI(msb.Uint16(buf[10:12]))
		buf = buf[12:]
		v.flags |= FlagASN32
	default:
		return nil, ErrSub
	}

	switch afi {
	case af.AFI_IPV4:
		if len(buf) < 2*4 {
			return nil, ErrTruncated
		}
		v.PeerAddr = netip.AddrFrom4([4]byte(buf[0:4]))
		v.LocalAddr = netip.AddrFrom4([4]byte(buf[4:8]))
		buf = buf[8:]
	case af.AFI_IPV6:
		if len(buf) < 2*16 {
			return nil, ErrTruncated
		}
		v.PeerAddr = netip.AddrFrom16([16]byte(buf[0:16]))
		v.LocalAddr = netip.AddrFrom16([16]byte(buf[16:32]))
		buf = buf[32:]
	default:
		return nil, ErrAF
	}

	switch r.Sub {
	case BGP4MP_STATE_CHANGE, BGP4MP_STATE_CHANGE_AS4:
		if len(buf) < 4 {
			return nil, ErrTruncated
		}
		v.IsState = true
		v.OldState = BgpState(msb.Uint16(buf[0:2]))
		v.NewState = BgpState(msb.Uint16(buf[2:4]))
	default:
		if r.Sub == BGP4MP_MESSAGE_ADDPATH || r.Sub == BGP4MP_MESSAGE_AS4_ADDPATH ||
			r.Sub == BGP4MP_MESSAGE_LOCAL_ADDPATH || r.Sub == BGP4MP_MESSAGE_AS4_LOCAL_ADDPATH {
			v.flags |= FlagAddPath
		}
		v.MsgData = buf
	}

	return v, nil
}

// UnwrapBgp4mp returns the BGP message carried by v, referencing the
// record's bytes directly — BGP4MP already embeds a real, fully-framed
// BGP message, so no header synthesis is needed (contrast UnwrapZebra).
// allowExtended selects whether RFC 8654 extended messages (up to
// msg.MAXLEN_EXT) are accepted, or only the plain msg.MAXLEN limit.
func UnwrapBgp4mp(v *Bgp4mpView, allowExtended bool) (*msg.Msg, Flags, error) {
	if v.IsState || v.MsgData == nil {
		return nil, 0, ErrBadType
	}

	limit := msg.MAXLEN
	if allowExtended {
		limit = msg.MAXLEN_EXT
		v.flags |= FlagExtMsg
	}
	if len(v.MsgData) > limit {
		return nil, v.flags, ErrOversize
	}

	m := msg.NewMsg()
	off, err := m.FromBytes(v.MsgData)
	if err != nil {
		return nil, v.flags, err
	}
	if off != len(v.MsgData) {
		return nil, v.flags, ErrLength
	}
	m.Time = v.rec.Time
	return m, v.flags, nil
}
