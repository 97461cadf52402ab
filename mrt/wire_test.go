package mrt

import (
	"bytes"
	"testing"

	"github.com/netsentries/routescope/af"
	"github.com/stretchr/testify/require"
)

func appendPeerEntry(buf []byte, as32, isv6 bool, bgpID [4]byte, addr []byte, asn uint32) []byte {
	var flags byte
	if isv6 {
		flags |= peerFlagIPv6
	}
	if as32 {
		flags |= peerFlagAS32
	}
	buf = append(buf, flags)
	buf = append(buf, bgpID[:]...)
	buf = append(buf, addr...)
	if as32 {
		buf = msb.AppendUint32(buf, asn)
	} else {
		buf = msb.AppendUint16(buf, uint16(asn))
	}
	return buf
}

func buildPeerIndexRecord(t *testing.T) *Record {
	t.Helper()

	var payload []byte
	payload = append(payload, 10, 0, 0, 1) // collector BGP ID
	payload = msb.AppendUint16(payload, 0) // view name len = 0
	payload = msb.AppendUint16(payload, 2) // peer count

	payload = appendPeerEntry(payload, true, false, [4]byte{1, 1, 1, 1}, []byte{10, 0, 0, 1}, 65001)
	payload = appendPeerEntry(payload, false, true, [4]byte{2, 2, 2, 2},
		[]byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, 64512)

	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(TABLE_DUMP2))
	raw = msb.AppendUint16(raw, uint16(PEER_INDEX_TABLE))
	raw = msb.AppendUint32(raw, uint32(len(payload)))
	raw = append(raw, payload...)

	r := NewRecord()
	off, err := r.FromBuf(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), off)
	return r
}

func TestPeerIndexTable(t *testing.T) {
	r := buildPeerIndexRecord(t)
	v, err := PeerIndexTable(r)
	require.NoError(t, err)
	require.Equal(t, 2, v.PeerCount)

	pe0, err := v.GetPeer(0)
	require.NoError(t, err)
	require.True(t, pe0.AS32)
	require.Equal(t, uint32(65001), pe0.ASN)
	require.True(t, pe0.Addr.Is4())

	pe1, err := v.GetPeer(1)
	require.NoError(t, err)
	require.False(t, pe1.AS32)
	require.Equal(t, uint32(64512), pe1.ASN)
	require.True(t, pe1.Addr.Is6())

	_, err = v.GetPeer(2)
	require.ErrorIs(t, err, ErrBadPeer)
}

func TestPeerIndexCacheMonotonic(t *testing.T) {
	r := buildPeerIndexRecord(t)
	v, err := PeerIndexTable(r)
	require.NoError(t, err)

	c := v.Cache()
	before := c.validCount.Load()
	_, err = c.Get(1)
	require.NoError(t, err)
	after := c.validCount.Load()
	require.GreaterOrEqual(t, after, before)

	// a fresh linear scan via the iterator must agree with the cache.
	it := v.Iter()
	var viaIter PeerEntry
	for i := 0; i <= 1; i++ {
		pe, _, ok, err := it.Next()
		require.NoError(t, err)
		require.True(t, ok)
		viaIter = pe
	}
	viaCache, err := v.GetPeer(1)
	require.NoError(t, err)
	require.Equal(t, viaIter, viaCache)
}

func TestRecordFromBufTruncated(t *testing.T) {
	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(TABLE_DUMP2))
	raw = msb.AppendUint16(raw, uint16(PEER_INDEX_TABLE))
	raw = msb.AppendUint32(raw, 100) // declares 100 bytes, none follow

	r := NewRecord()
	_, err := r.FromBuf(raw)
	require.Error(t, err)
}

func TestRIBEntriesZeroPeersThenBadPeerIndex(t *testing.T) {
	var payload []byte
	payload = msb.AppendUint32(payload, 1) // sequence
	payload = append(payload, 24)          // prefix width /24
	payload = append(payload, 10, 0, 1)    // 10.0.1.0/24
	payload = msb.AppendUint16(payload, 1) // entry count

	// one RIB entry referencing peer index 0 (no peers exist upstream)
	payload = msb.AppendUint16(payload, 0)  // peer index
	payload = msb.AppendUint32(payload, 0)  // originated time
	payload = msb.AppendUint16(payload, 0)  // attrs len

	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(TABLE_DUMP2))
	raw = msb.AppendUint16(raw, uint16(RIB_IPV4_UNICAST))
	raw = msb.AppendUint32(raw, uint32(len(payload)))
	raw = append(raw, payload...)

	r := NewRecord()
	_, err := r.FromBuf(raw)
	require.NoError(t, err)

	v, err := RIBEntries(r)
	require.NoError(t, err)
	require.Equal(t, af.AF_IPV4_UNICAST, v.AF)
	require.Equal(t, 24, v.Prefix.Bits())

	it := v.Iter()
	e, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint16(0), e.PeerIndex)

	// a zero-peer PEER_INDEX_TABLE must reject peer index 0.
	var pitPayload []byte
	pitPayload = append(pitPayload, 0, 0, 0, 0)
	pitPayload = msb.AppendUint16(pitPayload, 0)
	pitPayload = msb.AppendUint16(pitPayload, 0)
	pit := NewRecord()
	var pitRaw []byte
	pitRaw = msb.AppendUint32(pitRaw, 0)
	pitRaw = msb.AppendUint16(pitRaw, uint16(TABLE_DUMP2))
	pitRaw = msb.AppendUint16(pitRaw, uint16(PEER_INDEX_TABLE))
	pitRaw = msb.AppendUint32(pitRaw, uint32(len(pitPayload)))
	pitRaw = append(pitRaw, pitPayload...)
	_, err = pit.FromBuf(pitRaw)
	require.NoError(t, err)
	pitView, err := PeerIndexTable(pit)
	require.NoError(t, err)
	_, err = pitView.GetPeer(int(e.PeerIndex))
	require.ErrorIs(t, err, ErrBadPeer)
}

func TestBgp4mpUnwrapRoundTrip(t *testing.T) {
	bgpMsg := append(append([]byte{}, bgpMarker...), 0, 19, byte(4) /* KEEPALIVE-ish len placeholder */)
	// build a minimal, valid KEEPALIVE: marker + length(19) + type(4)
	bgpMsg = append([]byte{}, bgpMarker...)
	bgpMsg = msb.AppendUint16(bgpMsg, 19)
	bgpMsg = append(bgpMsg, 4) // KEEPALIVE

	var payload []byte
	payload = msb.AppendUint16(payload, 65001) // peer AS
	payload = msb.AppendUint16(payload, 65002) // local AS
	payload = msb.AppendUint16(payload, 1)     // interface
	payload = msb.AppendUint16(payload, uint16(af.AFI_IPV4))
	payload = append(payload, 10, 0, 0, 1) // peer addr
	payload = append(payload, 10, 0, 0, 2) // local addr
	payload = append(payload, bgpMsg...)

	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(BGP4MP))
	raw = msb.AppendUint16(raw, uint16(BGP4MP_MESSAGE))
	raw = msb.AppendUint32(raw, uint32(len(payload)))
	raw = append(raw, payload...)

	r := NewRecord()
	_, err := r.FromBuf(raw)
	require.NoError(t, err)

	v, err := Bgp4mp(r)
	require.NoError(t, err)
	require.False(t, v.IsState)
	require.True(t, bytes.Equal(v.MsgData, bgpMsg))

	m, flags, err := UnwrapBgp4mp(v, false)
	require.NoError(t, err)
	require.Equal(t, Flags(0), flags)
	require.Equal(t, byte(4), byte(m.Type))
}

func TestZebraUnwrap(t *testing.T) {
	var payload []byte
	payload = msb.AppendUint16(payload, 65001)
	payload = append(payload, 10, 0, 0, 1)
	payload = msb.AppendUint16(payload, 65002)
	payload = append(payload, 10, 0, 0, 2)
	// raw KEEPALIVE body is empty

	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(BGP))
	raw = msb.AppendUint16(raw, uint16(ZEBRA_BGP_KEEPALIVE))
	raw = msb.AppendUint32(raw, uint32(len(payload)))
	raw = append(raw, payload...)

	r := NewRecord()
	_, err := r.FromBuf(raw)
	require.NoError(t, err)

	v, err := Zebra(r)
	require.NoError(t, err)

	m, err := UnwrapZebra(v)
	require.NoError(t, err)
	require.Equal(t, byte(4), byte(m.Type)) // KEEPALIVE
	require.Len(t, m.Data, 0)
}
