package main

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/netsentries/routescope/af"
	"github.com/netsentries/routescope/binary"
	"github.com/netsentries/routescope/compile"
	"github.com/netsentries/routescope/mrt"
	"github.com/netsentries/routescope/vm"
	"github.com/stretchr/testify/require"
)

var msb = binary.Msb

var bgpMarker = bytes.Repeat([]byte{0xff}, 16)

func bgpMsgBytes(typ byte, body []byte) []byte {
	var m []byte
	m = append(m, bgpMarker...)
	m = msb.AppendUint16(m, uint16(19+len(body)))
	m = append(m, typ)
	return append(m, body...)
}

// bgpUpdateAnnouncing builds a minimal legacy (non-MP) IPv4 UPDATE
// announcing a single prefix, no path attributes.
func bgpUpdateAnnouncing(prefixLen byte, prefixBytes []byte) []byte {
	var body []byte
	body = msb.AppendUint16(body, 0) // withdrawn routes length
	body = msb.AppendUint16(body, 0) // total path attribute length
	body = append(body, prefixLen)
	body = append(body, prefixBytes...)
	return bgpMsgBytes(2, body) // UPDATE = 2
}

// bgpUpdateWithAspath builds a minimal legacy UPDATE carrying a single
// AS_SEQUENCE AS_PATH attribute (2-byte ASNs, no AS4 capability) and no
// NLRI, for testing the -aspath regex leaf.
func bgpUpdateWithAspath(asns ...uint16) []byte {
	var seg []byte
	seg = append(seg, 2) // AS_SEQUENCE
	seg = append(seg, byte(len(asns)))
	for _, asn := range asns {
		seg = msb.AppendUint16(seg, asn)
	}

	var attr []byte
	attr = append(attr, 0x40) // flags: transitive
	attr = append(attr, 2)    // ATTR_ASPATH
	attr = append(attr, byte(len(seg)))
	attr = append(attr, seg...)

	var body []byte
	body = msb.AppendUint16(body, 0) // withdrawn routes length
	body = msb.AppendUint16(body, uint16(len(attr)))
	body = append(body, attr...)
	return bgpMsgBytes(2, body) // UPDATE = 2
}

// bgpOpen builds a minimal valid BGP OPEN message (no optional parameters).
func bgpOpen() []byte {
	var body []byte
	body = append(body, 4)          // version
	body = msb.AppendUint16(body, 65001)
	body = msb.AppendUint16(body, 90) // hold time
	body = append(body, 1, 1, 1, 1)   // router id
	body = append(body, 0)            // optional parameters length
	return bgpMsgBytes(1, body) // OPEN = 1
}

func bgp4mpRecord(t *testing.T, msgType byte, body []byte) []byte {
	t.Helper()
	var bgp []byte
	if body != nil {
		bgp = append(bgp, body...)
	} else {
		bgp = bgpMsgBytes(msgType, nil)
	}

	var p []byte
	p = msb.AppendUint16(p, 65001) // peer AS
	p = msb.AppendUint16(p, 65002) // local AS
	p = msb.AppendUint16(p, 1)     // interface
	p = msb.AppendUint16(p, uint16(af.AFI_IPV4))
	p = append(p, 10, 0, 0, 1) // peer addr
	p = append(p, 10, 0, 0, 2) // local addr
	p = append(p, bgp...)

	var raw []byte
	raw = msb.AppendUint32(raw, 0)
	raw = msb.AppendUint16(raw, uint16(mrt.BGP4MP))
	raw = msb.AppendUint16(raw, uint16(mrt.BGP4MP_MESSAGE))
	raw = msb.AppendUint32(raw, uint32(len(p)))
	return append(raw, p...)
}

func TestSplitArgs(t *testing.T) {
	files, expr := splitArgs([]string{"a.mrt", "b.mrt", "-type", "UPDATE"})
	require.Equal(t, []string{"a.mrt", "b.mrt"}, files)
	require.Equal(t, []string{"-type", "UPDATE"}, expr)

	files, expr = splitArgs([]string{"-type", "UPDATE"})
	require.Empty(t, files)
	require.Equal(t, []string{"-type", "UPDATE"}, expr)

	files, expr = splitArgs([]string{"a.mrt"})
	require.Equal(t, []string{"a.mrt"}, files)
	require.Empty(t, expr)
}

func TestGrepFileFilterByType(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bgp4mpRecord(t, 1, bgpOpen())) // OPEN
	buf.Write(bgp4mpRecord(t, 2, bgpUpdateAnnouncing(24, []byte{10, 1, 2})))
	buf.Write(bgp4mpRecord(t, 4, nil)) // KEEPALIVE
	buf.Write(bgp4mpRecord(t, 2, bgpUpdateAnnouncing(24, []byte{192, 0, 2})))

	prog, err := compile.Compile([]string{"-type", "UPDATE"})
	require.NoError(t, err)

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	errs, fatal := grepFile(bytes.NewReader(buf.Bytes()), prog, vm.NewEval(), w)
	w.Flush()
	require.False(t, fatal)
	require.Equal(t, 0, errs)

	lines := bytes.Count(out.Bytes(), []byte("\n"))
	require.Equal(t, 2, lines, "only the two UPDATE messages should pass")
}

func TestGrepFilePrefixSubnetFilter(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bgp4mpRecord(t, 2, bgpUpdateAnnouncing(24, []byte{10, 1, 2})))   // 10.1.2.0/24
	buf.Write(bgp4mpRecord(t, 2, bgpUpdateAnnouncing(24, []byte{192, 0, 2}))) // 192.0.2.0/24

	prog, err := compile.Compile([]string{"-subnet", "10.0.0.0/8"})
	require.NoError(t, err)

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	errs, fatal := grepFile(bytes.NewReader(buf.Bytes()), prog, vm.NewEval(), w)
	w.Flush()
	require.False(t, fatal)
	require.Equal(t, 0, errs)

	lines := bytes.Count(out.Bytes(), []byte("\n"))
	require.Equal(t, 1, lines, "only the 10.1.2.0/24 announcement should pass")
}

func TestGrepFileNilProgramPassesEverything(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bgp4mpRecord(t, 1, bgpOpen()))
	buf.Write(bgp4mpRecord(t, 4, nil))

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	errs, fatal := grepFile(bytes.NewReader(buf.Bytes()), nil, vm.NewEval(), w)
	w.Flush()
	require.False(t, fatal)
	require.Equal(t, 0, errs)
	require.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}
