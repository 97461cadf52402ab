package vm

import (
	"net/netip"
	"time"

	"github.com/netsentries/routescope/attrs"
	"github.com/netsentries/routescope/msg"
)

// pathAttr returns the message's effective AS_PATH: ATTR_AS4PATH when
// present (it already carries the full, unmangled path once AS4 is in
// use), falling back to the legacy ATTR_ASPATH otherwise.
func pathAttr(m *msg.Msg) *attrs.Aspath {
	if m.Upper != msg.UPDATE {
		return nil
	}
	if ap, ok := m.Update.Attrs.Get(attrs.ATTR_AS4PATH).(*attrs.Aspath); ok {
		return ap
	}
	ap, _ := m.Update.Attrs.Get(attrs.ATTR_ASPATH).(*attrs.Aspath)
	return ap
}

// Func is a host intrinsic: a function invoked via CALL, taking the
// current evaluation state and message, returning the boolean pushed by
// CALL (or an error, which CALL escalates to a VM error per spec).
type Func func(e *Eval, m *msg.Msg) (bool, error)

// Funcs is the fixed host function table; CALL's immediate indexes into
// it. Entries are assigned at compile time by name (see compile.FuncIndex).
var Funcs = [...]Func{
	0: FindAsLoops,
	1: PeerAddrMatch,
	2: TimestampCompare,
	3: BogonAsn,
}

func (e *Eval) evalCall(instr Instr, m *msg.Msg) (bool, error) {
	if int(instr.Imm) >= len(Funcs) {
		return false, ErrBadFunc
	}
	fn := Funcs[instr.Imm]
	if fn == nil {
		return false, ErrBadFunc
	}
	return fn(e, m)
}

// FindAsLoops reports whether the message's AS_PATH repeats any ASN.
func FindAsLoops(e *Eval, m *msg.Msg) (bool, error) {
	if m.Upper != msg.UPDATE {
		return false, nil
	}
	ap := pathAttr(m)
	if ap == nil || !ap.Valid() {
		return false, nil
	}
	seen := make(map[uint32]struct{}, ap.Len())
	for _, hop := range ap.Hops() {
		for _, asn := range hop {
			if _, ok := seen[asn]; ok {
				return true, nil
			}
			seen[asn] = struct{}{}
		}
	}
	return false, nil
}

// PeerMatch is a compiled peer expression: an address and/or ASN to
// compare the message's originating peer against, with per-field negation.
type PeerMatch struct {
	HasAddr  bool
	Addr     netip.Addr
	NegAddr  bool
	HasASN   bool
	ASN      uint32
	NegASN   bool
}

// Match reports whether pm matches the given peer address/ASN.
func (pm *PeerMatch) Match(addr netip.Addr, asn uint32) bool {
	if pm.HasAddr {
		eq := addr == pm.Addr
		if eq == pm.NegAddr {
			return false
		}
	}
	if pm.HasASN {
		eq := asn == pm.ASN
		if eq == pm.NegASN {
			return false
		}
	}
	return true
}

// PeerAddrMatch consumes the top-of-stack constant-pool reference (a
// *PeerMatch) and evaluates it against the message's peer metadata,
// which callers attach via msg.Msg.Value (see cmd/bgpgrep).
func PeerAddrMatch(e *Eval, m *msg.Msg) (bool, error) {
	v, err := e.pop()
	if err != nil {
		return false, err
	}
	if v.kind != kindConst || v.const_ == nil || v.const_.kind != constPeerMatch {
		return false, ErrBadConstType
	}
	pv, ok := m.Value.(PeerInfo)
	if !ok {
		return false, nil
	}
	return v.const_.peerm.Match(pv.Addr, pv.ASN), nil
}

// PeerInfo is the peer metadata a caller attaches to msg.Msg.Value so
// PeerAddrMatch has something to compare against; it implements
// msg.Value trivially since peer metadata is never (de)serialized.
type PeerInfo struct {
	Addr netip.Addr
	ASN  uint32
}

func (PeerInfo) ToJSON(dst []byte) []byte    { return dst }
func (PeerInfo) FromJSON(src []byte) error   { return nil }

// TimestampCmp is a compiled timestamp comparator: op applied between
// the message's Time and When.
type TimestampCmp struct {
	Op   CmpOp
	When time.Time
}

// CmpOp is a timestamp comparison operator.
type CmpOp byte

const (
	CmpLT CmpOp = iota
	CmpLE
	CmpEQ
	CmpGE
	CmpGT
)

func (c CmpOp) eval(t, when time.Time) bool {
	switch c {
	case CmpLT:
		return t.Before(when)
	case CmpLE:
		return !t.After(when)
	case CmpEQ:
		return t.Equal(when)
	case CmpGE:
		return !t.Before(when)
	case CmpGT:
		return t.After(when)
	default:
		return false
	}
}

// TimestampCompare consumes the top-of-stack constant-pool reference (a
// *TimestampCmp) and evaluates it against the message's Time.
func TimestampCompare(e *Eval, m *msg.Msg) (bool, error) {
	v, err := e.pop()
	if err != nil {
		return false, err
	}
	if v.kind != kindConst || v.const_ == nil || v.const_.kind != constTimestamp {
		return false, ErrBadConstType
	}
	return v.const_.tscmp.Op.eval(m.Time, v.const_.tscmp.When), nil
}

// bogonASNRanges are the reserved/private/documentation ASN ranges
// (RFC 5398, RFC 7300, IANA special-purpose registry).
var bogonASNRanges = [][2]uint32{
	{0, 0},
	{23456, 23456},
	{64496, 64511},     // documentation
	{64512, 65534},     // private use (16-bit)
	{65535, 65535},
	{65536, 65551},     // documentation (32-bit)
	{4200000000, 4294967294}, // private use (32-bit)
	{4294967295, 4294967295},
}

func isBogonAsn(asn uint32) bool {
	for _, r := range bogonASNRanges {
		if asn >= r[0] && asn <= r[1] {
			return true
		}
	}
	return false
}

// BogonAsn reports whether any hop of the message's AS_PATH falls in a
// reserved/private/documentation range.
func BogonAsn(e *Eval, m *msg.Msg) (bool, error) {
	ap := pathAttr(m)
	if ap == nil || !ap.Valid() {
		return false, nil
	}
	for _, hop := range ap.Hops() {
		for _, asn := range hop {
			if isBogonAsn(asn) {
				return true, nil
			}
		}
	}
	return false, nil
}
