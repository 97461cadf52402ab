package compile

import (
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/netsentries/routescope/msg"
	"github.com/netsentries/routescope/vm"
	"github.com/spf13/cast"
)

var typeNames = map[string]byte{
	"OPEN":      byte(msg.OPEN),
	"UPDATE":    byte(msg.UPDATE),
	"NOTIFY":    byte(msg.NOTIFY),
	"KEEPALIVE": byte(msg.KEEPALIVE),
	"REFRESH":   byte(msg.REFRESH),
}

func parseTypeName(s string) (byte, bool) {
	if t, ok := typeNames[strings.ToUpper(s)]; ok {
		return t, true
	}
	return 0, false
}

var attrNames = map[string]byte{
	"ORIGIN":          1,
	"ASPATH":          2,
	"NEXTHOP":         3,
	"MED":             4,
	"LOCALPREF":       5,
	"AGGREGATOR":      7,
	"COMMUNITY":       8,
	"MP_REACH":        14,
	"MP_UNREACH":      15,
	"EXT_COMMUNITY":   16,
	"AS4PATH":         17,
	"LARGE_COMMUNITY": 32,
}

// parseAttr accepts either a known attribute name or a raw decimal code.
func parseAttr(s string) (byte, error) {
	if c, ok := attrNames[strings.ToUpper(s)]; ok {
		return c, nil
	}
	n, err := cast.ToUint8E(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// parsePeerExpr parses "[!]ADDR", "[!]ASN", or "[!]ADDR [!]ASN" (the
// latter as two tokens, which the parser gets by splitting the -peer
// operand on commas) into a *vm.PeerMatch.
func parsePeerExpr(tokens []string) (*vm.PeerMatch, error) {
	pm := &vm.PeerMatch{}
	for _, tok := range tokens {
		neg := false
		if strings.HasPrefix(tok, "!") {
			neg = true
			tok = tok[1:]
		}
		if addr, err := netip.ParseAddr(tok); err == nil {
			pm.HasAddr = true
			pm.Addr = addr
			pm.NegAddr = neg
			continue
		}
		asn, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, err
		}
		pm.HasASN = true
		pm.ASN = uint32(asn)
		pm.NegASN = neg
	}
	return pm, nil
}

var wellKnownCommunities = map[string]uint32{
	"NO_EXPORT":           vm.NO_EXPORT,
	"NO_ADVERTISE":        vm.NO_ADVERTISE,
	"NO_EXPORT_SUBCONFED": vm.NO_EXPORT_SUBCONFED,
	"BLACKHOLE":           vm.BLACKHOLE,
}

// parseCommunityPattern parses a well-known name, "HI:LO" (either side
// may be "*"), or "0xNNNNNNNN" into a vm.CommunityPattern.
func parseCommunityPattern(s string) (vm.CommunityPattern, error) {
	if v, ok := wellKnownCommunities[strings.ToUpper(s)]; ok {
		return vm.CommunityPattern{Hi: uint16(v >> 16), Lo: uint16(v)}, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return vm.CommunityPattern{}, err
		}
		return vm.CommunityPattern{Hi: uint16(v >> 16), Lo: uint16(v)}, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return vm.CommunityPattern{}, errAt(0, "malformed community: "+s)
	}
	var p vm.CommunityPattern
	if parts[0] == "*" {
		p.HiWild = true
	} else {
		v, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return vm.CommunityPattern{}, err
		}
		p.Hi = uint16(v)
	}
	if parts[1] == "*" {
		p.LoWild = true
	} else {
		v, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return vm.CommunityPattern{}, err
		}
		p.Lo = uint16(v)
	}
	return p, nil
}

// parseCommunityExpr parses a comma-separated list of community patterns.
func parseCommunityExpr(s string) (*vm.CommunitySet, error) {
	cs := &vm.CommunitySet{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		p, err := parseCommunityPattern(tok)
		if err != nil {
			return nil, err
		}
		cs.Patterns = append(cs.Patterns, p)
	}
	return cs, nil
}

// parseTimestampExpr parses a numeric comparator like "<1700000000",
// ">=1700000000", or a bare value (treated as "=").
func parseTimestampExpr(s string) (*vm.TimestampCmp, error) {
	op := vm.CmpEQ
	switch {
	case strings.HasPrefix(s, ">="):
		op, s = vm.CmpGE, s[2:]
	case strings.HasPrefix(s, "<="):
		op, s = vm.CmpLE, s[2:]
	case strings.HasPrefix(s, ">"):
		op, s = vm.CmpGT, s[1:]
	case strings.HasPrefix(s, "<"):
		op, s = vm.CmpLT, s[1:]
	case strings.HasPrefix(s, "="):
		op, s = vm.CmpEQ, s[1:]
	}
	sec, err := cast.ToInt64E(s)
	if err != nil {
		return nil, err
	}
	return &vm.TimestampCmp{Op: op, When: time.Unix(sec, 0).UTC()}, nil
}
