package vm

import (
	"github.com/netsentries/routescope/attrs"
	"github.com/netsentries/routescope/msg"
)

// Well-known community values (RFC 1997, RFC 7999).
const (
	NO_EXPORT           uint32 = 0xffffff01
	NO_ADVERTISE        uint32 = 0xffffff02
	NO_EXPORT_SUBCONFED uint32 = 0xffffff03
	BLACKHOLE           uint32 = 0xffff029a
)

// CommunityPattern is one compiled community matcher entry: a 32-bit
// value split into high/low 16-bit halves, either of which (but not
// both) may be wildcarded.
type CommunityPattern struct {
	HiWild bool
	Hi     uint16
	LoWild bool
	Lo     uint16
}

// Match reports whether the community (asn:value) satisfies p.
func (p CommunityPattern) Match(asn, value uint16) bool {
	if !p.HiWild && p.Hi != asn {
		return false
	}
	if !p.LoWild && p.Lo != value {
		return false
	}
	return true
}

// CommunitySet is an ordered list of CommunityPattern entries, compiled
// once and installed into the constant pool.
type CommunitySet struct {
	Patterns []CommunityPattern
}

// anyMatch reports whether p matches at least one community the
// message carries.
func (cs *CommunitySet) anyMatch(com *attrs.Community, p CommunityPattern) bool {
	for i := range com.ASN {
		if p.Match(com.ASN[i], com.Value[i]) {
			return true
		}
	}
	return false
}

func communityAttr(m *msg.Msg) *attrs.Community {
	if m.Upper != msg.UPDATE {
		return nil
	}
	c, _ := m.Update.Attrs.Get(attrs.ATTR_COMMUNITY).(*attrs.Community)
	return c
}

// evalCommunity implements COMTCH (any-in-set) and ACOMTC (all-in-set):
// COMTCH succeeds if the message carries at least one community
// matching any pattern in the set; ACOMTC succeeds iff, for every
// pattern in the set, the message carries a matching community.
func (e *Eval) evalCommunity(p *Program, instr Instr, m *msg.Msg) (bool, error) {
	cs, err := p.Consts.get(instr.Imm)
	if err != nil {
		return false, err
	}
	if cs.kind != constCommunitySet || cs.comset == nil {
		return false, ErrBadConstType
	}

	// An empty pattern set is a compile-time constant regardless of the
	// message: vacuously false for "any", vacuously true for "all" (spec
	// §8's boundary case), independent of whether the message even
	// carries a community attribute.
	if len(cs.comset.Patterns) == 0 {
		return instr.Op == ACOMTC, nil
	}

	com := communityAttr(m)
	if com == nil {
		return false, nil
	}

	switch instr.Op {
	case COMTCH:
		for _, pat := range cs.comset.Patterns {
			if cs.comset.anyMatch(com, pat) {
				return true, nil
			}
		}
		return false, nil
	case ACOMTC:
		for _, pat := range cs.comset.Patterns {
			if !cs.comset.anyMatch(com, pat) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, ErrBadOpcode
	}
}
