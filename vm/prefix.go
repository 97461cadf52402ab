package vm

import (
	"net/netip"

	"github.com/netsentries/routescope/msg"
)

// evalPrefixMatch implements EXCT/SUBN/SUPN/RELT. The compiler emits a
// LOAD/LOADN pair before the opcode: v4-trie-or-null pushed first, then
// v6-trie-or-null, so popping yields v6 then v4 (spec §4.4: "expects two
// stack operands in order, v4-trie-or-null and v6-trie-or-null").
func (e *Eval) evalPrefixMatch(instr Instr, m *msg.Msg) (bool, error) {
	v6v, err := e.pop()
	if err != nil {
		return false, err
	}
	v4v, err := e.pop()
	if err != nil {
		return false, err
	}
	v4trie, err := trieOrNil(v4v)
	if err != nil {
		return false, err
	}
	v6trie, err := trieOrNil(v6v)
	if err != nil {
		return false, err
	}

	var domain []netip.Prefix
	switch Domain(instr.Imm) {
	case ALL_NLRI:
		for _, n := range m.Update.AllReach() {
			domain = append(domain, n.Prefix)
		}
	case ALL_WITHDRAWN:
		for _, n := range m.Update.AllUnreach() {
			domain = append(domain, n.Prefix)
		}
	default:
		return false, ErrBadOpcode
	}

	if len(domain) == 0 {
		return false, nil
	}

	var v4s, v6s []netip.Prefix
	for _, pfx := range domain {
		if pfx.Addr().Is4() {
			v4s = append(v4s, pfx)
		} else {
			v6s = append(v6s, pfx)
		}
	}

	return familyMatches(v4trie, v4s, instr.Op) && familyMatches(v6trie, v6s, instr.Op), nil
}

func trieOrNil(v value) (*Trie, error) {
	if v.kind != kindConst {
		return nil, ErrBadConstType
	}
	if v.const_ == nil {
		return nil, nil
	}
	if v.const_.kind != constTrie {
		return nil, ErrBadConstType
	}
	return v.const_.trie, nil
}

// familyMatches applies op to every prefix of one address family against
// trie. A nil trie accepts vacuously iff there are no prefixes of this
// family in the message's domain.
func familyMatches(trie *Trie, prefixes []netip.Prefix, op Op) bool {
	if trie == nil {
		return len(prefixes) == 0
	}
	for _, pfx := range prefixes {
		if !matchOne(trie, pfx, op) {
			return false
		}
	}
	return true
}

func matchOne(trie *Trie, pfx netip.Prefix, op Op) bool {
	switch op {
	case EXCT:
		return trie.Exact(pfx)
	case SUBN:
		return trie.Subnet(pfx)
	case SUPN:
		return trie.Supernet(pfx)
	case RELT:
		return trie.Related(pfx)
	default:
		return false
	}
}
