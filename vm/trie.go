package vm

import (
	"net/netip"
	"strings"

	radix "github.com/armon/go-radix"
)

// Trie is a Patricia/radix tree over prefixes of a single address
// family, keyed on the prefix's bitstring (the same key derivation
// CSUNetSec-protoparse/util.IpToRadixkey uses: each octet expanded to
// 8 bits, then truncated to the prefix length).
type Trie struct {
	tree *radix.Tree
}

// NewTrie returns an empty Trie.
func NewTrie() *Trie {
	return &Trie{tree: radix.New()}
}

// prefixKey renders pfx as a bitstring key suitable for radix.Tree.
func prefixKey(pfx netip.Prefix) string {
	addr := pfx.Addr()
	bits := pfx.Bits()
	if bits < 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(bits)
	raw := addr.AsSlice()
	for i := 0; i < len(raw) && sb.Len() < bits; i++ {
		for b := 7; b >= 0 && sb.Len() < bits; b-- {
			if raw[i]&(1<<uint(b)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

// Insert adds pfx to the trie.
func (t *Trie) Insert(pfx netip.Prefix) {
	t.tree.Insert(prefixKey(pfx), pfx)
}

// Exact reports whether pfx is present in the trie exactly.
func (t *Trie) Exact(pfx netip.Prefix) bool {
	_, ok := t.tree.Get(prefixKey(pfx))
	return ok
}

// Subnet reports whether pfx is contained within (is a subnet of) any
// entry already in the trie: an ancestor-or-self lookup along pfx's own
// bitstring.
func (t *Trie) Subnet(pfx netip.Prefix) bool {
	_, _, ok := t.tree.LongestPrefix(prefixKey(pfx))
	return ok
}

// Supernet reports whether pfx contains (is a supernet of) any entry
// already in the trie: true iff some trie key has pfx's key as a prefix.
func (t *Trie) Supernet(pfx netip.Prefix) bool {
	found := false
	t.tree.WalkPrefix(prefixKey(pfx), func(s string, v interface{}) bool {
		found = true
		return true
	})
	return found
}

// Related reports whether pfx is a subnet or a supernet of any trie entry.
func (t *Trie) Related(pfx netip.Prefix) bool {
	return t.Subnet(pfx) || t.Supernet(pfx)
}

// Len returns the number of prefixes stored in the trie.
func (t *Trie) Len() int {
	return t.tree.Len()
}
