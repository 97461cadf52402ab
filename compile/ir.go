package compile

import (
	"github.com/netsentries/routescope/vm"
)

// nodeKind tags one entry of the flat IR node table.
type nodeKind int

const (
	nodeLeaf nodeKind = iota
	nodeNot
	nodeAnd
	nodeOr
)

// leafKind identifies which of the grammar's leaf predicates a nodeLeaf
// entry carries.
type leafKind int

const (
	leafType leafKind = iota
	leafAttr
	leafAspath
	leafPeer
	leafLoops
	leafBogonAsn
	leafExact
	leafSupernet
	leafSubnet
	leafRelated
	leafTimestamp
	leafCommunities
	leafAllCommunities
)

// node is one IR entry: a binary op (left, right), a unary NOT (right
// only), or a leaf carrying its pre-parsed operands (a compiled regex,
// trie, community set, etc. — whatever the leaf's sub-parser produced).
type node struct {
	kind  nodeKind
	left  int // index into the node table, -1 if unused
	right int

	leaf leafKind

	msgType  byte
	attrCode byte
	regex    *vm.ReNode
	peer     *vm.PeerMatch
	trie4    *vm.Trie
	trie6    *vm.Trie
	ts       *vm.TimestampCmp
	comset   *vm.CommunitySet
	allCom   bool
}

// ir is the flat node table built by the parser; root is the index of
// the top-level expression.
type ir struct {
	nodes []node
	root  int
}

func (t *ir) add(n node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}
