package compile

import "github.com/netsentries/routescope/vm"

// emitter lowers an ir node table to a vm.Program. Every AND/OR node is
// emitted as a short-circuit region (a run of per-child CFAIL/CPASS
// tests followed by a fall-through tail); that region only needs its
// own BLK/ENDBLK frame when something other than the same connective
// consumes its result, since a BLK's CPASS/CFAIL targets the nearest
// enclosing frame (or halts the whole program when none is open).
type emitter struct {
	tree   *ir
	prog   vm.Program
	consts *vm.ConstPool
}

func newEmitter(tree *ir) *emitter {
	cp := vm.NewConstPool()
	return &emitter{tree: tree, consts: cp, prog: vm.Program{Consts: cp}}
}

func (em *emitter) emit(i vm.Instr) {
	em.prog.Instrs = append(em.prog.Instrs, i.Encode())
}

// Generate lowers the whole tree to a Program.
func (em *emitter) Generate() (*vm.Program, error) {
	n := em.tree.nodes[em.tree.root]
	if n.kind == nodeAnd || n.kind == nodeOr {
		if err := em.emitShortCircuit(em.tree.root); err != nil {
			return nil, err
		}
	} else {
		if err := em.emitValue(em.tree.root); err != nil {
			return nil, err
		}
		em.emit(vm.Instr{Op: vm.CPASS})
		em.emit(vm.Instr{Op: vm.LOADU, Imm: 1})
		em.emit(vm.Instr{Op: vm.CFAIL})
	}
	em.emit(vm.Instr{Op: vm.END})
	return &em.prog, nil
}

// emitValue emits n so that exactly one bool is left on the stack,
// wrapping AND/OR nodes in their own BLK/ENDBLK frame so their internal
// short-circuiting can't escape past the caller.
func (em *emitter) emitValue(idx int) error {
	n := em.tree.nodes[idx]
	switch n.kind {
	case nodeLeaf:
		return em.emitLeaf(n)
	case nodeNot:
		if err := em.emitValue(n.right); err != nil {
			return err
		}
		em.emit(vm.Instr{Op: vm.NOT})
		return nil
	case nodeAnd, nodeOr:
		em.emit(vm.Instr{Op: vm.BLK})
		if err := em.emitShortCircuit(idx); err != nil {
			return err
		}
		em.emit(vm.Instr{Op: vm.ENDBLK})
		return nil
	default:
		return errAt(0, "unreachable node kind")
	}
}

// emitShortCircuit emits n's short-circuit test sequence directly,
// relying on whatever frame already encloses it (a BLK opened by
// emitValue, or none at the program's root) to give CFAIL/CPASS their
// target. Children of the same connective are flattened into one flat
// run rather than each getting their own nested frame.
func (em *emitter) emitShortCircuit(idx int) error {
	n := em.tree.nodes[idx]
	children := em.flatten(idx, n.kind)
	for _, c := range children {
		if err := em.emitValue(c); err != nil {
			return err
		}
		if n.kind == nodeAnd {
			em.emit(vm.Instr{Op: vm.NOT})
			em.emit(vm.Instr{Op: vm.CFAIL})
		} else {
			em.emit(vm.Instr{Op: vm.CPASS})
		}
	}
	em.emit(vm.Instr{Op: vm.LOADU, Imm: 1})
	if n.kind == nodeAnd {
		em.emit(vm.Instr{Op: vm.CPASS})
	} else {
		em.emit(vm.Instr{Op: vm.CFAIL})
	}
	return nil
}

// flatten collects idx's descendants that share kind, stopping at the
// first node of a different kind in each branch (an AND directly
// nested in an AND behaves as one flat conjunction, same for OR-in-OR).
func (em *emitter) flatten(idx int, kind nodeKind) []int {
	n := em.tree.nodes[idx]
	if n.kind != kind {
		return []int{idx}
	}
	left := em.flatten(n.left, kind)
	right := em.flatten(n.right, kind)
	return append(left, right...)
}

func (em *emitter) emitLeaf(n node) error {
	switch n.leaf {
	case leafType:
		em.emit(vm.Instr{Op: vm.CHKT, Imm: n.msgType})
	case leafAttr:
		em.emit(vm.Instr{Op: vm.CHKA, Imm: n.attrCode})
	case leafAspath:
		re := vm.CompileAsRegex(n.regex)
		idx, err := em.consts.AddAsRegex(re)
		if err != nil {
			return err
		}
		em.emit(vm.Instr{Op: vm.FASMTC, Imm: idx})
	case leafPeer:
		idx, err := em.consts.AddPeerMatch(n.peer)
		if err != nil {
			return err
		}
		em.emit(vm.Instr{Op: vm.LOAD, Imm: idx})
		em.emit(vm.Instr{Op: vm.CALL, Imm: 1})
	case leafLoops:
		em.emit(vm.Instr{Op: vm.CALL, Imm: 0})
	case leafBogonAsn:
		em.emit(vm.Instr{Op: vm.CALL, Imm: 3})
	case leafExact, leafSupernet, leafSubnet, leafRelated:
		return em.emitPrefixLeaf(n)
	case leafTimestamp:
		idx, err := em.consts.AddTimestamp(n.ts)
		if err != nil {
			return err
		}
		em.emit(vm.Instr{Op: vm.LOAD, Imm: idx})
		em.emit(vm.Instr{Op: vm.CALL, Imm: 2})
	case leafCommunities, leafAllCommunities:
		idx, err := em.consts.AddCommunitySet(n.comset)
		if err != nil {
			return err
		}
		op := vm.COMTCH
		if n.leaf == leafAllCommunities {
			op = vm.ACOMTC
		}
		em.emit(vm.Instr{Op: op, Imm: idx})
	default:
		return errAt(0, "unreachable leaf kind")
	}
	return nil
}

// emitPrefixLeaf pushes the v4 trie (or null) first, then the v6 trie
// (or null), matching evalPrefixMatch, which pops v6 then v4.
func (em *emitter) emitPrefixLeaf(n node) error {
	if err := em.pushTrie(n.trie4); err != nil {
		return err
	}
	if err := em.pushTrie(n.trie6); err != nil {
		return err
	}
	var op vm.Op
	switch n.leaf {
	case leafExact:
		op = vm.EXCT
	case leafSupernet:
		op = vm.SUPN
	case leafSubnet:
		op = vm.SUBN
	case leafRelated:
		op = vm.RELT
	}
	em.emit(vm.Instr{Op: op, Imm: byte(vm.ALL_NLRI)})
	return nil
}

func (em *emitter) pushTrie(t *vm.Trie) error {
	if t == nil || t.Len() == 0 {
		em.emit(vm.Instr{Op: vm.LOADN})
		return nil
	}
	idx, err := em.consts.AddTrie(t)
	if err != nil {
		return err
	}
	em.emit(vm.Instr{Op: vm.LOAD, Imm: idx})
	return nil
}
