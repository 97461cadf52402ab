package compile

import "github.com/netsentries/routescope/vm"

// peephole runs a small fixed set of local rewrites over prog's
// instruction stream until none apply, then compacts out the NOPs left
// behind. None of codegen's instructions encode absolute positions (the
// VM locates a block's matching ENDBLK by a runtime scan, and nothing
// here emits JNZ), so deleting NOPs never needs a jump-target fixup.
func peephole(prog *vm.Program) {
	instrs := decodeAll(prog.Instrs)
	for rewritePass(instrs) {
	}
	prog.Instrs = encodeAll(compact(instrs))
}

func decodeAll(words []uint16) []vm.Instr {
	out := make([]vm.Instr, len(words))
	for i, w := range words {
		out[i] = vm.Decode(w)
	}
	return out
}

func encodeAll(instrs []vm.Instr) []uint16 {
	out := make([]uint16, len(instrs))
	for i, instr := range instrs {
		out[i] = instr.Encode()
	}
	return out
}

func compact(instrs []vm.Instr) []vm.Instr {
	out := instrs[:0]
	for _, instr := range instrs {
		if instr.Op == vm.NOP {
			continue
		}
		out = append(out, instr)
	}
	return out
}

// rewritePass makes one left-to-right sweep applying whichever rule
// matches at each position, NOPing out instructions it removes or
// folds away. It reports whether anything changed, so peephole can
// iterate to a fixed point (one rewrite can expose another).
func rewritePass(instrs []vm.Instr) bool {
	changed := false
	for i := 0; i < len(instrs); i++ {
		if instrs[i].Op == vm.NOP {
			continue
		}

		// NOT NOT -> (nothing): double negation cancels.
		if instrs[i].Op == vm.NOT {
			if j := nextLive(instrs, i+1); j >= 0 && instrs[j].Op == vm.NOT {
				instrs[i] = vm.Instr{Op: vm.NOP}
				instrs[j] = vm.Instr{Op: vm.NOP}
				changed = true
				continue
			}
		}

		// LOADU x ; NOT -> LOADU !x
		if instrs[i].Op == vm.LOADU {
			if j := nextLive(instrs, i+1); j >= 0 && instrs[j].Op == vm.NOT {
				inv := byte(0)
				if instrs[i].Imm == 0 {
					inv = 1
				}
				instrs[i] = vm.Instr{Op: vm.LOADU, Imm: inv}
				instrs[j] = vm.Instr{Op: vm.NOP}
				changed = true
				continue
			}
		}

		// NOT ; CFAIL ; LOADU 1 ; CPASS -> CPASS ; LOADU 1 ; CFAIL
		// A single-child AND block and a single-child OR block are
		// semantically identical (both just pass through the child's
		// value), so this rewrite drops the NOT codegen otherwise emits
		// for the degenerate one-child AND case.
		if instrs[i].Op == vm.NOT {
			a := nextLive(instrs, i+1)
			if a < 0 || instrs[a].Op != vm.CFAIL {
				continue
			}
			b := nextLive(instrs, a+1)
			if b < 0 || instrs[b].Op != vm.LOADU || instrs[b].Imm != 1 {
				continue
			}
			c := nextLive(instrs, b+1)
			if c < 0 || instrs[c].Op != vm.CPASS {
				continue
			}
			instrs[i] = vm.Instr{Op: vm.CPASS}
			instrs[a] = vm.Instr{Op: vm.LOADU, Imm: 1}
			instrs[b] = vm.Instr{Op: vm.CFAIL}
			instrs[c] = vm.Instr{Op: vm.NOP}
			changed = true
		}
	}
	return changed
}

func nextLive(instrs []vm.Instr, from int) int {
	for i := from; i < len(instrs); i++ {
		if instrs[i].Op != vm.NOP {
			return i
		}
	}
	return -1
}
