package compile

import "github.com/netsentries/routescope/vm"

// FuncIndex names the CALL immediates codegen emits, matching the
// fixed order of vm.Funcs.
var FuncIndex = map[string]byte{
	"loops":     0,
	"peer":      1,
	"timestamp": 2,
	"bogon-asn": 3,
}

// Compile parses a find(1)-style argument list (as produced by a
// shell-split command line, one flag/operand per element) into a
// runnable vm.Program.
func Compile(argv []string) (*vm.Program, error) {
	p := newParser(argv)
	tree, err := p.Parse()
	if err != nil {
		return nil, err
	}

	em := newEmitter(tree)
	prog, err := em.Generate()
	if err != nil {
		return nil, err
	}

	peephole(prog)
	return prog, nil
}
