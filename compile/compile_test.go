package compile

import (
	"testing"
	"time"

	"github.com/netsentries/routescope/attrs"
	"github.com/netsentries/routescope/msg"
	"github.com/netsentries/routescope/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runArgv(t *testing.T, argv []string, m *msg.Msg) vm.Result {
	t.Helper()
	prog, err := Compile(argv)
	require.NoError(t, err)
	e := vm.NewEval()
	res := e.Run(prog, m)
	require.NoError(t, e.Err)
	return res
}

func TestCompileLeafType(t *testing.T) {
	assert := assert.New(t)

	open := msg.NewMsg()
	open.Up(msg.OPEN)

	keepalive := msg.NewMsg()
	keepalive.Up(msg.KEEPALIVE)

	assert.Equal(vm.PASS, runArgv(t, []string{"-type", "OPEN"}, open))
	assert.Equal(vm.FAIL, runArgv(t, []string{"-type", "OPEN"}, keepalive))
	assert.Equal(vm.PASS, runArgv(t, []string{"!", "-type", "OPEN"}, keepalive))
}

func TestCompileAndOr(t *testing.T) {
	assert := assert.New(t)

	open := msg.NewMsg()
	open.Up(msg.OPEN)

	// AND: both true
	assert.Equal(vm.PASS, runArgv(t, []string{"-type", "OPEN", "-type", "OPEN"}, open))
	// AND: second false
	assert.Equal(vm.FAIL, runArgv(t, []string{"-type", "OPEN", "-type", "UPDATE"}, open))
	// explicit -and same as juxtaposition
	assert.Equal(vm.FAIL, runArgv(t, []string{"-type", "OPEN", "-and", "-type", "UPDATE"}, open))
	// OR: either true
	assert.Equal(vm.PASS, runArgv(t, []string{"-type", "UPDATE", "-or", "-type", "OPEN"}, open))
	// OR: both false
	assert.Equal(vm.FAIL, runArgv(t, []string{"-type", "UPDATE", "-or", "-type", "NOTIFY"}, open))
}

func TestCompileNestedGrouping(t *testing.T) {
	assert := assert.New(t)

	open := msg.NewMsg()
	open.Up(msg.OPEN)

	// (UPDATE or OPEN) and not NOTIFY -- an OR nested inside an AND needs
	// its own block frame since the connectives differ.
	argv := []string{
		"(", "-type", "UPDATE", "-or", "-type", "OPEN", ")",
		"-and", "!", "-type", "NOTIFY",
	}
	assert.Equal(vm.PASS, runArgv(t, argv, open))

	notify := msg.NewMsg()
	notify.Up(msg.NOTIFY)
	assert.Equal(vm.FAIL, runArgv(t, argv, notify))
}

func TestCompileBogonAsn(t *testing.T) {
	assert := assert.New(t)

	m := msg.NewMsg()
	m.Up(msg.UPDATE)

	assert.Equal(vm.FAIL, runArgv(t, []string{"-bogon-asn"}, m))
}

func TestCompileTimestamp(t *testing.T) {
	assert := assert.New(t)

	m := msg.NewMsg()
	m.Up(msg.KEEPALIVE)
	m.Time = time.Unix(1_700_000_000, 0).UTC()

	assert.Equal(vm.PASS, runArgv(t, []string{"-timestamp", ">1600000000"}, m))
	assert.Equal(vm.FAIL, runArgv(t, []string{"-timestamp", "<1600000000"}, m))
}

func TestCompileCommunitiesLeaf(t *testing.T) {
	assert := assert.New(t)

	m := msg.NewMsg()
	m.Up(msg.UPDATE)
	com := attrs.NewAttr(attrs.ATTR_COMMUNITY).(*attrs.Community)
	com.Add(65001, 100)
	m.Update.Attrs.Set(attrs.ATTR_COMMUNITY, com)

	// spec.md's argv flag is plural ("-communities"), not "-community".
	assert.Equal(vm.PASS, runArgv(t, []string{"-communities", "65001:100"}, m))
	assert.Equal(vm.FAIL, runArgv(t, []string{"-communities", "65001:200"}, m))
	assert.Equal(vm.PASS, runArgv(t, []string{"-all-communities", "65001:*"}, m))
}

func TestParseErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := Compile(nil)
	assert.Error(err)

	_, err = Compile([]string{"-type", "BOGUS"})
	assert.Error(err)

	_, err = Compile([]string{"(", "-type", "OPEN"})
	assert.Error(err)

	_, err = Compile([]string{"-type"})
	assert.Error(err)
}

func TestParseAsPathRegex(t *testing.T) {
	assert := assert.New(t)

	ast, err := parseAsPathRegex("^65001 . !65002(65003|65004)+$")
	require.NoError(t, err)
	re := vm.CompileAsRegex(ast)

	assert.True(re.Match([][]uint32{{65001}, {65010}, {65003}, {65004}}))
	assert.False(re.Match([][]uint32{{65001}, {65002}, {65003}}))
	assert.False(re.Match([][]uint32{{65001}, {65010}}))
}

func TestParseAsPathRegexErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := parseAsPathRegex("(65001")
	assert.Error(err)

	_, err = parseAsPathRegex("")
	assert.Error(err)

	_, err = parseAsPathRegex("65001 )")
	assert.Error(err)
}

func TestParseCommunityPattern(t *testing.T) {
	assert := assert.New(t)

	p, err := parseCommunityPattern("65001:100")
	require.NoError(t, err)
	assert.True(p.Match(65001, 100))
	assert.False(p.Match(65001, 200))

	p, err = parseCommunityPattern("65001:*")
	require.NoError(t, err)
	assert.True(p.Match(65001, 999))

	p, err = parseCommunityPattern("NO_EXPORT")
	require.NoError(t, err)
	assert.True(p.Match(uint16(vm.NO_EXPORT>>16), uint16(vm.NO_EXPORT)))
}

func TestParsePeerExpr(t *testing.T) {
	assert := assert.New(t)

	pm, err := parsePeerExpr([]string{"192.0.2.1", "!65001"})
	require.NoError(t, err)
	assert.True(pm.HasAddr)
	assert.True(pm.HasASN)
	assert.True(pm.NegASN)
}

func TestPeepholeDoubleNegation(t *testing.T) {
	assert := assert.New(t)

	prog := &vm.Program{
		Consts: vm.NewConstPool(),
		Instrs: []uint16{
			vm.Instr{Op: vm.CHKT, Imm: byte(msg.OPEN)}.Encode(),
			vm.Instr{Op: vm.NOT}.Encode(),
			vm.Instr{Op: vm.NOT}.Encode(),
			vm.Instr{Op: vm.CPASS}.Encode(),
			vm.Instr{Op: vm.LOADU, Imm: 1}.Encode(),
			vm.Instr{Op: vm.CFAIL}.Encode(),
			vm.Instr{Op: vm.END}.Encode(),
		},
	}
	peephole(prog)
	assert.Len(prog.Instrs, 5, "the NOT NOT pair should cancel out")

	open := msg.NewMsg()
	open.Up(msg.OPEN)
	e := vm.NewEval()
	assert.Equal(vm.PASS, e.Run(prog, open))
}
