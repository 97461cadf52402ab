package vm

import (
	"net/netip"
	"testing"
	"time"

	"github.com/netsentries/routescope/attrs"
	"github.com/netsentries/routescope/msg"
	"github.com/netsentries/routescope/nlri"
	"github.com/stretchr/testify/require"
)

func prog(instrs ...Instr) *Program {
	p := &Program{Consts: NewConstPool()}
	for _, i := range instrs {
		p.Instrs = append(p.Instrs, i.Encode())
	}
	return p
}

func TestRunOutermostCpassCfail(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	m.Up(msg.OPEN)

	// LOADU 1 ; CPASS halts PASS directly at the outermost scope.
	res := e.Run(prog(Instr{Op: LOADU, Imm: 1}, Instr{Op: CPASS}, Instr{Op: END}), m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res)

	// LOADU 1 ; CFAIL halts FAIL directly at the outermost scope.
	res = e.Run(prog(Instr{Op: LOADU, Imm: 1}, Instr{Op: CFAIL}, Instr{Op: END}), m)
	require.NoError(t, e.Err)
	require.Equal(t, FAIL, res)

	// A false CPASS/CFAIL falls through; program ends on END (default FAIL).
	res = e.Run(prog(Instr{Op: LOADU, Imm: 0}, Instr{Op: CPASS}, Instr{Op: END}), m)
	require.NoError(t, e.Err)
	require.Equal(t, FAIL, res)
}

func TestRunBlockShortCircuitAnd(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()

	// BLK; LOADU 1; NOT; CFAIL; LOADU 0; NOT; CFAIL; LOADU 1; CPASS; ENDBLK; END
	// models a 2-child AND where the first child is true (doesn't fail)
	// and the second is false (NOT->true->CFAIL fires, AND result FAIL).
	p := prog(
		Instr{Op: BLK},
		Instr{Op: LOADU, Imm: 1}, Instr{Op: NOT}, Instr{Op: CFAIL},
		Instr{Op: LOADU, Imm: 0}, Instr{Op: NOT}, Instr{Op: CFAIL},
		Instr{Op: LOADU, Imm: 1}, Instr{Op: CPASS},
		Instr{Op: ENDBLK},
		Instr{Op: END},
	)
	res := e.Run(p, m)
	require.NoError(t, e.Err)
	require.Equal(t, FAIL, res)
}

func TestRunBlockShortCircuitOr(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()

	// A 2-child OR where the first child is true: CPASS fires inside the
	// block, unwinding to ENDBLK and leaving a true value for whatever
	// encloses it (here, the outermost scope, whose CPASS then halts PASS).
	p := prog(
		Instr{Op: BLK},
		Instr{Op: LOADU, Imm: 1}, Instr{Op: CPASS},
		Instr{Op: LOADU, Imm: 0}, Instr{Op: CPASS},
		Instr{Op: LOADU, Imm: 0}, Instr{Op: CFAIL},
		Instr{Op: ENDBLK},
		Instr{Op: CPASS}, // sees the true value unwindBlock pushed
		Instr{Op: END},
	)
	res := e.Run(p, m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res)
}

func TestRunNotAndChkt(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	m.Up(msg.OPEN)

	// !CHKT(UPDATE) on an OPEN message is true.
	p := prog(
		Instr{Op: CHKT, Imm: byte(msg.UPDATE)},
		Instr{Op: NOT},
		Instr{Op: CPASS},
		Instr{Op: END},
	)
	res := e.Run(p, m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res)
}

func TestRunStackUnderflow(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	res := e.Run(prog(Instr{Op: CPASS}, Instr{Op: END}), m)
	require.Equal(t, FAIL, res)
	require.ErrorIs(t, e.Err, ErrStackUnderflow)
}

func TestRunUnknownOpcode(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	p := &Program{Consts: NewConstPool(), Instrs: []uint16{uint16(0xfe)}}
	res := e.Run(p, m)
	require.Equal(t, FAIL, res)
	require.ErrorIs(t, e.Err, ErrBadOpcode)
}

func TestRunBadConstReference(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	res := e.Run(prog(Instr{Op: LOAD, Imm: 5}, Instr{Op: END}), m)
	require.Equal(t, FAIL, res)
	require.ErrorIs(t, e.Err, ErrBadConst)
}

func TestConstPoolExhaustion(t *testing.T) {
	p := NewConstPool()
	for i := 0; i < 256; i++ {
		_, err := p.AddInt(int64(i))
		require.NoError(t, err)
	}
	_, err := p.AddInt(256)
	require.ErrorIs(t, err, ErrPoolFull)
}

func buildUpdate(t *testing.T, reach []netip.Prefix) *msg.Msg {
	t.Helper()
	m := msg.NewMsg()
	m.Up(msg.UPDATE)
	for _, pfx := range reach {
		m.Update.Reach = append(m.Update.Reach, nlri.NLRI{Prefix: pfx})
	}
	return m
}

func TestTriePrefixMatchers(t *testing.T) {
	tr := NewTrie()
	tr.Insert(netip.MustParsePrefix("10.0.0.0/8"))

	require.True(t, tr.Exact(netip.MustParsePrefix("10.0.0.0/8")))
	require.False(t, tr.Exact(netip.MustParsePrefix("10.1.0.0/16")))

	require.True(t, tr.Subnet(netip.MustParsePrefix("10.1.2.0/24")))
	require.False(t, tr.Subnet(netip.MustParsePrefix("192.0.2.0/24")))

	require.True(t, tr.Supernet(netip.MustParsePrefix("10.0.0.0/7")))
	require.False(t, tr.Supernet(netip.MustParsePrefix("11.0.0.0/8")))

	require.True(t, tr.Related(netip.MustParsePrefix("10.1.2.0/24")))
	require.True(t, tr.Related(netip.MustParsePrefix("10.0.0.0/7")))
	require.False(t, tr.Related(netip.MustParsePrefix("192.0.2.0/24")))
}

func TestEvalPrefixMatchEmptyDomainFails(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	m.Up(msg.UPDATE) // no Reach/Unreach prefixes at all

	cp := NewConstPool()
	tr := NewTrie()
	tr.Insert(netip.MustParsePrefix("10.0.0.0/8"))
	idx4, err := cp.AddTrie(tr)
	require.NoError(t, err)

	p := &Program{Consts: cp, Instrs: []uint16{
		Instr{Op: LOAD, Imm: idx4}.Encode(),
		Instr{Op: LOADN}.Encode(),
		Instr{Op: SUBN, Imm: byte(ALL_NLRI)}.Encode(),
		Instr{Op: CPASS}.Encode(),
		Instr{Op: END}.Encode(),
	}}
	res := e.Run(p, m)
	require.NoError(t, e.Err)
	require.Equal(t, FAIL, res) // the ALL_* quantifier fails over an empty domain
}

func TestEvalPrefixMatchSubnet(t *testing.T) {
	e := NewEval()
	m := buildUpdate(t, []netip.Prefix{netip.MustParsePrefix("10.1.2.0/24")})

	cp := NewConstPool()
	tr := NewTrie()
	tr.Insert(netip.MustParsePrefix("10.0.0.0/8"))
	idx4, err := cp.AddTrie(tr)
	require.NoError(t, err)

	p := &Program{Consts: cp, Instrs: []uint16{
		Instr{Op: LOAD, Imm: idx4}.Encode(),
		Instr{Op: LOADN}.Encode(),
		Instr{Op: SUBN, Imm: byte(ALL_NLRI)}.Encode(),
		Instr{Op: CPASS}.Encode(),
		Instr{Op: END}.Encode(),
	}}
	res := e.Run(p, m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res)
}

func TestEvalCommunityEmptySetConstants(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	m.Up(msg.UPDATE)

	cp := NewConstPool()
	idx, err := cp.AddCommunitySet(&CommunitySet{})
	require.NoError(t, err)

	passProg := func(op Op) *Program {
		return &Program{Consts: cp, Instrs: []uint16{
			Instr{Op: op, Imm: idx}.Encode(),
			Instr{Op: CPASS}.Encode(),
			Instr{Op: END}.Encode(),
		}}
	}

	res := e.Run(passProg(COMTCH), m)
	require.NoError(t, e.Err)
	require.Equal(t, FAIL, res, "empty set is vacuously false for COMTCH")

	res = e.Run(passProg(ACOMTC), m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res, "empty set is vacuously true for ACOMTC")
}

func TestEvalCommunityAnyAndAllInSet(t *testing.T) {
	e := NewEval()
	m := msg.NewMsg()
	m.Up(msg.UPDATE)
	com := attrs.NewAttr(attrs.ATTR_COMMUNITY).(*attrs.Community)
	com.Add(65001, 100)
	com.Add(65001, 200)
	m.Update.Attrs.Set(attrs.ATTR_COMMUNITY, com)

	cp := NewConstPool()
	cs := &CommunitySet{Patterns: []CommunityPattern{
		{Hi: 65001, Lo: 100},
		{Hi: 65001, LoWild: true},
	}}
	idx, err := cp.AddCommunitySet(cs)
	require.NoError(t, err)

	progFor := func(op Op) *Program {
		return &Program{Consts: cp, Instrs: []uint16{
			Instr{Op: op, Imm: idx}.Encode(),
			Instr{Op: CPASS}.Encode(),
			Instr{Op: END}.Encode(),
		}}
	}

	res := e.Run(progFor(COMTCH), m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res)

	res = e.Run(progFor(ACOMTC), m)
	require.NoError(t, e.Err)
	require.Equal(t, PASS, res, "100 matches the exact pattern, 200 matches the wildcard-lo pattern")
}

func buildAspathMsg(t *testing.T, hops ...uint32) *msg.Msg {
	t.Helper()
	m := msg.NewMsg()
	m.Up(msg.UPDATE)
	ap := attrs.NewAttr(attrs.ATTR_ASPATH).(*attrs.Aspath)
	ap.Set(hops)
	m.Update.Attrs.Set(attrs.ATTR_ASPATH, ap)
	return m
}

func asRegexRuns(re *AsRegex, m *msg.Msg) (bool, error) {
	e := &Eval{}
	cp := NewConstPool()
	idx, err := cp.AddAsRegex(re)
	if err != nil {
		return false, err
	}
	p := &Program{Consts: cp, Instrs: []uint16{
		Instr{Op: FASMTC, Imm: idx}.Encode(),
		Instr{Op: CPASS}.Encode(),
		Instr{Op: END}.Encode(),
	}}
	res := e.Run(p, m)
	return res == PASS, e.Err
}

func TestAsRegexStartEndAnchors(t *testing.T) {
	// ^65001 .* 65002$
	re := CompileAsRegex(&ReNode{Op: ReConcat,
		Left: &ReNode{Op: ReStart},
		Right: &ReNode{Op: ReConcat,
			Left: &ReNode{Op: ReLit, ASN: 65001},
			Right: &ReNode{Op: ReConcat,
				Left:  &ReNode{Op: ReStar, Sub: &ReNode{Op: ReAny}},
				Right: &ReNode{Op: ReConcat, Left: &ReNode{Op: ReLit, ASN: 65002}, Right: &ReNode{Op: ReEnd}},
			},
		},
	})

	ok, err := asRegexRuns(re, buildAspathMsg(t, 65001, 65003, 65002))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = asRegexRuns(re, buildAspathMsg(t, 65001, 65002, 65003))
	require.NoError(t, err)
	require.False(t, ok, "path doesn't end on 65002")

	ok, err = asRegexRuns(re, buildAspathMsg(t, 65003, 65001, 65002))
	require.NoError(t, err)
	require.False(t, ok, "path doesn't start on 65001")
}

func TestAsRegexEmptyPathAnchors(t *testing.T) {
	// ^$ matches only the empty path.
	anchoredEmpty := CompileAsRegex(&ReNode{Op: ReConcat, Left: &ReNode{Op: ReStart}, Right: &ReNode{Op: ReEnd}})

	ok, err := asRegexRuns(anchoredEmpty, buildAspathMsg(t))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = asRegexRuns(anchoredEmpty, buildAspathMsg(t, 65001))
	require.NoError(t, err)
	require.False(t, ok)

	// ^.*$ matches any path, including the empty one.
	anchoredAny := CompileAsRegex(&ReNode{Op: ReConcat,
		Left:  &ReNode{Op: ReStart},
		Right: &ReNode{Op: ReConcat, Left: &ReNode{Op: ReStar, Sub: &ReNode{Op: ReAny}}, Right: &ReNode{Op: ReEnd}},
	})

	ok, err = asRegexRuns(anchoredAny, buildAspathMsg(t))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = asRegexRuns(anchoredAny, buildAspathMsg(t, 65001, 65002, 65003))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAsRegexNegation(t *testing.T) {
	// !65001 matches any single-hop path whose ASN isn't 65001.
	re := CompileAsRegex(&ReNode{Op: ReLit, ASN: 65001, Negate: true})

	ok, err := asRegexRuns(re, buildAspathMsg(t, 65002))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = asRegexRuns(re, buildAspathMsg(t, 65001))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindAsLoops(t *testing.T) {
	e := NewEval()
	looped := buildAspathMsg(t, 65001, 65002, 65001)
	clean := buildAspathMsg(t, 65001, 65002, 65003)

	ok, err := FindAsLoops(e, looped)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = FindAsLoops(e, clean)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBogonAsn(t *testing.T) {
	e := NewEval()
	bogon := buildAspathMsg(t, 64512, 65002)
	clean := buildAspathMsg(t, 3356, 174)

	ok, err := BogonAsn(e, bogon)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = BogonAsn(e, clean)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTimestampCompare(t *testing.T) {
	e := &Eval{}
	m := msg.NewMsg()
	m.Time = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cp := NewConstPool()
	idx, err := cp.AddTimestamp(&TimestampCmp{Op: CmpGT, When: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	e.push(value{kind: kindConst, const_: &cp.slots[idx]})

	ok, err := TimestampCompare(e, m)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPeerAddrMatch(t *testing.T) {
	e := &Eval{}
	m := msg.NewMsg()
	m.Value = PeerInfo{Addr: netip.MustParseAddr("10.0.0.1"), ASN: 65001}

	cp := NewConstPool()
	pm := &PeerMatch{HasASN: true, ASN: 65001}
	idx, err := cp.AddPeerMatch(pm)
	require.NoError(t, err)
	e.push(value{kind: kindConst, const_: &cp.slots[idx]})

	ok, err := PeerAddrMatch(e, m)
	require.NoError(t, err)
	require.True(t, ok)
}
