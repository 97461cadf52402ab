package compile

import (
	"strings"

	"github.com/netsentries/routescope/vm"
)

// parser is a recursive-descent parser over an argv-style token slice,
// modeled on find(1)'s expression grammar: implicit juxtaposition is
// AND, "-or"/"-o" is the lowest-precedence connective, "!"/"-not" binds
// to the single term that follows it, and parentheses group.
//
// Each leaf predicate consumes at most one operand token (-loops and
// -bogon-asn take none); lists (prefixes, communities, peer address+ASN)
// are passed as a single comma-separated token so the tokenizer never has
// to guess where a leaf's operand ends.
type parser struct {
	toks []string
	pos  int
	tree ir
}

func newParser(toks []string) *parser {
	return &parser{toks: toks, tree: ir{}}
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

// Parse consumes the whole token slice and returns the completed IR.
func (p *parser) Parse() (*ir, error) {
	if len(p.toks) == 0 {
		return nil, errAt(0, "empty filter expression")
	}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, errAt(p.pos, "unexpected token: "+p.peek())
	}
	p.tree.root = root
	return &p.tree, nil
}

func (p *parser) parseOr() (int, error) {
	left, err := p.parseAnd()
	if err != nil {
		return -1, err
	}
	for isOrTok(p.peek()) {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return -1, err
		}
		left = p.tree.add(node{kind: nodeOr, left: left, right: right})
	}
	return left, nil
}

func (p *parser) parseAnd() (int, error) {
	left, err := p.parseUnary()
	if err != nil {
		return -1, err
	}
	for p.startsTerm() {
		if isAndTok(p.peek()) {
			p.next()
		}
		right, err := p.parseUnary()
		if err != nil {
			return -1, err
		}
		left = p.tree.add(node{kind: nodeAnd, left: left, right: right})
	}
	return left, nil
}

// startsTerm reports whether the token at the cursor can begin a new
// term, i.e. whether implicit-AND juxtaposition or an explicit "-and"
// applies here rather than ending the enclosing AND-chain.
func (p *parser) startsTerm() bool {
	t := p.peek()
	if t == "" || t == ")" || isOrTok(t) {
		return false
	}
	return true
}

func (p *parser) parseUnary() (int, error) {
	if isNotTok(p.peek()) {
		p.next()
		sub, err := p.parseUnary()
		if err != nil {
			return -1, err
		}
		return p.tree.add(node{kind: nodeNot, right: sub}), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (int, error) {
	if p.atEnd() {
		return -1, errAt(p.pos, "expected expression")
	}
	if p.peek() == "(" {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return -1, err
		}
		if p.peek() != ")" {
			return -1, errAt(p.pos, "expected )")
		}
		p.next()
		return inner, nil
	}
	return p.parseLeaf()
}

func isOrTok(t string) bool  { return t == "-or" || t == "-o" }
func isAndTok(t string) bool { return t == "-and" || t == "-a" }
func isNotTok(t string) bool { return t == "!" || t == "-not" }

func (p *parser) parseLeaf() (int, error) {
	flag := p.next()
	pos := p.pos - 1
	switch flag {
	case "-type":
		if p.atEnd() {
			return -1, errAt(pos, "-type needs an operand")
		}
		v := p.next()
		t, ok := parseTypeName(v)
		if !ok {
			return -1, wrapAt(pos, errAt(pos, v), "-type")
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: leafType, msgType: t}), nil

	case "-attr":
		if p.atEnd() {
			return -1, errAt(pos, "-attr needs an operand")
		}
		v := p.next()
		c, err := parseAttr(v)
		if err != nil {
			return -1, wrapAt(pos, err, "-attr")
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: leafAttr, attrCode: c}), nil

	case "-aspath":
		if p.atEnd() {
			return -1, errAt(pos, "-aspath needs an operand")
		}
		v := p.next()
		re, err := parseAsPathRegex(v)
		if err != nil {
			return -1, wrapAt(pos, err, "-aspath")
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: leafAspath, regex: re}), nil

	case "-peer":
		if p.atEnd() {
			return -1, errAt(pos, "-peer needs an operand")
		}
		v := p.next()
		pm, err := parsePeerExpr(strings.Split(v, ","))
		if err != nil {
			return -1, wrapAt(pos, err, "-peer")
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: leafPeer, peer: pm}), nil

	case "-loops":
		return p.tree.add(node{kind: nodeLeaf, leaf: leafLoops}), nil

	case "-bogon-asn":
		return p.tree.add(node{kind: nodeLeaf, leaf: leafBogonAsn}), nil

	case "-exact", "-supernet", "-subnet", "-related":
		if p.atEnd() {
			return -1, errAt(pos, flag+" needs an operand")
		}
		v := p.next()
		v4, v6, err := prefixOperand(v)
		if err != nil {
			return -1, wrapAt(pos, err, flag)
		}
		lk := map[string]leafKind{
			"-exact":    leafExact,
			"-supernet": leafSupernet,
			"-subnet":   leafSubnet,
			"-related":  leafRelated,
		}[flag]
		return p.tree.add(node{kind: nodeLeaf, leaf: lk, trie4: v4, trie6: v6}), nil

	case "-timestamp":
		if p.atEnd() {
			return -1, errAt(pos, "-timestamp needs an operand")
		}
		v := p.next()
		ts, err := parseTimestampExpr(v)
		if err != nil {
			return -1, wrapAt(pos, err, "-timestamp")
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: leafTimestamp, ts: ts}), nil

	case "-communities", "-all-communities":
		if p.atEnd() {
			return -1, errAt(pos, flag+" needs an operand")
		}
		v := p.next()
		cs, err := parseCommunityExpr(v)
		if err != nil {
			return -1, wrapAt(pos, err, flag)
		}
		lk := leafCommunities
		all := false
		if flag == "-all-communities" {
			lk, all = leafAllCommunities, true
		}
		return p.tree.add(node{kind: nodeLeaf, leaf: lk, comset: cs, allCom: all}), nil

	default:
		return -1, errAt(pos, "unknown filter term: "+flag)
	}
}

// prefixOperand parses a leaf's prefix operand, either a comma-separated
// inline list or "@PATH" to load the list from a file.
func prefixOperand(v string) (*vm.Trie, *vm.Trie, error) {
	if strings.HasPrefix(v, "@") {
		return loadPrefixFile(v[1:])
	}
	return buildPrefixTries(strings.Split(v, ","))
}
