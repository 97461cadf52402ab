package compile

import (
	"net/netip"
	"os"
	"strings"

	"github.com/netsentries/routescope/vm"
)

// buildPrefixTries inserts every prefix in toks into a fresh v4/v6 trie
// pair. Per spec's file-list format, entries may carry a leading '+'
// (announce-only) or '-' (withdrawn-only) tag; this compiler targets
// the announced-prefix domain uniformly (an Open Question resolution
// recorded in DESIGN.md), so the tag is parsed and discarded rather
// than splitting into a second domain-specific trie pair.
func buildPrefixTries(toks []string) (v4, v6 *vm.Trie, err error) {
	v4, v6 = vm.NewTrie(), vm.NewTrie()
	for _, tok := range toks {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch tok[0] {
		case '+', '-':
			tok = tok[1:]
		}
		pfx, perr := parsePrefixToken(tok)
		if perr != nil {
			return nil, nil, perr
		}
		if pfx.Addr().Is4() {
			v4.Insert(pfx)
		} else {
			v6.Insert(pfx)
		}
	}
	return v4, v6, nil
}

func parsePrefixToken(tok string) (netip.Prefix, error) {
	if strings.Contains(tok, "/") {
		return netip.ParsePrefix(tok)
	}
	addr, err := netip.ParseAddr(tok)
	if err != nil {
		return netip.Prefix{}, err
	}
	bits := 32
	if addr.Is6() {
		bits = 128
	}
	return netip.PrefixFrom(addr, bits), nil
}

// loadPrefixFile reads path, one prefix token per line (blank lines and
// '#' comments ignored), and returns its v4/v6 trie pair. An empty list
// compiles to an unconditional false (spec's explicit edge case),
// signalled by both tries being empty.
func loadPrefixFile(path string) (v4, v6 *vm.Trie, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var toks []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toks = append(toks, line)
	}
	return buildPrefixTries(toks)
}
