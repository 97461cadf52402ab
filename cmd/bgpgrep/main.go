// Command bgpgrep filters BGP messages extracted from MRT archives
// (BGP4MP, BGP4MP_ET, and legacy ZEBRA records) against a find(1)-style
// filter expression, printing the ones that pass.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/netsentries/routescope/caps"
	"github.com/netsentries/routescope/compile"
	"github.com/netsentries/routescope/mrt"
	"github.com/netsentries/routescope/msg"
	"github.com/netsentries/routescope/stream"
	"github.com/netsentries/routescope/vm"
	"github.com/rs/zerolog/log"
)

var (
	optNoColor      = flag.Bool("no-color", false, "disable ANSI color in printed messages")
	optDumpBytecode = flag.Bool("dump-bytecode", false, "print the compiled filter's bytecode and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bgpgrep [--no-color] [--dump-bytecode] [FILES...] [FILTER_EXPR]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files, filterArgv := splitArgs(flag.Args())

	var prog *vm.Program
	if len(filterArgv) > 0 {
		p, err := compile.Compile(filterArgv)
		if err != nil {
			log.Error().Err(err).Msg("invalid filter expression")
			os.Exit(1)
		}
		prog = p
	}

	if *optDumpBytecode {
		if prog == nil {
			fmt.Fprintln(os.Stderr, "--dump-bytecode requires a filter expression")
			os.Exit(1)
		}
		dumpBytecode(os.Stdout, prog)
		return
	}

	if len(files) == 0 {
		files = []string{"-"}
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	ev := vm.NewEval()
	errCount := 0
	for _, path := range files {
		src, err := stream.OpenPath(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("cannot open input")
			errCount++
			continue
		}
		n, fatal := grepFile(src, prog, ev, w)
		errCount += n
		src.Close()
		if fatal {
			w.Flush()
			os.Exit(1)
		}
	}

	if err := w.Flush(); err != nil {
		log.Error().Err(err).Msg("write failed")
		errCount++
	}
	if errCount > 0 {
		os.Exit(1)
	}
}

// splitArgs separates the leading FILES positionals from the trailing
// find(1)-style FILTER_EXPR: the first token that opens a primary or
// connective ("-something", "!", "(") starts the expression, matching
// the grammar in compile's own argv parser.
func splitArgs(args []string) (files, filterArgv []string) {
	for i, a := range args {
		if strings.HasPrefix(a, "-") || a == "!" || a == "(" {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

// grepFile reads every MRT record from src, extracts the BGP message (if
// any) it carries, evaluates prog against it (prog == nil passes
// everything), and prints the ones that pass. Returns the number of
// record-level errors encountered, and fatal=true iff a filter
// evaluation error aborted the run.
func grepFile(src io.Reader, prog *vm.Program, ev *vm.Eval, w io.Writer) (errs int, fatal bool) {
	rd := mrt.NewReader(src, mrt.ReaderOptions{Logger: &log.Logger})
	rec := mrt.NewRecord()
	var cps caps.Caps

	for {
		err := rd.Next(rec)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return errs, false
		case errors.Is(err, mrt.ErrTruncated):
			log.Warn().Err(err).Msg("dropping truncated MRT record")
			errs++
			continue
		default:
			log.Error().Err(err).Msg("MRT read failed, aborting file")
			errs++
			return errs, false
		}

		m, err := extractMsg(rec)
		if err != nil {
			if !errors.Is(err, mrt.ErrBadType) && !errors.Is(err, mrt.ErrSub) {
				log.Warn().Err(err).Msg("dropping record")
				errs++
			}
			continue
		}
		if m == nil {
			continue
		}

		if err := m.Parse(cps); err != nil {
			log.Warn().Err(err).Msg("dropping unparseable BGP message")
			errs++
			continue
		}

		if prog != nil {
			res := ev.Run(prog, m)
			if ev.Err != nil {
				log.Error().Err(ev.Err).Msg("filter evaluation failed, aborting")
				return errs + 1, true
			}
			if res != vm.PASS {
				continue
			}
		}

		fmt.Fprintln(w, formatMsg(m, *optNoColor))
	}
}

// extractMsg decodes rec into a BGP message if rec carries one, trying
// BGP4MP/BGP4MP_ET then legacy ZEBRA. A BGP4MP state-change record
// yields (nil, nil); a record of any other MRT type yields
// mrt.ErrBadType, which grepFile skips without counting it as an error.
func extractMsg(rec *mrt.Record) (*msg.Msg, error) {
	if rec.Type.IsBGP4MP() {
		v, err := mrt.Bgp4mp(rec)
		if err != nil {
			return nil, err
		}
		if v.IsState {
			return nil, nil
		}
		m, _, err := mrt.UnwrapBgp4mp(v, true)
		return m, err
	}
	if rec.Type == mrt.BGP {
		v, err := mrt.Zebra(rec)
		if err != nil {
			return nil, err
		}
		m, err := mrt.UnwrapZebra(v)
		return m, err
	}
	return nil, mrt.ErrBadType
}

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
)

var typeColor = map[msg.Type]string{
	msg.OPEN:      "\x1b[34m", // blue
	msg.UPDATE:    "\x1b[32m", // green
	msg.NOTIFY:    "\x1b[31m", // red
	msg.KEEPALIVE: "\x1b[2m",  // dim
	msg.REFRESH:   "\x1b[36m", // cyan
}

// formatMsg renders m as one line of JSON, matching the teacher's own
// `m.ToJSON(nil)` convention, optionally prefixed with an ANSI color
// keyed on the message type.
func formatMsg(m *msg.Msg, noColor bool) string {
	j := m.ToJSON(nil)
	if noColor {
		return string(j)
	}
	c, ok := typeColor[m.Type]
	if !ok {
		c = ansiDim
	}
	return c + string(j) + ansiReset
}

// dumpBytecode prints prog's instruction stream, one instruction per
// line, as "<offset> <mnemonic> <imm>".
func dumpBytecode(w io.Writer, prog *vm.Program) {
	for pc, word := range prog.Instrs {
		instr := vm.Decode(word)
		fmt.Fprintf(w, "%04d %-7s imm=%d\n", pc, instr.Op, instr.Imm)
	}
}
