// Command peerindex dumps the peers referenced by MRT TABLE_DUMPv2
// archives: every PEER_INDEX_TABLE entry, optionally restricted to peers
// actually referenced by at least one RIB entry in the same file.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/netsentries/routescope/mrt"
	"github.com/netsentries/routescope/stream"
	"github.com/rs/zerolog/log"
)

var (
	optOut      = flag.String("o", "", "write output to FILE instead of stdout")
	optOnlyRefs = false
)

func init() {
	flag.BoolVar(&optOnlyRefs, "r", false, "print only peers referenced by a RIB entry")
	flag.BoolVar(&optOnlyRefs, "only-refs", false, "print only peers referenced by a RIB entry")
}

// peerSeg is the peer list of one PEER_INDEX_TABLE record, plus which of
// its entries a later RIB record in the same file has referenced.
type peerSeg struct {
	peers []mrt.PeerEntry
	refs  []bool
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: peerindex [-o FILE] [-r|--only-refs] [FILES...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	out := os.Stdout
	if *optOut != "" {
		f, err := os.Create(*optOut)
		if err != nil {
			log.Error().Err(err).Str("file", *optOut).Msg("cannot create output file")
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	var segs []*peerSeg
	errCount := 0

	for _, path := range files {
		src, err := stream.OpenPath(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("cannot open input")
			errCount++
			continue
		}
		_, fileErrs := scanFile(src, &segs)
		src.Close()
		errCount += fileErrs
	}

	for _, seg := range segs {
		for i, pe := range seg.peers {
			if optOnlyRefs && !seg.refs[i] {
				continue
			}
			as32 := 0
			if pe.AS32 {
				as32 = 1
			}
			fmt.Fprintf(w, "%s %d|%d\n", pe.Addr, pe.ASN, as32)
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

// scanFile reads every MRT record from src, folding PEER_INDEX_TABLE and
// RIB records into segs. It returns the number of records read and the
// number of record-level errors encountered (per the warn-and-continue
// policy of spec §7); an I/O
// failure aborts the file and is also counted.
func scanFile(src io.Reader, segs *[]*peerSeg) (records, errs int) {
	rd := mrt.NewReader(src, mrt.ReaderOptions{Logger: &log.Logger})
	rec := mrt.NewRecord()
	var cur *peerSeg

	for {
		err := rd.Next(rec)
		switch {
		case err == nil:
			// fall through to record handling below
		case errors.Is(err, io.EOF):
			return records, errs
		case errors.Is(err, mrt.ErrTruncated):
			log.Warn().Err(err).Msg("dropping truncated MRT record")
			errs++
			continue
		default:
			log.Error().Err(err).Msg("MRT read failed, aborting file")
			errs++
			return records, errs
		}

		records++
		if view, err := mrt.PeerIndexTable(rec); err == nil {
			seg := &peerSeg{peers: make([]mrt.PeerEntry, 0, view.PeerCount)}
			// GetPeer walks the accelerator cache rather than a bare
			// iterator: a sequential 0..n-1 scan is exactly the access
			// pattern the cache amortizes to O(1) per lookup.
			for i := 0; i < view.PeerCount; i++ {
				pe, err := view.GetPeer(i)
				if err != nil {
					log.Warn().Err(err).Int("peer_index", i).Msg("dropping malformed peer entry")
					errs++
					break
				}
				seg.peers = append(seg.peers, pe)
			}
			seg.refs = make([]bool, len(seg.peers))
			*segs = append(*segs, seg)
			cur = seg
			continue
		}

		if ribView, err := mrt.RIBEntries(rec); err == nil {
			if cur == nil {
				log.Warn().Msg("RIB record precedes any PEER_INDEX_TABLE, skipping")
				errs++
				continue
			}
			it := ribView.Iter()
			for {
				e, ok, err := it.Next()
				if err != nil {
					log.Warn().Err(err).Msg("dropping malformed RIB entry")
					errs++
					break
				}
				if !ok {
					break
				}
				idx := int(e.PeerIndex)
				if idx < 0 || idx >= len(cur.refs) {
					log.Warn().Int("peer_index", idx).Msg("RIB entry references out-of-range peer")
					errs++
					continue
				}
				cur.refs[idx] = true
			}
		}
	}
}
