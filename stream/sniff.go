package stream

import (
	"os"
	"strings"
)

// OpenPath opens path for reading with extension-sniffed decompression,
// per spec §6's CLI contract: ".bz2" selects bzip2, ".gz"/".z" selects
// gzip, ".xz" selects xz, anything else is read raw. "-" means stdin.
func OpenPath(path string) (Stream, error) {
	if path == "-" || path == "" {
		return &stdinStream{}, nil
	}

	f, err := Open(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepathExt(path)); ext {
	case ".bz2":
		return OpenBzip2(f, true), nil
	case ".gz", ".z":
		return OpenGzip(f, true)
	case ".xz":
		return OpenXz(f, true)
	default:
		return f, nil
	}
}

// filepathExt mirrors path/filepath.Ext without importing the whole
// package for one helper; it is extension sniffing only, not a general
// path utility (those are out of scope per spec.md §1).
func filepathExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// stdinStream adapts os.Stdin to Stream (read-only, no seek).
type stdinStream struct{}

func (s *stdinStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (s *stdinStream) Write(p []byte) (int, error) { return 0, ErrUnsupported }
func (s *stdinStream) Close() error                { return nil }
