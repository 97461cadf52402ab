package stream

import "os"

// File is a thin pass-through Stream wrapping an *os.File.
type File struct {
	f *os.File
}

// NewFile wraps an already-open *os.File as a Stream.
func NewFile(f *os.File) *File {
	return &File{f: f}
}

// Open opens path for reading and wraps it as a Stream.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// Create creates (or truncates) path for writing and wraps it as a Stream.
func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

func (s *File) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *File) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *File) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *File) Tell() (int64, error) {
	return s.f.Seek(0, os.SEEK_CUR)
}

// Finish flushes pending writes to the underlying OS file descriptor.
func (s *File) Finish() error {
	return s.f.Sync()
}

func (s *File) Close() error {
	return s.f.Close()
}
