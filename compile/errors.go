// Package compile turns a find(1)-style argument list into a compiled
// vm.Program: a recursive-descent parser builds a flat IR node table,
// a post-order emitter lowers it to bytecode, and a peephole pass
// cleans up the result.
package compile

import "github.com/pkg/errors"

// ParseError wraps a parse failure with the argv position it occurred at.
type ParseError struct {
	Pos int
	Err error
}

func (e *ParseError) Error() string {
	return errors.Wrapf(e.Err, "argument %d", e.Pos).Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func errAt(pos int, msg string) error {
	return &ParseError{Pos: pos, Err: errors.New(msg)}
}

func wrapAt(pos int, err error, msg string) error {
	return &ParseError{Pos: pos, Err: errors.Wrap(err, msg)}
}
