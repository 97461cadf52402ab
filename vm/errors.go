package vm

import "errors"

var (
	ErrStackUnderflow = errors.New("vm: stack underflow")
	ErrBlockUnderflow = errors.New("vm: block frame underflow")
	ErrBadOpcode      = errors.New("vm: unknown opcode")
	ErrBadConst       = errors.New("vm: bad constant-pool reference")
	ErrBadFunc        = errors.New("vm: bad function-table reference")
	ErrBadConstType   = errors.New("vm: constant-pool slot holds the wrong matcher type")
	ErrPoolFull       = errors.New("vm: constant pool exhausted (256 slots)")
)
