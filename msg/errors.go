package msg

import "errors"

var (
	// generic errors
	ErrTODO   = errors.New("not implemented")
	ErrType   = errors.New("invalid type")
	ErrLength = errors.New("invalid length")
	ErrShort  = errors.New("too short")

	ErrMarker   = errors.New("marker not found")
	ErrVersion  = errors.New("invalid version")
	ErrParams   = errors.New("invalid parameters")
	ErrCaps     = errors.New("invalid capabilities")
	ErrAttrDupe = errors.New("duplicate attribute")
	ErrAttrs    = errors.New("invalid attributes")
)
