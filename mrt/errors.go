package mrt

import "errors"

// Error taxonomy per spec §7. Kinds, not type hierarchies: every decoder
// surface returns one of these sentinels (or fmt.Errorf("%w: ...", sentinel)
// with extra context), matching the style of msg/errors.go and
// attrs/errors.go.
var (
	ErrIO        = errors.New("mrt: i/o error")
	ErrShort     = errors.New("mrt: message too short")
	ErrLong      = errors.New("mrt: message too long")
	ErrLength    = errors.New("mrt: invalid length")
	ErrTruncated = errors.New("mrt: truncated record")
	ErrType      = errors.New("mrt: invalid MRT type")
	ErrSub       = errors.New("mrt: invalid MRT subtype")
	ErrBadType   = errors.New("mrt: record type doesn't match accessor")
	ErrBadCount  = errors.New("mrt: iterator count mismatch")
	ErrBadPeer   = errors.New("mrt: peer index out of range")
	ErrAF        = errors.New("mrt: unsupported address family")
	ErrSafi      = errors.New("mrt: unsupported subsequent address family")
	ErrPfxWidth  = errors.New("mrt: prefix width exceeds AFI maximum")
	ErrOversize  = errors.New("mrt: unwrapped BGP message too large")
	ErrNoData    = errors.New("mrt: no message data")
)
