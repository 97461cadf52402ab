package mrt

// Param is one decoded BGP OPEN optional parameter (RFC 4271 §4.2).
type Param struct {
	Code  byte
	Value []byte
}

// ParamIter is the {ptr, nextIdx} cursor over a BGP OPEN message's
// optional-parameters region; it ends when ptr is exhausted. msg.Open parses capability
// parameters inline during ParseCaps; ParamIter exposes the same
// iteration as a standalone cursor for callers (like CapIter below) that
// need to walk parameters of any code, not just PARAM_CAPS.
type ParamIter struct {
	ptr     []byte
	ext     bool // true iff parameters use the extended (2-byte) length encoding
	nextIdx int
}

// NewParamIter returns an iterator over raw (the OPEN message's Params
// field) using the extended-length encoding iff ext.
func NewParamIter(raw []byte, ext bool) *ParamIter {
	return &ParamIter{ptr: raw, ext: ext}
}

// Next returns the next parameter, or ok=false once the region is exhausted.
func (it *ParamIter) Next() (p Param, ok bool, err error) {
	if len(it.ptr) == 0 {
		return p, false, nil
	}

	if it.ext {
		if len(it.ptr) < 3 {
			return p, false, ErrTruncated
		}
		p.Code = it.ptr[0]
		l := int(msb.Uint16(it.ptr[1:3]))
		if len(it.ptr) < 3+l {
			return p, false, ErrTruncated
		}
		p.Value = it.ptr[3 : 3+l]
		it.ptr = it.ptr[3+l:]
	} else {
		if len(it.ptr) < 2 {
			return p, false, ErrTruncated
		}
		p.Code = it.ptr[0]
		l := int(it.ptr[1])
		if len(it.ptr) < 2+l {
			return p, false, ErrTruncated
		}
		p.Value = it.ptr[2 : 2+l]
		it.ptr = it.ptr[2+l:]
	}
	it.nextIdx++
	return p, true, nil
}

const paramCapabilities = 2 // PARAM_CAPS in msg/open.go

// Cap is one decoded BGP capability (RFC 5492).
type Cap struct {
	Code  byte
	Value []byte
}

// CapIter composes ParamIter: it walks optional parameters, and for
// every PARAM_CAPS parameter, re-seeds its current range to iterate the
// capabilities packed inside that parameter before moving to the next
// parameter.
type CapIter struct {
	params *ParamIter
	cur    []byte // current capability sub-TLV range
}

// NewCapIter returns a capability iterator over raw (the OPEN message's
// Params field).
func NewCapIter(raw []byte, ext bool) *CapIter {
	return &CapIter{params: NewParamIter(raw, ext)}
}

// Next returns the next capability, or ok=false once all parameters and
// their embedded capabilities are exhausted.
func (it *CapIter) Next() (c Cap, ok bool, err error) {
	for {
		if len(it.cur) > 0 {
			if len(it.cur) < 2 {
				return c, false, ErrTruncated
			}
			c.Code = it.cur[0]
			l := int(it.cur[1])
			if len(it.cur) < 2+l {
				return c, false, ErrTruncated
			}
			c.Value = it.cur[2 : 2+l]
			it.cur = it.cur[2+l:]
			return c, true, nil
		}

		p, ok, err := it.params.Next()
		if err != nil {
			return c, false, err
		}
		if !ok {
			return c, false, nil
		}
		if p.Code == paramCapabilities {
			it.cur = p.Value
		}
	}
}
