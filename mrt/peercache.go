package mrt

import "sync/atomic"

// PeerIndexCache is the lock-free accelerator of spec §4.3: it amortizes
// the otherwise O(n) walk needed to find peer entry i in a
// PEER_INDEX_TABLE by remembering the byte offset of every entry already
// scanned by any reader of the same Record.
//
// Concurrency discipline (spec §5): validCount is read with Acquire and
// written with a release-CAS; offsets are relaxed loads/stores, safe
// because every writer that reaches a given slot computes the exact same
// value from the record's own (immutable, post-decode) bytes — a race on
// an idempotent store is not a race that matters.
type PeerIndexCache struct {
	view       *PeerIndexView
	validCount atomic.Uint32
	offsets    []atomic.Uint32 // len == view.PeerCount
}

// newPeerIndexCache allocates an empty cache sized for view.
func newPeerIndexCache(view *PeerIndexView) *PeerIndexCache {
	return &PeerIndexCache{
		view:    view,
		offsets: make([]atomic.Uint32, view.PeerCount),
	}
}

// cacheFor installs (if absent) and returns the PeerIndexCache attached
// to v's Record, racing other installers via CAS — the loser's attempt
// is simply discarded, per spec §4.3.
func (v *PeerIndexView) cacheFor() *PeerIndexCache {
	if c := v.rec.peerCache.Load(); c != nil {
		return c
	}
	fresh := newPeerIndexCache(v)
	if v.rec.peerCache.CompareAndSwap(nil, fresh) {
		return fresh
	}
	return v.rec.peerCache.Load()
}

// Cache returns the PeerIndexCache for v, installing it lazily.
func (v *PeerIndexView) Cache() *PeerIndexCache {
	return v.cacheFor()
}

// Get looks up peer i, using the O(1) fast path when i is already
// covered by the cache and falling back to a bounded forward scan
// otherwise. This implements the 5-step Lookup algorithm of spec §4.3.
func (c *PeerIndexCache) Get(i int) (PeerEntry, error) {
	if i < 0 || i >= c.view.PeerCount {
		return PeerEntry{}, ErrBadPeer
	}

	// 1. fast path: i already within the observed valid range.
	valid := int(c.validCount.Load()) // acquire
	if i < valid {
		off := c.offsets[i].Load() // relaxed
		pe, _, err := decodePeerEntry(c.view.peers[off:])
		return pe, err
	}

	// 2. bounds already checked above.

	// 3. seed an iterator just past the last well-formed entry we know of.
	var startOff int
	if valid > 0 {
		lastOff := int(c.offsets[valid-1].Load())
		pe, size, err := decodePeerEntry(c.view.peers[lastOff:])
		if err != nil {
			return PeerEntry{}, err
		}
		_ = pe
		startOff = lastOff + size
	}

	// 4. iterate forward, storing every freshly discovered offset.
	off := startOff
	newValid := valid
	var found PeerEntry
	for newValid <= i {
		if off > len(c.view.peers) {
			return PeerEntry{}, ErrTruncated
		}
		pe, size, err := decodePeerEntry(c.view.peers[off:])
		if err != nil {
			return PeerEntry{}, err
		}
		c.offsets[newValid].Store(uint32(off)) // relaxed, idempotent
		if newValid == i {
			found = pe
		}
		off += size
		newValid++
	}

	// 5. publish the new validCount with a release CAS; a failed CAS
	// means another writer published validCount concurrently, which is
	// fine since both writers store identical offsets, so it is not
	// retried.
	c.validCount.CompareAndSwap(uint32(valid), uint32(newValid)) // release

	return found, nil
}

// GetPeer looks up peer i in v, using v's (lazily installed) cache.
func (v *PeerIndexView) GetPeer(i int) (PeerEntry, error) {
	return v.cacheFor().Get(i)
}
