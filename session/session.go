// Package session defines the types shared by every session protocol
// (DKG, Shuffle, TSM, Reencryption): the roster address type, the
// monotonic clock abstraction, and the three-state session status enum
// described in spec.md §3 and §9.
package session

import (
	"encoding/hex"
	"sort"
)

// Address identifies a session participant: the canonical 32-byte
// encoding of their long-term Ristretto255 verification key, per
// SPEC_FULL.md §3's "canonical Address type" expansion.
type Address [32]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Less orders two addresses lexicographically by their byte encoding.
// Culprit lists are reported in roster order (spec.md §8 S6), which in
// turn is whatever order the driver assigned the roster — Less exists so
// callers that need a canonical display order (e.g. tests, logs) have
// one available without re-deriving it.
func (a Address) Less(b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// IndexOf returns the index of addr in roster, or -1 if absent.
func IndexOf(roster []Address, addr Address) int {
	for i, r := range roster {
		if r == addr {
			return i
		}
	}
	return -1
}

// SortAddresses returns a sorted copy of addrs.
func SortAddresses(addrs []Address) []Address {
	out := make([]Address, len(addrs))
	copy(out, addrs)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Clock is the single monotonic time input every session consumes, per
// spec.md §5 ("implementations MAY run multiple independent sessions in
// parallel ... suspension points are exactly: awaiting ... the next
// monotonic clock tick"). It models wall-clock seconds; the driver is
// responsible for deriving concrete deadlines from it (spec.md §9's
// "Deadline handling" note against special-casing infinity).
type Clock int64

// Status is the three-state lifecycle every session enforces: InProgress
// transitions monotonically to exactly one of Succeeded or Failed, never
// back (spec.md §3's state-monotonicity invariant).
type Status int

const (
	InProgress Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
