// Package transcript implements the Fiat-Shamir transcript used throughout
// this module to turn interactive Σ-protocols and the BG12 shuffle argument
// into non-interactive ones.
//
// Unlike the teacher's sponge-based thyrse.Protocol, a Transcript here is a
// flat append-only byte buffer: challenges are derived by hashing the
// entire buffer with SHA2-512 and reducing the digest mod the scalar-field
// order via wide reduction. This matches spec.md §4.1 exactly and keeps
// the construction auditable by inspection of the buffer contents.
package transcript

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/pokermesh/mentalpoker/group"
)

// Transcript is an append-only byte log used to derive Fiat-Shamir
// challenges. The zero value is not usable; construct one with New.
type Transcript struct {
	buf []byte
}

// New creates a transcript seeded with a protocol domain-separation label.
// Every session protocol in this module (DKG, Shuffle, TSM, Reencryption)
// uses a distinct label here so that a challenge from one protocol can
// never be replayed as a challenge in another, per spec.md §6
// ("Transcript domain separation"). The proof packages (Σ-DL, Σ-DL-EQ,
// the BG12 arguments) do not call New: they absorb their statements into
// the transcript their caller passes in.
func New(label string) *Transcript {
	t := &Transcript{buf: make([]byte, 0, 256)}
	t.AppendBytes("domain-separator", []byte(label))
	return t
}

// AppendBytes absorbs a labeled byte string into the transcript. The label
// and the length of data are both folded in, so distinct (label, data)
// pairs never collide in the buffer even when data is a prefix of another
// appended value.
func (t *Transcript) AppendBytes(label string, data []byte) {
	t.appendLengthPrefixed([]byte(label))
	t.appendLengthPrefixed(data)
}

// AppendElement absorbs the canonical encoding of a group element.
func (t *Transcript) AppendElement(label string, e group.Element) {
	t.AppendBytes(label, e.Bytes())
}

// AppendScalar absorbs the canonical encoding of a scalar. Proof systems in
// this module absorb public scalars (e.g. BG12's public product target)
// but never secret ones, since the transcript is replicated on the public
// log.
func (t *Transcript) AppendScalar(label string, s group.Scalar) {
	t.AppendBytes(label, s.Bytes())
}

// AppendUint64 absorbs a fixed-width little-endian integer, e.g. a vector
// length being bound into the statement.
func (t *Transcript) AppendUint64(label string, x uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	t.AppendBytes(label, buf[:])
}

// Challenge derives a scalar deterministically from the current transcript
// state: SHA2-512(buffer), reduced mod q via wide reduction. It mutates
// the transcript by appending label before hashing, so every later
// challenge depends on this call; the challenge value itself is not
// appended.
func (t *Transcript) Challenge(label string) group.Scalar {
	// The label is appended to the buffer before hashing so that two calls
	// to Challenge with different labels against the same prefix produce
	// independent scalars (used by BG12 to derive x, y, and z in sequence).
	t.AppendBytes("challenge", []byte(label))
	digest := sha512.Sum512(t.buf)
	s, err := group.ScalarFromUniformBytes(digest[:])
	if err != nil {
		panic("transcript: sha512 digest is not 64 bytes")
	}
	return s
}

// DeriveBytes returns the raw 64-byte SHA2-512 digest of the transcript
// buffer after absorbing label, without reducing it to a scalar. Used to
// hash-to-group independent generators (see pedersen.New) where the
// discrete log of the output relative to any other generator must stay
// unknown to everyone, including the deriving party — reducing to a
// scalar first and then exponentiating the base point would leak exactly
// that discrete log.
func (t *Transcript) DeriveBytes(label string) [64]byte {
	t.AppendBytes("derive", []byte(label))
	return sha512.Sum512(t.buf)
}

// Clone returns an independent copy of the transcript. Two sub-proofs that
// must derive challenges from a common prefix without influencing each
// other (see spec.md §4.4, where the BG12 product argument branches off a
// shared prefix) MUST clone before diverging, per spec.md §9
// ("Transcript branching").
func (t *Transcript) Clone() *Transcript {
	buf := make([]byte, len(t.buf))
	copy(buf, t.buf)
	return &Transcript{buf: buf}
}

// appendLengthPrefixed writes left-padded uint64 length followed by data,
// so that the decoding of the buffer (for audit purposes) is unambiguous
// even when data is empty.
func (t *Transcript) appendLengthPrefixed(data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	t.buf = append(t.buf, lenBuf[:]...)
	t.buf = append(t.buf, data...)
}
