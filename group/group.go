// Package group wraps the Ristretto255 prime-order group, giving every
// other package in this module a single, canonical notion of scalar and
// group element arithmetic, encoding, and random sampling.
//
// Ristretto255 has no cofactor: every 32-byte canonical encoding either
// decodes to a unique group element or is rejected outright, so none of
// the small-subgroup pitfalls that plague raw Curve25519 arithmetic apply
// here.
package group

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"
)

// ErrInvalidEncoding is returned by Decode functions when the input is not
// a canonical encoding of a scalar or element, or carries trailing bytes.
var ErrInvalidEncoding = errors.New("group: invalid encoding")

// EncodedLen is the length, in bytes, of a canonical scalar or element
// encoding.
const EncodedLen = 32

// Scalar is an element of the Ristretto255 scalar field.
type Scalar struct {
	s *ristretto255.Scalar
}

// Element is a point on the Ristretto255 group.
type Element struct {
	e *ristretto255.Element
}

// ZeroScalar returns the additive identity of the scalar field.
func ZeroScalar() Scalar {
	return Scalar{ristretto255.NewScalar()}
}

// ScalarFromUint64 returns the scalar corresponding to the given integer.
func ScalarFromUint64(x uint64) Scalar {
	var buf [32]byte
	buf[0] = byte(x)
	buf[1] = byte(x >> 8)
	buf[2] = byte(x >> 16)
	buf[3] = byte(x >> 24)
	buf[4] = byte(x >> 32)
	buf[5] = byte(x >> 40)
	buf[6] = byte(x >> 48)
	buf[7] = byte(x >> 56)
	s, err := ristretto255.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		panic(fmt.Sprintf("group: impossible canonical-bytes failure: %v", err))
	}
	return Scalar{s}
}

// RandScalar samples a scalar uniformly at random using a cryptographic
// RNG. Per spec.md §5, this entropy MUST be sourced locally and never
// derived from log contents.
func RandScalar() Scalar {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("group: entropy failure: %v", err))
	}
	s, err := ristretto255.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		panic(fmt.Sprintf("group: wide reduction failure: %v", err))
	}
	return Scalar{s}
}

// ScalarFromUniformBytes reduces 64 bytes of entropy to a scalar mod q.
// Used for deterministic derivation (e.g. from a transcript challenge).
func ScalarFromUniformBytes(b []byte) (Scalar, error) {
	s, err := ristretto255.NewScalar().SetUniformBytes(b)
	if err != nil {
		return Scalar{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Scalar{s}, nil
}

// Identity returns the group's identity element.
func Identity() Element {
	return Element{ristretto255.NewIdentityElement()}
}

// Generator returns the group's distinguished base point.
func Generator() Element {
	return Element{ristretto255.NewGeneratorElement()}
}

// RandElement samples an element uniformly at random using a cryptographic
// RNG.
func RandElement() Element {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("group: entropy failure: %v", err))
	}
	e, err := ristretto255.NewIdentityElement().SetUniformBytes(buf[:])
	if err != nil {
		panic(fmt.Sprintf("group: hash-to-group failure: %v", err))
	}
	return Element{e}
}

// ElementFromUniformBytes hashes 64 bytes of input to a uniformly
// distributed element. Used to derive independent Pedersen generators and
// session base points from a transcript, without a trusted setup.
func ElementFromUniformBytes(b []byte) (Element, error) {
	e, err := ristretto255.NewIdentityElement().SetUniformBytes(b)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Element{e}, nil
}

// Add returns a + b.
func (a Scalar) Add(b Scalar) Scalar {
	return Scalar{ristretto255.NewScalar().Add(a.s, b.s)}
}

// Sub returns a - b.
func (a Scalar) Sub(b Scalar) Scalar {
	return Scalar{ristretto255.NewScalar().Subtract(a.s, b.s)}
}

// Mul returns a * b.
func (a Scalar) Mul(b Scalar) Scalar {
	return Scalar{ristretto255.NewScalar().Multiply(a.s, b.s)}
}

// Neg returns -a.
func (a Scalar) Neg() Scalar {
	return Scalar{ristretto255.NewScalar().Negate(a.s)}
}

// Inv returns the multiplicative inverse of a. a must be nonzero.
func (a Scalar) Inv() Scalar {
	return Scalar{ristretto255.NewScalar().Invert(a.s)}
}

// Equal reports whether a and b are the same scalar.
func (a Scalar) Equal(b Scalar) bool {
	return a.s.Equal(b.s) == 1
}

// IsZero reports whether a is the additive identity.
func (a Scalar) IsZero() bool {
	return a.Equal(ZeroScalar())
}

// Bytes returns the canonical 32-byte little-endian encoding of a.
func (a Scalar) Bytes() []byte {
	return a.s.Bytes()
}

// DecodeScalar decodes a canonical 32-byte scalar encoding. Returns
// ErrInvalidEncoding if b is not exactly 32 bytes or is not a canonical,
// fully-reduced encoding.
func DecodeScalar(b []byte) (Scalar, error) {
	if len(b) != EncodedLen {
		return Scalar{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidEncoding, EncodedLen, len(b))
	}
	s, err := ristretto255.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return Scalar{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Scalar{s}, nil
}

// inner exposes the wrapped ristretto255 scalar for package-internal use
// without leaking the dependency in public signatures. MSM and
// Element.ScalarMul read the field directly and do not call it.
func (a Scalar) inner() *ristretto255.Scalar { return a.s }

// Add returns a + b.
func (a Element) Add(b Element) Element {
	return Element{ristretto255.NewIdentityElement().Add(a.e, b.e)}
}

// Sub returns a - b.
func (a Element) Sub(b Element) Element {
	return Element{ristretto255.NewIdentityElement().Subtract(a.e, b.e)}
}

// Neg returns -a.
func (a Element) Neg() Element {
	return Element{ristretto255.NewIdentityElement().Negate(a.e)}
}

// ScalarMul returns s*a.
func (a Element) ScalarMul(s Scalar) Element {
	return Element{ristretto255.NewIdentityElement().ScalarMult(s.s, a.e)}
}

// ScalarBaseMul returns s*G, where G is the group generator.
func ScalarBaseMul(s Scalar) Element {
	return Element{ristretto255.NewIdentityElement().ScalarBaseMult(s.s)}
}

// Equal reports whether a and b are the same element.
func (a Element) Equal(b Element) bool {
	return a.e.Equal(b.e) == 1
}

// IsIdentity reports whether a is the group identity.
func (a Element) IsIdentity() bool {
	return a.Equal(Identity())
}

// Bytes returns the canonical 32-byte encoding of a.
func (a Element) Bytes() []byte {
	return a.e.Bytes()
}

// DecodeElement decodes a canonical 32-byte element encoding. Returns
// ErrInvalidEncoding if b is not exactly 32 bytes or is not a canonical
// encoding of a group element (Ristretto255 rejects all non-canonical and
// cofactor-related bad encodings itself).
func DecodeElement(b []byte) (Element, error) {
	if len(b) != EncodedLen {
		return Element{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidEncoding, EncodedLen, len(b))
	}
	e, err := ristretto255.NewIdentityElement().SetCanonicalBytes(b)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Element{e}, nil
}

// inner exposes the wrapped ristretto255 element for package-internal use.
func (a Element) inner() *ristretto255.Element { return a.e }

// MSM computes the multi-scalar multiplication Σ scalars[i]·points[i].
// Panics if the slices have different lengths.
//
// This is the group's single point of truth for weighted sums; other
// packages (elgamal.WeightedSum, the BG12 sub-arguments) build on it
// rather than folding scalar multiplications by hand.
func MSM(scalars []Scalar, points []Element) Element {
	if len(scalars) != len(points) {
		panic(fmt.Sprintf("group: MSM length mismatch: %d scalars, %d points", len(scalars), len(points)))
	}
	if len(scalars) == 0 {
		return Identity()
	}
	ss := make([]*ristretto255.Scalar, len(scalars))
	pp := make([]*ristretto255.Element, len(points))
	for i := range scalars {
		ss[i] = scalars[i].s
		pp[i] = points[i].e
	}
	return Element{ristretto255.NewIdentityElement().VarTimeMultiScalarMult(ss, pp)}
}
