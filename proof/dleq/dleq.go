// Package dleq implements a Σ-protocol for equality of two discrete logs:
// knowledge of scalar s such that s·B0 = P0 AND s·B1 = P1, for public
// bases B0, B1 and public points P0, P1.
//
// This extends proof/dl to two bases sharing the same commitment
// randomness r: committing t0 = r·B0 and t1 = r·B1 and answering both
// equations with the same response z is what binds the two discrete logs
// together, in the same spirit as the teacher's frost.go binding one
// challenge scalar to two independent verification equations (hiding and
// binding commitments) via a shared response.
package dleq

import (
	"errors"

	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// ErrInvalid is returned by Verify when the proof does not satisfy either
// verification equation.
var ErrInvalid = errors.New("dleq: invalid proof")

// Proof is a non-interactive proof of equality of discrete logs.
type Proof struct {
	T0 group.Element
	T1 group.Element
	Z  group.Scalar
}

// Prove returns a proof of knowledge of s for the statement s·b0 = p0 ∧
// s·b1 = p1.
func Prove(tr *transcript.Transcript, b0, p0, b1, p1 group.Element, s group.Scalar) Proof {
	tr.AppendElement("dleq-base0", b0)
	tr.AppendElement("dleq-point0", p0)
	tr.AppendElement("dleq-base1", b1)
	tr.AppendElement("dleq-point1", p1)

	r := group.RandScalar()
	t0 := b0.ScalarMul(r)
	t1 := b1.ScalarMul(r)
	tr.AppendElement("dleq-commitment0", t0)
	tr.AppendElement("dleq-commitment1", t1)

	c := tr.Challenge("dleq-challenge")
	z := r.Add(c.Mul(s))

	return Proof{T0: t0, T1: t1, Z: z}
}

// Verify checks a Σ-DL-EQ proof against the statement b0, p0, b1, p1.
func Verify(tr *transcript.Transcript, b0, p0, b1, p1 group.Element, proof Proof) error {
	tr.AppendElement("dleq-base0", b0)
	tr.AppendElement("dleq-point0", p0)
	tr.AppendElement("dleq-base1", b1)
	tr.AppendElement("dleq-point1", p1)
	tr.AppendElement("dleq-commitment0", proof.T0)
	tr.AppendElement("dleq-commitment1", proof.T1)

	c := tr.Challenge("dleq-challenge")

	lhs0 := b0.ScalarMul(proof.Z)
	rhs0 := proof.T0.Add(p0.ScalarMul(c))
	if !lhs0.Equal(rhs0) {
		return ErrInvalid
	}

	lhs1 := b1.ScalarMul(proof.Z)
	rhs1 := proof.T1.Add(p1.ScalarMul(c))
	if !lhs1.Equal(rhs1) {
		return ErrInvalid
	}

	return nil
}

// Encode appends the proof's wire encoding (Element t0, Element t1,
// Scalar z, per spec.md §6) to e.
func (proof Proof) Encode(e *wire.Encoder) {
	e.Element(proof.T0)
	e.Element(proof.T1)
	e.Scalar(proof.Z)
}

// Decode reads a Σ-DL-EQ proof from d.
func Decode(d *wire.Decoder) (Proof, error) {
	t0, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	t1, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	z, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	return Proof{T0: t0, T1: t1, Z: z}, nil
}
