// Package dl implements a Σ-protocol (Schnorr proof) for knowledge of a
// discrete log: knowledge of scalar s such that s·B = P, for public base B
// and public point P.
//
// The construction mirrors the teacher's sig.Sign/sig.Verify Schnorr
// signature (commit, absorb, challenge, respond) generalized from "prove
// knowledge of the signing key for this message" to "prove knowledge of
// the discrete log of this point relative to this base" — the same
// three-move shape, a different statement.
package dl

import (
	"errors"

	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// ErrInvalid is returned by Verify when the proof does not satisfy the
// verification equation.
var ErrInvalid = errors.New("dl: invalid proof")

// Proof is a non-interactive proof of knowledge of a discrete log.
type Proof struct {
	T group.Element
	Z group.Scalar
}

// Prove returns a proof of knowledge of s for the statement s·b = p. The
// caller's transcript must already have absorbed any context the verifier
// will also absorb before calling Verify (e.g. a session label); Prove
// absorbs the statement (b, p) itself, per spec.md §4.3's requirement that
// the proof "consume its statement into the transcript before sampling or
// checking challenges."
func Prove(tr *transcript.Transcript, b, p group.Element, s group.Scalar) Proof {
	tr.AppendElement("dl-base", b)
	tr.AppendElement("dl-point", p)

	r := group.RandScalar()
	t := b.ScalarMul(r)
	tr.AppendElement("dl-commitment", t)

	c := tr.Challenge("dl-challenge")
	z := r.Add(c.Mul(s))

	return Proof{T: t, Z: z}
}

// Verify checks a Σ-DL proof against the statement b, p. Returns
// ErrInvalid if the proof does not verify.
func Verify(tr *transcript.Transcript, b, p group.Element, proof Proof) error {
	tr.AppendElement("dl-base", b)
	tr.AppendElement("dl-point", p)
	tr.AppendElement("dl-commitment", proof.T)

	c := tr.Challenge("dl-challenge")

	lhs := b.ScalarMul(proof.Z)
	rhs := proof.T.Add(p.ScalarMul(c))
	if !lhs.Equal(rhs) {
		return ErrInvalid
	}
	return nil
}

// Encode appends the proof's wire encoding (Element t, Scalar z, per
// spec.md §6) to e.
func (proof Proof) Encode(e *wire.Encoder) {
	e.Element(proof.T)
	e.Scalar(proof.Z)
}

// Decode reads a Σ-DL proof from d.
func Decode(d *wire.Decoder) (Proof, error) {
	t, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	z, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	return Proof{T: t, Z: z}, nil
}
