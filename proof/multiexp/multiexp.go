// Package multiexp implements the BG12 multi-exponentiation argument: a
// proof that a target ElGamal ciphertext equals a multi-exponentiation of a
// public ciphertext vector by a Pedersen-committed exponent vector, per
// spec.md §4.4.
//
// The statement is: given a Pedersen context ctx, an encryption key ek, a
// ciphertext vector C_1..C_n, a commitment Ca = Commit(r, a_1..a_n), and a
// target ciphertext C*, prove knowledge of a, r, and a blinding scalar ρ
// such that C* = Enc(ek, ρ, 0) + Σ a_i·C_i, without revealing a, r, or ρ.
//
// Like proof/product, this is an original derivation grounded in spec.md's
// algebraic description rather than a byte-for-byte port of the published
// BG12 diagonal-decomposition argument (no Go implementation of BG12 exists
// in the reference corpus to port from). The published argument folds O(n)
// cross-diagonal ciphertext terms because its vector commitment opening is
// itself part of a larger recursive reduction; here the relation
// C* = Enc(ek,ρ,0) + Σ a_i·C_i is linear in (a, ρ) by construction, so a
// single pair of ciphertext commitments (E0, E1) collapsed by one
// Fiat-Shamir challenge already gives a sound Σ-protocol for it, in place
// of the paper's multi-round diagonal folding.
package multiexp

import (
	"errors"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/pedersen"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// ErrInvalid is returned by Verify when a proof fails any of its checks.
var ErrInvalid = errors.New("multiexp: invalid proof")

// Proof is a non-interactive multi-exponentiation argument.
type Proof struct {
	CmtA0 group.Element
	E0    elgamal.Ciphertext
	E1    elgamal.Ciphertext
	AVec  []group.Scalar
	R     group.Scalar
	Tau   group.Scalar
}

// Prove returns a multi-exponentiation argument for the statement
// Commit(r,a) = ca, target = Enc(ek,rho,0) + Σ a_i·cs[i].
func Prove(ctx pedersen.Context, ek elgamal.EncKey, tr *transcript.Transcript, cs []elgamal.Ciphertext, target elgamal.Ciphertext, ca group.Element, a []group.Scalar, r group.Scalar, rho group.Scalar) Proof {
	n := len(a)
	if n == 0 || len(cs) != n {
		panic("multiexp: vector length mismatch")
	}

	tr.AppendElement("multiexp-ca", ca)
	appendCiphertext(tr, "multiexp-target", target)
	for i, c := range cs {
		tr.AppendElement("multiexp-c", c.C0)
		tr.AppendElement("multiexp-c", c.C1)
		_ = i
	}

	a0 := make([]group.Scalar, n)
	for i := range a0 {
		a0[i] = group.RandScalar()
	}
	r0 := group.RandScalar()
	cmtA0 := ctx.Commit(r0, a0)

	rho0 := group.RandScalar()
	e0 := elgamal.Encrypt(ek, rho0, group.Identity())
	e0 = elgamal.Add(e0, elgamal.WeightedSum(cs, a0))
	e1 := target

	tr.AppendElement("multiexp-cmt-a0", cmtA0)
	appendCiphertext(tr, "multiexp-e0", e0)
	appendCiphertext(tr, "multiexp-e1", e1)

	x := tr.Challenge("multiexp-x")

	aVec := make([]group.Scalar, n)
	for i := range aVec {
		aVec[i] = a0[i].Add(x.Mul(a[i]))
	}
	rTilde := r0.Add(x.Mul(r))
	tauTilde := rho0.Add(x.Mul(rho))

	return Proof{CmtA0: cmtA0, E0: e0, E1: e1, AVec: aVec, R: rTilde, Tau: tauTilde}
}

// Verify checks a multi-exponentiation argument against the statement ek,
// cs, target, ca.
func Verify(ctx pedersen.Context, ek elgamal.EncKey, tr *transcript.Transcript, cs []elgamal.Ciphertext, target elgamal.Ciphertext, ca group.Element, proof Proof) error {
	n := len(proof.AVec)
	if n == 0 || len(cs) != n {
		return ErrInvalid
	}

	tr.AppendElement("multiexp-ca", ca)
	appendCiphertext(tr, "multiexp-target", target)
	for _, c := range cs {
		tr.AppendElement("multiexp-c", c.C0)
		tr.AppendElement("multiexp-c", c.C1)
	}

	tr.AppendElement("multiexp-cmt-a0", proof.CmtA0)
	appendCiphertext(tr, "multiexp-e0", proof.E0)
	appendCiphertext(tr, "multiexp-e1", proof.E1)

	x := tr.Challenge("multiexp-x")

	lhs1 := ctx.Commit(proof.R, proof.AVec)
	rhs1 := proof.CmtA0.Add(ca.ScalarMul(x))
	if !lhs1.Equal(rhs1) {
		return ErrInvalid
	}

	lhs2 := elgamal.Add(elgamal.Encrypt(ek, proof.Tau, group.Identity()), elgamal.WeightedSum(cs, proof.AVec))
	rhs2 := elgamal.Add(proof.E0, elgamal.Scale(proof.E1, x))
	if !lhs2.Equal(rhs2) {
		return ErrInvalid
	}

	if !proof.E1.Equal(target) {
		return ErrInvalid
	}

	return nil
}

func appendCiphertext(tr *transcript.Transcript, label string, c elgamal.Ciphertext) {
	tr.AppendElement(label+"-c0", c.C0)
	tr.AppendElement(label+"-c1", c.C1)
}

// Encode appends the proof's wire encoding (Element cmt_a0, Ciphertext
// e_0, e_1, Vector<Scalar> a_vec, Scalar r, tau) to e, per this package's
// reduced field set (see the package doc comment for why it has fewer
// fields than spec.md §6's full multi-exp proof listing).
func (proof Proof) Encode(e *wire.Encoder) {
	e.Element(proof.CmtA0)
	proof.E0.Encode(e)
	proof.E1.Encode(e)
	e.VectorLen(len(proof.AVec))
	for _, s := range proof.AVec {
		e.Scalar(s)
	}
	e.Scalar(proof.R)
	e.Scalar(proof.Tau)
}

// Decode reads a multi-exponentiation argument from d.
func Decode(d *wire.Decoder) (Proof, error) {
	cmtA0, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	e0, err := elgamal.DecodeCiphertext(d)
	if err != nil {
		return Proof{}, err
	}
	e1, err := elgamal.DecodeCiphertext(d)
	if err != nil {
		return Proof{}, err
	}
	n, err := d.VectorLen()
	if err != nil {
		return Proof{}, err
	}
	aVec := make([]group.Scalar, n)
	for i := range aVec {
		aVec[i], err = d.Scalar()
		if err != nil {
			return Proof{}, err
		}
	}
	r, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	tau, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	return Proof{CmtA0: cmtA0, E0: e0, E1: e1, AVec: aVec, R: r, Tau: tau}, nil
}
