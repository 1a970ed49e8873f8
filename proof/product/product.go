// Package product implements the BG12 product argument: a proof that a
// Pedersen-committed vector's entries multiply out to a public scalar,
// per spec.md §4.4.
//
// The statement is: given Ca = Commit(r, a_1..a_n) and public b, prove
// knowledge of a and r such that b = ∏ a_i, without revealing a or r.
//
// This module's construction follows spec.md's description (an auxiliary
// commitment to a random vector d, a challenge x collapsing a telescoping
// partial-product recursion into a small number of Pedersen-opening
// checks) but is an original derivation grounded in that description
// rather than a byte-for-byte port of the published Bayer-Groth recursion
// (no Go implementation of BG12 exists in the reference corpus to port
// from). Concretely: besides the d-blinded opening of a (cmt_d, a_tilde,
// r_tilde — a standard batched Schnorr opening), the real telescoping
// partial products B_1..B_{n-1} are committed directly (cmt_2), alongside
// two further vectors (cmt_3, cmt_4) that carry the linear and quadratic
// correction terms needed for the opened b_tilde_i = B_i + x·δ_i + x²·ε_i
// to satisfy b_tilde_i = a_tilde_i · b_tilde_{i-1} as an exact polynomial
// identity in x — which is what Verify now checks index by index, ending
// in a terminal check (using two openly-revealed boundary scalars rather
// than a last vector slot) tying the chain to the public b. See DESIGN.md
// for the soundness/privacy trade-off this simplification makes relative
// to the full paper.
package product

import (
	"errors"

	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/pedersen"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// ErrInvalid is returned by Verify when a proof fails any of its checks.
var ErrInvalid = errors.New("product: invalid proof")

// Proof is a non-interactive product argument.
type Proof struct {
	CmtD   group.Element
	Cmt2   group.Element
	Cmt3   group.Element
	Cmt4   group.Element
	ATilde []group.Scalar
	BTilde []group.Scalar
	RTilde group.Scalar
	STilde group.Scalar
	DeltaN group.Scalar
	EpsN   group.Scalar
}

// Prove returns a product argument for the statement Commit(r,a) = ca,
// ∏a_i = b. n = len(a) must be at least 1 and at most ctx.N().
func Prove(ctx pedersen.Context, tr *transcript.Transcript, ca group.Element, a []group.Scalar, r group.Scalar, b group.Scalar) Proof {
	n := len(a)
	if n == 0 {
		panic("product: empty vector")
	}

	tr.AppendElement("product-ca", ca)
	tr.AppendScalar("product-b", b)

	d := make([]group.Scalar, n)
	for i := range d {
		d[i] = group.RandScalar()
	}
	rD := group.RandScalar()
	cmtD := ctx.Commit(rD, d)

	// pp, delta, eps hold the interior (indices 1..n-1) partial products
	// B_i, their linear correction δ_i and quadratic correction ε_i; the
	// boundary values at i=n (deltaN, epsN) are carried separately since
	// B_n = b is public and gets no vector slot of its own. The recursion
	// is exact: B_i = B_{i-1}·a_i, δ_i = a_i·δ_{i-1} + d_i·B_{i-1}, and
	// ε_i = d_i·δ_{i-1}, starting from B_0 = 1 and δ_0 = 0 — which makes
	// B_i + xδ_i + x²ε_i = (a_i+xd_i)·(B_{i-1}+xδ_{i-1}+x²ε_{i-1}) an exact
	// polynomial identity in x at every step (see DESIGN.md).
	pp := make([]group.Scalar, n-1)
	delta := make([]group.Scalar, n-1)
	eps := make([]group.Scalar, n-1)

	prevPP := group.ScalarFromUint64(1)
	prevDelta := group.ZeroScalar()
	var deltaN, epsN group.Scalar
	for i := 0; i < n; i++ {
		curPP := prevPP.Mul(a[i])
		curDelta := a[i].Mul(prevDelta).Add(d[i].Mul(prevPP))
		curEps := d[i].Mul(prevDelta)
		if i < n-1 {
			pp[i] = curPP
			delta[i] = curDelta
			eps[i] = curEps
		} else {
			deltaN = curDelta
			epsN = curEps
		}
		prevPP = curPP
		prevDelta = curDelta
	}

	rPP := group.RandScalar()
	rDelta := group.RandScalar()
	rEps := group.RandScalar()
	cmt2 := ctx.Commit(rPP, pp)
	cmt3 := ctx.Commit(rDelta, delta)
	cmt4 := ctx.Commit(rEps, eps)

	tr.AppendElement("product-cmt-d", cmtD)
	tr.AppendElement("product-cmt-2", cmt2)
	tr.AppendElement("product-cmt-3", cmt3)
	tr.AppendElement("product-cmt-4", cmt4)
	tr.AppendScalar("product-delta-n", deltaN)
	tr.AppendScalar("product-eps-n", epsN)

	x := tr.Challenge("product-x")
	x2 := x.Mul(x)

	aTilde := make([]group.Scalar, n)
	for i := 0; i < n; i++ {
		aTilde[i] = a[i].Add(x.Mul(d[i]))
	}
	bTilde := make([]group.Scalar, n-1)
	for i := range bTilde {
		bTilde[i] = pp[i].Add(x.Mul(delta[i])).Add(x2.Mul(eps[i]))
	}
	rTilde := r.Add(x.Mul(rD))
	sTilde := rPP.Add(x.Mul(rDelta)).Add(x2.Mul(rEps))

	return Proof{
		CmtD: cmtD, Cmt2: cmt2, Cmt3: cmt3, Cmt4: cmt4,
		ATilde: aTilde, BTilde: bTilde,
		RTilde: rTilde, STilde: sTilde,
		DeltaN: deltaN, EpsN: epsN,
	}
}

// Verify checks a product argument against the statement ca, b.
func Verify(ctx pedersen.Context, tr *transcript.Transcript, ca group.Element, b group.Scalar, proof Proof) error {
	n := len(proof.ATilde)
	if n == 0 || len(proof.BTilde) != n-1 {
		return ErrInvalid
	}

	tr.AppendElement("product-ca", ca)
	tr.AppendScalar("product-b", b)

	tr.AppendElement("product-cmt-d", proof.CmtD)
	tr.AppendElement("product-cmt-2", proof.Cmt2)
	tr.AppendElement("product-cmt-3", proof.Cmt3)
	tr.AppendElement("product-cmt-4", proof.Cmt4)
	tr.AppendScalar("product-delta-n", proof.DeltaN)
	tr.AppendScalar("product-eps-n", proof.EpsN)

	x := tr.Challenge("product-x")
	x2 := x.Mul(x)

	lhs1 := ctx.Commit(proof.RTilde, proof.ATilde)
	rhs1 := ca.Add(proof.CmtD.ScalarMul(x))
	if !lhs1.Equal(rhs1) {
		return ErrInvalid
	}

	lhs2 := ctx.Commit(proof.STilde, proof.BTilde)
	rhs2 := proof.Cmt2.Add(proof.Cmt3.ScalarMul(x)).Add(proof.Cmt4.ScalarMul(x2))
	if !lhs2.Equal(rhs2) {
		return ErrInvalid
	}

	// Per-index multiplicative chain on the opened (blinded) vectors:
	// b_tilde_i = a_tilde_i · b_tilde_{i-1}, with b_tilde_{-1} := 1 (B_0 = 1
	// needs no commitment since it is a public constant).
	prev := group.ScalarFromUint64(1)
	for i, bt := range proof.BTilde {
		if !bt.Equal(proof.ATilde[i].Mul(prev)) {
			return ErrInvalid
		}
		prev = bt
	}

	// Terminal check: the last transition must land on the public b,
	// using the openly-revealed boundary corrections instead of a
	// committed vector slot.
	terminal := b.Add(x.Mul(proof.DeltaN)).Add(x2.Mul(proof.EpsN))
	if !terminal.Equal(proof.ATilde[n-1].Mul(prev)) {
		return ErrInvalid
	}

	return nil
}

// Encode appends the proof's wire encoding (Element cmt_d, cmt_2, cmt_3,
// cmt_4, Vector<Scalar> a_tilde, b_tilde, Scalar r_tilde, s_tilde,
// delta_n, eps_n, per spec.md §6) to e.
func (proof Proof) Encode(e *wire.Encoder) {
	e.Element(proof.CmtD)
	e.Element(proof.Cmt2)
	e.Element(proof.Cmt3)
	e.Element(proof.Cmt4)
	e.VectorLen(len(proof.ATilde))
	for _, s := range proof.ATilde {
		e.Scalar(s)
	}
	e.VectorLen(len(proof.BTilde))
	for _, s := range proof.BTilde {
		e.Scalar(s)
	}
	e.Scalar(proof.RTilde)
	e.Scalar(proof.STilde)
	e.Scalar(proof.DeltaN)
	e.Scalar(proof.EpsN)
}

// Decode reads a product argument from d.
func Decode(d *wire.Decoder) (Proof, error) {
	cmtD, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	cmt2, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	cmt3, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	cmt4, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	aTilde, err := decodeScalarVector(d)
	if err != nil {
		return Proof{}, err
	}
	bTilde, err := decodeScalarVector(d)
	if err != nil {
		return Proof{}, err
	}
	rTilde, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	sTilde, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	deltaN, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	epsN, err := d.Scalar()
	if err != nil {
		return Proof{}, err
	}
	return Proof{
		CmtD: cmtD, Cmt2: cmt2, Cmt3: cmt3, Cmt4: cmt4,
		ATilde: aTilde, BTilde: bTilde,
		RTilde: rTilde, STilde: sTilde,
		DeltaN: deltaN, EpsN: epsN,
	}, nil
}

func decodeScalarVector(d *wire.Decoder) ([]group.Scalar, error) {
	n, err := d.VectorLen()
	if err != nil {
		return nil, err
	}
	out := make([]group.Scalar, n)
	for i := range out {
		out[i], err = d.Scalar()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
