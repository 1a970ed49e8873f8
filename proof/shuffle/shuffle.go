// Package shuffle implements the BG12 (Bayer-Groth 2012) verifiable
// shuffle argument, per spec.md §4.4: given an ElGamal ciphertext vector
// old and a claimed re-randomized permutation new = π_ρ(old), prove that a
// permutation π and per-entry re-randomizers ρ exist without revealing
// either.
//
// The argument composes proof/product and proof/multiexp exactly as
// spec.md describes:
//
//  1. Commit Ca to the permutation, encoded as the scalars 1..n permuted
//     by π.
//  2. After absorbing Ca and deriving challenge x, commit Cb to
//     (x^π(1), ..., x^π(n)).
//  3. After absorbing Cb and deriving y and z (z domain-separated from y
//     by the literal "NUDGE" tag), run a product argument that
//     ∏(y·a_i + b_i - z) = ∏(y·i + x^i - z) — an identity that (by the
//     Schwartz-Zippel lemma, over the verifier's random y, z) holds only
//     when b is a permutation of powers of x matching a's permutation.
//  4. Run a multi-exponentiation argument that the new deck, decomposed
//     against Cb, equals the old deck scaled by powers of x with combined
//     re-randomization.
//
// Per spec.md §4.6's REDESIGN FLAG, callers MUST treat verification as
// mandatory; there is no optional/skip path in this package.
package shuffle

import (
	"errors"
	"fmt"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/pedersen"
	"github.com/pokermesh/mentalpoker/proof/multiexp"
	"github.com/pokermesh/mentalpoker/proof/product"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// ErrInvalid is returned by Verify when the proof fails any check.
var ErrInvalid = errors.New("shuffle: invalid proof")

// Proof is a non-interactive BG12 verifiable-shuffle argument.
type Proof struct {
	ACmt     group.Element
	BCmt     group.Element
	MultiExp multiexp.Proof
	Product  product.Proof
}

// Prove returns a BG12 proof that new is a re-randomized permutation of
// old under perm (perm[i] is the destination index of old[i]) and rho
// (rho[i] is the re-randomizer applied to old[i]): new[perm[i]] =
// old[i] + Encrypt(ek, rho[i], identity).
//
// perm must be a permutation of 0..n-1; callers that construct new by
// directly permuting and re-randomizing old (as session/shuffle does)
// satisfy this by construction.
func Prove(ctx pedersen.Context, ek elgamal.EncKey, tr *transcript.Transcript, old, new []elgamal.Ciphertext, perm []int, rho []group.Scalar) Proof {
	n := len(old)
	if len(new) != n || len(perm) != n || len(rho) != n {
		panic("shuffle: length mismatch")
	}

	aScalars := make([]group.Scalar, n)
	for i, p := range perm {
		aScalars[i] = group.ScalarFromUint64(uint64(p + 1))
	}
	rA := group.RandScalar()
	cmtA := ctx.Commit(rA, aScalars)
	tr.AppendElement("bg12-cmt-a", cmtA)

	x := tr.Challenge("bg12-x")
	xPowers := powers(x, n)

	bScalars := make([]group.Scalar, n)
	for i, p := range perm {
		bScalars[i] = xPowers[p+1]
	}
	rB := group.RandScalar()
	cmtB := ctx.Commit(rB, bScalars)
	tr.AppendElement("bg12-cmt-b", cmtB)

	y := tr.Challenge("bg12-y")
	tr.AppendBytes("bg12-nudge", []byte("NUDGE"))
	z := tr.Challenge("bg12-z")

	cScalars := make([]group.Scalar, n)
	for i := range cScalars {
		cScalars[i] = y.Mul(aScalars[i]).Add(bScalars[i]).Sub(z)
	}
	rC := y.Mul(rA).Add(rB)
	target := productTarget(y, z, xPowers, n)

	productTr := tr.Clone()
	cc := ctx.Commit(rC, cScalars) // == y*cmtA + cmtB - z*sumG; see Verify.
	productProof := product.Prove(ctx, productTr, cc, cScalars, rC, target)

	rhoCombined := group.ZeroScalar()
	for i := range bScalars {
		rhoCombined = rhoCombined.Add(bScalars[i].Mul(rho[i]))
	}
	target2 := weightedDeck(xPowers, new)

	multiexpTr := tr.Clone()
	multiexpProof := multiexp.Prove(ctx, ek, multiexpTr, old, target2, cmtB, bScalars, rB, rhoCombined)

	return Proof{ACmt: cmtA, BCmt: cmtB, MultiExp: multiexpProof, Product: productProof}
}

// Verify checks a BG12 proof against the statement ek, ctx, old, new.
func Verify(ctx pedersen.Context, ek elgamal.EncKey, tr *transcript.Transcript, old, new []elgamal.Ciphertext, proof Proof) error {
	n := len(old)
	if len(new) != n || n == 0 || n > ctx.N() {
		return fmt.Errorf("%w: bad deck size", ErrInvalid)
	}

	tr.AppendElement("bg12-cmt-a", proof.ACmt)
	x := tr.Challenge("bg12-x")
	xPowers := powers(x, n)

	tr.AppendElement("bg12-cmt-b", proof.BCmt)
	y := tr.Challenge("bg12-y")
	tr.AppendBytes("bg12-nudge", []byte("NUDGE"))
	z := tr.Challenge("bg12-z")

	target := productTarget(y, z, xPowers, n)
	cc := sumG(ctx, n).ScalarMul(z.Neg()).Add(proof.ACmt.ScalarMul(y)).Add(proof.BCmt)

	productTr := tr.Clone()
	if err := product.Verify(ctx, productTr, cc, target, proof.Product); err != nil {
		return fmt.Errorf("%w: product argument: %v", ErrInvalid, err)
	}

	target2 := weightedDeck(xPowers, new)

	multiexpTr := tr.Clone()
	if err := multiexp.Verify(ctx, ek, multiexpTr, old, target2, proof.BCmt, proof.MultiExp); err != nil {
		return fmt.Errorf("%w: multi-exponentiation argument: %v", ErrInvalid, err)
	}

	return nil
}

// powers returns [x^0, x^1, ..., x^n].
func powers(x group.Scalar, n int) []group.Scalar {
	xp := make([]group.Scalar, n+1)
	xp[0] = group.ScalarFromUint64(1)
	for i := 1; i <= n; i++ {
		xp[i] = xp[i-1].Mul(x)
	}
	return xp
}

// productTarget computes ∏_{i=1}^{n} (y·i + x^i − z).
func productTarget(y, z group.Scalar, xPowers []group.Scalar, n int) group.Scalar {
	target := group.ScalarFromUint64(1)
	for i := 1; i <= n; i++ {
		term := y.Mul(group.ScalarFromUint64(uint64(i))).Add(xPowers[i]).Sub(z)
		target = target.Mul(term)
	}
	return target
}

// weightedDeck computes Σ_{j=0}^{n-1} x^{j+1}·deck[j].
func weightedDeck(xPowers []group.Scalar, deck []elgamal.Ciphertext) elgamal.Ciphertext {
	weights := make([]group.Scalar, len(deck))
	for j := range deck {
		weights[j] = xPowers[j+1]
	}
	return elgamal.WeightedSum(deck, weights)
}

// sumG returns Σ_{i=0}^{n-1} G_i, the constant needed to derive Cc from
// (ACmt, BCmt) without transmitting it.
func sumG(ctx pedersen.Context, n int) group.Element {
	ones := make([]group.Scalar, n)
	for i := range ones {
		ones[i] = group.ScalarFromUint64(1)
	}
	return group.MSM(ones, ctx.GsN(n))
}

// Encode appends the proof's wire encoding (Element a_cmt, b_cmt,
// MultiExp-Proof, Product-Proof, per spec.md §6) to e.
func (proof Proof) Encode(e *wire.Encoder) {
	e.Element(proof.ACmt)
	e.Element(proof.BCmt)
	proof.MultiExp.Encode(e)
	proof.Product.Encode(e)
}

// Decode reads a BG12 proof from d.
func Decode(d *wire.Decoder) (Proof, error) {
	aCmt, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	bCmt, err := d.Element()
	if err != nil {
		return Proof{}, err
	}
	me, err := multiexp.Decode(d)
	if err != nil {
		return Proof{}, err
	}
	pr, err := product.Decode(d)
	if err != nil {
		return Proof{}, err
	}
	return Proof{ACmt: aCmt, BCmt: bCmt, MultiExp: me, Product: pr}, nil
}
