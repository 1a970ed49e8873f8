package shuffle_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/pedersen"
	"github.com/pokermesh/mentalpoker/proof/shuffle"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// reversePerm shuffles by reversing the deck: perm[i] = n-1-i. Simple,
// deterministic, and a genuine permutation for every n, which is all these
// tests need.
func reversePerm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = n - 1 - i
	}
	return perm
}

func buildShuffle(t *testing.T, n int) (pedersen.Context, elgamal.EncKey, []elgamal.Ciphertext, []elgamal.Ciphertext, []int, []group.Scalar) {
	t.Helper()
	ctx := pedersen.New(transcript.New("shuffle-test"), n)
	_, ek := elgamal.KeyGen(group.RandElement())

	old := make([]elgamal.Ciphertext, n)
	for i := range old {
		old[i] = elgamal.Encrypt(ek, group.RandScalar(), group.RandElement())
	}

	perm := reversePerm(n)
	rho := make([]group.Scalar, n)
	for i := range rho {
		rho[i] = group.RandScalar()
	}

	newDeck := make([]elgamal.Ciphertext, n)
	for i, p := range perm {
		newDeck[p] = elgamal.Add(old[i], elgamal.Encrypt(ek, rho[i], group.Identity()))
	}

	return ctx, ek, old, newDeck, perm, rho
}

func TestProveVerifyRoundTrip(t *testing.T) {
	ctx, ek, old, newDeck, perm, rho := buildShuffle(t, 8)

	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)
	if err := shuffle.Verify(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, proof); err != nil {
		t.Fatalf("Verify failed on a valid shuffle proof: %v", err)
	}
}

func TestProveVerifySingleCard(t *testing.T) {
	ctx, ek, old, newDeck, perm, rho := buildShuffle(t, 1)

	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)
	if err := shuffle.Verify(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, proof); err != nil {
		t.Fatalf("Verify failed on a valid single-entry shuffle proof: %v", err)
	}
}

func TestVerifyRejectsSwappedOutputEntries(t *testing.T) {
	ctx, ek, old, newDeck, perm, rho := buildShuffle(t, 6)
	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)

	tampered := append([]elgamal.Ciphertext(nil), newDeck...)
	tampered[0], tampered[1] = tampered[1], tampered[0]

	if err := shuffle.Verify(ctx, ek, transcript.New("shuffle-proto"), old, tampered, proof); err == nil {
		t.Error("Verify accepted a proof against a deck with swapped output entries")
	}
}

func TestVerifyRejectsWrongEncryptionKey(t *testing.T) {
	ctx, _, old, newDeck, perm, rho := buildShuffle(t, 4)
	_, ek := elgamal.KeyGen(group.RandElement())
	_, otherEK := elgamal.KeyGen(group.RandElement())

	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)
	if err := shuffle.Verify(ctx, otherEK, transcript.New("shuffle-proto"), old, newDeck, proof); err == nil {
		t.Error("Verify accepted a proof under the wrong encryption key")
	}
}

func TestVerifyRejectsWrongDeckSize(t *testing.T) {
	ctx, ek, old, newDeck, perm, rho := buildShuffle(t, 4)
	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)

	if err := shuffle.Verify(ctx, ek, transcript.New("shuffle-proto"), old[:2], newDeck[:2], proof); err == nil {
		t.Error("Verify accepted a proof against a truncated deck")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx, ek, old, newDeck, perm, rho := buildShuffle(t, 6)
	proof := shuffle.Prove(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, perm, rho)

	e := wire.NewEncoder()
	proof.Encode(e)

	d := wire.NewDecoder(e.Bytes())
	decoded, err := shuffle.Decode(d)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := d.RequireDone(); err != nil {
		t.Errorf("trailing bytes after decode: %v", err)
	}
	if err := shuffle.Verify(ctx, ek, transcript.New("shuffle-proto"), old, newDeck, decoded); err != nil {
		t.Errorf("decoded proof failed to verify: %v", err)
	}
}
