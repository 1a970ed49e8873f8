package elgamal_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/wire"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	b := group.RandElement()
	dk, ek := elgamal.KeyGen(b)

	m := group.RandElement()
	r := group.RandScalar()
	c := elgamal.Encrypt(ek, r, m)

	got := elgamal.Decrypt(dk, c)
	if !got.Equal(m) {
		t.Error("decrypted plaintext does not match original")
	}
}

func TestAddIsHomomorphic(t *testing.T) {
	b := group.RandElement()
	dk, ek := elgamal.KeyGen(b)

	m1, m2 := group.RandElement(), group.RandElement()
	c1 := elgamal.Encrypt(ek, group.RandScalar(), m1)
	c2 := elgamal.Encrypt(ek, group.RandScalar(), m2)

	sum := elgamal.Add(c1, c2)
	got := elgamal.Decrypt(dk, sum)
	want := m1.Add(m2)
	if !got.Equal(want) {
		t.Error("Add(Encrypt(m1), Encrypt(m2)) did not decrypt to m1+m2")
	}
}

func TestScale(t *testing.T) {
	b := group.RandElement()
	dk, ek := elgamal.KeyGen(b)

	m := group.RandElement()
	c := elgamal.Encrypt(ek, group.RandScalar(), m)

	s := group.ScalarFromUint64(7)
	scaled := elgamal.Scale(c, s)
	got := elgamal.Decrypt(dk, scaled)
	want := m.ScalarMul(s)
	if !got.Equal(want) {
		t.Error("Scale(Encrypt(m), s) did not decrypt to s*m")
	}
}

func TestIdentityIsAdditiveIdentity(t *testing.T) {
	b := group.RandElement()
	_, ek := elgamal.KeyGen(b)

	c := elgamal.Encrypt(ek, group.RandScalar(), group.RandElement())
	if !elgamal.Add(c, elgamal.Identity()).Equal(c) {
		t.Error("Add(c, Identity()) != c")
	}
}

func TestWeightedSum(t *testing.T) {
	b := group.RandElement()
	dk, ek := elgamal.KeyGen(b)

	n := 5
	cs := make([]elgamal.Ciphertext, n)
	xs := make([]group.Scalar, n)
	var want group.Element = group.Identity()
	for i := 0; i < n; i++ {
		m := group.RandElement()
		cs[i] = elgamal.Encrypt(ek, group.RandScalar(), m)
		xs[i] = group.ScalarFromUint64(uint64(i) + 1)
		want = want.Add(m.ScalarMul(xs[i]))
	}

	sum := elgamal.WeightedSum(cs, xs)
	got := elgamal.Decrypt(dk, sum)
	if !got.Equal(want) {
		t.Error("WeightedSum did not decrypt to the weighted sum of plaintexts")
	}
}

func TestWeightedSumPanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on length mismatch")
		}
	}()
	elgamal.WeightedSum([]elgamal.Ciphertext{elgamal.Identity()}, nil)
}

func TestEqual(t *testing.T) {
	b := group.RandElement()
	_, ek := elgamal.KeyGen(b)
	c1 := elgamal.Encrypt(ek, group.ScalarFromUint64(1), group.RandElement())
	c2 := c1
	if !c1.Equal(c2) {
		t.Error("identical ciphertexts are not Equal")
	}
	c3 := elgamal.Encrypt(ek, group.ScalarFromUint64(2), group.RandElement())
	if c1.Equal(c3) {
		t.Error("distinct ciphertexts reported Equal")
	}
}

func TestCiphertextEncodeDecodeRoundTrip(t *testing.T) {
	_, ek := elgamal.KeyGen(group.RandElement())
	c := elgamal.Encrypt(ek, group.RandScalar(), group.RandElement())

	e := wire.NewEncoder()
	c.Encode(e)

	d := wire.NewDecoder(e.Bytes())
	decoded, err := elgamal.DecodeCiphertext(d)
	if err != nil {
		t.Fatalf("DecodeCiphertext failed: %v", err)
	}
	if err := d.RequireDone(); err != nil {
		t.Errorf("trailing bytes after decode: %v", err)
	}
	if !decoded.Equal(c) {
		t.Error("decoded ciphertext does not match original")
	}
}

func TestEncKeyEncodeDecodeRoundTrip(t *testing.T) {
	_, ek := elgamal.KeyGen(group.RandElement())

	e := wire.NewEncoder()
	ek.Encode(e)

	d := wire.NewDecoder(e.Bytes())
	decoded, err := elgamal.DecodeEncKey(d)
	if err != nil {
		t.Fatalf("DecodeEncKey failed: %v", err)
	}
	if err := d.RequireDone(); err != nil {
		t.Errorf("trailing bytes after decode: %v", err)
	}
	if !decoded.B.Equal(ek.B) || !decoded.P.Equal(ek.P) {
		t.Error("decoded EncKey does not match original")
	}
}
