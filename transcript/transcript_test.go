package transcript_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/transcript"
)

func TestChallengeIsDeterministic(t *testing.T) {
	e := group.RandElement()

	t1 := transcript.New("test-domain")
	t1.AppendElement("point", e)
	c1 := t1.Challenge("c")

	t2 := transcript.New("test-domain")
	t2.AppendElement("point", e)
	c2 := t2.Challenge("c")

	if !c1.Equal(c2) {
		t.Error("identical transcripts produced different challenges")
	}
}

func TestChallengeDependsOnLabelAndDomain(t *testing.T) {
	e := group.RandElement()

	base := transcript.New("domain-a")
	base.AppendElement("point", e)
	c1 := base.Challenge("label-1")
	c2 := base.Clone().Challenge("label-2")

	if c1.Equal(c2) {
		t.Error("different challenge labels produced the same scalar")
	}

	other := transcript.New("domain-b")
	other.AppendElement("point", e)
	c3 := other.Challenge("label-1")
	if c1.Equal(c3) {
		t.Error("different domain labels produced the same scalar")
	}
}

func TestAppendBytesDistinguishesPrefixes(t *testing.T) {
	t1 := transcript.New("d")
	t1.AppendBytes("a", []byte("x"))
	t1.AppendBytes("b", []byte("yz"))
	c1 := t1.Challenge("c")

	t2 := transcript.New("d")
	t2.AppendBytes("a", []byte("xy"))
	t2.AppendBytes("b", []byte("z"))
	c2 := t2.Challenge("c")

	if c1.Equal(c2) {
		t.Error("length-prefix encoding failed to distinguish a concatenation ambiguity")
	}
}

func TestCloneDoesNotAliasBuffer(t *testing.T) {
	tr := transcript.New("d")
	tr.AppendBytes("a", []byte("shared-prefix"))

	clone := tr.Clone()
	clone.AppendBytes("b", []byte("only-on-clone"))

	c1 := tr.Challenge("x")
	c2 := clone.Challenge("x")
	if c1.Equal(c2) {
		t.Error("mutating a clone affected the original transcript's challenge")
	}

	// The original must still be independently usable afterwards.
	tr.AppendBytes("c", []byte("only-on-original"))
	_ = tr.Challenge("y")
}

func TestDeriveBytesIsDeterministic(t *testing.T) {
	t1 := transcript.New("d")
	b1 := t1.DeriveBytes("gen")

	t2 := transcript.New("d")
	b2 := t2.DeriveBytes("gen")

	if b1 != b2 {
		t.Error("DeriveBytes is not deterministic for identical transcripts")
	}
}
