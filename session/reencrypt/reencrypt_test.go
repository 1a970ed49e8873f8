package reencrypt_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/session/reencrypt"
	"github.com/pokermesh/mentalpoker/session/tsm"
	"github.com/pokermesh/mentalpoker/wire"
)

func addr(b byte) session.Address {
	var a session.Address
	a[0] = b
	return a
}

func keyedRoster(n int) (b group.Element, secrets []group.Scalar, partyKeys []elgamal.EncKey, aggKey elgamal.EncKey) {
	b = group.RandElement()
	secrets = make([]group.Scalar, n)
	partyKeys = make([]elgamal.EncKey, n)
	total := group.ZeroScalar()
	for i := range secrets {
		secrets[i] = group.RandScalar()
		partyKeys[i] = elgamal.EncKey{B: b, P: b.ScalarMul(secrets[i])}
		total = total.Add(secrets[i])
	}
	aggKey = elgamal.EncKey{B: b, P: b.ScalarMul(total)}
	return b, secrets, partyKeys, aggKey
}

func TestSuccessfulDeal(t *testing.T) {
	roster := []session.Address{addr(1), addr(2), addr(3)}
	b, secrets, partyKeys, aggKey := keyedRoster(len(roster))

	card := group.RandElement()
	c := elgamal.Encrypt(aggKey, group.RandScalar(), card)
	recipient := roster[0]

	s := reencrypt.New(c, aggKey, partyKeys, recipient, roster, 50, 100, len(roster))

	contribution, u := reencrypt.ProduceContribution(c, aggKey)
	if err := s.ProcessReencryption(recipient, contribution); err != nil {
		t.Fatalf("ProcessReencryption: %v", err)
	}

	tsmSession := s.TSM()
	if tsmSession == nil {
		t.Fatal("TSM() is nil after a successful Phase A")
	}
	for i, player := range roster {
		contrib := tsm.Contribute(b, tsmSession.P, partyKeys[i].P, secrets[i])
		if err := tsmSession.ProcessContribution(player, contrib); err != nil {
			t.Fatalf("TSM ProcessContribution(%d): %v", i, err)
		}
	}

	s.StateUpdate(60)
	if s.Status() != session.Succeeded {
		t.Fatalf("Status() = %v, want Succeeded", s.Status())
	}

	got := s.Reveal(u)
	if !got.Equal(card) {
		t.Error("Reveal(u) did not recover the original card")
	}
}

func TestRejectsWrongRecipient(t *testing.T) {
	roster := []session.Address{addr(1), addr(2)}
	_, _, partyKeys, aggKey := keyedRoster(len(roster))
	c := elgamal.Encrypt(aggKey, group.RandScalar(), group.RandElement())

	s := reencrypt.New(c, aggKey, partyKeys, roster[0], roster, 50, 100, len(roster))
	contribution, _ := reencrypt.ProduceContribution(c, aggKey)
	if err := s.ProcessReencryption(roster[1], contribution); err != reencrypt.ErrNotRecipient {
		t.Errorf("got %v, want ErrNotRecipient", err)
	}
}

func TestFailsIfRecipientMissesDeadline(t *testing.T) {
	roster := []session.Address{addr(1), addr(2)}
	_, _, partyKeys, aggKey := keyedRoster(len(roster))
	c := elgamal.Encrypt(aggKey, group.RandScalar(), group.RandElement())

	s := reencrypt.New(c, aggKey, partyKeys, roster[0], roster, 50, 100, len(roster))
	s.StateUpdate(51)
	if s.Status() != session.Failed {
		t.Fatalf("Status() = %v, want Failed", s.Status())
	}
	if len(s.Culprits()) != 1 || s.Culprits()[0] != roster[0] {
		t.Errorf("Culprits() = %v, want [roster[0]]", s.Culprits())
	}
}

func TestNewPanicsOnBadDeadlineOrder(t *testing.T) {
	roster := []session.Address{addr(1), addr(2)}
	_, _, partyKeys, aggKey := keyedRoster(len(roster))
	c := elgamal.Encrypt(aggKey, group.RandScalar(), group.RandElement())

	defer func() {
		if recover() == nil {
			t.Error("expected panic when reencDeadline >= tsmDeadline")
		}
	}()
	reencrypt.New(c, aggKey, partyKeys, roster[0], roster, 100, 50, len(roster))
}

func TestContributionEncodeDecodeRoundTrip(t *testing.T) {
	_, _, _, aggKey := keyedRoster(2)
	c := elgamal.Encrypt(aggKey, group.RandScalar(), group.RandElement())
	contribution, _ := reencrypt.ProduceContribution(c, aggKey)

	e := wire.NewEncoder()
	contribution.Encode(e)

	d := wire.NewDecoder(e.Bytes())
	decoded, err := reencrypt.DecodeContribution(d)
	if err != nil {
		t.Fatalf("DecodeContribution failed: %v", err)
	}
	if err := d.RequireDone(); err != nil {
		t.Errorf("trailing bytes after decode: %v", err)
	}
	if !decoded.T.Equal(contribution.T) || !decoded.TS.Equal(contribution.TS) || !decoded.URT.Equal(contribution.URT) {
		t.Error("decoded contribution does not match original")
	}
	if decoded.ProofT == nil || decoded.ProofU == nil {
		t.Error("decoded contribution is missing a proof")
	}
}
