package driver_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/driver"
	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/session/dkg"
	"github.com/pokermesh/mentalpoker/session/reencrypt"
	"github.com/pokermesh/mentalpoker/session/shuffle"
	"github.com/pokermesh/mentalpoker/session/tsm"
)

func addr(b byte) driver.Address {
	var a driver.Address
	a[0] = b
	return a
}

func reversePerm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = n - 1 - i
	}
	return perm
}

func freshRho(n int) []group.Scalar {
	rho := make([]group.Scalar, n)
	for i := range rho {
		rho[i] = group.RandScalar()
	}
	return rho
}

// runDKG drives room through a full DKG, returning each player's secret
// share for later TSM contributions.
func runDKG(t *testing.T, room *driver.Room, roster []driver.Address, now session.Clock) map[driver.Address]group.Scalar {
	t.Helper()
	room.Tick(now)

	dkgSession := room.DKGSession()
	if dkgSession == nil {
		t.Fatal("DKGSession() is nil after Tick should have started DKG")
	}

	secrets := make(map[driver.Address]group.Scalar, len(roster))
	for _, player := range roster {
		s := group.RandScalar()
		secrets[player] = s
		c := dkg.Contribute(dkgSession.B, s)
		if err := room.SubmitDKGContribution(player, c); err != nil {
			t.Fatalf("SubmitDKGContribution(%v): %v", player, err)
		}
	}

	room.Tick(now)
	if room.Phase != driver.ShuffleInProgress {
		t.Fatalf("Phase = %v after DKG, want ShuffleInProgress", room.Phase)
	}
	return secrets
}

// runShuffle drives shuffle round i to completion with a trivial
// reverse-permutation contribution from every roster member.
func runShuffle(t *testing.T, room *driver.Room, i int, roster []driver.Address, now session.Clock) {
	t.Helper()
	s := room.ShuffleSession(i)
	if s == nil {
		t.Fatalf("ShuffleSession(%d) is nil", i)
	}
	for _, player := range roster {
		contribution := shuffle.ProduceContribution(s.EK, s.Ctx, s.FinalDeck(), reversePerm(driver.DeckSize), freshRho(driver.DeckSize))
		if err := room.SubmitShuffleContribution(i, player, contribution); err != nil {
			t.Fatalf("SubmitShuffleContribution(%d, %v): %v", i, player, err)
		}
	}
	room.Tick(now)
}

// dealHole runs Phase A and Phase B of one hole-card reencryption session
// to completion and returns the blinding scalar u for the later reveal.
func dealHole(t *testing.T, hs *reencrypt.Session, recipient driver.Address, aggKey elgamal.EncKey, roster []driver.Address, partyKeys []elgamal.EncKey, secrets map[driver.Address]group.Scalar) group.Scalar {
	t.Helper()
	contribution, u := reencrypt.ProduceContribution(hs.C, aggKey)
	if err := hs.ProcessReencryption(recipient, contribution); err != nil {
		t.Fatalf("ProcessReencryption: %v", err)
	}
	tsmS := hs.TSM()
	for i, player := range roster {
		c := tsm.Contribute(aggKey.B, tsmS.P, partyKeys[i].P, secrets[player])
		if err := tsmS.ProcessContribution(player, c); err != nil {
			t.Fatalf("hole TSM ProcessContribution(%v): %v", player, err)
		}
	}
	return u
}

// dealBoard runs a community-card TSM session to completion.
func dealBoard(t *testing.T, s *tsm.Session, roster []driver.Address, partyKeys []elgamal.EncKey, secrets map[driver.Address]group.Scalar) {
	t.Helper()
	for i, player := range roster {
		c := tsm.Contribute(s.AggKey.B, s.P, partyKeys[i].P, secrets[player])
		if err := s.ProcessContribution(player, c); err != nil {
			t.Fatalf("board TSM ProcessContribution(%v): %v", player, err)
		}
	}
}

func TestFullRoomLifecycleThroughShowdown(t *testing.T) {
	roster := []driver.Address{addr(1), addr(2)}
	room := driver.NewRoom(roster, 1000, 100, driver.DefaultDeadlinePolicy())
	for _, p := range roster {
		if err := room.Join(p); err != nil {
			t.Fatalf("Join(%v): %v", p, err)
		}
	}

	secrets := runDKG(t, room, roster, 0)
	runShuffle(t, room, 0, roster, 0)

	if room.Phase != driver.HandAndNextShuffleInProgress {
		t.Fatalf("Phase = %v after shuffle(0), want HandAndNextShuffleInProgress", room.Phase)
	}

	hand := room.Hand(0)
	if hand == nil {
		t.Fatal("Hand(0) is nil after shuffle(0) succeeded")
	}

	// Deal all 2n hole cards.
	us := make(map[driver.Address][2]group.Scalar)
	for _, player := range roster {
		var u [2]group.Scalar
		for slot := 0; slot < 2; slot++ {
			hs, err := hand.HoleSession(player, slot)
			if err != nil {
				t.Fatalf("HoleSession(%v, %d): %v", player, slot, err)
			}
			u[slot] = dealHole(t, hs, player, hand.AggKey, roster, hand.PartyKeys, secrets)
		}
		us[player] = u
	}
	room.Tick(0) // hole sessions succeed; hand opens the flop

	if hand.Street != driver.Flop {
		t.Fatalf("Street = %v after dealing hole cards, want Flop", hand.Street)
	}

	for i := 0; i < 3; i++ {
		dealBoard(t, hand.BoardSession(i), roster, hand.PartyKeys, secrets)
	}
	room.Tick(0)
	if hand.Street != driver.Turn {
		t.Fatalf("Street = %v after flop, want Turn", hand.Street)
	}

	dealBoard(t, hand.BoardSession(3), roster, hand.PartyKeys, secrets)
	room.Tick(0)
	if hand.Street != driver.River {
		t.Fatalf("Street = %v after turn, want River", hand.Street)
	}

	dealBoard(t, hand.BoardSession(4), roster, hand.PartyKeys, secrets)
	room.Tick(0)
	if hand.Street != driver.Showdown {
		t.Fatalf("Street = %v after river, want Showdown", hand.Street)
	}
	if hand.Status() != session.Succeeded {
		t.Fatalf("hand Status() = %v, want Succeeded", hand.Status())
	}

	for _, player := range roster {
		u := us[player]
		cards, err := hand.SubmitShowdownReveal(player, u[0], u[1])
		if err != nil {
			t.Fatalf("SubmitShowdownReveal(%v): %v", player, err)
		}
		for slot, card := range cards {
			id, ok := driver.CardID(card)
			if !ok {
				t.Errorf("player %v hole card %d did not decode to a known card id", player, slot)
			}
			if id < 0 || id >= driver.DeckSize {
				t.Errorf("player %v hole card %d decoded to out-of-range id %d", player, slot, id)
			}
		}
	}
}

func TestDKGFailurePenalizesSilentParty(t *testing.T) {
	roster := []driver.Address{addr(1), addr(2), addr(3)}
	policy := driver.DeadlinePolicy{PerAction: 10}
	room := driver.NewRoom(roster, 500, 50, policy)
	for _, p := range roster {
		if err := room.Join(p); err != nil {
			t.Fatal(err)
		}
	}

	room.Tick(0)
	dkgSession := room.DKGSession()
	c := dkg.Contribute(dkgSession.B, group.RandScalar())
	if err := room.SubmitDKGContribution(roster[0], c); err != nil {
		t.Fatal(err)
	}

	room.Tick(11) // past the 10-second deadline, two parties never contributed
	if room.Phase != driver.WaitingForPlayers {
		t.Fatalf("Phase = %v after a failed DKG, want WaitingForPlayers", room.Phase)
	}

	alive := room.AliveRoster()
	if len(alive) != 1 || alive[0] != roster[0] {
		t.Errorf("AliveRoster() = %v, want only roster[0] to remain connected", alive)
	}
	for _, s := range room.Seats {
		if s.Player == roster[0] {
			if s.Chips != 500 {
				t.Errorf("contributing player's chips = %d, want unchanged 500", s.Chips)
			}
			continue
		}
		if s.Chips != 450 {
			t.Errorf("silent player %v's chips = %d, want 450 after a 50-chip penalty", s.Player, s.Chips)
		}
		if s.Connected {
			t.Errorf("silent player %v should be marked disconnected", s.Player)
		}
	}
}

func TestCardElementRoundTrip(t *testing.T) {
	for id := 0; id < driver.DeckSize; id++ {
		e := driver.CardElement(id)
		got, ok := driver.CardID(e)
		if !ok {
			t.Fatalf("CardID did not recognize the encoding of card %d", id)
		}
		if got != id {
			t.Errorf("CardID(CardElement(%d)) = %d", id, got)
		}
	}
}

func TestCardIDRejectsUnrelatedElement(t *testing.T) {
	if _, ok := driver.CardID(group.RandElement()); ok {
		t.Error("CardID accepted an element that is not a card encoding")
	}
}
