package driver

import (
	"errors"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/session/reencrypt"
	"github.com/pokermesh/mentalpoker/session/tsm"
)

// Street is a hand's current betting round, per the discordwell-
// OnChainPoker reference's Street enum (SPEC_FULL.md §4.9's supplemented
// feature list: "Hand/Street/Pot bookkeeping").
type Street int

const (
	PreFlop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	switch s {
	case PreFlop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// Pot is one (possibly split) pot: an amount and the seats still eligible
// to win it. This module models only a single main pot — side-pot
// splitting from all-in bets is the hand-ranking/pot-resolution logic
// this module's Non-goals explicitly exclude — but the type is plural so
// a future split-pot implementation has somewhere to grow into.
type Pot struct {
	Amount   uint64
	Eligible []Address
}

// ErrAlreadyFolded and friends report hand-level precondition violations.
var (
	ErrAlreadyFolded    = errors.New("driver: player already folded")
	ErrWrongStreet      = errors.New("driver: operation invalid for current street")
	ErrUnknownRecipient = errors.New("driver: no hole-card session for that address")
)

// Hand is one dealt hand: 2*len(Roster) private hole cards dealt via
// concurrent Reencryption sessions, followed by up to five community
// cards revealed via TSM sessions as the hand proceeds through streets.
// card positions are recorded in HolePos/BoardPos, per SPEC_FULL.md
// §4.9's "driver.Hand.HolePos/BoardPos record which shuffled deck index
// backs each hole card and community card."
type Hand struct {
	index     int
	Roster    []Address
	Deck      []elgamal.Ciphertext
	AggKey    elgamal.EncKey
	PartyKeys []elgamal.EncKey // PartyKeys[i] is the DKG public key for Roster[i]
	Policy    DeadlinePolicy

	Street   Street
	Pots     []Pot
	HolePos  map[Address][2]int
	BoardPos []int // grows to length 3 (flop), 4 (turn), 5 (river)

	holeSessions  map[Address][2]*reencrypt.Session
	boardSessions []*tsm.Session

	folded  map[Address]bool
	turn    int
	revealed map[Address][2]group.Element

	status   session.Status
	culprits []session.Address
}

// newHand deals hole cards immediately (2n concurrent Reencryption
// sessions) and opens a single starting pot. roster and deck must
// already reflect the alive set and the just-succeeded shuffle round's
// final deck, respectively.
func newHand(now session.Clock, index int, roster []Address, deck []elgamal.Ciphertext, aggKey elgamal.EncKey, partyKeys []elgamal.EncKey, policy DeadlinePolicy) *Hand {
	n := len(roster)
	h := &Hand{
		index:        index,
		Roster:       roster,
		Deck:         deck,
		AggKey:       aggKey,
		PartyKeys:    partyKeys,
		Policy:       policy,
		Street:       PreFlop,
		Pots:         []Pot{{Eligible: append([]Address(nil), roster...)}},
		HolePos:      make(map[Address][2]int, n),
		holeSessions: make(map[Address][2]*reencrypt.Session, n),
		folded:       make(map[Address]bool, n),
		revealed:     make(map[Address][2]group.Element, n),
		status:       session.InProgress,
	}

	reencDeadline := policy.Deadline(now)
	tsmDeadline := reencDeadline + policy.PerAction

	for i, player := range roster {
		pos := [2]int{2 * i, 2*i + 1}
		h.HolePos[player] = pos
		h.holeSessions[player] = [2]*reencrypt.Session{
			reencrypt.New(deck[pos[0]], aggKey, partyKeys, player, roster, reencDeadline, tsmDeadline, n),
			reencrypt.New(deck[pos[1]], aggKey, partyKeys, player, roster, reencDeadline, tsmDeadline, n),
		}
	}
	return h
}

// Status returns the hand's current lifecycle state.
func (h *Hand) Status() session.Status { return h.status }

// Culprits returns whoever caused the hand to fail. Only meaningful once
// Status is Failed.
func (h *Hand) Culprits() []session.Address { return h.culprits }

// HoleSession returns the Reencryption session dealing card slot (0 or 1)
// of player's hole cards, for submitting Phase A/B contributions.
func (h *Hand) HoleSession(player Address, slot int) (*reencrypt.Session, error) {
	pair, ok := h.holeSessions[player]
	if !ok {
		return nil, ErrUnknownRecipient
	}
	if slot < 0 || slot > 1 {
		return nil, ErrUnknownRecipient
	}
	return pair[slot], nil
}

// BoardSession returns the TSM session revealing community card i (0..4),
// or nil if that card's session has not opened yet.
func (h *Hand) BoardSession(i int) *tsm.Session {
	if i < 0 || i >= len(h.boardSessions) {
		return nil
	}
	return h.boardSessions[i]
}

// SubmitBet adds amount to the current pot and advances the turn cursor.
// This models only what spec.md §9 calls for — "a turn cursor plus pot
// totals" — with no hand-ranking, side-pot resolution, or legality
// checking of the bet itself; those are Non-goals.
func (h *Hand) SubmitBet(addr Address, amount uint64) error {
	if h.status != session.InProgress {
		return ErrWrongStreet
	}
	if h.folded[addr] {
		return ErrAlreadyFolded
	}
	h.Pots[len(h.Pots)-1].Amount += amount
	h.turn = (h.turn + 1) % len(h.Roster)
	return nil
}

// SubmitFold removes addr from every pot's eligible set. If only one
// player remains eligible, the hand resolves immediately in their favor
// without needing the remaining community cards.
func (h *Hand) SubmitFold(addr Address) error {
	if h.status != session.InProgress {
		return ErrWrongStreet
	}
	if h.folded[addr] {
		return ErrAlreadyFolded
	}
	h.folded[addr] = true
	for i := range h.Pots {
		h.Pots[i].Eligible = removeAddress(h.Pots[i].Eligible, addr)
	}
	if h.aliveInHand() <= 1 {
		h.Street = Showdown
		h.status = session.Succeeded
	}
	return nil
}

func (h *Hand) aliveInHand() int {
	n := 0
	for _, p := range h.Roster {
		if !h.folded[p] {
			n++
		}
	}
	return n
}

func removeAddress(addrs []Address, target Address) []Address {
	out := addrs[:0]
	for _, a := range addrs {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}

// SubmitShowdownReveal lets a non-folded player publish the blinding
// scalars (u0, u1) they kept from ProduceContribution when their hole
// cards were dealt, so every other party can recompute and check the
// plaintext, per spec.md §4.8's reveal step and §4.9's supplemented
// "Showdown: non-folded players publish their private u values."
func (h *Hand) SubmitShowdownReveal(addr Address, u0, u1 group.Scalar) ([2]group.Element, error) {
	if h.Street != Showdown {
		return [2]group.Element{}, ErrWrongStreet
	}
	if h.folded[addr] {
		return [2]group.Element{}, ErrAlreadyFolded
	}
	pair, ok := h.holeSessions[addr]
	if !ok {
		return [2]group.Element{}, ErrUnknownRecipient
	}
	cards := [2]group.Element{pair[0].Reveal(u0), pair[1].Reveal(u1)}
	h.revealed[addr] = cards
	return cards, nil
}

// RevealedHole returns the hole cards addr has published at showdown, if
// any.
func (h *Hand) RevealedHole(addr Address) ([2]group.Element, bool) {
	c, ok := h.revealed[addr]
	return c, ok
}

// Tick advances every in-flight session (hole-card dealing, then
// community-card reveals street by street) given the current clock.
func (h *Hand) Tick(now session.Clock) {
	if h.status != session.InProgress {
		return
	}
	if h.tickHoleSessions(now) {
		return
	}
	if h.Street == PreFlop {
		if !h.allHoleSucceeded() {
			return
		}
		h.openBoardSessions(now, 3) // flop: positions 2n, 2n+1, 2n+2
		h.Street = Flop
	}
	if h.tickBoardSessions(now) {
		return
	}
	switch h.Street {
	case Flop:
		if len(h.boardSessions) == 3 && h.allBoardSucceeded() {
			h.openBoardSessions(now, 4) // turn: position 2n+3
			h.Street = Turn
		}
	case Turn:
		if len(h.boardSessions) == 4 && h.allBoardSucceeded() {
			h.openBoardSessions(now, 5) // river: position 2n+4
			h.Street = River
		}
	case River:
		if len(h.boardSessions) == 5 && h.allBoardSucceeded() {
			h.Street = Showdown
			h.status = session.Succeeded
		}
	}
}

// tickHoleSessions advances every hole-card session still in progress.
// Returns true if the hand just failed (one recipient or their roster
// missed a deadline) — the caller should stop ticking further sessions.
func (h *Hand) tickHoleSessions(now session.Clock) bool {
	for _, player := range h.Roster {
		pair := h.holeSessions[player]
		for _, s := range pair {
			if s.Status() == session.InProgress {
				s.StateUpdate(now)
			}
			if s.Status() == session.Failed {
				h.culprits = s.Culprits()
				h.status = session.Failed
				return true
			}
		}
	}
	return false
}

func (h *Hand) allHoleSucceeded() bool {
	for _, pair := range h.holeSessions {
		for _, s := range pair {
			if s.Status() != session.Succeeded {
				return false
			}
		}
	}
	return true
}

// openBoardSessions grows boardSessions up to target length, opening one
// TSM session per newly-added community card position.
func (h *Hand) openBoardSessions(now session.Clock, target int) {
	n := len(h.Roster)
	deadline := h.Policy.Deadline(now)
	for i := len(h.boardSessions); i < target; i++ {
		pos := 2*n + i
		h.BoardPos = append(h.BoardPos, pos)
		h.boardSessions = append(h.boardSessions, tsm.New(h.Deck[pos].C0, h.AggKey, h.PartyKeys, h.Roster, deadline, n))
	}
}

// tickBoardSessions advances every open community-card TSM session.
// Returns true if the hand just failed.
func (h *Hand) tickBoardSessions(now session.Clock) bool {
	for _, s := range h.boardSessions {
		if s.Status() == session.InProgress {
			s.StateUpdate(now)
		}
		if s.Status() == session.Failed {
			h.culprits = s.Culprits()
			h.status = session.Failed
			return true
		}
	}
	return false
}

func (h *Hand) allBoardSucceeded() bool {
	for _, s := range h.boardSessions {
		if s.Status() != session.Succeeded {
			return false
		}
	}
	return true
}
