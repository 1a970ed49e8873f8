// Package driver implements the room/hand lifecycle described in spec.md
// §4.9: it chains DKG, Shuffle, TSM, and Reencryption sessions into
// complete hand and room lifecycles, attributes cryptographic failures to
// culprits, and burns chips from them.
//
// This is the component with the thinnest direct teacher analogue (the
// teacher is a pure cryptographic library, not a service), so its field
// shapes are grounded on the discordwell-OnChainPoker reference's
// state.Table/state.Hand/state.DealerState (phase enums, per-seat arrays,
// pot/street bookkeeping), per SPEC_FULL.md §4.9, while its error handling
// keeps the teacher's fmt.Errorf("...: %w", err) idiom throughout.
package driver

import (
	"errors"
	"fmt"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/session/dkg"
)

// Address identifies a room participant. It is session.Address under the
// hood — every session protocol package already defines roster addresses
// this way — but re-exported here as the name the driver's own API
// surfaces, per SPEC_FULL.md §3.
type Address = session.Address

// Phase is the room's top-level lifecycle state, per spec.md §4.9.
type Phase int

const (
	WaitingForPlayers Phase = iota
	DkgInProgress
	ShuffleInProgress
	HandAndNextShuffleInProgress
	Closed
)

func (p Phase) String() string {
	switch p {
	case WaitingForPlayers:
		return "waiting-for-players"
	case DkgInProgress:
		return "dkg-in-progress"
	case ShuffleInProgress:
		return "shuffle-in-progress"
	case HandAndNextShuffleInProgress:
		return "hand-and-next-shuffle-in-progress"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotASeat is returned when an address is not seated at the room.
	ErrNotASeat = errors.New("driver: address is not seated at this room")
	// ErrWrongPhase is returned when an operation is invalid for the
	// room's current phase.
	ErrWrongPhase = errors.New("driver: operation invalid in current phase")
	// ErrNoActiveSession is returned when a contribution is submitted but
	// no matching session is currently open.
	ErrNoActiveSession = errors.New("driver: no active session for this submission")
)

// Seat is one player's standing at the room: their address, whether they
// are currently connected (a disconnected seat is skipped by future
// sessions), and their chip stack. Mirrors state.Seat's
// Player/PK/Stack fields from the discordwell-OnChainPoker reference,
// minus the on-chain bond/hole-card fields this module doesn't need.
type Seat struct {
	Player    Address
	Connected bool
	Chips     uint64
}

// DeadlinePolicy derives the per-session deadlines the driver schedules,
// per spec.md §9's "Deadline handling" note: "model deadlines as a
// dedicated policy object ... do not special-case infinity."
type DeadlinePolicy struct {
	// PerAction is the time budget given to a single sequential action
	// (e.g. one player's shuffle turn, or the TSM/Reencryption deadline
	// window).
	PerAction session.Clock
}

// DefaultDeadlinePolicy returns a policy with a generous but finite
// per-action budget.
func DefaultDeadlinePolicy() DeadlinePolicy {
	return DeadlinePolicy{PerAction: 30}
}

// Deadline returns now + p.PerAction.
func (p DeadlinePolicy) Deadline(now session.Clock) session.Clock {
	return now + p.PerAction
}

// Room is the driver's single owned record for one poker table: roster,
// chip ledger, phase, and whatever session is currently in flight.
// Mirrors state.Table/state.DealerState's shape (SPEC_FULL.md §4.9).
type Room struct {
	Seats   []*Seat
	Penalty uint64
	Phase   Phase
	Policy  DeadlinePolicy

	dkgSession *dkg.Session
	dkgRoster  []Address // roster the active/last-successful DKG ran over

	aggKey    elgamal.EncKey
	partyKeys map[Address]elgamal.EncKey

	shuffles []*shuffleRound
	hands    []*Hand

	// handCursor indexes the hand currently in progress (len(hands)-1 once
	// started); -1 before the first hand.
	handCursor int
}

// NewRoom creates a room with the given roster, each seated with
// startingChips and initially disconnected (callers call Join to connect
// them, mirroring the "All enabled players joined" precondition of
// spec.md §4.9's pipeline).
func NewRoom(roster []Address, startingChips, penalty uint64, policy DeadlinePolicy) *Room {
	seats := make([]*Seat, len(roster))
	for i, addr := range roster {
		seats[i] = &Seat{Player: addr, Chips: startingChips}
	}
	return &Room{
		Seats:      seats,
		Penalty:    penalty,
		Phase:      WaitingForPlayers,
		Policy:     policy,
		partyKeys:  make(map[Address]elgamal.EncKey),
		handCursor: -1,
	}
}

// Join marks addr connected. Returns ErrNotASeat if addr is not seated.
func (r *Room) Join(addr Address) error {
	s := r.seat(addr)
	if s == nil {
		return ErrNotASeat
	}
	s.Connected = true
	return nil
}

func (r *Room) seat(addr Address) *Seat {
	for _, s := range r.Seats {
		if s.Player == addr {
			return s
		}
	}
	return nil
}

// AliveRoster returns the addresses of every currently connected seat, in
// seat order.
func (r *Room) AliveRoster() []Address {
	var out []Address
	for _, s := range r.Seats {
		if s.Connected {
			out = append(out, s.Player)
		}
	}
	return out
}

// aliveCount returns the number of connected seats.
func (r *Room) aliveCount() int {
	n := 0
	for _, s := range r.Seats {
		if s.Connected {
			n++
		}
	}
	return n
}

// penalize burns min(current_chips, Penalty) chips from each culprit and
// marks them disconnected, per spec.md §4.9's penalty policy and §9's
// saturating-subtraction numeric semantics: a player never ends with more
// chips than before a penalty.
func (r *Room) penalize(culprits []Address) {
	for _, addr := range culprits {
		s := r.seat(addr)
		if s == nil {
			continue
		}
		s.Connected = false
		if s.Chips > r.Penalty {
			s.Chips -= r.Penalty
		} else {
			s.Chips = 0
		}
	}
}

// StartDKG begins a DKG session over every currently connected seat, if
// the room is waiting for players (or needs to re-run DKG because the
// alive set changed since the last successful run). Mirrors step 1 of
// spec.md §4.9's pipeline.
func (r *Room) StartDKG(now session.Clock) error {
	if r.Phase != WaitingForPlayers && r.Phase != HandAndNextShuffleInProgress {
		return fmt.Errorf("%w: cannot start DKG from %s", ErrWrongPhase, r.Phase)
	}
	roster := r.AliveRoster()
	if len(roster) < 2 {
		return fmt.Errorf("driver: need at least 2 connected players to start DKG")
	}
	r.dkgSession = dkg.New(roster, r.Policy.Deadline(now))
	r.dkgRoster = roster
	r.Phase = DkgInProgress
	return nil
}

// SubmitDKGContribution forwards a contribution to the active DKG
// session.
func (r *Room) SubmitDKGContribution(addr Address, c dkg.Contribution) error {
	if r.dkgSession == nil {
		return ErrNoActiveSession
	}
	return r.dkgSession.ProcessContribution(addr, c)
}

// DKGSession exposes the active or most recent DKG session, so callers
// (and tests) can read its base point B to build contributions. Returns
// nil before the room's first StartDKG.
func (r *Room) DKGSession() *dkg.Session {
	return r.dkgSession
}

// Hand returns hand(i), or nil if it has not started yet.
func (r *Room) Hand(i int) *Hand {
	if i < 0 || i >= len(r.hands) {
		return nil
	}
	return r.hands[i]
}

// needsFreshDKG reports whether the alive roster has changed since the
// last successful DKG, per spec.md §4.9's "If the next session requires a
// different alive set than the last DKG produced, the driver re-runs DKG
// before the next shuffle."
func (r *Room) needsFreshDKG() bool {
	alive := r.AliveRoster()
	if len(alive) != len(r.dkgRoster) {
		return true
	}
	for i := range alive {
		if alive[i] != r.dkgRoster[i] {
			return true
		}
	}
	return false
}

// Tick drives the room's state machine forward given the current clock:
// it advances whatever session is in flight, applies penalties on
// cryptographic failure, and chains to the next phase on success, per
// spec.md §4.9's pipeline and §4.9's penalty policy.
func (r *Room) Tick(now session.Clock) {
	switch r.Phase {
	case WaitingForPlayers:
		if r.aliveCount() == len(r.Seats) {
			_ = r.StartDKG(now)
		}
	case DkgInProgress:
		r.tickDKG(now)
	case ShuffleInProgress, HandAndNextShuffleInProgress:
		r.tickShufflesAndHands(now)
	case Closed:
	}
}

// beginHand starts dealing hand(round.index) off of round's final deck,
// and records it at r.hands[round.index] (hands are always begun in
// index order, so a plain append keeps the slice aligned with
// handCursor).
func (r *Room) beginHand(now session.Clock, round *shuffleRound) {
	roster := round.roster
	partyKeys := make([]elgamal.EncKey, len(roster))
	for i, addr := range roster {
		partyKeys[i] = r.partyKeys[addr]
	}
	hand := newHand(now, round.index, roster, round.session.FinalDeck(), r.aggKey, partyKeys, r.Policy)
	r.hands = append(r.hands, hand)
	r.handCursor = round.index
}

func (r *Room) tickDKG(now session.Clock) {
	r.dkgSession.StateUpdate(now)
	switch r.dkgSession.Status() {
	case session.Succeeded:
		r.aggKey = r.dkgSession.AggregateKey()
		r.partyKeys = make(map[Address]elgamal.EncKey, len(r.dkgRoster))
		for i, addr := range r.dkgRoster {
			pk, _ := r.dkgSession.PartyKey(i)
			r.partyKeys[addr] = pk
		}
		r.startShuffle(now, 0)
		r.Phase = ShuffleInProgress
	case session.Failed:
		r.penalize(r.dkgSession.Culprits())
		r.Phase = WaitingForPlayers
	}
}

// cardElement is the deterministic, reversible group-element encoding for
// card identifiers 0..51 that every ElGamal plaintext in this module uses,
// per elgamal.go's doc comment ("plaintexts are always playing-card
// identifiers encoded as group elements").
func cardElement(id int) group.Element {
	return group.ScalarBaseMul(group.ScalarFromUint64(uint64(id) + 1))
}

// CardElement exposes cardElement for callers outside this package (tests,
// and any code that needs to encrypt a fresh deck against the room's
// aggregate key before submitting the first shuffle contribution).
func CardElement(id int) group.Element {
	return cardElement(id)
}

// CardID recovers the card identifier 0..51 from its group-element
// encoding by brute-force table lookup — safe because the plaintext space
// here is exactly 52 known values, not an arbitrary message.
func CardID(e group.Element) (int, bool) {
	for id := range 52 {
		if cardElement(id).Equal(e) {
			return id, true
		}
	}
	return 0, false
}
