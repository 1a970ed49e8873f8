package driver

import (
	"fmt"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/pedersen"
	"github.com/pokermesh/mentalpoker/session"
	shufflesession "github.com/pokermesh/mentalpoker/session/shuffle"
	"github.com/pokermesh/mentalpoker/transcript"
)

// DeckSize is the number of cards in a standard deck, and therefore the
// size every shuffle session's Pedersen context and deck slice use.
const DeckSize = 52

// shuffleRound tracks one index of the sequential shuffle pipeline
// (spec.md §4.9 step 2/3: "Shuffle(i) done -> start hand(i) and
// shuffle(i+1) concurrently").
type shuffleRound struct {
	index   int
	roster  []Address
	session *shufflesession.Session
}

// freshDeck returns a deck of DeckSize fresh ElGamal encryptions of card
// identifiers 0..51 (in order) under ek — the initial deck of every
// shuffle round. The randomizers are discarded.
func freshDeck(ek elgamal.EncKey) []elgamal.Ciphertext {
	deck := make([]elgamal.Ciphertext, DeckSize)
	for i := range deck {
		deck[i] = elgamal.Encrypt(ek, group.RandScalar(), cardElement(i))
	}
	return deck
}

// startShuffle begins shuffle round i over roster, with an initial deck.
// Deadlines for roster[0..n-1] are strictly increasing, per-action, per
// spec.md §4.6.
func (r *Room) startShuffle(now session.Clock, i int) {
	roster := r.AliveRoster()
	ctx := pedersen.New(transcript.New(fmt.Sprintf("mentalpoker.pedersen.shuffle.%d", i)), DeckSize)

	deadlines := make([]session.Clock, len(roster))
	cur := now
	for j := range deadlines {
		cur += r.Policy.PerAction
		deadlines[j] = cur
	}

	round := &shuffleRound{
		index:  i,
		roster: roster,
		session: shufflesession.New(r.aggKey, ctx, freshDeck(r.aggKey), roster, deadlines),
	}
	r.shuffles = append(r.shuffles, round)
}

// startShuffleFrom begins shuffle round i reusing an already-encrypted
// deck (the prior round's final deck), rather than a fresh one — used
// when chaining shuffle(i+1) off of a still-encrypted deck belonging to
// the SAME DKG epoch. In this module every shuffle round re-encrypts a
// fresh deck instead (simpler, and equally valid: the deck only needs to
// be a deterministic, known-plaintext starting point under the current
// aggregate key), so this is unused but kept as the documented
// alternative the driver could switch to.
func (r *Room) startShuffleFrom(now session.Clock, i int, initial []elgamal.Ciphertext) {
	roster := r.AliveRoster()
	ctx := pedersen.New(transcript.New(fmt.Sprintf("mentalpoker.pedersen.shuffle.%d", i)), DeckSize)
	deadlines := make([]session.Clock, len(roster))
	cur := now
	for j := range deadlines {
		cur += r.Policy.PerAction
		deadlines[j] = cur
	}
	round := &shuffleRound{
		index:   i,
		roster:  roster,
		session: shufflesession.New(r.aggKey, ctx, initial, roster, deadlines),
	}
	r.shuffles = append(r.shuffles, round)
}

// SubmitShuffleContribution forwards a contribution to shuffle round i's
// session.
func (r *Room) SubmitShuffleContribution(i int, addr Address, c shufflesession.Contribution) error {
	round := r.shuffleRound(i)
	if round == nil {
		return ErrNoActiveSession
	}
	return round.session.ProcessContribution(addr, c)
}

// ShuffleSession exposes shuffle round i's underlying session, so callers
// (and tests) can read its EK/Ctx/roster to build contributions. Returns
// nil if round i hasn't started.
func (r *Room) ShuffleSession(i int) *shufflesession.Session {
	round := r.shuffleRound(i)
	if round == nil {
		return nil
	}
	return round.session
}

func (r *Room) shuffleRound(i int) *shuffleRound {
	for _, s := range r.shuffles {
		if s.index == i {
			return s
		}
	}
	return nil
}

// tickShufflesAndHands drives the concurrent shuffle(i+1)/hand(i) pipeline
// described in spec.md §4.9 steps 3-4.
func (r *Room) tickShufflesAndHands(now session.Clock) {
	// Advance whatever shuffle round is still running.
	if latest := r.latestUnresolvedShuffle(); latest != nil {
		latest.session.StateUpdate(now)
		switch latest.session.Status() {
		case session.Failed:
			r.penalize([]Address{latest.session.Culprit()})
			r.abandonHandCycle(now)
			return
		case session.Succeeded:
			r.onShuffleSucceeded(now, latest)
		}
	}

	if r.handCursor >= 0 && r.handCursor < len(r.hands) {
		hand := r.hands[r.handCursor]
		if hand.Status() == session.InProgress {
			hand.Tick(now)
		}
		if hand.Status() != session.InProgress {
			r.onHandResolved(now, hand)
		}
	}
}

// latestUnresolvedShuffle returns the most recently started shuffle round
// still InProgress, or nil if none is running.
func (r *Room) latestUnresolvedShuffle() *shuffleRound {
	for i := len(r.shuffles) - 1; i >= 0; i-- {
		if r.shuffles[i].session.Status() == session.InProgress {
			return r.shuffles[i]
		}
	}
	return nil
}

// onShuffleSucceeded starts hand(i) if no hand has started yet for this
// round's index (the very first shuffle of an epoch), otherwise leaves
// the deck parked: onHandResolved picks it up once the in-flight hand
// finishes.
func (r *Room) onShuffleSucceeded(now session.Clock, round *shuffleRound) {
	if r.handCursor == round.index {
		return // hand(i) already running or resolved for this index; nothing to do yet
	}
	if round.index == 0 && r.handCursor < 0 {
		r.beginHand(now, round)
		r.startShuffle(now, round.index+1)
		r.Phase = HandAndNextShuffleInProgress
	}
}

// onHandResolved applies the result of a finished hand: penalties on
// failure, then either closes the room (too few players left) or starts
// the next hand/shuffle pair once its deck is ready.
func (r *Room) onHandResolved(now session.Clock, hand *Hand) {
	if hand.Status() == session.Failed {
		r.penalize(hand.Culprits())
	}
	if r.aliveCount() <= 1 {
		r.Phase = Closed
		return
	}
	if r.needsFreshDKG() {
		_ = r.StartDKG(now)
		return
	}
	next := r.shuffleRound(hand.index + 1)
	if next != nil && next.session.Status() == session.Succeeded {
		r.beginHand(now, next)
		r.startShuffle(now, next.index+1)
	}
	// else: wait for shuffle(i+1) to finish; each later Tick calls
	// onHandResolved again for this resolved hand and begins hand(i+1)
	// once shuffle(i+1) has succeeded.
}

// abandonHandCycle responds to a failed shuffle round by returning the
// room to DKG (the alive roster changed) or leaving it in its current
// hand/shuffle phase to retry with a reduced roster if the DKG is still
// valid.
func (r *Room) abandonHandCycle(now session.Clock) {
	if r.aliveCount() <= 1 {
		r.Phase = Closed
		return
	}
	if r.needsFreshDKG() {
		_ = r.StartDKG(now)
	}
}
