// Package logstream models the external replicated log as a narrow Go
// interface, per spec.md §1's "the core treats the substrate as an
// ordered event stream plus a monotonic clock" and §6's abstract
// event/command surface. The log substrate itself (total ordering,
// authenticated identities, durable storage) is explicitly out of scope
// (spec.md §1) — this package only defines the typed events the driver
// consumes and emits, so a real log implementation has a concrete
// interface to satisfy.
package logstream

import "github.com/pokermesh/mentalpoker/session"

// Kind identifies the type of a logged event, per spec.md §6's abstract
// command surface.
type Kind int

const (
	KindCreateRoom Kind = iota
	KindJoin
	KindSubmitDKGContribution
	KindSubmitShuffleContribution
	KindSubmitReencryption
	KindSubmitTSMContribution
	KindSubmitBet
	KindSubmitShowdownReveal
	KindStateUpdate
)

func (k Kind) String() string {
	switch k {
	case KindCreateRoom:
		return "create_room"
	case KindJoin:
		return "join"
	case KindSubmitDKGContribution:
		return "submit_dkg_contribution"
	case KindSubmitShuffleContribution:
		return "submit_shuffle_contribution"
	case KindSubmitReencryption:
		return "submit_reencryption"
	case KindSubmitTSMContribution:
		return "submit_tsm_contribution"
	case KindSubmitBet:
		return "submit_bet"
	case KindSubmitShowdownReveal:
		return "submit_showdown_reveal"
	case KindStateUpdate:
		return "state_update"
	default:
		return "unknown"
	}
}

// Event is a single entry on the replicated log: a typed command or tick,
// attributed to a sender (empty for KindStateUpdate), time-stamped by the
// log's monotonic clock.
type Event struct {
	Kind    Kind
	Sender  session.Address
	At      session.Clock
	Payload []byte // wire-encoded command payload, per the wire package
}

// Log is the narrow interface the driver needs from the replicated log
// substrate: append new events and read them back in total order. A real
// implementation would back this with consensus and durable storage;
// this module only needs an in-order, append-only sequence of Events.
type Log interface {
	Append(Event) error
	Events() []Event
}

// MemoryLog is an in-process Log used for tests and single-process
// operation: an ordered, append-only slice with no authentication or
// durability of its own.
type MemoryLog struct {
	events []Event
}

// NewMemoryLog returns an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append adds ev to the end of the log. Always succeeds.
func (l *MemoryLog) Append(ev Event) error {
	l.events = append(l.events, ev)
	return nil
}

// Events returns every event appended so far, in order.
func (l *MemoryLog) Events() []Event {
	return l.events
}
