// Package dkg implements n-of-n distributed key generation, per spec.md
// §4.5: every roster member contributes sᵢ·B plus a proof of knowledge of
// sᵢ, and the aggregate public key is the sum of all contributed points.
//
// Grounded on the teacher's frost package for the per-party secret-share
// contribution and on the discordwell reference for the session state
// machine (see SPEC_FULL.md §4.5), as a public, append-only
// contribution slot list: each
// party contributes exactly once, in any order, and the session resolves
// to Succeeded only once every slot is filled.
package dkg

import (
	"errors"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/proof/dl"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// DomainLabel seeds every DKG session's per-contribution transcript.
const DomainLabel = "mentalpoker.dkg.v1"

var (
	// ErrNotInRoster is returned when the contributing address is not a
	// member of the session's roster.
	ErrNotInRoster = errors.New("dkg: address not in roster")
	// ErrDuplicate is returned when a roster member's slot is already filled.
	ErrDuplicate = errors.New("dkg: slot already filled")
	// ErrInvalidProof is returned when the Σ-DL proof fails to verify.
	ErrInvalidProof = errors.New("dkg: invalid proof")
	// ErrMissingProof is returned when a contribution omits its proof.
	ErrMissingProof = errors.New("dkg: missing proof")
	// ErrPrecondition is returned when an operation is invalid for the
	// session's current status.
	ErrPrecondition = errors.New("dkg: precondition violated")
)

// Contribution is a single roster member's DKG contribution: their public
// share and a Σ-DL proof of knowledge of its discrete log relative to the
// session base point.
type Contribution struct {
	P     group.Element
	Proof *dl.Proof
}

// Encode appends the contribution's wire encoding (Element public_point,
// Option<ΣDL-Proof> proof, per spec.md §6) to e.
func (c Contribution) Encode(e *wire.Encoder) {
	e.Element(c.P)
	e.OptionTag(c.Proof != nil)
	if c.Proof != nil {
		c.Proof.Encode(e)
	}
}

// DecodeContribution reads a DKG contribution from d.
func DecodeContribution(d *wire.Decoder) (Contribution, error) {
	p, err := d.Element()
	if err != nil {
		return Contribution{}, err
	}
	present, err := d.OptionTag()
	if err != nil {
		return Contribution{}, err
	}
	var proof *dl.Proof
	if present {
		pr, err := dl.Decode(d)
		if err != nil {
			return Contribution{}, err
		}
		proof = &pr
	}
	return Contribution{P: p, Proof: proof}, nil
}

// Session is an in-progress, succeeded, or failed DKG session over a fixed
// roster and base point.
type Session struct {
	B        group.Element
	Roster   []session.Address
	Deadline session.Clock

	slots []*Contribution

	status   session.Status
	agg      group.Element
	culprits []session.Address
}

// New creates a DKG session over roster with a fresh, session-scoped base
// point and the given deadline.
func New(roster []session.Address, deadline session.Clock) *Session {
	return &Session{
		B:        group.RandElement(),
		Roster:   append([]session.Address(nil), roster...),
		Deadline: deadline,
		slots:    make([]*Contribution, len(roster)),
		status:   session.InProgress,
	}
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() session.Status { return s.status }

// Culprits returns the roster members who failed to contribute before the
// deadline. Only meaningful once Status is Failed.
func (s *Session) Culprits() []session.Address { return s.culprits }

// AggregateKey returns the derived aggregate encryption key (B, A =
// ΣPᵢ). Only meaningful once Status is Succeeded.
func (s *Session) AggregateKey() elgamal.EncKey {
	return elgamal.EncKey{B: s.B, P: s.agg}
}

// PartyKey returns the per-party encryption key (B, Pᵢ) for roster[i].
// Only meaningful once the slot is filled.
func (s *Session) PartyKey(i int) (elgamal.EncKey, bool) {
	if i < 0 || i >= len(s.slots) || s.slots[i] == nil {
		return elgamal.EncKey{}, false
	}
	return elgamal.EncKey{B: s.B, P: s.slots[i].P}, true
}

// ProcessContribution validates and records a contribution from addr. It
// rejects contributions from non-roster addresses, duplicate slots, and
// invalid proofs without mutating session state beyond recording the
// accepted contribution, per spec.md §7's policy that cryptographic and
// identity errors are local.
func (s *Session) ProcessContribution(addr session.Address, c Contribution) error {
	if s.status != session.InProgress {
		return ErrPrecondition
	}
	i := session.IndexOf(s.Roster, addr)
	if i < 0 {
		return ErrNotInRoster
	}
	if s.slots[i] != nil {
		return ErrDuplicate
	}
	if c.Proof == nil {
		return ErrMissingProof
	}
	tr := transcript.New(DomainLabel)
	if err := dl.Verify(tr, s.B, c.P, *c.Proof); err != nil {
		return ErrInvalidProof
	}
	s.slots[i] = &Contribution{P: c.P, Proof: c.Proof}
	return nil
}

// Contribute builds and returns a valid Contribution for secret share s,
// for use by a party who holds sᵢ locally. It does not mutate the
// session; callers still pass the result to ProcessContribution (possibly
// after it travels over the replicated log).
func Contribute(b group.Element, s group.Scalar) Contribution {
	p := b.ScalarMul(s)
	tr := transcript.New(DomainLabel)
	proof := dl.Prove(tr, b, p, s)
	return Contribution{P: p, Proof: &proof}
}

// StateUpdate advances the session given the current clock. If every slot
// is filled, the session succeeds and the aggregate key is computed; if
// the deadline has passed with slots still empty, the session fails and
// culprits is populated with every still-empty roster member, in roster
// order (spec.md §8 S6).
func (s *Session) StateUpdate(now session.Clock) {
	if s.status != session.InProgress {
		return
	}
	allFilled := true
	for _, slot := range s.slots {
		if slot == nil {
			allFilled = false
			break
		}
	}
	if allFilled {
		agg := group.Identity()
		for _, slot := range s.slots {
			agg = agg.Add(slot.P)
		}
		s.agg = agg
		s.status = session.Succeeded
		return
	}
	if now >= s.Deadline {
		var culprits []session.Address
		for i, slot := range s.slots {
			if slot == nil {
				culprits = append(culprits, s.Roster[i])
			}
		}
		s.culprits = culprits
		s.status = session.Failed
	}
}
