// Package tsm implements threshold scalar multiplication, per spec.md
// §4.7: given a public point P, the roster jointly computes s·P (s the
// DKG secret, never reconstructed) without any party learning s or any
// other party's share.
//
// Currently n-of-n only — threshold is carried as an explicit field so a
// future t-of-n migration (spec.md §4.5's open NOTE) only changes how
// PartyKeys/contributions are produced and verified, not this session's
// shape.
package tsm

import (
	"errors"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/proof/dleq"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// DomainLabel seeds every TSM session's per-contribution transcript.
const DomainLabel = "mentalpoker.tsm.v1"

var (
	ErrNotInRoster  = errors.New("tsm: address not in roster")
	ErrDuplicate    = errors.New("tsm: slot already filled")
	ErrInvalidProof = errors.New("tsm: invalid proof")
	ErrMissingProof = errors.New("tsm: missing proof")
	ErrPrecondition = errors.New("tsm: precondition violated")
)

// Contribution is a single roster member's scaled point plus a proof that
// it was scaled by the same secret as their DKG share.
type Contribution struct {
	Q     group.Element
	Proof *dleq.Proof
}

// Encode appends the contribution's wire encoding (Element payload,
// Option<ΣDL-EQ-Proof> proof, per spec.md §6) to e.
func (c Contribution) Encode(e *wire.Encoder) {
	e.Element(c.Q)
	e.OptionTag(c.Proof != nil)
	if c.Proof != nil {
		c.Proof.Encode(e)
	}
}

// DecodeContribution reads a TSM contribution from d.
func DecodeContribution(d *wire.Decoder) (Contribution, error) {
	q, err := d.Element()
	if err != nil {
		return Contribution{}, err
	}
	present, err := d.OptionTag()
	if err != nil {
		return Contribution{}, err
	}
	var proof *dleq.Proof
	if present {
		pr, err := dleq.Decode(d)
		if err != nil {
			return Contribution{}, err
		}
		proof = &pr
	}
	return Contribution{Q: q, Proof: proof}, nil
}

// Session is an in-progress, succeeded, or failed threshold scalar
// multiplication session.
type Session struct {
	P         group.Element
	AggKey    elgamal.EncKey
	PartyKeys []elgamal.EncKey // PartyKeys[i] is roster[i]'s DKG public key (B, Pᵢ)
	Roster    []session.Address
	Deadline  session.Clock
	Threshold int

	slots []*Contribution

	status   session.Status
	result   group.Element
	culprits []session.Address
}

// New creates a TSM session to compute s·p over roster, using the given
// per-party DKG public keys for contribution verification. threshold is
// the number of contributions required to succeed; pass len(roster) for
// the current n-of-n design.
func New(p group.Element, aggKey elgamal.EncKey, partyKeys []elgamal.EncKey, roster []session.Address, deadline session.Clock, threshold int) *Session {
	return &Session{
		P:         p,
		AggKey:    aggKey,
		PartyKeys: append([]elgamal.EncKey(nil), partyKeys...),
		Roster:    append([]session.Address(nil), roster...),
		Deadline:  deadline,
		Threshold: threshold,
		slots:     make([]*Contribution, len(roster)),
		status:    session.InProgress,
	}
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() session.Status { return s.status }

// Culprits returns the roster members who failed to contribute before the
// deadline. Only meaningful once Status is Failed.
func (s *Session) Culprits() []session.Address { return s.culprits }

// Result returns s·P. Only meaningful once Status is Succeeded.
func (s *Session) Result() group.Element { return s.result }

// Contribute builds a Contribution for a party holding share sk (their
// DKG secret share) against this session's point P and public key B, Pᵢ.
func Contribute(b, p group.Element, pi group.Element, sk group.Scalar) Contribution {
	q := p.ScalarMul(sk)
	tr := transcript.New(DomainLabel)
	proof := dleq.Prove(tr, b, pi, p, q, sk)
	return Contribution{Q: q, Proof: &proof}
}

// ProcessContribution validates and records a contribution from addr.
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
	pk := s.PartyKeys[i]
	tr := transcript.New(DomainLabel)
	if err := dleq.Verify(tr, pk.B, pk.P, s.P, c.Q, *c.Proof); err != nil {
		return ErrInvalidProof
	}
	s.slots[i] = &Contribution{Q: c.Q, Proof: c.Proof}
	return nil
}

// StateUpdate advances the session given the current clock.
func (s *Session) StateUpdate(now session.Clock) {
	if s.status != session.InProgress {
		return
	}
	filled := 0
	for _, slot := range s.slots {
		if slot != nil {
			filled++
		}
	}
	if filled >= s.Threshold {
		result := group.Identity()
		for _, slot := range s.slots {
			if slot != nil {
				result = result.Add(slot.Q)
			}
		}
		s.result = result
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
