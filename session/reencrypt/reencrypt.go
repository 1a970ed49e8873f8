// Package reencrypt implements private card dealing, per spec.md §4.8: a
// composite session that re-encrypts a card for a single recipient and
// then runs a threshold scalar multiplication so the recipient — and only
// the recipient — can reveal the plaintext locally.
//
// Grounded on the discordwell-OnChainPoker reference's DealerEncShare
// shape ("encrypt-then-prove, recipient reveals locally"), generalized to
// the exact three-value/two-proof structure spec.md §4.8 specifies
// (T, TS, URT, π_T, π_U) composed with session/tsm for Phase B.
package reencrypt

import (
	"errors"

	"github.com/pokermesh/mentalpoker/elgamal"
	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/proof/dl"
	"github.com/pokermesh/mentalpoker/proof/dleq"
	"github.com/pokermesh/mentalpoker/session"
	"github.com/pokermesh/mentalpoker/session/tsm"
	"github.com/pokermesh/mentalpoker/transcript"
	"github.com/pokermesh/mentalpoker/wire"
)

// DomainLabel seeds Phase A's transcript. Phase B reuses session/tsm's own
// domain label, since it is literally a TSM session once Phase A hands
// off to it.
const DomainLabel = "mentalpoker.reencrypt.v1"

var (
	ErrNotRecipient = errors.New("reencrypt: contributor is not the designated recipient")
	ErrDuplicate    = errors.New("reencrypt: phase A already completed")
	ErrInvalidProof = errors.New("reencrypt: invalid proof")
	ErrPrecondition = errors.New("reencrypt: precondition violated")
)

// phase tracks the internal sub-state while Status() is InProgress.
type phase int

const (
	phaseAcceptingReenc phase = iota
	phaseScalarMulInProgress
)

// Contribution is the recipient's Phase A reencryption contribution.
type Contribution struct {
	T       group.Element
	TS      group.Element
	URT     group.Element
	ProofT  *dleq.Proof
	ProofU  *dl.Proof
}

// Encode appends the contribution's wire encoding (Element th, tsh, urth,
// Option<ΣDL-EQ-Proof> proof_t, Option<ΣDL-Proof> proof_u, per spec.md
// §6) to e.
func (c Contribution) Encode(e *wire.Encoder) {
	e.Element(c.T)
	e.Element(c.TS)
	e.Element(c.URT)
	e.OptionTag(c.ProofT != nil)
	if c.ProofT != nil {
		c.ProofT.Encode(e)
	}
	e.OptionTag(c.ProofU != nil)
	if c.ProofU != nil {
		c.ProofU.Encode(e)
	}
}

// DecodeContribution reads a reencryption contribution from d.
func DecodeContribution(d *wire.Decoder) (Contribution, error) {
	t, err := d.Element()
	if err != nil {
		return Contribution{}, err
	}
	ts, err := d.Element()
	if err != nil {
		return Contribution{}, err
	}
	urt, err := d.Element()
	if err != nil {
		return Contribution{}, err
	}
	presentT, err := d.OptionTag()
	if err != nil {
		return Contribution{}, err
	}
	var proofT *dleq.Proof
	if presentT {
		pr, err := dleq.Decode(d)
		if err != nil {
			return Contribution{}, err
		}
		proofT = &pr
	}
	presentU, err := d.OptionTag()
	if err != nil {
		return Contribution{}, err
	}
	var proofU *dl.Proof
	if presentU {
		pr, err := dl.Decode(d)
		if err != nil {
			return Contribution{}, err
		}
		proofU = &pr
	}
	return Contribution{T: t, TS: ts, URT: urt, ProofT: proofT, ProofU: proofU}, nil
}

// Session is an in-progress, succeeded, or failed private-dealing session
// for a single card.
type Session struct {
	C             elgamal.Ciphertext
	AggKey        elgamal.EncKey
	PartyKeys     []elgamal.EncKey
	Recipient     session.Address
	Roster        []session.Address
	ReencDeadline session.Clock
	TSMDeadline   session.Clock
	Threshold     int

	phase    phase
	status   session.Status
	culprits []session.Address

	reenc  *Contribution
	cPrime elgamal.Ciphertext

	tsmSession *tsm.Session
}

// New creates a reencryption session dealing card c to recipient, to be
// scalar-multiplied by roster once Phase A completes.
func New(c elgamal.Ciphertext, aggKey elgamal.EncKey, partyKeys []elgamal.EncKey, recipient session.Address, roster []session.Address, reencDeadline, tsmDeadline session.Clock, threshold int) *Session {
	if reencDeadline >= tsmDeadline {
		panic("reencrypt: reencrypt deadline must precede TSM deadline")
	}
	return &Session{
		C:             c,
		AggKey:        aggKey,
		PartyKeys:     append([]elgamal.EncKey(nil), partyKeys...),
		Recipient:     recipient,
		Roster:        append([]session.Address(nil), roster...),
		ReencDeadline: reencDeadline,
		TSMDeadline:   tsmDeadline,
		Threshold:     threshold,
		phase:         phaseAcceptingReenc,
		status:        session.InProgress,
	}
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() session.Status { return s.status }

// Culprits returns the parties responsible for a Failed session: either
// just the recipient (missed Phase A) or the TSM culprits (missed Phase
// B), per spec.md §4.8's failure taxonomy.
func (s *Session) Culprits() []session.Address { return s.culprits }

// TSM exposes the Phase B session once it has started, for submitting
// scalar-multiplication contributions. Returns nil before Phase A
// completes.
func (s *Session) TSM() *tsm.Session { return s.tsmSession }

// ProduceContribution builds a valid Phase A contribution for the
// recipient, sampling fresh blinding scalars t, u. The caller must record
// u locally (e.g. alongside their secret share) to perform the final
// reveal later; it is never stored in the session.
func ProduceContribution(c elgamal.Ciphertext, aggKey elgamal.EncKey) (Contribution, group.Scalar) {
	t := group.RandScalar()
	u := group.RandScalar()

	tVal := aggKey.B.ScalarMul(t)
	tsVal := aggKey.P.ScalarMul(t)
	base := c.C0.Add(tVal)
	urt := base.ScalarMul(u)

	tr := transcript.New(DomainLabel)
	proofT := dleq.Prove(tr, aggKey.B, tVal, aggKey.P, tsVal, t)
	proofU := dl.Prove(tr, base, urt, u)

	return Contribution{T: tVal, TS: tsVal, URT: urt, ProofT: &proofT, ProofU: &proofU}, u
}

// ProcessReencryption validates and records the recipient's Phase A
// contribution, and — on success — starts the Phase B TSM session.
func (s *Session) ProcessReencryption(addr session.Address, c Contribution) error {
	if s.status != session.InProgress || s.phase != phaseAcceptingReenc {
		return ErrPrecondition
	}
	if addr != s.Recipient {
		return ErrNotRecipient
	}
	if s.reenc != nil {
		return ErrDuplicate
	}
	if c.ProofT == nil || c.ProofU == nil {
		return ErrInvalidProof
	}

	tr := transcript.New(DomainLabel)
	base := s.C.C0.Add(c.T)
	if err := dleq.Verify(tr, s.AggKey.B, c.T, s.AggKey.P, c.TS, *c.ProofT); err != nil {
		return ErrInvalidProof
	}
	if err := dl.Verify(tr, base, c.URT, *c.ProofU); err != nil {
		return ErrInvalidProof
	}

	s.reenc = &c
	s.cPrime = elgamal.Ciphertext{
		C0: base,
		C1: s.C.C1.Add(c.URT).Add(c.TS),
	}
	s.tsmSession = tsm.New(s.cPrime.C0, s.AggKey, s.PartyKeys, s.Roster, s.TSMDeadline, s.Threshold)
	s.phase = phaseScalarMulInProgress
	return nil
}

// StateUpdate advances the session given the current clock.
func (s *Session) StateUpdate(now session.Clock) {
	if s.status != session.InProgress {
		return
	}
	switch s.phase {
	case phaseAcceptingReenc:
		if now >= s.ReencDeadline {
			s.culprits = []session.Address{s.Recipient}
			s.status = session.Failed
		}
	case phaseScalarMulInProgress:
		s.tsmSession.StateUpdate(now)
		switch s.tsmSession.Status() {
		case session.Succeeded:
			s.status = session.Succeeded
		case session.Failed:
			s.culprits = s.tsmSession.Culprits()
			s.status = session.Failed
		}
	}
}

// Reveal recovers the original plaintext for the recipient, given the
// blinding scalar u sampled in ProduceContribution. Only meaningful once
// Status is Succeeded.
func (s *Session) Reveal(u group.Scalar) group.Element {
	sC0 := s.tsmSession.Result()
	return s.cPrime.C1.Sub(sC0).Sub(s.cPrime.C0.ScalarMul(u))
}
