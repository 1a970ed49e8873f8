// Package pedersen implements Pedersen vector commitments over the group
// package's Ristretto255 elements: a hiding, binding commitment to a
// vector of scalars using independent generators sampled once per session.
package pedersen

import (
	"fmt"

	"github.com/pokermesh/mentalpoker/group"
	"github.com/pokermesh/mentalpoker/transcript"
)

// Context holds a blinding generator H and n independent vector generators
// (G1, ..., Gn), fixed for the life of the session that created them. A
// Context is a deterministic function of the transcript passed to New and
// involves no fresh randomness: anyone holding an equal transcript derives
// the same generators, and two sessions get distinct Contexts only when
// their transcripts differ.
type Context struct {
	H  group.Element
	Gs []group.Element
}

// New derives a Context with n vector generators from a transcript. The
// generators are hash-to-group outputs, domain-separated by index, so
// nobody (including the party deriving them) knows a discrete-log relation
// between H, G1, ..., Gn; this is what makes the resulting commitment
// binding.
//
// The transcript passed in should already be seeded with session-specific
// context (e.g. the session's roster and deck size) so that two sessions
// never derive the same Context.
func New(tr *transcript.Transcript, n int) Context {
	c := Context{Gs: make([]group.Element, n)}
	hBytes := tr.DeriveBytes("pedersen-h")
	h, err := group.ElementFromUniformBytes(hBytes[:])
	if err != nil {
		panic("pedersen: hash-to-group failure")
	}
	c.H = h
	for i := range c.Gs {
		gBytes := tr.DeriveBytes(fmt.Sprintf("pedersen-g-%d", i))
		g, err := group.ElementFromUniformBytes(gBytes[:])
		if err != nil {
			panic("pedersen: hash-to-group failure")
		}
		c.Gs[i] = g
	}
	return c
}

// Commit returns r·H + Σ a[i]·G[i]. len(a) must be at most len(c.Gs).
func (c Context) Commit(r group.Scalar, a []group.Scalar) group.Element {
	if len(a) > len(c.Gs) {
		panic(fmt.Sprintf("pedersen: vector length %d exceeds context size %d", len(a), len(c.Gs)))
	}
	scalars := make([]group.Scalar, 0, len(a)+1)
	points := make([]group.Element, 0, len(a)+1)
	scalars = append(scalars, r)
	points = append(points, c.H)
	scalars = append(scalars, a...)
	points = append(points, c.Gs[:len(a)]...)
	return group.MSM(scalars, points)
}

// N returns the number of vector generators available (the maximum
// committable vector length).
func (c Context) N() int {
	return len(c.Gs)
}

// GsN returns the first n vector generators. Used by proof/shuffle to
// derive a constant (Σ G_i) without transmitting it on the wire.
func (c Context) GsN(n int) []group.Element {
	if n > len(c.Gs) {
		panic(fmt.Sprintf("pedersen: requested %d generators, context has %d", n, len(c.Gs)))
	}
	return c.Gs[:n]
}
