package session_test

import (
	"testing"

	"github.com/pokermesh/mentalpoker/session"
)

func addr(b byte) session.Address {
	var a session.Address
	a[0] = b
	return a
}

func TestIndexOf(t *testing.T) {
	roster := []session.Address{addr(1), addr(2), addr(3)}
	if got := session.IndexOf(roster, addr(2)); got != 1 {
		t.Errorf("IndexOf = %d, want 1", got)
	}
	if got := session.IndexOf(roster, addr(9)); got != -1 {
		t.Errorf("IndexOf for absent address = %d, want -1", got)
	}
}

func TestSortAddresses(t *testing.T) {
	in := []session.Address{addr(3), addr(1), addr(2)}
	out := session.SortAddresses(in)
	for i := 1; i < len(out); i++ {
		if !out[i-1].Less(out[i]) {
			t.Errorf("SortAddresses did not produce ascending order at index %d", i)
		}
	}
	// The input slice must not be mutated.
	if in[0] != addr(3) {
		t.Error("SortAddresses mutated its input")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[session.Status]string{
		session.InProgress: "in-progress",
		session.Succeeded:  "succeeded",
		session.Failed:     "failed",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
