// Package keyrange implements the comparison rules for row range boundaries and the range set
// algebra used to resume an interrupted scan exactly after the last key delivered.
//
// A range boundary is a key tagged open or closed. Start and end boundaries order differently
// around the empty key (the open end of the keyspace) and around open/closed ties, so they are
// kept as two distinct types that can never be compared with each other.
package keyrange

import (
	"bytes"
)

// StartPoint is the lower boundary of a range. The empty value means "from the first key".
type StartPoint struct {
	Value  []byte
	Closed bool
}

// Compare orders start points: the empty value sorts first, then by key bytes, and at equal
// keys a closed start comes before an open one ([x,y] starts before (x,y]).
func (p StartPoint) Compare(o StartPoint) int {
	pe, oe := len(p.Value) == 0, len(o.Value) == 0
	if pe != oe {
		if pe {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(p.Value, o.Value); c != 0 {
		return c
	}
	if p.Closed != o.Closed {
		if p.Closed {
			return -1
		}
		return 1
	}
	return 0
}

// EndPoint is the upper boundary of a range. The empty value means "through the last key".
type EndPoint struct {
	Value  []byte
	Closed bool
}

// Compare orders end points: the empty value sorts last, then by key bytes, and at equal keys
// an open end comes before a closed one ([x,y) ends before [x,y]).
func (p EndPoint) Compare(o EndPoint) int {
	pe, oe := len(p.Value) == 0, len(o.Value) == 0
	if pe != oe {
		if pe {
			return 1
		}
		return -1
	}
	if c := bytes.Compare(p.Value, o.Value); c != 0 {
		return c
	}
	if p.Closed != o.Closed {
		if p.Closed {
			return 1
		}
		return -1
	}
	return 0
}
