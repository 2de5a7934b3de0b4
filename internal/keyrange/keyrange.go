package keyrange

import (
	"bytes"
	"fmt"
	"github.com/litetable/litetable-io/internal/litetable"
	"strings"
)

// Bound is the kind of a range boundary as it travels on the wire.
type Bound int

const (
	// Unbounded leaves the side of the range open to the end of the keyspace.
	Unbounded Bound = iota
	// Closed includes the boundary key.
	Closed
	// Open excludes the boundary key.
	Open
)

func (b Bound) String() string {
	switch b {
	case Unbounded:
		return "unbounded"
	case Closed:
		return "closed"
	case Open:
		return "open"
	}
	return fmt.Sprintf("Bound(%d)", int(b))
}

// KeyRange is a contiguous span of row keys.
type KeyRange struct {
	StartKey   litetable.Key
	StartBound Bound
	EndKey     litetable.Key
	EndBound   Bound
}

// All is the range covering the whole table.
func All() KeyRange {
	return KeyRange{}
}

// ClosedOpen returns [start, end). An empty start or end leaves that side unbounded.
func ClosedOpen(start, end litetable.Key) KeyRange {
	r := KeyRange{StartKey: start, EndKey: end}
	if len(start) > 0 {
		r.StartBound = Closed
	}
	if len(end) > 0 {
		r.EndBound = Open
	}
	return r
}

// Start extracts the start boundary. An unset or open empty start is normalized to the closed
// empty point so that every "from the beginning" range compares equal.
func (r KeyRange) Start() (StartPoint, error) {
	switch r.StartBound {
	case Unbounded:
		return StartPoint{Closed: true}, nil
	case Closed:
		return StartPoint{Value: r.StartKey, Closed: true}, nil
	case Open:
		if len(r.StartKey) == 0 {
			return StartPoint{Closed: true}, nil
		}
		return StartPoint{Value: r.StartKey}, nil
	}
	return StartPoint{}, litetable.NewError(litetable.ErrInvariant, "unknown start bound %d",
		int(r.StartBound))
}

// End extracts the end boundary, normalizing an unset or open empty end to the closed empty
// point.
func (r KeyRange) End() (EndPoint, error) {
	switch r.EndBound {
	case Unbounded:
		return EndPoint{Closed: true}, nil
	case Closed:
		return EndPoint{Value: r.EndKey, Closed: true}, nil
	case Open:
		if len(r.EndKey) == 0 {
			return EndPoint{Closed: true}, nil
		}
		return EndPoint{Value: r.EndKey}, nil
	}
	return EndPoint{}, litetable.NewError(litetable.ErrInvariant, "unknown end bound %d",
		int(r.EndBound))
}

// Contains reports whether key falls inside r.
func (r KeyRange) Contains(key litetable.Key) bool {
	start, err := r.Start()
	if err != nil {
		return false
	}
	end, err := r.End()
	if err != nil {
		return false
	}
	return startAdmits(start, key) && endAdmits(end, key)
}

func startAdmits(s StartPoint, key []byte) bool {
	if len(s.Value) == 0 {
		return true
	}
	c := bytes.Compare(key, s.Value)
	return c > 0 || (c == 0 && s.Closed)
}

func endAdmits(e EndPoint, key []byte) bool {
	if len(e.Value) == 0 {
		return true
	}
	c := bytes.Compare(key, e.Value)
	return c < 0 || (c == 0 && e.Closed)
}

// validate fails when the range cannot contain any key.
func (r KeyRange) validate() error {
	start, err := r.Start()
	if err != nil {
		return err
	}
	end, err := r.End()
	if err != nil {
		return err
	}
	if len(start.Value) == 0 || len(end.Value) == 0 {
		return nil
	}
	c := bytes.Compare(start.Value, end.Value)
	if c < 0 || (c == 0 && start.Closed && end.Closed) {
		return nil
	}
	return litetable.NewError(litetable.ErrInvariant, "range %s starts after it ends", r)
}

func (r KeyRange) String() string {
	var sb strings.Builder
	switch r.StartBound {
	case Closed:
		sb.WriteString("[" + string(r.StartKey))
	case Open:
		sb.WriteString("(" + string(r.StartKey))
	default:
		sb.WriteString("(-inf")
	}
	sb.WriteString(", ")
	switch r.EndBound {
	case Closed:
		sb.WriteString(string(r.EndKey) + "]")
	case Open:
		sb.WriteString(string(r.EndKey) + ")")
	default:
		sb.WriteString("+inf)")
	}
	return sb.String()
}
