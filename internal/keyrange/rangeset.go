package keyrange

import (
	"bytes"
	"github.com/litetable/litetable-io/internal/litetable"
	"sort"
	"strings"
)

// RangeSet is an ordered collection of disjoint, non-adjacent key ranges. A nil RangeSet means
// there is nothing left to scan.
type RangeSet []KeyRange

// NewRangeSet validates, sorts and merges ranges into a RangeSet. No ranges at all means the
// whole table.
func NewRangeSet(ranges ...KeyRange) (RangeSet, error) {
	if len(ranges) == 0 {
		return RangeSet{All()}, nil
	}

	type bounded struct {
		r     KeyRange
		start StartPoint
		end   EndPoint
	}

	items := make([]bounded, 0, len(ranges))
	for _, r := range ranges {
		if err := r.validate(); err != nil {
			return nil, err
		}
		// validate already extracted both points successfully
		start, _ := r.Start()
		end, _ := r.End()
		items = append(items, bounded{r: r, start: start, end: end})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].start.Compare(items[j].start) < 0
	})

	out := make(RangeSet, 0, len(items))
	cur := items[0]
	for _, next := range items[1:] {
		if !touches(cur.end, next.start) {
			out = append(out, cur.r)
			cur = next
			continue
		}
		if next.end.Compare(cur.end) > 0 {
			cur.r.EndKey, cur.r.EndBound = next.r.EndKey, next.r.EndBound
			cur.end = next.end
		}
	}
	out = append(out, cur.r)

	return out, nil
}

// touches reports whether a range ending at e overlaps or abuts a range starting at s, given
// that s does not start before the range ending at e.
func touches(e EndPoint, s StartPoint) bool {
	if len(e.Value) == 0 || len(s.Value) == 0 {
		return true
	}
	c := bytes.Compare(s.Value, e.Value)
	if c != 0 {
		return c < 0
	}
	// (.., k) followed by (k, ..) leaves k uncovered
	return e.Closed || s.Closed
}

// TruncateAt returns the part of the set that still has to be read once every key up to and
// including lastKey has been delivered:
//
//   - a range starting after lastKey is kept unchanged,
//   - a range that ends after lastKey resumes just past it, (lastKey, end),
//   - anything else has been fully consumed and is dropped.
//
// The result is nil when no range survives. Truncating twice at the same key yields the same set.
func (s RangeSet) TruncateAt(lastKey litetable.Key) (RangeSet, error) {
	if len(lastKey) == 0 {
		return nil, litetable.NewError(litetable.ErrInvariant, "cannot truncate at the empty key")
	}

	splitStart := StartPoint{Value: lastKey, Closed: true}
	splitEnd := EndPoint{Value: lastKey, Closed: true}

	var out RangeSet
	for _, r := range s {
		start, err := r.Start()
		if err != nil {
			return nil, err
		}
		end, err := r.End()
		if err != nil {
			return nil, err
		}

		if start.Compare(splitStart) > 0 {
			out = append(out, r)
			continue
		}
		if end.Compare(splitEnd) > 0 {
			sub := KeyRange{
				StartKey:   bytes.Clone(lastKey),
				StartBound: Open,
				EndKey:     r.EndKey,
				EndBound:   r.EndBound,
			}
			if err = sub.validate(); err != nil {
				return nil, err
			}
			out = append(out, sub)
		}
	}

	return out, nil
}

// Contains reports whether any range of the set covers key.
func (s RangeSet) Contains(key litetable.Key) bool {
	for _, r := range s {
		if r.Contains(key) {
			return true
		}
	}
	return false
}

func (s RangeSet) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
