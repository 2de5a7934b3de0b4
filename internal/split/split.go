// Package split cuts key ranges into bundles of roughly equal size using the sampled keys of a
// table, so that the bundles can be read in parallel.
package split

import (
	"bytes"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
)

// Ranges splits every range of rs at sampled keys so that each piece covers about bundleBytes
// of data. Offsets must be ordered by key, as SampleKeyOffsets returns them; an entry with an
// empty key marks the end of the table and is ignored. Pieces are returned in key order and
// together cover exactly rs.
func Ranges(rs keyrange.RangeSet, offsets []litetable.KeyOffset, bundleBytes int64) []keyrange.KeyRange {
	if bundleBytes <= 0 {
		return append([]keyrange.KeyRange(nil), rs...)
	}

	var out []keyrange.KeyRange
	for _, r := range rs {
		out = append(out, splitRange(r, offsets, bundleBytes)...)
	}
	return out
}

func splitRange(r keyrange.KeyRange, offsets []litetable.KeyOffset, bundleBytes int64) []keyrange.KeyRange {
	var (
		out        []keyrange.KeyRange
		current    = r
		lastOffset int64
	)
	for _, o := range offsets {
		if len(o.Key) == 0 {
			continue
		}
		if !r.Contains(o.Key) {
			if r.StartBound != keyrange.Unbounded && bytes.Compare(o.Key, r.StartKey) <= 0 {
				// before the range
				lastOffset = o.Offset
				continue
			}
			break
		}
		if bytes.Compare(o.Key, current.StartKey) <= 0 {
			continue
		}
		if o.Offset-lastOffset < bundleBytes {
			continue
		}

		out = append(out, keyrange.KeyRange{
			StartKey:   current.StartKey,
			StartBound: current.StartBound,
			EndKey:     o.Key,
			EndBound:   keyrange.Open,
		})
		current.StartKey = o.Key
		current.StartBound = keyrange.Closed
		lastOffset = o.Offset
	}
	return append(out, current)
}
