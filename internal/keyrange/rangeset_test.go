package keyrange

import (
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/stretchr/testify/require"
	"testing"
)

func key(s string) litetable.Key {
	return litetable.Key(s)
}

func TestNewRangeSet(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input   []KeyRange
		want    RangeSet
		wantErr error
	}{
		"no ranges means the whole table": {
			want: RangeSet{All()},
		},
		"sorted and disjoint ranges are kept": {
			input: []KeyRange{ClosedOpen(key("m"), key("p")), ClosedOpen(key("a"), key("c"))},
			want:  RangeSet{ClosedOpen(key("a"), key("c")), ClosedOpen(key("m"), key("p"))},
		},
		"overlapping ranges merge": {
			input: []KeyRange{ClosedOpen(key("a"), key("f")), ClosedOpen(key("c"), key("k"))},
			want:  RangeSet{ClosedOpen(key("a"), key("k"))},
		},
		"adjacent closed-open ranges merge": {
			input: []KeyRange{ClosedOpen(key("a"), key("c")), ClosedOpen(key("c"), key("e"))},
			want:  RangeSet{ClosedOpen(key("a"), key("e"))},
		},
		"open end followed by open start stays split": {
			input: []KeyRange{
				{StartKey: key("a"), StartBound: Closed, EndKey: key("c"), EndBound: Open},
				{StartKey: key("c"), StartBound: Open, EndKey: key("e"), EndBound: Open},
			},
			want: RangeSet{
				{StartKey: key("a"), StartBound: Closed, EndKey: key("c"), EndBound: Open},
				{StartKey: key("c"), StartBound: Open, EndKey: key("e"), EndBound: Open},
			},
		},
		"contained range is absorbed": {
			input: []KeyRange{ClosedOpen(key("a"), nil), ClosedOpen(key("c"), key("d"))},
			want:  RangeSet{ClosedOpen(key("a"), nil)},
		},
		"inverted range": {
			input:   []KeyRange{ClosedOpen(key("z"), key("a"))},
			wantErr: litetable.ErrInvariant,
		},
		"empty open range": {
			input:   []KeyRange{{StartKey: key("k"), StartBound: Closed, EndKey: key("k"), EndBound: Open}},
			wantErr: litetable.ErrInvariant,
		},
		"unknown bound": {
			input:   []KeyRange{{StartKey: key("k"), StartBound: Bound(7)}},
			wantErr: litetable.ErrInvariant,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := NewRangeSet(tc.input...)
			if tc.wantErr != nil {
				req.ErrorIs(err, tc.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(tc.want, got)
		})
	}
}

func TestRangeSet_TruncateAt(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		set     RangeSet
		lastKey litetable.Key
		want    RangeSet
	}{
		"range not started is kept": {
			set:     RangeSet{ClosedOpen(key("m"), key("p"))},
			lastKey: key("c"),
			want:    RangeSet{ClosedOpen(key("m"), key("p"))},
		},
		"partially consumed range resumes past the key": {
			set:     RangeSet{ClosedOpen(key("a"), key("d"))},
			lastKey: key("b"),
			want:    RangeSet{{StartKey: key("b"), StartBound: Open, EndKey: key("d"), EndBound: Open}},
		},
		"key at open end drops the range": {
			set:     RangeSet{ClosedOpen(key("a"), key("z"))},
			lastKey: key("z"),
		},
		"key at closed end drops the range": {
			set:     RangeSet{{StartKey: key("a"), StartBound: Closed, EndKey: key("z"), EndBound: Closed}},
			lastKey: key("z"),
		},
		"key past the end drops the range": {
			set:     RangeSet{ClosedOpen(key("a"), key("c"))},
			lastKey: key("x"),
		},
		"key equal to closed start truncates": {
			set:     RangeSet{ClosedOpen(key("k"), key("p"))},
			lastKey: key("k"),
			want:    RangeSet{{StartKey: key("k"), StartBound: Open, EndKey: key("p"), EndBound: Open}},
		},
		"key equal to open start keeps the range": {
			set:     RangeSet{{StartKey: key("k"), StartBound: Open, EndKey: key("p"), EndBound: Open}},
			lastKey: key("k"),
			want:    RangeSet{{StartKey: key("k"), StartBound: Open, EndKey: key("p"), EndBound: Open}},
		},
		"unbounded end resumes": {
			set:     RangeSet{All()},
			lastKey: key("q"),
			want:    RangeSet{{StartKey: key("q"), StartBound: Open}},
		},
		"multiple ranges": {
			set: RangeSet{
				ClosedOpen(key("a"), key("c")),
				ClosedOpen(key("e"), key("h")),
				ClosedOpen(key("m"), key("p")),
			},
			lastKey: key("f"),
			want: RangeSet{
				{StartKey: key("f"), StartBound: Open, EndKey: key("h"), EndBound: Open},
				ClosedOpen(key("m"), key("p")),
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := tc.set.TruncateAt(tc.lastKey)
			req.NoError(err)
			req.Equal(tc.want, got)

			// truncating again at the same key must not change anything
			again, err := got.TruncateAt(tc.lastKey)
			req.NoError(err)
			req.Equal(got, again)
		})
	}
}

func TestRangeSet_TruncateAt_emptyKey(t *testing.T) {
	t.Parallel()
	_, err := RangeSet{All()}.TruncateAt(nil)
	require.ErrorIs(t, err, litetable.ErrInvariant)
}

func TestRangeSet_TruncateAt_resumesWithoutLossOrDuplication(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	keys := []string{"a", "b", "c", "ce", "d0", "d", "x"}
	set := RangeSet{ClosedOpen(key("a"), key("d"))}

	// walk the keys the way a segmented scan would: deliver the first in-range key, truncate
	var delivered []string
	for set != nil {
		var next string
		for _, k := range keys {
			if set.Contains(key(k)) && (next == "" || k < next) {
				next = k
			}
		}
		if next == "" {
			break
		}
		delivered = append(delivered, next)

		var err error
		set, err = set.TruncateAt(key(next))
		req.NoError(err)
	}

	req.Equal([]string{"a", "b", "c", "ce"}, delivered)
}

func TestKeyRange_Contains(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	r := ClosedOpen(key("b"), key("d"))
	req.False(r.Contains(key("a")))
	req.True(r.Contains(key("b")))
	req.True(r.Contains(key("c")))
	req.True(r.Contains(key("czz")))
	req.False(r.Contains(key("d")))

	open := KeyRange{StartKey: key("b"), StartBound: Open, EndKey: key("d"), EndBound: Closed}
	req.False(open.Contains(key("b")))
	req.True(open.Contains(key("d")))

	req.True(All().Contains(key("anything")))
}
