package keyrange

import (
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStartPoint_Compare(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		a, b StartPoint
		want int
	}{
		"empty sorts first": {
			a:    StartPoint{Closed: true},
			b:    StartPoint{Value: []byte("a"), Closed: true},
			want: -1,
		},
		"non-empty after empty": {
			a:    StartPoint{Value: []byte("a")},
			b:    StartPoint{Closed: true},
			want: 1,
		},
		"byte order": {
			a:    StartPoint{Value: []byte("b"), Closed: true},
			b:    StartPoint{Value: []byte("c"), Closed: true},
			want: -1,
		},
		"unsigned bytes": {
			a:    StartPoint{Value: []byte{0xff}, Closed: true},
			b:    StartPoint{Value: []byte{0x01}, Closed: true},
			want: 1,
		},
		"closed before open at equal value": {
			a:    StartPoint{Value: []byte("k"), Closed: true},
			b:    StartPoint{Value: []byte("k")},
			want: -1,
		},
		"open after closed at equal value": {
			a:    StartPoint{Value: []byte("k")},
			b:    StartPoint{Value: []byte("k"), Closed: true},
			want: 1,
		},
		"equal open": {
			a:    StartPoint{Value: []byte("k")},
			b:    StartPoint{Value: []byte("k")},
			want: 0,
		},
		"equal empty": {
			a:    StartPoint{Closed: true},
			b:    StartPoint{Closed: true},
			want: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tc.want, tc.a.Compare(tc.b))
			req.Equal(-tc.want, tc.b.Compare(tc.a))
		})
	}
}

func TestEndPoint_Compare(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		a, b EndPoint
		want int
	}{
		"empty sorts last": {
			a:    EndPoint{Closed: true},
			b:    EndPoint{Value: []byte("z"), Closed: true},
			want: 1,
		},
		"non-empty before empty": {
			a:    EndPoint{Value: []byte("z")},
			b:    EndPoint{Closed: true},
			want: -1,
		},
		"byte order": {
			a:    EndPoint{Value: []byte("b")},
			b:    EndPoint{Value: []byte("c")},
			want: -1,
		},
		"open before closed at equal value": {
			a:    EndPoint{Value: []byte("k")},
			b:    EndPoint{Value: []byte("k"), Closed: true},
			want: -1,
		},
		"closed after open at equal value": {
			a:    EndPoint{Value: []byte("k"), Closed: true},
			b:    EndPoint{Value: []byte("k")},
			want: 1,
		},
		"equal closed": {
			a:    EndPoint{Value: []byte("k"), Closed: true},
			b:    EndPoint{Value: []byte("k"), Closed: true},
			want: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tc.want, tc.a.Compare(tc.b))
			req.Equal(-tc.want, tc.b.Compare(tc.a))
		})
	}
}

func TestKeyRange_Points(t *testing.T) {
	t.Parallel()

	t.Run("unbounded and open empty normalize to closed empty", func(t *testing.T) {
		req := require.New(t)
		for _, r := range []KeyRange{
			{},
			{StartBound: Open, EndBound: Open},
		} {
			start, err := r.Start()
			req.NoError(err)
			req.Equal(StartPoint{Closed: true}, start)

			end, err := r.End()
			req.NoError(err)
			req.Equal(EndPoint{Closed: true}, end)
		}
	})

	t.Run("unknown bound is an invariant violation", func(t *testing.T) {
		req := require.New(t)
		_, err := KeyRange{StartKey: []byte("a"), StartBound: Bound(9)}.Start()
		req.ErrorIs(err, litetable.ErrInvariant)

		_, err = KeyRange{EndKey: []byte("a"), EndBound: Bound(-1)}.End()
		req.ErrorIs(err, litetable.ErrInvariant)
	})
}
