package emulator

import (
	"context"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"io"
)

// Scan returns the rows of req as a stream of cell events. The rows are captured when the scan
// opens; later writes are not visible to it. The filter is not evaluated.
func (e *Emulator) Scan(ctx context.Context, req *transport.ScanRequest,
	_ transport.CallOptions) (transport.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if req.RowsLimit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "negative rows limit %d", req.RowsLimit)
	}
	t, err := e.table(req.TableID)
	if err != nil {
		return nil, err
	}

	rows := t.collect(req.Rows, req.RowsLimit)
	return &stream{
		ctx:         ctx,
		rows:        rows,
		chunkSize:   e.chunkSize,
		scanMarkers: e.scanMarkers,
	}, nil
}

// collect copies the rows inside rs, at most limit of them when limit is positive.
func (t *table) collect(rs keyrange.RangeSet, limit int64) []*litetable.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(rs) == 0 {
		rs = keyrange.RangeSet{keyrange.All()}
	}

	var out []*litetable.Row
	full := func() bool {
		return limit > 0 && int64(len(out)) >= limit
	}
	for _, r := range rs {
		if full() {
			break
		}
		t.rows.AscendGreaterOrEqual(&storedRow{key: r.StartKey}, func(row *storedRow) bool {
			if r.Contains(row.key) {
				out = append(out, row.row())
				return !full()
			}
			// the only key at or after the start that is not inside is an open start
			return row.key.Compare(r.StartKey) == 0
		})
	}
	return out
}

// stream turns rows into events lazily so a cancelled scan stops where it is.
type stream struct {
	ctx         context.Context
	rows        []*litetable.Row
	pending     []*transport.Event
	chunkSize   int
	scanMarkers bool
}

func (s *stream) Recv() (*transport.Event, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if len(s.pending) == 0 {
		if len(s.rows) == 0 {
			return nil, io.EOF
		}
		s.pending = s.events(s.rows[0])
		s.rows[0] = nil
		s.rows = s.rows[1:]
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *stream) events(row *litetable.Row) []*transport.Event {
	events := []*transport.Event{{Type: transport.EventStartRow, Key: row.Key}}
	for _, f := range row.Families {
		for _, c := range f.Columns {
			for _, cell := range c.Cells {
				events = append(events, &transport.Event{
					Type:            transport.EventStartCell,
					Family:          f.Name,
					Qualifier:       c.Qualifier,
					TimestampMicros: cell.TimestampMicros,
					Labels:          cell.Labels,
					Size:            int64(len(cell.Value)),
				})
				for _, chunk := range s.chunks(cell.Value) {
					events = append(events, &transport.Event{Type: transport.EventCellValue, Value: chunk})
				}
				events = append(events, &transport.Event{Type: transport.EventFinishCell})
			}
		}
	}
	events = append(events, &transport.Event{Type: transport.EventFinishRow})
	if s.scanMarkers {
		events = append(events, &transport.Event{Type: transport.EventScanMarker, Key: row.Key})
	}
	return events
}

func (s *stream) chunks(value []byte) [][]byte {
	if s.chunkSize == 0 || len(value) <= s.chunkSize {
		return [][]byte{value}
	}
	var out [][]byte
	for len(value) > 0 {
		n := min(s.chunkSize, len(value))
		out = append(out, value[:n])
		value = value[n:]
	}
	return out
}
