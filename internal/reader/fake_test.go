package reader

import (
	"context"
	"errors"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"io"
	"sync"
)

var cellValue = []byte("0123456789")

// fakeTable serves scans from a sorted list of keys, honouring the row set and the row limit
// of every request.
type fakeTable struct {
	mu       sync.Mutex
	keys     []string
	requests []*transport.ScanRequest
	ctxs     []context.Context

	// scanErr and streamErr fail the call with the given index when opening or after the
	// last row.
	scanErr   map[int]error
	streamErr map[int]error
	// gate, when set, holds the first Recv of every stream until it is closed.
	gate chan struct{}
}

func (f *fakeTable) Scan(ctx context.Context, req *transport.ScanRequest,
	_ transport.CallOptions) (transport.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.requests)
	f.requests = append(f.requests, req)
	f.ctxs = append(f.ctxs, ctx)
	if err := f.scanErr[call]; err != nil {
		return nil, err
	}

	var events []*transport.Event
	n := int64(0)
	for _, k := range f.keys {
		if !req.Rows.Contains(litetable.Key(k)) {
			continue
		}
		if req.RowsLimit > 0 && n == req.RowsLimit {
			break
		}
		events = append(events, rowEvents(k)...)
		n++
	}
	return &fakeStream{ctx: ctx, events: events, err: f.streamErr[call], gate: f.gate}, nil
}

func (f *fakeTable) SampleKeyOffsets(context.Context, string) ([]litetable.KeyOffset, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTable) NewBatcher(string) (transport.Batcher, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTable) TableExists(context.Context, string) (bool, error) {
	return true, nil
}

func (f *fakeTable) calls() []*transport.ScanRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*transport.ScanRequest(nil), f.requests...)
}

func (f *fakeTable) scanContext(i int) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxs[i]
}

type fakeStream struct {
	ctx    context.Context
	events []*transport.Event
	err    error
	gate   chan struct{}
}

func (s *fakeStream) Recv() (*transport.Event, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		}
		s.gate = nil
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.events) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

// rowEvents describes a row with a single ten byte cell in f:q.
func rowEvents(key string) []*transport.Event {
	return []*transport.Event{
		{Type: transport.EventStartRow, Key: litetable.Key(key)},
		{Type: transport.EventStartCell, Family: "f", Qualifier: []byte("q"), TimestampMicros: 1,
			Size: int64(len(cellValue))},
		{Type: transport.EventCellValue, Value: cellValue},
		{Type: transport.EventFinishCell},
		{Type: transport.EventFinishRow},
	}
}

// drain reads every remaining row of a started reader.
func drain(ctx context.Context, r Reader, ok bool) ([]string, error) {
	var keys []string
	for ok {
		row, err := r.CurrentRow()
		if err != nil {
			return keys, err
		}
		keys = append(keys, string(row.Key))

		ok, err = r.Advance(ctx)
		if err != nil {
			return keys, err
		}
	}
	return keys, nil
}

func intPtr(i int) *int {
	return &i
}
