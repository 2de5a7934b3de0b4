package reader

import (
	"context"
	"errors"
	"github.com/dustin/go-humanize"
	"github.com/litetable/litetable-io/internal/assembler"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/metrics"
	"github.com/litetable/litetable-io/internal/transport"
	"io"
	"math"
	"runtime"
	"runtime/debug"
)

const (
	// watermarkFraction of the segment row limit left in the buffer triggers a refill.
	watermarkFraction = 0.1
	// segmentMemoryFraction of the memory available to the process bounds one segment.
	segmentMemoryFraction = 0.1
	// minSegmentBytes is the floor of the derived segment size cap.
	minSegmentBytes = 100 << 20
)

// segment is the outcome of one bounded scan.
type segment struct {
	rows []*litetable.Row
	// next resumes the scan after the last row of this segment; nil when the scan is complete.
	next *transport.ScanRequest
	err  error
}

// SegmentReader reads a table in segments of at most limit rows. While the caller drains the
// buffer, the next segment is fetched in the background once the buffer runs below the
// watermark. At most one fetch is ever in flight.
type SegmentReader struct {
	base

	limit     int
	watermark int
	maxBytes  int64

	buffer []*litetable.Row
	// pending is the in-flight fetch, nil when there is none.
	pending chan segment
}

func newSegmentReader(b base, limit int, maxBytes int64) *SegmentReader {
	if maxBytes == 0 {
		maxBytes = defaultSegmentBytes()
	}
	b.request.RowsLimit = int64(limit)

	s := &SegmentReader{
		base:      b,
		limit:     limit,
		watermark: max(1, int(float64(limit)*watermarkFraction)),
		maxBytes:  maxBytes,
	}
	s.log.Debug().
		Int("limit", limit).
		Int("watermark", s.watermark).
		Str("max_segment", humanize.IBytes(uint64(maxBytes))).
		Msg("segment reader created")
	return s
}

// defaultSegmentBytes derives the segment size cap from the soft memory limit or, when none is
// set, from the memory obtained from the OS so far.
func defaultSegmentBytes() int64 {
	available := debug.SetMemoryLimit(-1)
	if available == math.MaxInt64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		available = int64(ms.Sys)
	}
	return max(minSegmentBytes, int64(float64(available)*segmentMemoryFraction))
}

func (s *SegmentReader) Start(ctx context.Context) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if s.started {
		return false, errors.New("reader already started")
	}
	s.started = true

	s.fetch()
	return s.Advance(ctx)
}

func (s *SegmentReader) Advance(ctx context.Context) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if !s.started {
		return false, errors.New("reader not started")
	}

	if len(s.buffer) < s.watermark && s.pending == nil {
		s.fetch()
	}
	if len(s.buffer) == 0 && s.pending != nil {
		if err := s.await(ctx); err != nil {
			return false, err
		}
	}

	if len(s.buffer) == 0 {
		s.current = nil
		return false, nil
	}
	s.current = s.buffer[0]
	s.buffer[0] = nil
	s.buffer = s.buffer[1:]
	return true, nil
}

// fetch starts reading the next segment in the background. It does nothing once the scan
// is complete.
func (s *SegmentReader) fetch() {
	req := s.request
	if req == nil {
		return
	}
	s.request = nil

	result := make(chan segment, 1)
	s.pending = result
	go func() {
		result <- s.readSegment(req)
	}()
}

// await blocks until the in-flight fetch completes and moves its rows into the buffer.
func (s *SegmentReader) await(ctx context.Context) error {
	select {
	case seg := <-s.pending:
		s.pending = nil
		s.sink.Record(s.labels, metrics.Outcome(seg.err))
		if seg.err != nil {
			return s.fail(seg.err)
		}
		s.buffer = append(s.buffer, seg.rows...)
		s.request = seg.next
		return nil
	case <-ctx.Done():
		// the fetch stays in flight, a later call may wait for it again
		s.current = nil
		return interrupted(ctx, s.table)
	}
}

// readSegment runs on the fetch goroutine. It only reads fields that never change after the
// reader was created.
func (s *SegmentReader) readSegment(req *transport.ScanRequest) segment {
	stream, cancel, err := s.scan(req)
	if err != nil {
		return segment{err: err}
	}
	defer cancel()

	rows := assembler.NewRowStream(stream)
	var (
		out          []*litetable.Row
		size         int64
		ceilingHit   bool
		limitReached bool
	)
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return segment{err: transportError(err, req.TableID)}
		}

		out = append(out, row)
		size += row.SerializedSize()
		if size > s.maxBytes {
			ceilingHit = true
			cancel()
			break
		}
		if len(out) == s.limit {
			limitReached = true
			break
		}
	}

	seg := segment{rows: out}
	if ceilingHit || limitReached {
		last := out[len(out)-1].Key
		remaining, err := req.Rows.TruncateAt(last)
		if err != nil {
			return segment{err: err}
		}
		if remaining != nil {
			seg.next = req.WithRows(remaining)
		}
	}

	s.log.Debug().
		Int("rows", len(out)).
		Str("size", humanize.IBytes(uint64(size))).
		Bool("ceiling_hit", ceilingHit).
		Bool("more", seg.next != nil).
		Msg("segment read")
	return seg
}
