package reader

import (
	"context"
	"errors"
	"github.com/litetable/litetable-io/internal/assembler"
	"github.com/litetable/litetable-io/internal/metrics"
	"io"
)

// SimpleReader streams every range of the scan through a single call.
type SimpleReader struct {
	base

	rows       *assembler.RowStream
	stopStream context.CancelFunc
}

func newSimpleReader(b base) *SimpleReader {
	return &SimpleReader{base: b}
}

func (s *SimpleReader) Start(ctx context.Context) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if s.started {
		return false, errors.New("reader already started")
	}
	s.started = true

	stream, cancel, err := s.scan(s.request)
	s.sink.Record(s.labels, metrics.Outcome(err))
	if err != nil {
		return false, s.fail(err)
	}
	s.rows = assembler.NewRowStream(stream)
	s.stopStream = cancel
	return s.Advance(ctx)
}

// Advance hands out the next row of the stream. ctx is checked before reading; a Recv that is
// already blocked is only released by Close or the operation timeout.
func (s *SimpleReader) Advance(ctx context.Context) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	if !s.started {
		return false, errors.New("reader not started")
	}
	if s.rows == nil {
		s.current = nil
		return false, nil
	}
	if ctx.Err() != nil {
		s.current = nil
		return false, interrupted(ctx, s.table)
	}

	row, err := s.rows.Next()
	if errors.Is(err, io.EOF) {
		s.release()
		s.current = nil
		return false, nil
	}
	if err != nil {
		s.release()
		return false, s.fail(transportError(err, s.table))
	}
	s.current = row
	return true, nil
}

func (s *SimpleReader) release() {
	if s.stopStream != nil {
		s.stopStream()
	}
	s.rows = nil
}

func (s *SimpleReader) Close() error {
	s.release()
	return s.base.Close()
}
