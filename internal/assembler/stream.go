package assembler

import (
	"errors"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"io"
)

// RowStream turns a scan stream of cell events into rows. Every row is built on a fresh
// Assembler, so no state can leak from one row into the next. Scan marker rows are dropped.
type RowStream struct {
	stream transport.Stream
}

// NewRowStream wraps stream.
func NewRowStream(stream transport.Stream) *RowStream {
	return &RowStream{stream: stream}
}

// Next returns the next data row. It returns io.EOF once the stream is exhausted; any other
// stream error is returned as is.
func (s *RowStream) Next() (*litetable.Row, error) {
	for {
		row, err := s.next()
		if err != nil {
			return nil, err
		}
		if row.IsScanMarker() {
			continue
		}
		return row, nil
	}
}

func (s *RowStream) next() (*litetable.Row, error) {
	var a *Assembler
	for {
		ev, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) && a != nil {
				return nil, litetable.NewError(litetable.ErrInvariant, "stream ended inside row %q",
					a.key)
			}
			return nil, err
		}

		if a == nil && ev.Type != transport.EventStartRow && ev.Type != transport.EventScanMarker {
			return nil, litetable.NewError(litetable.ErrInvariant, "event %d outside of a row",
				ev.Type)
		}

		switch ev.Type {
		case transport.EventScanMarker:
			if a != nil {
				return nil, litetable.NewError(litetable.ErrInvariant,
					"scan marker inside row %q", a.key)
			}
			return New().ScanMarker(), nil
		case transport.EventStartRow:
			a = New()
			err = a.StartRow(ev.Key)
		case transport.EventStartCell:
			err = a.StartCell(ev.Family, ev.Qualifier, ev.TimestampMicros, ev.Labels, ev.Size)
		case transport.EventCellValue:
			err = a.CellValue(ev.Value)
		case transport.EventFinishCell:
			err = a.FinishCell()
		case transport.EventFinishRow:
			return a.FinishRow()
		default:
			err = litetable.NewError(litetable.ErrInvariant, "unknown event type %d", ev.Type)
		}
		if err != nil {
			return nil, err
		}
	}
}
