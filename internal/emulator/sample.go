package emulator

import (
	"bytes"
	"context"
	"github.com/litetable/litetable-io/internal/litetable"
	"google.golang.org/grpc/status"
)

// SampleKeyOffsets walks the table and reports a key roughly every sampleBytes of data. The
// last offset carries the empty key and the size of the whole table.
func (e *Emulator) SampleKeyOffsets(ctx context.Context, id string) ([]litetable.KeyOffset, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	t, err := e.table(id)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		out      []litetable.KeyOffset
		offset   int64
		lastMark int64
	)
	t.rows.Ascend(func(row *storedRow) bool {
		offset += row.row().SerializedSize()
		if offset-lastMark >= e.sampleBytes {
			out = append(out, litetable.KeyOffset{Key: bytes.Clone(row.key), Offset: offset})
			lastMark = offset
		}
		return true
	})
	return append(out, litetable.KeyOffset{Offset: offset}), nil
}
