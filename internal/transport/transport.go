// Package transport describes the RPC capabilities the scan engine and the batched writer
// consume from the store client: a streaming scan, sampled row keys and a mutation batcher.
// Connection handling, authentication and retries live behind these interfaces.
package transport

import (
	"context"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"time"
)

//go:generate mockgen -destination=transport_mock.go -package=transport -source=transport.go

// ScanRequest asks for the rows of a table inside a RangeSet. It is treated as an immutable
// value: narrowing a scan produces a new request.
type ScanRequest struct {
	TableID string
	Rows    keyrange.RangeSet
	// Filter is an opaque, already encoded row filter passed through to the server.
	Filter []byte
	// RowsLimit caps the number of rows returned. Zero means no limit.
	RowsLimit int64
}

// WithRows returns a copy of the request scanning rows instead.
func (r *ScanRequest) WithRows(rows keyrange.RangeSet) *ScanRequest {
	out := *r
	out.Rows = rows
	return &out
}

// CallOptions carry the deadlines for a single logical call.
type CallOptions struct {
	// AttemptTimeout bounds every individual RPC attempt.
	AttemptTimeout time.Duration
	// OperationTimeout bounds the call including all of its attempts.
	OperationTimeout time.Duration
}

// EventType identifies one step of a streamed row.
type EventType int

const (
	EventUnknown EventType = iota
	// EventStartRow opens a row; Key is set.
	EventStartRow
	// EventStartCell opens a cell; Family, Qualifier, TimestampMicros, Labels and Size are set.
	EventStartCell
	// EventCellValue carries the next chunk of the current cell value.
	EventCellValue
	// EventFinishCell closes the current cell.
	EventFinishCell
	// EventFinishRow closes the current row.
	EventFinishRow
	// EventScanMarker reports scan progress up to Key without delivering a row.
	EventScanMarker
)

// Event is a single cell-level step of a scan stream.
type Event struct {
	Type            EventType
	Key             litetable.Key
	Family          string
	Qualifier       []byte
	TimestampMicros int64
	Labels          []string
	// Size is the full size of the cell value announced on EventStartCell.
	Size  int64
	Value []byte
}

// Stream is a lazily consumed scan. Recv returns io.EOF once the scan is complete. Cancelling
// the context the stream was opened with aborts it mid-flight.
type Stream interface {
	Recv() (*Event, error)
}

// BatchResult is a single-fire channel: it delivers exactly one value, the outcome of an entry.
type BatchResult <-chan error

// Batcher groups mutation entries into bulk RPCs on its own cadence.
type Batcher interface {
	// Add queues entry and returns the channel its outcome will be delivered on.
	Add(entry *litetable.MutationEntry) BatchResult
	// Flush sends every queued entry and blocks until the server acknowledged them.
	Flush(ctx context.Context) error
	// Close flushes and releases the batcher. It reports entries that failed.
	Close(ctx context.Context) error
}

// Client is the store client the engine is built on.
type Client interface {
	Scan(ctx context.Context, req *ScanRequest, opts CallOptions) (Stream, error)
	SampleKeyOffsets(ctx context.Context, tableID string) ([]litetable.KeyOffset, error)
	NewBatcher(tableID string) (Batcher, error)
	TableExists(ctx context.Context, tableID string) (bool, error)
}
