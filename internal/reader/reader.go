// Package reader iterates over the rows of one or more key ranges of a table.
//
// Two implementations share the Reader interface. SegmentReader fetches rows in bounded
// segments, keeps a buffer of them and refills it in the background, resuming each segment
// exactly after the last row it delivered. SimpleReader opens one scan over every range and
// hands rows out as the stream produces them. New picks SegmentReader when a buffer size is
// configured.
package reader

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/metrics"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"time"
)

// Reader is a forward-only row iterator. It is used by a single goroutine.
type Reader interface {
	// Start opens the scan and positions the reader on the first row. It reports whether
	// there is one.
	Start(ctx context.Context) (bool, error)
	// Advance moves to the next row and reports whether there is one. ctx bounds only the
	// wait for data, never the scan itself.
	Advance(ctx context.Context) (bool, error)
	// CurrentRow returns the row the reader is positioned on.
	CurrentRow() (*litetable.Row, error)
	// Close releases the scan. Rows that were not consumed are discarded.
	Close() error
}

type Config struct {
	Client     transport.Client
	ProjectID  string
	InstanceID string
	TableID    string
	// Ranges to scan. None means the whole table.
	Ranges []keyrange.KeyRange
	// Filter is an opaque encoded row filter.
	Filter []byte

	// MaxBufferElementCount is the row limit of one segment. Setting it selects SegmentReader.
	MaxBufferElementCount *int
	// MaxSegmentBytes caps the serialized size of one segment. Zero derives the cap from the
	// memory available to the process.
	MaxSegmentBytes int64

	AttemptTimeout   time.Duration
	OperationTimeout time.Duration

	// Metrics defaults to metrics.Noop.
	Metrics metrics.Sink
}

func (c *Config) validate() error {
	var errs []error
	if c.Client == nil {
		errs = append(errs, errors.New("client is required"))
	}
	if c.TableID == "" {
		errs = append(errs, errors.New("table id is required"))
	}
	if c.MaxBufferElementCount != nil && *c.MaxBufferElementCount <= 0 {
		errs = append(errs, errors.New("max buffer element count must be positive"))
	}
	if c.MaxSegmentBytes < 0 {
		errs = append(errs, errors.New("max segment bytes must not be negative"))
	}
	if c.AttemptTimeout < 0 || c.OperationTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// New returns a SegmentReader when cfg.MaxBufferElementCount is set and a SimpleReader
// otherwise.
func New(cfg *Config) (Reader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rows, err := keyrange.NewRangeSet(cfg.Ranges...)
	if err != nil {
		return nil, err
	}

	b := base{
		client: cfg.Client,
		table:  cfg.TableID,
		request: &transport.ScanRequest{
			TableID: cfg.TableID,
			Rows:    rows,
			Filter:  cfg.Filter,
		},
		opts: transport.CallOptions{
			AttemptTimeout:   cfg.AttemptTimeout,
			OperationTimeout: cfg.OperationTimeout,
		},
		sink:   cfg.Metrics,
		labels: metrics.ReadLabels(cfg.ProjectID, cfg.InstanceID, cfg.TableID),
		log: log.With().
			Str("reader", uuid.NewString()).
			Str("table", cfg.TableID).
			Logger(),
	}
	if b.sink == nil {
		b.sink = metrics.Noop{}
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	if cfg.MaxBufferElementCount != nil {
		return newSegmentReader(b, *cfg.MaxBufferElementCount, cfg.MaxSegmentBytes), nil
	}
	return newSimpleReader(b), nil
}

// base is the state both readers share.
type base struct {
	client  transport.Client
	table   string
	request *transport.ScanRequest
	opts    transport.CallOptions
	sink    metrics.Sink
	labels  metrics.Labels
	log     zerolog.Logger

	// ctx outlives the calls that trigger background work; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	current *litetable.Row
	started bool
	closed  bool
	// err is sticky: once set every later call returns it.
	err error
}

func (b *base) CurrentRow() (*litetable.Row, error) {
	if b.current == nil {
		return nil, litetable.NewError(litetable.ErrNoCurrentRow, "table %s", b.table)
	}
	return b.current, nil
}

// check returns the error that prevents the reader from moving.
func (b *base) check() error {
	if b.closed {
		return litetable.NewError(litetable.ErrClosed, "reader for table %s", b.table)
	}
	return b.err
}

func (b *base) fail(err error) error {
	b.current = nil
	b.err = err
	b.log.Warn().Err(err).Msg("scan failed")
	return err
}

// scan opens a stream for req. The returned cancel releases it.
func (b *base) scan(req *transport.ScanRequest) (transport.Stream, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(b.ctx)
	if b.opts.OperationTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, b.opts.OperationTimeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}

	stream, err := b.client.Scan(ctx, req, b.opts)
	if err != nil {
		cancel()
		return nil, nil, transportError(err, req.TableID)
	}
	return stream, cancel, nil
}

func (b *base) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancel()
	b.current = nil
	return nil
}

// transportError classifies a failure coming out of a scan. Contract breaks keep their kind.
func transportError(err error, table string) error {
	if errors.Is(err, litetable.ErrInvariant) {
		return err
	}
	return litetable.WrapError(litetable.ErrTransport, err, "scan of table %s", table)
}

func interrupted(ctx context.Context, table string) error {
	return litetable.WrapError(litetable.ErrInterrupted, ctx.Err(), "reading table %s", table)
}
