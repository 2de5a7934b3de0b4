// Package writer hands row mutations to a batcher and reports the outcome of each of them.
package writer

import (
	"bytes"
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/metrics"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"sync"
)

// Writer queues records on a batcher. The batcher decides when records are sent; Flush and
// Close force it.
type Writer struct {
	mu      sync.Mutex
	table   string
	batcher transport.Batcher
	// inflight counts records whose outcome has not been recorded yet.
	inflight sync.WaitGroup

	sink   metrics.Sink
	labels metrics.Labels
	log    zerolog.Logger
}

type Config struct {
	Client     transport.Client
	ProjectID  string
	InstanceID string
	TableID    string
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
	return errors.Join(errs...)
}

// New opens a batcher on the table.
func New(cfg *Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	batcher, err := cfg.Client.NewBatcher(cfg.TableID)
	if err != nil {
		return nil, err
	}

	sink := cfg.Metrics
	if sink == nil {
		sink = metrics.Noop{}
	}

	return &Writer{
		table:   cfg.TableID,
		batcher: batcher,
		sink:    sink,
		labels:  metrics.MutateLabels(cfg.ProjectID, cfg.InstanceID, cfg.TableID),
		log: log.With().
			Str("writer", uuid.NewString()).
			Str("table", cfg.TableID).
			Logger(),
	}, nil
}

// WriteRecord queues mutations for the row key. The returned Future resolves once the batcher
// reports the outcome of the record.
func (w *Writer) WriteRecord(key litetable.Key, mutations []litetable.Mutation) (*Future, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.batcher == nil {
		return nil, litetable.NewError(litetable.ErrClosed, "writer for table %s", w.table)
	}

	result := w.batcher.Add(&litetable.MutationEntry{
		RowKey:    bytes.Clone(key),
		Mutations: mutations,
	})

	f := newFuture()
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		err := <-result
		w.sink.Record(w.labels, metrics.Outcome(err))
		if err != nil {
			w.log.Debug().Err(err).Str("key", key.String()).Msg("write failed")
		}
		f.resolve(err)
	}()
	return f, nil
}

// Flush sends every queued record and blocks until the batcher acknowledged them.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.batcher == nil {
		return nil
	}
	return w.flush(ctx)
}

func (w *Writer) flush(ctx context.Context) error {
	if err := w.batcher.Flush(ctx); err != nil {
		return w.classify(ctx, err, "flush")
	}
	return nil
}

// Close flushes and releases the batcher, then waits until the outcome of every record was
// delivered. Calling Close again does nothing. When the flush is interrupted the writer stays
// open so Close can be retried.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.batcher == nil {
		return nil
	}
	flushErr := w.flush(ctx)
	if errors.Is(flushErr, litetable.ErrInterrupted) {
		return flushErr
	}

	closeErr := w.batcher.Close(ctx)
	w.batcher = nil
	if closeErr != nil {
		closeErr = w.classify(ctx, closeErr, "close")
	}
	closeErr = errors.Join(flushErr, closeErr)

	delivered := make(chan struct{})
	go func() {
		w.inflight.Wait()
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-ctx.Done():
		return errors.Join(closeErr, litetable.WrapError(litetable.ErrInterrupted, ctx.Err(),
			"waiting for write outcomes on table %s", w.table))
	}

	w.log.Debug().Msg("writer closed")
	return closeErr
}

func (w *Writer) classify(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return litetable.WrapError(litetable.ErrInterrupted, ctx.Err(), "%s of table %s", op, w.table)
	}
	return litetable.WrapError(litetable.ErrTransport, err, "%s of table %s", op, w.table)
}
