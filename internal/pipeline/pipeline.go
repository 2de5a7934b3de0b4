// Package pipeline copies the rows of one table into another. The source ranges are cut into
// bundles from the sampled row keys of the source table, and the bundles are read and written
// concurrently, each through its own reader and writer.
package pipeline

import (
	"context"
	"errors"
	"github.com/dustin/go-humanize"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/metrics"
	"github.com/litetable/litetable-io/internal/reader"
	"github.com/litetable/litetable-io/internal/split"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/litetable/litetable-io/internal/writer"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"sync/atomic"
	"time"
)

const (
	defaultParallelism = 4
	defaultFlushEvery  = 1000
)

type Config struct {
	Source      transport.Client
	Destination transport.Client

	ProjectID        string
	InstanceID       string
	SourceTable      string
	DestinationTable string

	// Ranges of the source table to copy. None means the whole table.
	Ranges []keyrange.KeyRange
	Filter []byte

	// MaxBufferElementCount selects segmented reading for every shard.
	MaxBufferElementCount *int
	MaxSegmentBytes       int64
	AttemptTimeout        time.Duration
	OperationTimeout      time.Duration

	// BundleBytes is the approximate size of one shard. Zero reads every range as one shard.
	BundleBytes int64
	// Parallelism bounds the number of shards copied at the same time.
	Parallelism int
	// FlushEvery is the number of records a shard writes before it waits for their outcomes.
	FlushEvery int

	Metrics metrics.Sink
}

func (c *Config) validate() error {
	var errs []error
	if c.Source == nil {
		errs = append(errs, errors.New("source client is required"))
	}
	if c.Destination == nil {
		errs = append(errs, errors.New("destination client is required"))
	}
	if c.SourceTable == "" {
		errs = append(errs, errors.New("source table is required"))
	}
	if c.DestinationTable == "" {
		errs = append(errs, errors.New("destination table is required"))
	}
	if c.BundleBytes < 0 {
		errs = append(errs, errors.New("bundle bytes must not be negative"))
	}
	if c.Parallelism < 0 {
		errs = append(errs, errors.New("parallelism must not be negative"))
	}
	if c.FlushEvery < 0 {
		errs = append(errs, errors.New("flush every must not be negative"))
	}
	return errors.Join(errs...)
}

// Stats describe a copy. They are updated while the copy runs.
type Stats struct {
	Shards int
	Rows   atomic.Int64
	Bytes  atomic.Int64
	Failed atomic.Int64
}

// Copy reads every row of the configured source ranges and writes it to the destination table.
// It returns once every shard finished or the first shard failed; the other shards are then
// cancelled.
func Copy(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.FlushEvery == 0 {
		cfg.FlushEvery = defaultFlushEvery
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}

	if err := ensureTable(ctx, cfg.Source, cfg.SourceTable); err != nil {
		return nil, err
	}
	if err := ensureTable(ctx, cfg.Destination, cfg.DestinationTable); err != nil {
		return nil, err
	}

	shards, err := plan(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Shards: len(shards)}
	started := time.Now()
	log.Info().
		Str("source", cfg.SourceTable).
		Str("destination", cfg.DestinationTable).
		Int("shards", len(shards)).
		Msg("copy started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for i, shard := range shards {
		g.Go(func() error {
			return copyShard(gctx, cfg, i, shard, stats)
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Int64("rows", stats.Rows.Load()).Msg("copy failed")
		return stats, err
	}

	log.Info().
		Int64("rows", stats.Rows.Load()).
		Str("bytes", humanize.Bytes(uint64(stats.Bytes.Load()))).
		Dur("took", time.Since(started)).
		Msg("copy finished")
	return stats, nil
}

func ensureTable(ctx context.Context, client transport.Client, id string) error {
	ok, err := client.TableExists(ctx, id)
	if err != nil {
		return litetable.WrapError(litetable.ErrTransport, err, "checking table %s", id)
	}
	if !ok {
		return litetable.WrapError(litetable.ErrTransport,
			status.Errorf(codes.NotFound, "table %s does not exist", id), "checking table %s", id)
	}
	return nil
}

// plan returns the shards to copy, in key order.
func plan(ctx context.Context, cfg *Config) ([]keyrange.KeyRange, error) {
	rs, err := keyrange.NewRangeSet(cfg.Ranges...)
	if err != nil {
		return nil, err
	}
	if cfg.BundleBytes == 0 {
		return rs, nil
	}

	offsets, err := cfg.Source.SampleKeyOffsets(ctx, cfg.SourceTable)
	if err != nil {
		return nil, litetable.WrapError(litetable.ErrTransport, err, "sampling table %s", cfg.SourceTable)
	}
	return split.Ranges(rs, offsets, cfg.BundleBytes), nil
}

func copyShard(ctx context.Context, cfg *Config, n int, shard keyrange.KeyRange, stats *Stats) error {
	logger := log.With().Int("shard", n).Logger()

	r, err := reader.New(&reader.Config{
		Client:                cfg.Source,
		ProjectID:             cfg.ProjectID,
		InstanceID:            cfg.InstanceID,
		TableID:               cfg.SourceTable,
		Ranges:                []keyrange.KeyRange{shard},
		Filter:                cfg.Filter,
		MaxBufferElementCount: cfg.MaxBufferElementCount,
		MaxSegmentBytes:       cfg.MaxSegmentBytes,
		AttemptTimeout:        cfg.AttemptTimeout,
		OperationTimeout:      cfg.OperationTimeout,
		Metrics:               cfg.Metrics,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := writer.New(&writer.Config{
		Client:     cfg.Destination,
		ProjectID:  cfg.ProjectID,
		InstanceID: cfg.InstanceID,
		TableID:    cfg.DestinationTable,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return err
	}

	var (
		pending []*writer.Future
		rows    int64
	)
	ok, err := r.Start(ctx)
	for ; ok && err == nil; ok, err = r.Advance(ctx) {
		row, rowErr := r.CurrentRow()
		if rowErr != nil {
			err = rowErr
			break
		}

		f, writeErr := w.WriteRecord(row.Key, litetable.RowMutations(row))
		if writeErr != nil {
			err = writeErr
			break
		}
		pending = append(pending, f)
		rows++
		stats.Rows.Add(1)
		stats.Bytes.Add(row.SerializedSize())

		if len(pending) >= cfg.FlushEvery {
			if err = w.Flush(ctx); err != nil {
				break
			}
			if err = settle(ctx, pending, stats); err != nil {
				break
			}
			pending = pending[:0]
		}
	}
	if err != nil {
		return errors.Join(err, w.Close(ctx))
	}

	if err := errors.Join(w.Close(ctx), settle(ctx, pending, stats)); err != nil {
		return err
	}
	logger.Debug().Int64("rows", rows).Msg("shard copied")
	return nil
}

// settle waits for the outcome of every future and fails when any record failed.
func settle(ctx context.Context, futures []*writer.Future, stats *Stats) error {
	var (
		first  error
		failed int
	)
	for _, f := range futures {
		err := f.Wait(ctx)
		if errors.Is(err, litetable.ErrInterrupted) {
			return err
		}
		if err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	stats.Failed.Add(int64(failed))
	return litetable.WrapError(litetable.ErrTransport, first, "%d of %d records failed", failed, len(futures))
}
