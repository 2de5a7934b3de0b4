package main

import (
	"context"
	"fmt"
	"github.com/litetable/litetable-io/internal/app"
	"github.com/litetable/litetable-io/internal/config"
	"github.com/litetable/litetable-io/internal/emulator"
	"github.com/litetable/litetable-io/internal/metrics"
	"github.com/litetable/litetable-io/internal/pipeline"
	"github.com/litetable/litetable-io/internal/retry"
	"github.com/litetable/litetable-io/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	serviceName      = "LiteTable IO"
	metricsNamespace = "litetable_io"
	stopTimeout      = 10 * time.Second
)

func main() {
	application, err := initialize()
	if err != nil {
		panic(err)
	}

	if err = application.Run(context.Background()); err != nil {
		panic(err)
	}
}

func initialize() (*app.App, error) {
	var deps []app.Dependency

	// the configuration file may be passed as the only argument
	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// the in-process store stands in for the remote service
	store, err := emulator.New(&emulator.Config{FlushInterval: time.Second})
	if err != nil {
		return nil, err
	}
	if err = seed(store, cfg); err != nil {
		return nil, err
	}

	client, err := retry.New(&retry.Config{
		Client:          store,
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		AttemptTimeout:  cfg.AttemptTimeout,
	})
	if err != nil {
		return nil, err
	}

	sink, err := metrics.New(&metrics.Config{Namespace: metricsNamespace})
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddress != "" {
		host, port, err := net.SplitHostPort(cfg.MetricsAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid metrics address: %w", err)
		}
		if host == "" {
			host = "0.0.0.0"
		}
		portNum, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid metrics port: %w", err)
		}

		srv, err := server.New(&server.Config{
			Address: host,
			Port:    portNum,
		})
		if err != nil {
			return nil, err
		}
		deps = append(deps, srv)
	}

	job := func(ctx context.Context) error {
		stats, err := pipeline.Copy(ctx, &pipeline.Config{
			Source:                client,
			Destination:           client,
			ProjectID:             cfg.ProjectID,
			InstanceID:            cfg.InstanceID,
			SourceTable:           cfg.SourceTable,
			DestinationTable:      cfg.DestinationTable,
			Ranges:                cfg.Ranges,
			Filter:                cfg.RowFilter,
			MaxBufferElementCount: cfg.MaxBufferElementCount,
			MaxSegmentBytes:       cfg.MaxSegmentBytes,
			AttemptTimeout:        cfg.AttemptTimeout,
			OperationTimeout:      cfg.OperationTimeout,
			BundleBytes:           cfg.BundleSize,
			Parallelism:           cfg.Parallelism,
			Metrics:               sink,
		})
		if err != nil {
			return err
		}
		log.Info().Int("shards", stats.Shards).Int64("rows", stats.Rows.Load()).Msg("done")
		return nil
	}

	application, err := app.CreateApp(&app.Config{
		ServiceName: serviceName,
		StopTimeout: stopTimeout,
		Job:         job,
	}, deps...)
	if err != nil {
		return nil, err
	}

	return application, nil
}

// seed loads the seed file into the source table and creates the destination table with the
// families of the source.
func seed(store *emulator.Emulator, cfg *config.Config) error {
	if cfg.SeedFile != "" {
		f, err := os.Open(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()

		if _, err := store.Load(cfg.SourceTable, f); err != nil {
			return err
		}
	}

	families, err := store.Families(cfg.SourceTable)
	if err != nil {
		return fmt.Errorf("source table %s: %w", cfg.SourceTable, err)
	}
	err = store.CreateTable(cfg.DestinationTable, families...)
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}
