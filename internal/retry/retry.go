// Package retry decorates a transport.Client so that calls which can be repeated safely are
// retried with exponential backoff. A scan is only retried while it is being opened; once rows
// flow, resuming is the reader's job.
package retry

import (
	"context"
	"errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"time"
)

// Client retries the idempotent calls of the client it wraps.
type Client struct {
	next transport.Client

	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	attemptTimeout  time.Duration
}

type Config struct {
	Client transport.Client
	// MaxRetries bounds the attempts after the first one.
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// AttemptTimeout bounds a single unary attempt. A scan uses the timeouts of its
	// CallOptions instead.
	AttemptTimeout time.Duration
}

func (c *Config) validate() error {
	var errs []error
	if c.Client == nil {
		errs = append(errs, errors.New("client is required"))
	}
	if c.InitialInterval <= 0 {
		errs = append(errs, errors.New("initial interval must be positive"))
	}
	if c.MaxInterval < c.InitialInterval {
		errs = append(errs, errors.New("max interval must not be below the initial interval"))
	}
	if c.AttemptTimeout < 0 {
		errs = append(errs, errors.New("attempt timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		next:            cfg.Client,
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		attemptTimeout:  cfg.AttemptTimeout,
	}, nil
}

// Retryable reports whether a call that failed with err may succeed when repeated.
func Retryable(err error) bool {
	switch litetable.StatusCode(err) {
	case codes.Unavailable, codes.Aborted, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = c.maxInterval
	// attempts are bounded by count and by ctx
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

func (c *Client) do(ctx context.Context, call string, op func(ctx context.Context) error) error {
	return backoff.RetryNotify(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		// an attempt that ran out of time is retried, the caller running out of time is not
		if ctx.Err() != nil || !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, c.policy(ctx), func(err error, wait time.Duration) {
		log.Debug().
			Str("call", call).
			Str("code", status.Code(err).String()).
			Dur("wait", wait).
			Msg("retrying")
	})
}

// unary runs op with the attempt timeout applied.
func (c *Client) unary(op func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if c.attemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
			defer cancel()
		}
		return op(ctx)
	}
}

func (c *Client) Scan(ctx context.Context, req *transport.ScanRequest,
	opts transport.CallOptions) (transport.Stream, error) {
	var stream transport.Stream
	err := c.do(ctx, "scan", func(ctx context.Context) error {
		var err error
		stream, err = c.next.Scan(ctx, req, opts)
		return err
	})
	return stream, err
}

func (c *Client) SampleKeyOffsets(ctx context.Context, tableID string) ([]litetable.KeyOffset, error) {
	var offsets []litetable.KeyOffset
	err := c.do(ctx, "sample keys", c.unary(func(ctx context.Context) error {
		var err error
		offsets, err = c.next.SampleKeyOffsets(ctx, tableID)
		return err
	}))
	return offsets, err
}

func (c *Client) TableExists(ctx context.Context, tableID string) (bool, error) {
	var exists bool
	err := c.do(ctx, "table exists", c.unary(func(ctx context.Context) error {
		var err error
		exists, err = c.next.TableExists(ctx, tableID)
		return err
	}))
	return exists, err
}

// NewBatcher is not retried: batching, and retrying failed entries, belong to the batcher.
func (c *Client) NewBatcher(tableID string) (transport.Batcher, error) {
	return c.next.NewBatcher(tableID)
}

var _ transport.Client = (*Client)(nil)
