package retry

import (
	"context"
	"errors"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"testing"
	"time"
)

func newTestClient(t *testing.T) (*Client, *transport.MockClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	next := transport.NewMockClient(ctrl)
	c, err := New(&Config{
		Client:          next,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		AttemptTimeout:  time.Second,
	})
	require.NoError(t, err)
	return c, next
}

func TestNew(t *testing.T) {
	t.Parallel()
	got, err := New(&Config{MaxInterval: -1, AttemptTimeout: -1})
	require.EqualError(t, err, "client is required\ninitial interval must be positive\n"+
		"max interval must not be below the initial interval\nattempt timeout must not be negative")
	require.Nil(t, got)
}

func TestRetryable(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		err  error
		want bool
	}{
		"unavailable": {err: status.Error(codes.Unavailable, ""), want: true},
		"aborted":     {err: status.Error(codes.Aborted, ""), want: true},
		"wrapped":     {err: litetable.WrapError(litetable.ErrTransport, status.Error(codes.ResourceExhausted, ""), "x"), want: true},
		"deadline":    {err: context.DeadlineExceeded, want: true},
		"not found":   {err: status.Error(codes.NotFound, ""), want: false},
		"cancelled":   {err: context.Canceled, want: false},
		"plain":       {err: errors.New("boom"), want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestClient_Scan(t *testing.T) {
	t.Parallel()
	req := &transport.ScanRequest{TableID: "t1"}
	opts := transport.CallOptions{AttemptTimeout: time.Second}

	t.Run("transient failures are retried", func(t *testing.T) {
		c, next := newTestClient(t)
		stream := transport.NewMockStream(gomock.NewController(t))
		gomock.InOrder(
			next.EXPECT().Scan(gomock.Any(), req, opts).Return(nil, status.Error(codes.Unavailable, "")),
			next.EXPECT().Scan(gomock.Any(), req, opts).Return(nil, status.Error(codes.Aborted, "")),
			next.EXPECT().Scan(gomock.Any(), req, opts).Return(stream, nil),
		)

		got, err := c.Scan(context.Background(), req, opts)
		require.NoError(t, err)
		require.Equal(t, stream, got)
	})

	t.Run("permanent failure is returned at once", func(t *testing.T) {
		c, next := newTestClient(t)
		next.EXPECT().Scan(gomock.Any(), req, opts).Return(nil, status.Error(codes.NotFound, "t1")).Times(1)

		_, err := c.Scan(context.Background(), req, opts)
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("retries run out", func(t *testing.T) {
		c, next := newTestClient(t)
		next.EXPECT().Scan(gomock.Any(), req, opts).Return(nil, status.Error(codes.Unavailable, "down")).Times(4)

		_, err := c.Scan(context.Background(), req, opts)
		require.Equal(t, codes.Unavailable, status.Code(err))
	})

	t.Run("cancelled caller", func(t *testing.T) {
		c, next := newTestClient(t)
		ctx, cancel := context.WithCancel(context.Background())
		next.EXPECT().Scan(gomock.Any(), req, opts).DoAndReturn(
			func(context.Context, *transport.ScanRequest, transport.CallOptions) (transport.Stream, error) {
				cancel()
				return nil, status.Error(codes.Unavailable, "")
			}).Times(1)

		_, err := c.Scan(ctx, req, opts)
		require.Error(t, err)
	})
}

func TestClient_unary(t *testing.T) {
	t.Parallel()

	t.Run("sample keys", func(t *testing.T) {
		c, next := newTestClient(t)
		want := []litetable.KeyOffset{{Key: litetable.Key("m"), Offset: 10}, {Offset: 20}}
		gomock.InOrder(
			next.EXPECT().SampleKeyOffsets(gomock.Any(), "t1").DoAndReturn(
				func(ctx context.Context, _ string) ([]litetable.KeyOffset, error) {
					_, ok := ctx.Deadline()
					require.True(t, ok)
					return nil, status.Error(codes.Unavailable, "")
				}),
			next.EXPECT().SampleKeyOffsets(gomock.Any(), "t1").Return(want, nil),
		)

		got, err := c.SampleKeyOffsets(context.Background(), "t1")
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("table exists", func(t *testing.T) {
		c, next := newTestClient(t)
		next.EXPECT().TableExists(gomock.Any(), "t1").Return(true, nil)

		got, err := c.TableExists(context.Background(), "t1")
		require.NoError(t, err)
		require.True(t, got)
	})

	t.Run("batcher is passed through", func(t *testing.T) {
		c, next := newTestClient(t)
		batcher := transport.NewMockBatcher(gomock.NewController(t))
		next.EXPECT().NewBatcher("t1").Return(batcher, nil)

		got, err := c.NewBatcher("t1")
		require.NoError(t, err)
		require.Equal(t, batcher, got)
	})
}
