package app

import (
	"context"
	"errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"testing"
	"time"
)

// blockingDep returns a dependency whose Start blocks until Stop is called. started is closed
// once Start is running.
func blockingDep(ctrl *gomock.Controller) (*MockDependency, <-chan struct{}) {
	started := make(chan struct{})
	stopped := make(chan struct{})

	dep := NewMockDependency(ctrl)
	dep.EXPECT().Name().Return("blocking").AnyTimes()
	dep.EXPECT().Start().DoAndReturn(func() error {
		close(started)
		<-stopped
		return nil
	})
	dep.EXPECT().Stop().DoAndReturn(func() error {
		close(stopped)
		return nil
	})
	return dep, started
}

func TestCreateApp(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		cfg     *Config
		wantErr string
	}{
		"invalid config": {
			cfg:     &Config{},
			wantErr: "service name is required\nstop timeout is required",
		},
		"valid config": {
			cfg: &Config{ServiceName: "test", StopTimeout: time.Second},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := CreateApp(tc.cfg)
			if tc.wantErr != "" {
				req.EqualError(err, tc.wantErr)
				return
			}
			req.NoError(err)
			req.Equal("test", got.serviceName)
		})
	}
}

func TestApp_Run(t *testing.T) {
	t.Parallel()
	jobErr := errors.New("job failed")

	tests := map[string]struct {
		jobErr error
	}{
		"job finishes": {},
		"job fails":    {jobErr: jobErr},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			dep, started := blockingDep(ctrl)

			a, err := CreateApp(&Config{
				ServiceName: "test",
				StopTimeout: 5 * time.Second,
				Job: func(ctx context.Context) error {
					<-started
					return tc.jobErr
				},
			}, dep)
			req.NoError(err)

			err = a.Run(context.Background())
			if tc.jobErr != nil {
				req.ErrorIs(err, tc.jobErr)
			} else {
				req.NoError(err)
			}

			req.EqualError(a.Run(context.Background()), "run has already been called")
		})
	}
}

func TestApp_Run_dependencyFails(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	startErr := errors.New("bind error")

	dep := NewMockDependency(ctrl)
	dep.EXPECT().Name().Return("broken").AnyTimes()
	dep.EXPECT().Start().Return(startErr)
	dep.EXPECT().Stop().Return(nil)

	a, err := CreateApp(&Config{
		ServiceName: "test",
		StopTimeout: 5 * time.Second,
		Job: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, dep)
	req.NoError(err)

	err = a.Run(context.Background())
	req.ErrorIs(err, startErr)
	req.ErrorIs(err, context.Canceled)
	req.ErrorContains(err, "failure in Start() for dependency broken")
}

func TestApp_Run_contextCancelled(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dep, started := blockingDep(ctrl)

	a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: 5 * time.Second}, dep)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	req.NoError(a.Run(ctx))
}

func TestApp_stop_timeout(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	release := make(chan struct{})
	defer close(release)
	called := make(chan struct{})

	dep := NewMockDependency(ctrl)
	dep.EXPECT().Name().Return("stuck").AnyTimes()
	dep.EXPECT().Stop().DoAndReturn(func() error {
		close(called)
		<-release
		return nil
	})

	a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: 10 * time.Millisecond}, dep)
	req.NoError(err)

	err = a.stop()
	req.ErrorIs(err, context.DeadlineExceeded)
	req.EqualError(a.stop(), "stop has already been called")
	<-called
}
