package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

//go:generate mockgen -destination=./app_mock.go -package=app -source=app.go

// Dependency is the interface that wraps the basic methods of a dependency required for the application.
type Dependency interface {
	// Start is anything a dependency needs to do before it's ready to be used. It may block
	// until Stop is called.
	Start() error
	// Stop is anything a dependency needs to do before it's ready to be stopped
	Stop() error
	// Name is the name of the dependency. It is used for logging and identification purposes, only.
	Name() string
}

// Job is the work the application runs once its dependencies are started. ctx is cancelled
// when the application shuts down for any other reason.
type Job func(ctx context.Context) error

type App struct {
	serviceName string
	// Deps is a list of dependencies that the application will start.
	deps []Dependency
	job  Job
	// depFailChan is a channel that will be used to signal when a dependency has failed to start.
	depFailChan chan error
	// osSignalChan is a channel that will be used to signal when the OS has sent a signal to the application.
	osSignalChan chan os.Signal
	// stopCalled is an atomic bool. It allows stop to be called once
	stopCalled *atomic.Bool
	// runCalled allows Run to be called once
	runCalled *atomic.Bool
	// stopTimeout is the amount of time the application will wait for dependencies to stop before exiting.
	stopTimeout time.Duration
}

type Config struct {
	ServiceName string
	StopTimeout time.Duration
	// Job is optional. Without one the application runs until its context is cancelled or
	// the process is signalled.
	Job Job
}

func (c *Config) validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, errors.New("stop timeout is required"))
	}
	return errors.Join(errs...)
}

// CreateApp creates a new application with the provided dependencies.
func CreateApp(cfg *Config, deps ...Dependency) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &App{
		serviceName:  cfg.ServiceName,
		deps:         deps,
		job:          cfg.Job,
		stopTimeout:  cfg.StopTimeout,
		stopCalled:   &atomic.Bool{},
		runCalled:    &atomic.Bool{},
		depFailChan:  make(chan error, len(deps)), // only 1 slot for each dependency
		osSignalChan: make(chan os.Signal, 1),     // first signal we get shuts down the app
	}, nil
}

// Run starts all dependencies and the job, then waits for the job to finish, a dependency to
// fail, a signal from the OS or ctx to end. Dependencies are stopped before Run returns. The
// error of the job is returned together with any failure to stop.
func (a *App) Run(ctx context.Context) error {
	if !a.runCalled.CompareAndSwap(false, true) {
		return errors.New("run has already been called")
	}

	ctxCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start all dependencies
	for _, dep := range a.deps {
		// Each dependency exists in its own goroutine. Some deps like an http server will run
		// inside the goroutine until they are stopped. We never block, but listen for failures
		go func(dep Dependency) {
			defer func() {
				if err := recover(); err != nil {
					a.depFailChan <- fmt.Errorf("panic in Start() for dependency %s: %v", dep.Name(), err)
				}
			}()

			log.Info().Msg("Starting dependency: " + dep.Name())
			if err := dep.Start(); err != nil {
				a.depFailChan <- fmt.Errorf("failure in Start() for dependency %s: %w", dep.Name(), err)
			}
		}(dep)
	}

	jobDone := make(chan error, 1)
	if a.job != nil {
		go func() {
			defer func() {
				if err := recover(); err != nil {
					jobDone <- fmt.Errorf("panic in job of %s: %v", a.serviceName, err)
				}
			}()
			jobDone <- a.job(ctxCancel)
		}()
	}

	var (
		runErr      error
		jobReturned bool
	)
	signal.Notify(a.osSignalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctxCancel.Done():
		log.Info().Msg("App Context cancelled: shutting down")
	case runErr = <-jobDone:
		jobReturned = true
		if runErr != nil {
			log.Error().Err(runErr).Msg("Job failed: shutting down")
		} else {
			log.Info().Msg("Job finished: shutting down")
		}
	case runErr = <-a.depFailChan:
		log.Error().Msg("Dependency failed to start: " + runErr.Error())
	case sig := <-a.osSignalChan:
		log.Info().Msg("OS Signal received: " + sig.String() + " shutdown beginning...")
	}
	signal.Stop(a.osSignalChan)

	// the job sees the shutdown through its context
	cancel()
	if a.job != nil && !jobReturned {
		select {
		case err := <-jobDone:
			runErr = errors.Join(runErr, err)
		case <-time.After(a.stopTimeout):
			runErr = errors.Join(runErr, fmt.Errorf("job of %s did not stop within %s", a.serviceName,
				a.stopTimeout))
		}
	}

	if err := a.stop(); err != nil {
		log.Error().Msg("Error stopping application: " + err.Error())
		return errors.Join(runErr, err)
	}
	return runErr
}

// stop attempts a graceful shutdown of each dependency.
func (a *App) stop() error {
	if !a.stopCalled.CompareAndSwap(false, true) {
		return errors.New("stop has already been called")
	}

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, dep := range a.deps {
			log.Info().Msg("Stopping dependency: " + dep.Name())
			if err := dep.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failure in Stop() for dependency %s: %w", dep.Name(), err))
			}
		}
		done <- errors.Join(errs...)
	}()

	// we need all dependencies to stop before we can return
	select {
	case err := <-done:
		return err
	case <-time.After(a.stopTimeout):
		return fmt.Errorf("dependencies of %s did not stop within %s: %w", a.serviceName,
			a.stopTimeout, context.DeadlineExceeded)
	}
}
