// Package metrics records the outcome of every store call, labelled the way the store's
// monitoring expects: service, method, resource and table identifiers plus a status code.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/status"
)

//go:generate mockgen -destination=./metrics_mock.go -package=metrics -source=metrics.go

const (
	// CodeOK is recorded for a call that succeeded.
	CodeOK = "ok"
	// CodeUnknown is recorded for a failure that carries no status code.
	CodeUnknown = "unknown"

	serviceName  = "BigTable"
	methodRead   = "google.bigtable.v2.ReadRows"
	methodMutate = "google.bigtable.v2.MutateRows"
)

// Labels identify the call being reported.
type Labels struct {
	Service    string
	Method     string
	Resource   string
	ProjectID  string
	InstanceID string
	TableID    string
}

func (l Labels) values(code string) []string {
	return []string{l.Service, l.Method, l.Resource, l.ProjectID, l.InstanceID, l.TableID, code}
}

// ReadLabels returns the labels of a scan against table.
func ReadLabels(project, instance, table string) Labels {
	return newLabels(methodRead, project, instance, table)
}

// MutateLabels returns the labels of a bulk mutation against table.
func MutateLabels(project, instance, table string) Labels {
	return newLabels(methodMutate, project, instance, table)
}

func newLabels(method, project, instance, table string) Labels {
	return Labels{
		Service: serviceName,
		Method:  method,
		Resource: fmt.Sprintf("//bigtable.googleapis.com/projects/%s/instances/%s/tables/%s",
			project, instance, table),
		ProjectID:  project,
		InstanceID: instance,
		TableID:    fmt.Sprintf("projects/%s/instances/%s/tables/%s", project, instance, table),
	}
}

// Sink receives one outcome per call.
type Sink interface {
	Record(labels Labels, code string)
}

// Outcome maps err to the code recorded for it: "ok", the status code name, or "unknown" when
// err carries no status.
func Outcome(err error) string {
	if err == nil {
		return CodeOK
	}
	_, ok := status.FromError(err)
	if !ok && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return CodeUnknown
	}
	return litetable.StatusCode(err).String()
}

// Prometheus counts call outcomes in a CounterVec.
type Prometheus struct {
	calls *prometheus.CounterVec
}

type Config struct {
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	Namespace  string
}

func (c *Config) validate() error {
	var errs []error
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	return errors.Join(errs...)
}

// New registers the call counter and returns a Sink backed by it.
func New(cfg *Config) (*Prometheus, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "api_request_count",
		Help:      "Number of store calls by method, table and outcome.",
	}, []string{"service", "method", "resource", "project_id", "instance_id", "table_id", "status"})

	if err := reg.Register(calls); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register call counter: %w", err)
		}
		calls = are.ExistingCollector.(*prometheus.CounterVec)
	}

	return &Prometheus{calls: calls}, nil
}

func (p *Prometheus) Record(labels Labels, code string) {
	p.calls.WithLabelValues(labels.values(code)...).Inc()
}

// Noop discards every outcome.
type Noop struct{}

func (Noop) Record(Labels, string) {}
