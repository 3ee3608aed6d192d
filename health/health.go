// Package health probes the catalog on a cron schedule and serves the result.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/robfig/cron/v3"

	"compendium/catalog-relay/metrics"
	"compendium/catalog-relay/operations"
)

const (
	StateUnknown   = "unknown"
	StateOK        = "ok"
	StateUnhealthy = "unhealthy"
)

// Executor runs a GraphQL operation against the catalog.
type Executor interface {
	Execute(ctx context.Context, op *operations.Operation, variables map[string]interface{}) (*graphql.Response, error)
}

// Status is the outcome of the last probe.
type Status struct {
	State     string    `json:"status"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
	Latency   string    `json:"latency,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Healthy reports whether the last probe succeeded.
func (s Status) Healthy() bool {
	return s.State == StateOK
}

// Probe is observation only: it never gates REST requests.
type Probe struct {
	executor Executor
	op       *operations.Operation
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu     sync.RWMutex
	status Status
	crons  *cron.Cron
}

// NewProbe builds a probe running op with the given per-probe timeout.
func NewProbe(executor Executor, op *operations.Operation, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Probe {
	return &Probe{
		executor: executor,
		op:       op,
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
		status:   Status{State: StateUnknown},
	}
}

// Check runs the probe once and records the result.
func (p *Probe) Check(ctx context.Context) Status {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.executor.Execute(ctx, p.op, nil)
	status := Status{
		State:     StateOK,
		CheckedAt: start.UTC(),
		Latency:   time.Since(start).String(),
	}
	if err == nil {
		err = responseError(resp)
	}
	if err != nil {
		status.State = StateUnhealthy
		status.Error = err.Error()
		p.logger.Warn("Catalog health probe failed", "err", err)
	} else {
		p.logger.Debug("Catalog health probe succeeded", "latency", status.Latency)
	}

	p.mu.Lock()
	p.status = status
	p.mu.Unlock()

	p.metrics.SetCatalogUp(status.Healthy())
	return status
}

func responseError(resp *graphql.Response) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if len(resp.Errors) > 0 {
		return resp.Errors
	}
	if len(resp.Data) == 0 || strings.TrimSpace(string(resp.Data)) == "null" {
		return errors.New("response has no data")
	}
	return nil
}

// Start probes once in the background and then on every tick of schedule.
func (p *Probe) Start(schedule string) error {
	crons := cron.New()
	if _, err := crons.AddFunc(schedule, func() {
		p.Check(context.Background())
	}); err != nil {
		return err
	}

	p.mu.Lock()
	p.crons = crons
	p.mu.Unlock()

	p.logger.Info("Catalog health probe started", "schedule", schedule)
	go p.Check(context.Background())
	crons.Start()
	return nil
}

// Stop halts the schedule and waits for a running probe to finish.
func (p *Probe) Stop() {
	p.mu.Lock()
	crons := p.crons
	p.crons = nil
	p.mu.Unlock()

	if crons == nil {
		return
	}
	<-crons.Stop().Done()
	p.logger.Debug("Catalog health probe stopped")
}

// Status returns the outcome of the last probe.
func (p *Probe) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Handler serves the last probe outcome: 200 when healthy, 503 otherwise.
func (p *Probe) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := p.Status()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			p.logger.Error("Failed to write health status", "err", err)
		}
	}
}
