package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"compendium/catalog-relay/logger"
	"compendium/catalog-relay/metrics"
	"compendium/catalog-relay/operations"
)

type fakeExecutor struct {
	calls atomic.Int32
	resp  *graphql.Response
	err   error
}

func (f *fakeExecutor) Execute(ctx context.Context, op *operations.Operation, _ map[string]interface{}) (*graphql.Response, error) {
	f.calls.Add(1)
	return f.resp, f.err
}

func newProbe(t *testing.T, exec Executor, m *metrics.Metrics) *Probe {
	t.Helper()
	catalog, err := operations.NewCatalog()
	require.NoError(t, err)
	return NewProbe(exec, catalog.Health(), time.Second, m, logger.MakeLogger(nil))
}

func TestCheckHealthy(t *testing.T) {
	m := metrics.New()
	p := newProbe(t, &fakeExecutor{resp: &graphql.Response{Data: []byte(`{"__typename":"Query"}`)}}, m)

	assert.Equal(t, StateUnknown, p.Status().State)

	status := p.Check(context.Background())
	assert.True(t, status.Healthy())
	assert.Empty(t, status.Error)
	assert.Equal(t, status, p.Status())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogUp))
}

func TestCheckUnhealthy(t *testing.T) {
	tests := map[string]*fakeExecutor{
		"transport error": {err: errors.New("connection refused")},
		"graphql errors":  {resp: &graphql.Response{Errors: gqlerror.List{{Message: "Unauthorized"}}}},
		"null data":       {resp: &graphql.Response{Data: []byte("null")}},
		"nil response":    {},
	}

	for name, exec := range tests {
		t.Run(name, func(t *testing.T) {
			m := metrics.New()
			m.SetCatalogUp(true)
			p := newProbe(t, exec, m)

			status := p.Check(context.Background())
			assert.False(t, status.Healthy())
			assert.Equal(t, StateUnhealthy, status.State)
			assert.NotEmpty(t, status.Error)
			assert.Equal(t, 0.0, testutil.ToFloat64(m.CatalogUp))
		})
	}
}

func TestHandler(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("down")}
	p := newProbe(t, exec, nil)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	p.Check(context.Background())
	rec = httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	exec.err = nil
	exec.resp = &graphql.Response{Data: []byte(`{"__typename":"Query"}`)}
	p.Check(context.Background())
	rec = httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StateOK, body.State)
}

func TestStartStop(t *testing.T) {
	exec := &fakeExecutor{resp: &graphql.Response{Data: []byte(`{"__typename":"Query"}`)}}
	p := newProbe(t, exec, nil)

	require.NoError(t, p.Start("@every 1h"))
	assert.Eventually(t, func() bool { return exec.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestStartInvalidSchedule(t *testing.T) {
	p := newProbe(t, &fakeExecutor{}, nil)
	assert.Error(t, p.Start("not a schedule"))
}
