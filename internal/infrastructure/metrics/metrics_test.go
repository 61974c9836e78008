package metrics

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
	"customfields/internal/infrastructure/storage/postgres"
	"customfields/pkg/logger"
)

func getTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), logger.Nop())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := getTestMetrics()

	m.RecordHTTPRequest(http.MethodGet, "/api/v1/custom-fields", 200, 20*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/custom-fields", 204, 10*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/api/v1/custom-fields", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/custom-fields", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/custom-fields", "4xx")))
}

func TestCategorizeStatus(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 100: "unknown"}
	for code, want := range tests {
		assert.Equal(t, want, categorizeStatus(code), code)
	}
}

func TestShouldSkipEndpoint(t *testing.T) {
	assert.True(t, ShouldSkipEndpoint("/metrics"))
	assert.True(t, ShouldSkipEndpoint("/health/ready"))
	assert.False(t, ShouldSkipEndpoint("/api/v1/custom-fields"))
}

func TestUpdatePoolStats(t *testing.T) {
	m := getTestMetrics()
	m.UpdatePoolStats(postgres.PoolStats{TotalConns: 5, AcquiredConns: 2, IdleConns: 3, MaxConns: 25})

	assert.Equal(t, 5.0, testutil.ToFloat64(m.DBConnectionsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DBConnectionsAcquired))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsIdle))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.DBConnectionsMax))
}

func TestCollectPoolStats_StopsWithContext(t *testing.T) {
	m := getTestMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.CollectPoolStats(ctx, time.Hour, func() postgres.PoolStats { return postgres.PoolStats{MaxConns: 9} })
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 9.0, testutil.ToFloat64(m.DBConnectionsMax))
}

func TestRegisterHooks_CountsChanges(t *testing.T) {
	m := getTestMetrics()
	hooks := domain.NewHookRegistry[*customfield.Definition]()
	m.RegisterHooks(hooks)

	ctx := context.Background()
	require.NoError(t, hooks.Run(ctx, domain.AfterCreate, &customfield.Definition{ID: "a"}))
	require.NoError(t, hooks.Run(ctx, domain.AfterReplace, &customfield.Definition{ID: "a"}))
	require.NoError(t, hooks.Run(ctx, domain.AfterReplace, &customfield.Definition{ID: "b"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DefinitionChangesTotal.WithLabelValues(string(domain.AfterCreate))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DefinitionChangesTotal.WithLabelValues(string(domain.AfterReplace))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DefinitionChangesTotal.WithLabelValues(string(domain.AfterDelete))))
}

func TestRecordValueValidationAndErrors(t *testing.T) {
	m := getTestMetrics()
	m.RecordValueValidation(true)
	m.RecordValueValidation(false)
	m.RecordValueValidation(false)
	m.RecordError("VALIDATION_ERROR")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValueValidationsTotal.WithLabelValues("valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValueValidationsTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("VALIDATION_ERROR")))
}
