package metrics

import (
	"context"
	"time"

	"customfields/internal/infrastructure/storage/postgres"
)

// UpdatePoolStats copies connection pool statistics into the gauges.
func (m *Metrics) UpdatePoolStats(stats postgres.PoolStats) {
	m.safeExecute("UpdatePoolStats", func() {
		m.DBConnectionsTotal.Set(float64(stats.TotalConns))
		m.DBConnectionsAcquired.Set(float64(stats.AcquiredConns))
		m.DBConnectionsIdle.Set(float64(stats.IdleConns))
		m.DBConnectionsMax.Set(float64(stats.MaxConns))
	})
}

// CollectPoolStats samples stats every interval until ctx is done.
func (m *Metrics) CollectPoolStats(ctx context.Context, interval time.Duration, stats func() postgres.PoolStats) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.UpdatePoolStats(stats())
	for {
		select {
		case <-ticker.C:
			m.UpdatePoolStats(stats())
		case <-ctx.Done():
			return
		}
	}
}
