package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the slice of *pgxpool.Stat the collector reads.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
	CanceledAcquireCount() int64
}

type poolMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	read      func(PoolStats) float64
}

// PoolStatsCollector exports connection pool statistics.
type PoolStatsCollector struct {
	stats   func() PoolStats
	service string
	metrics []poolMetric
}

func NewPoolStatsCollector(stats func() PoolStats, service string) *PoolStatsCollector {
	labels := []string{"service"}
	gauge := func(name, help string, read func(PoolStats) float64) poolMetric {
		return poolMetric{prometheus.NewDesc(name, help, labels, nil), prometheus.GaugeValue, read}
	}
	counter := func(name, help string, read func(PoolStats) float64) poolMetric {
		return poolMetric{prometheus.NewDesc(name, help, labels, nil), prometheus.CounterValue, read}
	}

	return &PoolStatsCollector{
		stats:   stats,
		service: service,
		metrics: []poolMetric{
			gauge("db_pool_acquired_connections", "Number of currently acquired connections",
				func(s PoolStats) float64 { return float64(s.AcquiredConns()) }),
			gauge("db_pool_idle_connections", "Number of currently idle connections",
				func(s PoolStats) float64 { return float64(s.IdleConns()) }),
			gauge("db_pool_total_connections", "Total number of connections in the pool",
				func(s PoolStats) float64 { return float64(s.TotalConns()) }),
			gauge("db_pool_max_connections", "Maximum number of connections allowed",
				func(s PoolStats) float64 { return float64(s.MaxConns()) }),
			counter("db_pool_acquire_count_total", "Total number of connection acquires",
				func(s PoolStats) float64 { return float64(s.AcquireCount()) }),
			counter("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection",
				func(s PoolStats) float64 { return float64(s.EmptyAcquireCount()) }),
			counter("db_pool_canceled_acquire_count_total", "Total number of canceled acquires",
				func(s PoolStats) float64 { return float64(s.CanceledAcquireCount()) }),
		},
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.read(s), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with the default registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(func() PoolStats { return pool.Stat() }, service))
}
