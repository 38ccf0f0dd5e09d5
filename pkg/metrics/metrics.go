// Package metrics provides Prometheus instrumentation for tabula's
// persistence engine.
//
// # Overview
//
// Every statement an Executor sends to a database is counted, timed and,
// for mutating statements, attributed its affected-row count:
//
//	collector := metrics.NewCollector("postgres")
//	timer := metrics.NewTimer("insert")
//	res, err := loader.Execute(ctx, stmt)
//	collector.ObserveStatement("insert", timer.Stop(), res.RowsAffected, err)
//
// # Metric Types
//
// Counter: statements executed and rows affected
// Gauge: open connection providers
// Histogram: statement latency in seconds
//
// Collectors are registered with the default registry on package init via
// promauto, so importing the package is enough to expose them on /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// StatementsTotal counts executed statements.
	// Labels: dialect, kind (insert/update/select/...), status (success/failure)
	StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_statements_total",
			Help: "Total number of SQL statements executed",
		},
		[]string{"dialect", "kind", "status"},
	)

	// RowsAffected counts rows reported by the database for mutating statements.
	RowsAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_rows_affected_total",
			Help: "Total number of rows affected by mutating statements",
		},
		[]string{"dialect", "kind"},
	)

	// StatementLatency tracks the round trip of a statement including
	// result decoding.
	StatementLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tabula_statement_latency_seconds",
			Help: "Statement latency in seconds",
			Buckets: []float64{
				0.0005, // 500μs - in-process SQLite
				0.001,  // 1ms
				0.005,  // 5ms - local network
				0.025,  // 25ms
				0.1,    // 100ms
				0.5,    // 500ms - large inserts
				2.5,    // 2.5s
				10,     // 10s
			},
		},
		[]string{"dialect", "kind"},
	)

	// ActiveConnections tracks connected executors per dialect.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tabula_active_connections",
			Help: "Number of connected executors",
		},
		[]string{"dialect"},
	)
)

// Collector binds the package metrics to one dialect label and keeps a local
// tally that can be inspected without scraping. Safe for concurrent use.
type Collector struct {
	dialect   string
	startTime time.Time

	mu         sync.RWMutex
	statements uint64
	failures   uint64
	rows       uint64
}

// NewCollector creates a collector labelled with dialect.
func NewCollector(dialect string) *Collector {
	return &Collector{
		dialect:   dialect,
		startTime: time.Now(),
	}
}

// Dialect is the label value this collector reports under.
func (c *Collector) Dialect() string { return c.dialect }

// ObserveStatement records one statement of the given kind. rows is only
// counted for successful statements.
func (c *Collector) ObserveStatement(kind string, elapsed time.Duration, rows uint64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	StatementsTotal.WithLabelValues(c.dialect, kind, status).Inc()
	StatementLatency.WithLabelValues(c.dialect, kind).Observe(elapsed.Seconds())
	if err == nil && rows > 0 {
		RowsAffected.WithLabelValues(c.dialect, kind).Add(float64(rows))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.statements++
	if err != nil {
		c.failures++
	} else {
		c.rows += rows
	}
}

// ConnectionOpened increments the active connection gauge.
func (c *Collector) ConnectionOpened() {
	ActiveConnections.WithLabelValues(c.dialect).Inc()
}

// ConnectionClosed decrements the active connection gauge.
func (c *Collector) ConnectionClosed() {
	ActiveConnections.WithLabelValues(c.dialect).Dec()
}

// GetAll returns the local tally.
func (c *Collector) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"dialect":       c.dialect,
		"statements":    c.statements,
		"failures":      c.failures,
		"rows_affected": c.rows,
		"uptime":        time.Since(c.startTime).Seconds(),
	}
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Timer captures a start time on creation and reports elapsed time on Stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name is the label the timer was created with.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
