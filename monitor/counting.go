// Package monitor provides reference implementations of pool.Monitor.
package monitor

import (
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/timiblossom/dyno/models"
	"github.com/timiblossom/dyno/pool"
)

// HostStats is a snapshot of the counters kept for a single host.
type HostStats struct {
	OperationSuccessCount int64
	OperationErrorCount   int64

	ConnectionsCreated      int64
	ConnectionsCreateFailed int64
	ConnectionsClosed       int64
	ConnectionsBorrowed     int64
	ConnectionsReturned     int64
}

type hostCounters struct {
	operationSuccess int64
	operationError   int64
	created          int64
	createFailed     int64
	closed           int64
	borrowed         int64
	returned         int64
}

// CountingMonitor is an atomic-counter-based pool.Monitor reference
// implementation, used by this module's own tests the way the system this
// pool's design is drawn from uses its own counting monitor in its unit
// tests.
type CountingMonitor struct {
	operationSuccessCount int64
	operationFailureCount int64
	operationTimeoutCount int64

	hosts cmap.ConcurrentMap // host.String() -> *hostCounters
}

// NewCountingMonitor builds an empty CountingMonitor.
func NewCountingMonitor() *CountingMonitor {
	return &CountingMonitor{hosts: cmap.New()}
}

func (m *CountingMonitor) countersFor(host models.Host) *hostCounters {
	key := host.String()
	m.hosts.SetIfAbsent(key, &hostCounters{})
	raw, _ := m.hosts.Get(key)
	return raw.(*hostCounters)
}

// HostAdded is a no-op for the counting monitor; host stats are created
// lazily on first use.
func (m *CountingMonitor) HostAdded(models.Host, pool.HostConnectionPool) {}

// HostRemoved is a no-op; per-host counters are retained for later
// inspection even after a host is evicted.
func (m *CountingMonitor) HostRemoved(models.Host) {}

func (m *CountingMonitor) IncOperationSuccess(host models.Host, _ time.Duration) {
	atomic.AddInt64(&m.operationSuccessCount, 1)
	atomic.AddInt64(&m.countersFor(host).operationSuccess, 1)
}

func (m *CountingMonitor) IncOperationFailure(host *models.Host, _ error) {
	atomic.AddInt64(&m.operationFailureCount, 1)
	if host != nil {
		atomic.AddInt64(&m.countersFor(*host).operationError, 1)
	}
}

func (m *CountingMonitor) IncFailover(models.Host, error) {}

func (m *CountingMonitor) IncConnectionCreated(host models.Host) {
	atomic.AddInt64(&m.countersFor(host).created, 1)
}

func (m *CountingMonitor) IncConnectionCreateFailed(host models.Host) {
	atomic.AddInt64(&m.countersFor(host).createFailed, 1)
}

func (m *CountingMonitor) IncConnectionClosed(host models.Host) {
	atomic.AddInt64(&m.countersFor(host).closed, 1)
}

func (m *CountingMonitor) IncConnectionBorrowed(host models.Host) {
	atomic.AddInt64(&m.countersFor(host).borrowed, 1)
}

func (m *CountingMonitor) IncConnectionReturned(host models.Host) {
	atomic.AddInt64(&m.countersFor(host).returned, 1)
}

// OperationSuccessCount is the pool-wide count of successful operations.
func (m *CountingMonitor) OperationSuccessCount() int64 {
	return atomic.LoadInt64(&m.operationSuccessCount)
}

// OperationFailureCount is the pool-wide count of failed attempts (not
// distinct operations — a retried operation contributes one failure per
// failed attempt).
func (m *CountingMonitor) OperationFailureCount() int64 {
	return atomic.LoadInt64(&m.operationFailureCount)
}

// ConnectionCreatedCount sums ConnectionsCreated across every host seen so far.
func (m *CountingMonitor) ConnectionCreatedCount() int64 {
	return m.sumField(func(c *hostCounters) int64 { return c.created })
}

// ConnectionClosedCount sums ConnectionsClosed across every host seen so far.
func (m *CountingMonitor) ConnectionClosedCount() int64 {
	return m.sumField(func(c *hostCounters) int64 { return c.closed })
}

// ConnectionBorrowedCount sums ConnectionsBorrowed across every host seen so far.
func (m *CountingMonitor) ConnectionBorrowedCount() int64 {
	return m.sumField(func(c *hostCounters) int64 { return c.borrowed })
}

// ConnectionReturnedCount sums ConnectionsReturned across every host seen so far.
func (m *CountingMonitor) ConnectionReturnedCount() int64 {
	return m.sumField(func(c *hostCounters) int64 { return c.returned })
}

func (m *CountingMonitor) sumField(f func(*hostCounters) int64) int64 {
	var total int64
	for item := range m.hosts.IterBuffered() {
		total += f(item.Val.(*hostCounters))
	}
	return total
}

// HostStatsFor snapshots the counters kept for a single host.
func (m *CountingMonitor) HostStatsFor(host models.Host) HostStats {
	c := m.countersFor(host)
	return HostStats{
		OperationSuccessCount:   atomic.LoadInt64(&c.operationSuccess),
		OperationErrorCount:     atomic.LoadInt64(&c.operationError),
		ConnectionsCreated:      atomic.LoadInt64(&c.created),
		ConnectionsCreateFailed: atomic.LoadInt64(&c.createFailed),
		ConnectionsClosed:       atomic.LoadInt64(&c.closed),
		ConnectionsBorrowed:     atomic.LoadInt64(&c.borrowed),
		ConnectionsReturned:     atomic.LoadInt64(&c.returned),
	}
}
