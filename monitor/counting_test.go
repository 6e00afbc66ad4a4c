package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/timiblossom/dyno/models"
)

func TestCountingMonitorTracksPoolWideCounts(t *testing.T) {
	m := NewCountingMonitor()
	host := models.NewHost("h", 1)

	m.IncOperationSuccess(host, time.Millisecond)
	m.IncOperationSuccess(host, time.Millisecond)
	m.IncOperationFailure(&host, assertErr("boom"))

	assert.Equal(t, int64(2), m.OperationSuccessCount())
	assert.Equal(t, int64(1), m.OperationFailureCount())
}

func TestCountingMonitorPerHostStats(t *testing.T) {
	m := NewCountingMonitor()
	a := models.NewHost("a", 1)
	b := models.NewHost("b", 1)

	m.IncConnectionCreated(a)
	m.IncConnectionCreated(a)
	m.IncConnectionCreated(b)
	m.IncConnectionBorrowed(a)
	m.IncConnectionReturned(a)

	statsA := m.HostStatsFor(a)
	statsB := m.HostStatsFor(b)

	assert.Equal(t, int64(2), statsA.ConnectionsCreated)
	assert.Equal(t, int64(1), statsA.ConnectionsBorrowed)
	assert.Equal(t, int64(1), statsA.ConnectionsReturned)
	assert.Equal(t, int64(1), statsB.ConnectionsCreated)

	assert.Equal(t, int64(3), m.ConnectionCreatedCount())
}

func TestCountingMonitorIncOperationFailureWithNilHostStillCountsPoolWide(t *testing.T) {
	m := NewCountingMonitor()
	m.IncOperationFailure(nil, assertErr("no host selected"))
	assert.Equal(t, int64(1), m.OperationFailureCount())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
