package pool

import (
	"context"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"

	"github.com/timiblossom/dyno/models"
)

func TestRoundRobinSelectionNoHosts(t *testing.T) {
	s := newRoundRobinSelection()
	_, err := s.GetConnection(context.Background(), op{name: "x"}, time.Second)
	assert.Error(t, err)
	var noHosts *ErrNoAvailableHosts
	assert.ErrorAs(t, err, &noHosts)
}

func TestRoundRobinSelectionCyclesAcrossHosts(t *testing.T) {
	defer leaktest.Check(t)()

	s := newRoundRobinSelection()
	rec := newRecoveryExecutor()
	defer rec.Stop()

	var pools []*hostConnectionPool
	for i := 0; i < 3; i++ {
		host := models.NewHost("h", 9000+i)
		hp := newHostConnectionPool(host, &fakeFactory{}, NopMonitor{}, testConfig(), rec)
		assert.NoError(t, hp.PrimeConnections(context.Background()))
		s.AddHost(host, hp)
		pools = append(pools, hp)
	}
	defer func() {
		for _, hp := range pools {
			hp.Shutdown(context.Background())
		}
	}()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		conn, err := s.GetConnection(context.Background(), op{name: "x"}, time.Second)
		assert.NoError(t, err)
		assert.NotNil(t, conn.ParentPool())
		seen[conn.Host().String()] = true
		conn.ParentPool().ReturnConnection(conn)
	}
	assert.Len(t, seen, 3)
}

func TestRoundRobinSelectionSkipsExhaustedHost(t *testing.T) {
	defer leaktest.Check(t)()

	s := newRoundRobinSelection()
	rec := newRecoveryExecutor()
	defer rec.Stop()

	cfg := testConfig()
	cfg.ConnectionsPerHost = 1

	exhausted := models.NewHost("exhausted", 9000)
	hpExhausted := newHostConnectionPool(exhausted, &fakeFactory{}, NopMonitor{}, cfg, rec)
	assert.NoError(t, hpExhausted.PrimeConnections(context.Background()))
	// Drain the one connection so hpExhausted refuses further borrows.
	borrowed, err := hpExhausted.BorrowConnection(context.Background(), time.Second)
	assert.NoError(t, err)

	healthy := models.NewHost("healthy", 9001)
	hpHealthy := newHostConnectionPool(healthy, &fakeFactory{}, NopMonitor{}, cfg, rec)
	assert.NoError(t, hpHealthy.PrimeConnections(context.Background()))

	s.AddHost(exhausted, hpExhausted)
	s.AddHost(healthy, hpHealthy)
	defer hpExhausted.Shutdown(context.Background())
	defer hpHealthy.Shutdown(context.Background())
	defer hpExhausted.ReturnConnection(borrowed)

	conn, err := s.GetConnection(context.Background(), op{name: "x"}, 20*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, healthy, conn.Host())
}

func TestRoundRobinSelectionRemoveHost(t *testing.T) {
	s := newRoundRobinSelection()
	rec := newRecoveryExecutor()
	defer rec.Stop()

	host := models.NewHost("h", 9000)
	hp := newHostConnectionPool(host, &fakeFactory{}, NopMonitor{}, testConfig(), rec)
	assert.NoError(t, hp.PrimeConnections(context.Background()))
	defer hp.Shutdown(context.Background())

	s.AddHost(host, hp)
	s.RemoveHost(host, hp)

	_, err := s.GetConnection(context.Background(), op{name: "x"}, time.Second)
	assert.Error(t, err)
}
