package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/timiblossom/dyno/models"
)

// HostSelectionStrategy picks an active host pool for the next operation.
type HostSelectionStrategy interface {
	AddHost(host models.Host, hostPool HostConnectionPool)
	RemoveHost(host models.Host, hostPool HostConnectionPool)
	GetConnection(ctx context.Context, op Operation, timeout time.Duration) (Connection, error)
}

type selectionEntry struct {
	host models.Host
	pool HostConnectionPool
}

// roundRobinSelection maintains a monotonically increasing counter and an
// immutable snapshot slice of the currently active host pools. Reads never
// take a lock: AddHost/RemoveHost install a fresh slice via an atomic
// pointer swap, so a selection in flight always sees one consistent
// snapshot, whether or not it is the latest.
type roundRobinSelection struct {
	counter uint64 // atomic
	entries atomic.Pointer[[]selectionEntry]
}

func newRoundRobinSelection() *roundRobinSelection {
	s := &roundRobinSelection{}
	empty := make([]selectionEntry, 0)
	s.entries.Store(&empty)
	return s
}

// AddHost installs host/hostPool into the snapshot, replacing any existing
// entry for the same host.
func (s *roundRobinSelection) AddHost(host models.Host, hostPool HostConnectionPool) {
	for {
		oldPtr := s.entries.Load()
		old := *oldPtr
		next := make([]selectionEntry, 0, len(old)+1)
		for _, e := range old {
			if !e.host.Equals(host) {
				next = append(next, e)
			}
		}
		next = append(next, selectionEntry{host: host, pool: hostPool})
		if s.entries.CompareAndSwap(oldPtr, &next) {
			return
		}
	}
}

// RemoveHost removes host from the snapshot.
func (s *roundRobinSelection) RemoveHost(host models.Host, hostPool HostConnectionPool) {
	for {
		oldPtr := s.entries.Load()
		old := *oldPtr
		next := make([]selectionEntry, 0, len(old))
		for _, e := range old {
			if !e.host.Equals(host) {
				next = append(next, e)
			}
		}
		if s.entries.CompareAndSwap(oldPtr, &next) {
			return
		}
	}
}

// GetConnection snapshots the current active host pools, picks a start
// index from a monotonically increasing counter, and tries borrowing from
// pools in round-robin order starting there until one succeeds or all have
// been tried. timeout bounds the whole selection, not each attempt: it is
// converted into a deadline up front and divided evenly across the
// candidate pools, so a borrow from host 1 of L can never eat host L's
// share and leave the overall call blocking for L times the caller's
// requested timeout.
func (s *roundRobinSelection) GetConnection(ctx context.Context, op Operation, timeout time.Duration) (Connection, error) {
	snapshot := *s.entries.Load()
	l := len(snapshot)
	if l == 0 {
		return nil, NewNoAvailableHostsError()
	}

	start := int(atomic.AddUint64(&s.counter, 1) % uint64(l))
	deadline := time.Now().Add(timeout)
	perAttempt := timeout / time.Duration(l)

	var lastErr error
	for i := 0; i < l; i++ {
		entry := snapshot[(start+i)%l]

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr == nil {
				lastErr = NewPoolExhaustedError(entry.host.String())
			}
			break
		}
		attemptTimeout := perAttempt
		if attemptTimeout > remaining {
			attemptTimeout = remaining
		}

		conn, err := entry.pool.BorrowConnection(ctx, attemptTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = NewNoAvailableHostsError()
	}
	return nil, lastErr
}
