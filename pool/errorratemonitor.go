package pool

import (
	"sync"
	"time"

	"github.com/timiblossom/dyno/models"
)

// ErrorRateMonitor is a per-host sliding window of 1-second error-count
// buckets. TrackErrorRate reports true the moment any configured rule fires.
type ErrorRateMonitor struct {
	mu sync.Mutex

	windowSeconds int
	buckets       []int64 // ring buffer, one slot per second of the window
	bucketStart   time.Time
	bucketIndex   int

	rules []*rule

	now func() time.Time
}

type rule struct {
	threshold      int64
	duration       time.Duration
	suppressWindow time.Duration
	suppressedTill time.Time
}

// NewErrorRateMonitor builds an ErrorRateMonitor from the given config. A
// config with no thresholds never fires.
func NewErrorRateMonitor(cfg models.ErrorCheckConfig) *ErrorRateMonitor {
	windowSeconds := int(cfg.Window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	rules := make([]*rule, 0, len(cfg.Thresholds))
	for _, t := range cfg.Thresholds {
		suppress := cfg.SuppressWindow
		if t.Repeat > 0 {
			suppress = t.Repeat
		}
		rules = append(rules, &rule{
			threshold:      int64(t.Count),
			duration:       t.Duration,
			suppressWindow: suppress,
		})
	}

	return &ErrorRateMonitor{
		windowSeconds: windowSeconds,
		buckets:       make([]int64, windowSeconds),
		bucketStart:   time.Now(),
		rules:         rules,
		now:           time.Now,
	}
}

// advance rotates the ring buffer forward to the current second, zeroing any
// buckets that have aged out.
func (m *ErrorRateMonitor) advance(now time.Time) {
	elapsed := int(now.Sub(m.bucketStart) / time.Second)
	if elapsed <= 0 {
		return
	}
	n := len(m.buckets)
	if elapsed >= n {
		for i := range m.buckets {
			m.buckets[i] = 0
		}
		m.bucketIndex = 0
	} else {
		for i := 1; i <= elapsed; i++ {
			idx := (m.bucketIndex + i) % n
			m.buckets[idx] = 0
		}
		m.bucketIndex = (m.bucketIndex + elapsed) % n
	}
	m.bucketStart = m.bucketStart.Add(time.Duration(elapsed) * time.Second)
}

// sum totals the buckets covering the last `seconds` seconds, including the
// current one.
func (m *ErrorRateMonitor) sum(seconds int) int64 {
	n := len(m.buckets)
	if seconds > n {
		seconds = n
	}
	var total int64
	for i := 0; i < seconds; i++ {
		idx := (m.bucketIndex - i + n) % n
		total += m.buckets[idx]
	}
	return total
}

// TrackErrorRate records n errors against the current bucket and evaluates
// every rule. It returns true if any rule fires on this event.
func (m *ErrorRateMonitor) TrackErrorRate(n int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.advance(now)
	m.buckets[m.bucketIndex] += n

	fired := false
	for _, r := range m.rules {
		if now.Before(r.suppressedTill) {
			continue
		}
		seconds := int(r.duration / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		if m.sum(seconds) > r.threshold {
			r.suppressedTill = now.Add(r.suppressWindow)
			fired = true
		}
	}
	return fired
}
