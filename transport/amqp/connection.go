package amqp

import (
	"context"
	"sync"
	"time"

	streadway "github.com/streadway/amqp"

	"github.com/timiblossom/dyno/models"
	"github.com/timiblossom/dyno/pool"
)

// Connection wraps one streadway/amqp broker connection and channel as a
// pool.Connection, the same pairing the teacher's ChannelHost/ConnectionHost
// split represents, collapsed into a single type since this package owns
// exactly one channel per connection.
type Connection struct {
	id       uint64
	host     models.Host
	parent   pool.HostConnectionPool
	cfg      Config
	observer pool.ConnectionObserver

	conn    *streadway.Connection
	channel *streadway.Channel

	closeNotify chan *streadway.Error

	mu      sync.Mutex
	lastErr error
}

// Open dials the broker and opens a channel on it.
func (c *Connection) Open(ctx context.Context) error {
	conn, err := dialAMQP(c.dialURI(), c.cfg)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.channel = channel
	c.closeNotify = make(chan *streadway.Error, 1)
	conn.NotifyClose(c.closeNotify)

	go c.watchClose()
	return nil
}

// watchClose records a broker-initiated close as a fatal connection error,
// reported to both this Connection's LastError and its observer.
func (c *Connection) watchClose() {
	amqpErr, ok := <-c.closeNotify
	if !ok || amqpErr == nil {
		return
	}
	fatal := pool.NewFatalConnectionError(amqpErr)
	c.setLastError(fatal)
	if c.observer != nil {
		c.observer.OnConnectionError(c.host, fatal)
	}
}

func (c *Connection) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// Execute runs op against this connection's AMQP channel and classifies any
// error into the pool's error taxonomy: a broker-initiated close is fatal,
// anything else is surfaced as a transient error. The classified error is
// returned to the caller for retry/eviction decisions, but it does not by
// itself mark this Connection for discard — LastError only ever reflects a
// death this connection's own transport reported via watchClose. An
// operation that merely throws fatal (the backend is unhealthy, not this
// specific socket) must not force a replacement connection to be born.
func (c *Connection) Execute(ctx context.Context, op pool.Operation) (pool.OperationResult, error) {
	start := time.Now()
	value, err := op.Execute(ctx, c.channel)
	if err != nil {
		return pool.OperationResult{Host: c.host}, c.classify(err)
	}
	return pool.OperationResult{
		Host:    c.host,
		Latency: time.Since(start),
		Value:   value,
	}, nil
}

// ExecuteAsync runs op in a goroutine and delivers exactly one AsyncResult.
func (c *Connection) ExecuteAsync(ctx context.Context, op pool.AsyncOperation) (<-chan pool.AsyncResult, error) {
	out := make(chan pool.AsyncResult, 1)
	go func() {
		start := time.Now()
		value, err := op.Execute(ctx, c.channel)
		if err != nil {
			out <- pool.AsyncResult{Err: c.classify(err)}
			return
		}
		out <- pool.AsyncResult{Result: pool.OperationResult{
			Host:    c.host,
			Latency: time.Since(start),
			Value:   value,
		}}
	}()
	return out, nil
}

// classify turns an arbitrary op error into a pool.DynoError. An
// *streadway.Error is always treated as fatal — the channel or connection
// is no longer usable — everything else is transient.
func (c *Connection) classify(err error) error {
	if _, ok := err.(*streadway.Error); ok {
		return pool.NewFatalConnectionError(err)
	}
	return pool.NewTransientError(err)
}

// Close closes the channel and the underlying broker connection.
func (c *Connection) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Host reports the host this connection is bound to.
func (c *Connection) Host() models.Host { return c.host }

// ParentPool is a pure lookup back-reference to the owning sub-pool.
func (c *Connection) ParentPool() pool.HostConnectionPool { return c.parent }

// LastError reports the most recently observed error on this connection.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
