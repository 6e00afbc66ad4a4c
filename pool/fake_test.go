package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/timiblossom/dyno/models"
)

// fakeConnection is an in-memory pool.Connection used by this package's own
// tests, standing in for a real wire-protocol client the same way the
// teacher's tests stand in a real AMQP broker with a local one.
type fakeConnection struct {
	host   models.Host
	parent HostConnectionPool

	mu       sync.Mutex
	lastErr  error
	closed   bool
	openErr  error
	execFunc func(ctx context.Context, op Operation) (OperationResult, error)
}

func (c *fakeConnection) Open(ctx context.Context) error { return c.openErr }

// Execute mirrors transport/amqp's Connection.Execute: an error returned by
// the operation is reported to the caller for retry/eviction purposes, but
// never recorded as this connection's own LastError. Only a direct call to
// setLastError (simulating a transport-detected death, the way watchClose
// does for a real broker-initiated close) marks this connection for
// discard on return.
func (c *fakeConnection) Execute(ctx context.Context, op Operation) (OperationResult, error) {
	if c.execFunc != nil {
		return c.execFunc(ctx, op)
	}
	val, err := op.Execute(ctx, c)
	if err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Host: c.host, Value: val}, nil
}

func (c *fakeConnection) ExecuteAsync(ctx context.Context, op AsyncOperation) (<-chan AsyncResult, error) {
	out := make(chan AsyncResult, 1)
	val, err := op.Execute(ctx, c)
	if err != nil {
		out <- AsyncResult{Err: err}
	} else {
		out <- AsyncResult{Result: OperationResult{Host: c.host, Value: val}}
	}
	return out, nil
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConnection) Host() models.Host             { return c.host }
func (c *fakeConnection) ParentPool() HostConnectionPool { return c.parent }

func (c *fakeConnection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *fakeConnection) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeFactory mints fakeConnections. createErr, when set, is returned for
// every CreateConnection call instead of a connection, letting a test
// simulate a host that refuses to come up at all.
type fakeFactory struct {
	createErr error
	openErr   error
	execFunc  func(ctx context.Context, op Operation) (OperationResult, error)
	created   int64 // atomic
}

func (f *fakeFactory) CreateConnection(ctx context.Context, hostPool HostConnectionPool, observer ConnectionObserver) (Connection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	atomic.AddInt64(&f.created, 1)
	return &fakeConnection{host: hostPool.Host(), parent: hostPool, openErr: f.openErr, execFunc: f.execFunc}, nil
}

// op is a minimal pool.Operation for tests.
type op struct {
	name string
	key  string
	fn   func(ctx context.Context, client interface{}) (interface{}, error)
}

func (o op) Execute(ctx context.Context, client interface{}) (interface{}, error) {
	if o.fn != nil {
		return o.fn(ctx, client)
	}
	return "ok", nil
}
func (o op) Name() string { return o.name }
func (o op) Key() string  { return o.key }
