package pool

import "context"

// Operation is a unit of work a caller submits to ExecuteWithFailover. It
// collapses what would otherwise be reflection/dynamic dispatch over
// arbitrary backend calls into a single small capability: run against
// whatever client value the Connection hands you, and return a value or an
// error.
type Operation interface {
	// Execute runs the operation against the connection's underlying client.
	Execute(ctx context.Context, client interface{}) (interface{}, error)
	// Name is a human-readable label, used only for logging/metrics.
	Name() string
	// Key optionally identifies the logical target of the operation (e.g. a
	// shard key). It is informational only here — this pool does not route
	// on it.
	Key() string
}

// AsyncOperation is the async counterpart of Operation.
type AsyncOperation interface {
	Execute(ctx context.Context, client interface{}) (interface{}, error)
	Name() string
	Key() string
}

// OperationFunc adapts a plain function to the Operation interface, the same
// way http.HandlerFunc adapts a function to http.Handler.
type OperationFunc struct {
	Fn     func(ctx context.Context, client interface{}) (interface{}, error)
	OpName string
	OpKey  string
}

// Execute calls Fn.
func (f OperationFunc) Execute(ctx context.Context, client interface{}) (interface{}, error) {
	return f.Fn(ctx, client)
}

// Name returns OpName.
func (f OperationFunc) Name() string { return f.OpName }

// Key returns OpKey.
func (f OperationFunc) Key() string { return f.OpKey }

// AsyncOperationFunc adapts a plain function to the AsyncOperation interface.
type AsyncOperationFunc struct {
	Fn     func(ctx context.Context, client interface{}) (interface{}, error)
	OpName string
	OpKey  string
}

// Execute calls Fn.
func (f AsyncOperationFunc) Execute(ctx context.Context, client interface{}) (interface{}, error) {
	return f.Fn(ctx, client)
}

// Name returns OpName.
func (f AsyncOperationFunc) Name() string { return f.OpName }

// Key returns OpKey.
func (f AsyncOperationFunc) Key() string { return f.OpKey }
