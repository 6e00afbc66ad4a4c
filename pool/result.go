package pool

import (
	"time"

	"github.com/timiblossom/dyno/models"
)

// OperationResult is the opaque value object returned by a successful
// ExecuteWithFailover call. Its only contractual obligation is to carry the
// host that served the operation, the wall-clock latency from the caller's
// entry, and the number of attempts made; the Value shape is up to the
// Operation implementer.
type OperationResult struct {
	Host     models.Host
	Latency  time.Duration
	Attempts int
	Value    interface{}
}

// AsyncResult is delivered on the channel returned by ExecuteAsync.
type AsyncResult struct {
	Result OperationResult
	Err    error
}
