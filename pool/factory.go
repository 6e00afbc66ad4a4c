package pool

import "context"

// ConnectionFactory produces a Connection bound to a host sub-pool. It is the
// sole seam between this package and any real wire protocol / physical
// socket handshake — this package never dials anything itself. See
// transport/amqp for a concrete reference implementation.
type ConnectionFactory interface {
	CreateConnection(ctx context.Context, hostPool HostConnectionPool, observer ConnectionObserver) (Connection, error)
}
