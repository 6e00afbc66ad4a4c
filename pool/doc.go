// Package pool implements the coordination fabric of a client-side,
// sharded connection pool with automatic failover: host tracking, per-host
// bounded sub-pools, round-robin selection, retry-driven failover, and
// passive eviction on a sliding error rate. Wire protocol, physical sockets,
// and metric sinks are external collaborators reached through
// ConnectionFactory and Monitor.
//
// Two behaviors are preserved deliberately rather than "fixed":
//
//   - ExecuteAsync returns the borrowed connection to its sub-pool right
//     after dispatch, before the async operation's result is known
//     (ConnectionPool.ReturnAsyncEarly, default true). This means an async
//     connection is not held exclusively for the duration of the operation;
//     either the underlying client multiplexes safely over a single
//     connection or this is latent double-use. Flip ReturnAsyncEarly to
//     false to hold the connection until completion instead.
//   - Start and UpdateHosts return a channel that is already populated on
//     return rather than a true future. Treat it as "ready on return," not
//     as richer async plumbing.
package pool
