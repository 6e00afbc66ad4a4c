package models

import "fmt"

// Host identifies a single backend endpoint by hostname and port. Two Hosts
// are the same host iff both fields match.
type Host struct {
	Hostname string
	Port     int

	// Rack is optional placement metadata carried alongside the host. It is
	// never used for routing decisions here (see Non-goals).
	Rack string
}

// NewHost builds a Host from its identity tuple.
func NewHost(hostname string, port int) Host {
	return Host{Hostname: hostname, Port: port}
}

// String returns the canonical "hostname:port" form, used as the map key for
// the top-level host table and for log/metric correlation.
func (h Host) String() string {
	return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
}

// Equals reports whether two hosts share the same identity tuple.
func (h Host) Equals(other Host) bool {
	return h.Hostname == other.Hostname && h.Port == other.Port
}
