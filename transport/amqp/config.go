package amqp

import "time"

// TLSConfig mirrors the physical socket / handshake concerns this package
// keeps behind the pool.ConnectionFactory seam — the core pool package never
// sees any of this.
type TLSConfig struct {
	EnableTLS         bool
	PEMCertLocation   string
	LocalCertLocation string
	CertServerName    string
}

// Config configures how Factory dials each host's broker connections.
type Config struct {
	Username          string
	Password          string
	VHost             string
	ConnectionName    string
	Heartbeat         time.Duration
	ConnectionTimeout time.Duration
	TLS               *TLSConfig
}

// DefaultConfig mirrors the teacher's sane defaults: a short heartbeat and
// connection timeout, guest credentials, and no TLS.
func DefaultConfig() Config {
	return Config{
		Username:          "guest",
		Password:          "guest",
		VHost:             "/",
		ConnectionName:    "dyno",
		Heartbeat:         10 * time.Second,
		ConnectionTimeout: 5 * time.Second,
	}
}
