package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostString(t *testing.T) {
	h := NewHost("db-1.internal", 9042)
	assert.Equal(t, "db-1.internal:9042", h.String())
}

func TestHostEqualsIgnoresRack(t *testing.T) {
	a := Host{Hostname: "db-1", Port: 9042, Rack: "us-east-1a"}
	b := Host{Hostname: "db-1", Port: 9042, Rack: "us-east-1b"}
	assert.True(t, a.Equals(b))
}

func TestHostEqualsDiffersOnPort(t *testing.T) {
	a := NewHost("db-1", 9042)
	b := NewHost("db-1", 9043)
	assert.False(t, a.Equals(b))
}
