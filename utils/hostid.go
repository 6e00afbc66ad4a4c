package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/timiblossom/dyno/models"
)

// HostFingerprint returns a short, stable identifier for host, used as a
// log correlation tag on pool lifecycle events (priming failures, eviction).
// It is never used for placement or routing decisions — this pool does not
// hash-route operations to hosts.
func HostFingerprint(host models.Host) string {
	sum := blake2b.Sum256([]byte(host.String()))
	return hex.EncodeToString(sum[:8])
}
