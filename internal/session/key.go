package session

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// DefaultTTL is how long a CRM session stays cached.
const DefaultTTL = 60 * time.Minute

// Key derives the opaque cache key for a set of CRM credentials. The digest is
// keyed with secret, so the key reveals nothing about the credentials without
// it.
func Key(secret []byte, username, password string) string {
	if len(secret) > blake2b.Size {
		sum := blake2b.Sum512(secret)
		secret = sum[:]
	}
	h, err := blake2b.New256(secret)
	if err != nil {
		// unreachable: secret is at most blake2b.Size bytes
		panic(err)
	}
	h.Write([]byte(username))
	h.Write([]byte{0})
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}
