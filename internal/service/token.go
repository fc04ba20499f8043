package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionToken returns the scannable token identifying a session. It
// hashes a uuid, the current nanosecond clock and 16 bytes from crypto/rand,
// so the token is unguessable; the unique index on the sessions table turns
// any residual collision into a Conflict at insert.
func NewSessionToken() string {
	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		// A dead system RNG leaves tokens guessable; uuid.NewString panics
		// on the same condition.
		panic(fmt.Sprintf("session token entropy: %v", err))
	}
	raw := fmt.Sprintf("%s-%d-%s", uuid.NewString(), time.Now().UnixNano(), hex.EncodeToString(entropy))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
