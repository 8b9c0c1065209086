package platform

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const nameLength = 10

// NewID returns a random UUID string.
func NewID() string {
	return uuid.New().String()
}

// NewName returns a prefixed short identifier suitable for row keys,
// e.g. NewName("stask") -> "stask3kq0d8x1zf".
func NewName(prefix string) string {
	b := make([]byte, nameLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = nameAlphabet[b[i]%byte(len(nameAlphabet))]
	}
	return prefix + string(b)
}
