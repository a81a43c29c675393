// Package crypto generates and hashes API tokens.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// TokenSize is the amount of random bytes in an API token.
const TokenSize = 32

// RandomData returns size bytes read from the system CSPRNG.
func RandomData(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New("size cannot be negative")
	}

	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("failed generating random data: %w", err)
	}

	return data, nil
}

// NewToken generates a new API token. It returns the raw secret, which is only
// stored as a hash, and its base58 encoding handed out to clients.
func NewToken() (secret []byte, encoded string, err error) {
	secret, err = RandomData(TokenSize)
	if err != nil {
		return nil, "", err
	}

	return secret, base58.Encode(secret), nil
}

// HashToken returns the BLAKE2b-256 hash of a token secret.
func HashToken(secret []byte) []byte {
	sum := blake2b.Sum256(secret)
	return sum[:]
}
