package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"go.hackfix.me/sieve/crypto"
)

// ErrInvalidToken is returned for tokens that are malformed or have the wrong
// size.
var ErrInvalidToken = errors.New("invalid token")

// DecodeToken parses a base58 encoded API token and returns its secret.
func DecodeToken(token string) ([]byte, error) {
	if len(token) == 0 {
		return nil, errors.New("empty token")
	}

	secret, err := base58.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("failed decoding token: %w", err)
	}
	if len(secret) != crypto.TokenSize {
		return nil, ErrInvalidToken
	}

	return secret, nil
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header
// value.
func BearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}

	return strings.TrimSpace(token), nil
}
