package common

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/sieve/crypto"
)

func TestDecodeToken(t *testing.T) {
	t.Parallel()

	secret, encoded, err := crypto.NewToken()
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		exp    []byte
		expErr string
	}{
		{name: "ok", token: encoded, exp: secret},
		{name: "err/empty", token: "", expErr: "empty token"},
		{name: "err/not_base58", token: "0OIl", expErr: "failed decoding token"},
		{name: "err/short", token: base58.Encode([]byte("short")), expErr: ErrInvalidToken.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeToken(tt.token)
			if tt.expErr != "" {
				require.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		exp    string
		expErr bool
	}{
		{name: "ok", header: "Bearer abc", exp: "abc"},
		{name: "ok/case_insensitive", header: "bearer abc ", exp: "abc"},
		{name: "err/missing", header: "", expErr: true},
		{name: "err/basic", header: "Basic dXNlcg==", expErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BearerToken(tt.header)
			if tt.expErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, got)
		})
	}
}
