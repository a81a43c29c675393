package middleware

import (
	"errors"
	"net/http"

	"go.hackfix.me/sieve/crypto"
	"go.hackfix.me/sieve/db/models"
	"go.hackfix.me/sieve/db/types"
	"go.hackfix.me/sieve/web/common"
	"go.hackfix.me/sieve/web/server/handler"
)

// TokenKey is the handler.Context data key of the authenticated API token.
const TokenKey = "token"

// TokenAuth returns a route middleware that authenticates requests with an
// "Authorization: Bearer <token>" header. The token is looked up by the hash
// of its secret, and must not be expired. The loaded *models.Token is
// contributed under TokenKey.
//
// If this fails, the request is rejected with 401 Unauthorized.
func TokenAuth(d types.Querier) handler.Middleware {
	return handler.Provide(TokenKey, func(r *http.Request, _ *handler.Context) (*models.Token, error) {
		encoded, err := common.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			return nil, unauthorized(err)
		}

		secret, err := common.DecodeToken(encoded)
		if err != nil {
			return nil, unauthorized(err)
		}

		token := &models.Token{Hash: crypto.HashToken(secret)}
		if err = token.Load(r.Context(), d); err != nil {
			if errors.As(err, &types.NoResultError{}) {
				return nil, unauthorized(common.ErrInvalidToken)
			}
			return nil, err
		}

		if token.IsExpired(d.TimeNow()) {
			return nil, unauthorized(errors.New("token expired"))
		}

		return token, nil
	})
}

func unauthorized(err error) *handler.Error {
	return handler.WrapError(http.StatusUnauthorized, "Unauthorized", err)
}
