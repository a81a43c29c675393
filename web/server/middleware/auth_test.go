package middleware

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/sieve/crypto"
	"go.hackfix.me/sieve/db"
	"go.hackfix.me/sieve/db/models"
	"go.hackfix.me/sieve/web/server/handler"
)

var timeNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	d, err := db.Open(context.Background(), path, func() time.Time { return timeNow })
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Init("test", slog.New(slog.NewTextHandler(io.Discard, nil))))

	return d
}

func addToken(t *testing.T, d *db.DB, name, role string, expiresAt time.Time) string {
	t.Helper()

	secret, encoded, err := crypto.NewToken()
	require.NoError(t, err)

	tok := &models.Token{Name: name, Role: role, Hash: crypto.HashToken(secret)}
	if !expiresAt.IsZero() {
		tok.ExpiresAt = sql.Null[time.Time]{V: expiresAt, Valid: true}
	}
	require.NoError(t, tok.Save(context.Background(), d))

	return encoded
}

func TestTokenAuthorize(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	reader := addToken(t, d, "reader", "reader", timeNow.Add(time.Hour))
	writer := addToken(t, d, "writer", "writer", time.Time{})
	admin := addToken(t, d, "admin", "admin", time.Time{})
	expired := addToken(t, d, "expired", "admin", timeNow.Add(-time.Hour))
	unknownRole := addToken(t, d, "bogus", "bogus", time.Time{})
	_, unsaved, err := crypto.NewToken()
	require.NoError(t, err)

	pipeline := handler.NewPipeline(
		handler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		handler.WithServerErrorHandler(handler.ErrorResponder(handler.ErrorLevelMinimal)),
	).Use(TokenAuth(d))

	okFn := func(_ *http.Request, c *handler.Context) (*handler.Response, error) {
		tok, _ := handler.Value[*models.Token](c, TokenKey)
		return handler.Text(http.StatusOK, tok.Name), nil
	}
	read := pipeline.Use(Authorize(ActionRead, "notes")).Handler(okFn)
	del := pipeline.Use(Authorize(ActionDelete, "notes")).Handler(okFn)
	write := pipeline.Use(Authorize(ActionWrite, "notes")).Handler(okFn)

	tests := []struct {
		name      string
		h         *handler.Handler
		authz     string
		expStatus int
		expBody   string
	}{
		{name: "ok/reader_read", h: read, authz: "Bearer " + reader, expStatus: 200, expBody: "reader"},
		{name: "ok/writer_write", h: write, authz: "Bearer " + writer, expStatus: 200, expBody: "writer"},
		{name: "ok/admin_delete", h: del, authz: "Bearer " + admin, expStatus: 200, expBody: "admin"},
		{name: "err/reader_write", h: write, authz: "Bearer " + reader, expStatus: 403},
		{name: "err/writer_delete", h: del, authz: "Bearer " + writer, expStatus: 403},
		{name: "err/unknown_role", h: read, authz: "Bearer " + unknownRole, expStatus: 403},
		{name: "err/expired", h: read, authz: "Bearer " + expired, expStatus: 401},
		{name: "err/unknown_token", h: read, authz: "Bearer " + unsaved, expStatus: 401},
		{name: "err/malformed_token", h: read, authz: "Bearer abc", expStatus: 401},
		{name: "err/missing_header", h: read, authz: "", expStatus: 401},
		{name: "err/wrong_scheme", h: read, authz: "Basic " + admin, expStatus: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}

			resp := tt.h.Serve(req, handler.RouteContext{})
			assert.Equal(t, tt.expStatus, resp.StatusCode)
			if tt.expBody != "" {
				assert.Equal(t, tt.expBody, string(resp.Body))
			}
		})
	}
}

func TestAuthorizeWithoutToken(t *testing.T) {
	t.Parallel()

	mw := Authorize(ActionRead, "notes")
	_, err := mw(httptest.NewRequest(http.MethodGet, "/", nil), &handler.Context{Data: handler.Data{}})

	var herr *handler.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnauthorized, herr.StatusCode)
}

func TestRoles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"admin", "reader", "writer"}, Roles())
	assert.True(t, ValidRole("writer"))
	assert.False(t, ValidRole("root"))
}
