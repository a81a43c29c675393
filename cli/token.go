package cli

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/sieve/app/context"
	aerrors "go.hackfix.me/sieve/app/errors"
	"go.hackfix.me/sieve/crypto"
	"go.hackfix.me/sieve/db/models"
	"go.hackfix.me/sieve/web/server/middleware"
)

// The Token command manages API tokens.
type Token struct {
	Add struct {
		Name string `arg:"" help:"Unique name of the token."`
		Role string `enum:"${roles}" default:"reader" help:"Role assigned to the token. Valid values: ${enum}"`
		//nolint:lll // Long struct tags are unavoidable.
		Expiration   time.Time `type:"expiration" xor:"expiration" help:"Token expiration, either as a duration relative to now or an RFC 3339 timestamp (e.g. 1h, 7d, 1M or %s). Default: configured token.expiration, or 30d."`
		NoExpiration bool      `help:"Create a token that never expires." xor:"expiration"`
	} `kong:"cmd,help='Create a new API token. The token is only shown once.'"`
	Rm struct {
		Name string `arg:"" help:"Name of the token to remove."`
	} `kong:"cmd,help='Remove an API token.'"`
	Ls struct{} `kong:"cmd,help='List API tokens.'"`
}

// Run the token command.
func (c *Token) Run(kctx *kong.Context, appCtx *actx.Context) error {
	if err := requireInit(appCtx); err != nil {
		return err
	}

	dbCtx := appCtx.DB.NewContext()

	switch kctx.Command() {
	case "token add <name>":
		if !middleware.ValidRole(c.Add.Role) {
			return fmt.Errorf("invalid role '%s'", c.Add.Role)
		}

		secret, encoded, err := crypto.NewToken()
		if err != nil {
			return err
		}

		token := &models.Token{
			Name: c.Add.Name,
			Role: c.Add.Role,
			Hash: crypto.HashToken(secret),
		}
		switch {
		case c.Add.NoExpiration:
		case !c.Add.Expiration.IsZero():
			token.ExpiresAt = sql.Null[time.Time]{V: c.Add.Expiration.UTC(), Valid: true}
		default:
			exp := appCtx.TimeNow().UTC().Add(appCtx.Config.Token.Expiration.V)
			token.ExpiresAt = sql.Null[time.Time]{V: exp, Valid: true}
		}

		if err = token.Save(dbCtx, appCtx.DB); err != nil {
			return aerrors.New("failed creating token", err)
		}

		_, err = fmt.Fprintf(appCtx.Stdout, "%s\n", encoded)
		if err != nil {
			return fmt.Errorf("failed writing token: %w", err)
		}
	case "token rm <name>":
		token := &models.Token{Name: c.Rm.Name}
		if err := token.Delete(dbCtx, appCtx.DB); err != nil {
			return aerrors.New("failed removing token", err)
		}
	case "token ls":
		tokens, err := models.Tokens(dbCtx, appCtx.DB, nil)
		if err != nil {
			return err
		}

		now := appCtx.TimeNow()
		data := make([][]string, 0, len(tokens))
		for _, t := range tokens {
			expires := "never"
			if t.ExpiresAt.Valid {
				expires = t.ExpiresAt.V.Format(time.RFC3339)
				if t.IsExpired(now) {
					expires += " (expired)"
				}
			}
			data = append(data, []string{
				t.Name, t.Role, t.CreatedAt.Format(time.RFC3339), expires,
			})
		}

		header := []string{"Name", "Role", "Created", "Expires"}
		if err = renderTable(appCtx.Stdout, header, data); err != nil {
			return fmt.Errorf("failed rendering tokens table: %w", err)
		}
	}

	return nil
}
