package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"sort"

	"github.com/zpatrick/rbac"

	"go.hackfix.me/sieve/db/models"
	"go.hackfix.me/sieve/web/server/handler"
)

// Actions performed on API resources.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// roles maps role names to their permissions on API resources.
var roles = map[string]rbac.Role{
	"reader": {
		RoleID: "reader",
		Permissions: []rbac.Permission{
			rbac.NewGlobPermission(ActionRead, "*"),
		},
	},
	"writer": {
		RoleID: "writer",
		Permissions: []rbac.Permission{
			rbac.NewGlobPermission(ActionRead, "*"),
			rbac.NewGlobPermission(ActionWrite, "*"),
		},
	},
	"admin": {
		RoleID: "admin",
		Permissions: []rbac.Permission{
			rbac.NewGlobPermission("*", "*"),
		},
	},
}

// Roles returns the names of all roles that can be assigned to tokens.
func Roles() []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ValidRole returns true if name is a role that can be assigned to tokens.
func ValidRole(name string) bool {
	return slices.Contains(Roles(), name)
}

// Authorize returns a route middleware that checks whether the role of the
// authenticated token is allowed to perform action on target. It must run
// after TokenAuth. Denied requests are rejected with 403 Forbidden.
func Authorize(action, target string) handler.Middleware {
	return func(_ *http.Request, c *handler.Context) (handler.Data, error) {
		token, ok := handler.Value[*models.Token](c, TokenKey)
		if !ok || token == nil {
			return nil, handler.NewError(http.StatusUnauthorized, "Unauthorized")
		}

		role, ok := roles[token.Role]
		if !ok {
			return nil, handler.NewError(http.StatusForbidden,
				fmt.Sprintf("Unknown role '%s'", token.Role))
		}

		allowed, err := role.Can(action, target)
		if err != nil {
			return nil, fmt.Errorf("failed checking permissions: %w", err)
		}
		if !allowed {
			return nil, handler.NewError(http.StatusForbidden,
				fmt.Sprintf("Role '%s' is not allowed to %s %s", role.RoleID, action, target))
		}

		return nil, nil
	}
}
