package cli

import (
	"fmt"

	actx "go.hackfix.me/sieve/app/context"
	api "go.hackfix.me/sieve/web/server/api/v1"
)

// The Routes command prints the API routes along with the permission required
// to call them.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	routes, err := api.Routes(appCtx, appCtx.Logger)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(routes))
	for _, r := range routes {
		perm := r.Permission
		if perm == "" {
			perm = "-"
		}
		data = append(data, []string{r.Method, api.Prefix + r.Path, perm, r.Summary})
	}

	header := []string{"Method", "Path", "Permission", "Summary"}
	if err = renderTable(appCtx.Stdout, header, data); err != nil {
		return fmt.Errorf("failed rendering routes table: %w", err)
	}

	return nil
}
