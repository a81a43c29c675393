package cli

import (
	"fmt"

	actx "go.hackfix.me/sieve/app/context"
	aerrors "go.hackfix.me/sieve/app/errors"
)

// The Init command creates the sieve database.
type Init struct{}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context) error {
	if appCtx.VersionInit != "" {
		return aerrors.New(
			fmt.Sprintf("sieve is already initialized with version %s", appCtx.VersionInit), nil,
			"hint", "Remove the database file in the data directory to start over.")
	}

	err := appCtx.DB.Init(appCtx.Version.Semantic, appCtx.Logger)
	if err != nil {
		return aerrors.New("failed initializing database", err)
	}
	appCtx.VersionInit = appCtx.Version.Semantic

	return nil
}

func requireInit(appCtx *actx.Context) error {
	if appCtx.VersionInit == "" {
		return aerrors.New("sieve is not initialized", nil,
			"hint", "Run 'sieve init' to create the database.")
	}

	return nil
}
