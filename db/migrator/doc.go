// Package migrator manages database schema migrations.
//
// Migrations are SQL files in goose format (`{version}_{name}.sql`, with
// `-- +goose Up` and `-- +goose Down` sections), usually loaded from an
// embedded filesystem. Applied versions are tracked in the goose version table.
package migrator
