// Package migrations embeds the goose SQL migrations for the postgres
// backed collaborators.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
