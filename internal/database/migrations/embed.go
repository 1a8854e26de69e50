package migrations

import "embed"

// FS holds the goose SQL migrations for the tables the workflows write
// through the data store.
//
//go:embed *.sql
var FS embed.FS
