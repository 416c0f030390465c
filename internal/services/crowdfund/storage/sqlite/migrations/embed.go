package migrations

import "embed"

// FS holds the crowdfund schema migrations.
//
//go:embed *.sql
var FS embed.FS
