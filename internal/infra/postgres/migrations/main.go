package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema migrations, registered by file name order.
var Migrations = migrate.NewMigrations()
