// Package migrations embeds the schema migrations for each supported driver.
package migrations

import "embed"

// Migration files are applied in filename order by db.MigrateUp.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
