// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS содержит схему контактов и пользователей.
//
//go:embed postgres/*.sql
var FS embed.FS

// Dir — каталог внутри FS, где лежат миграции.
const Dir = "postgres"
