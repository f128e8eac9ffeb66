// Package migrations embeds and applies the arena schema.
package migrations

import "embed"

// PostgresFS embeds the ledger schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the notification store schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
